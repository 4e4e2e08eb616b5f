package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"purbeurre_dev_v1/internal/model"
	"purbeurre_dev_v1/internal/repository"
)

// ==================== 错误定义 ====================

var (
	// ErrEmptyMessage 评论内容为空
	ErrEmptyMessage = errors.New("评论内容不能为空")
)

// ==================== 服务实现 ====================

// CatalogService 目录读服务：搜索、替代品、详情、收藏、评论
// HTTP 层由外部协作方负责，这里只暴露业务操作
type CatalogService struct {
	productRepo  repository.ProductRepository
	commentRepo  repository.CommentRepository
	favoriteRepo repository.FavoriteRepository
}

// NewCatalogService 创建目录读服务
func NewCatalogService(
	productRepo repository.ProductRepository,
	commentRepo repository.CommentRepository,
	favoriteRepo repository.FavoriteRepository,
) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		commentRepo:  commentRepo,
		favoriteRepo: favoriteRepo,
	}
}

// SearchProducts 按名称模糊搜索产品（分页）
func (s *CatalogService) SearchProducts(ctx context.Context, keyword string, page, pageSize int) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, repository.ProductFilter{
		Keyword:  keyword,
		Page:     page,
		PageSize: pageSize,
	})
}

// FindSubstitutes 查找替代品
// 先按名称定位产品，再在其所属类目中找评分严格更优的产品，评分从优到差排列
// 未找到匹配产品时返回 (nil, nil, nil)
func (s *CatalogService) FindSubstitutes(ctx context.Context, name string) (*model.Product, []model.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil, nil
	}

	product, err := s.productRepo.SearchByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("查找产品失败: %w", err)
	}

	categoryIDs := make([]int64, 0, len(product.Categories))
	for _, c := range product.Categories {
		categoryIDs = append(categoryIDs, c.ID)
	}

	substitutes, err := s.productRepo.ListBetterInCategories(ctx, categoryIDs, product.NutriScore, product.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("查找替代品失败: %w", err)
	}

	return product, substitutes, nil
}

// ProductDetails 产品详情，含类目与营养成分含量
func (s *CatalogService) ProductDetails(ctx context.Context, id int64) (*model.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// SaveFavorite 收藏产品，重复收藏幂等
func (s *CatalogService) SaveFavorite(ctx context.Context, userID, productID int64) error {
	// 产品必须存在，收藏悬空 ID 没有意义
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return fmt.Errorf("产品不存在: %w", err)
	}
	return s.favoriteRepo.Save(ctx, userID, productID)
}

// RemoveFavorite 取消收藏
func (s *CatalogService) RemoveFavorite(ctx context.Context, userID, productID int64) error {
	return s.favoriteRepo.Delete(ctx, userID, productID)
}

// ListFavorites 用户收藏的产品列表
func (s *CatalogService) ListFavorites(ctx context.Context, userID int64) ([]model.Product, error) {
	return s.favoriteRepo.ListProductsByUser(ctx, userID)
}

// AddComment 发表评论，默认未审核，审核通过前不对外展示
func (s *CatalogService) AddComment(ctx context.Context, userID, productID int64, message string) (*model.Comment, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := s.productRepo.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("产品不存在: %w", err)
	}

	comment := &model.Comment{
		UserID:    userID,
		ProductID: productID,
		Message:   message,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("评论保存失败: %w", err)
	}
	return comment, nil
}

// ListComments 产品的公开评论（仅审核通过）
func (s *CatalogService) ListComments(ctx context.Context, productID int64) ([]model.Comment, error) {
	return s.commentRepo.ListValidatedByProduct(ctx, productID)
}
