package repository

import (
	"context"

	"gorm.io/gorm"

	"purbeurre_dev_v1/internal/model"
)

// ==================== 接口定义 ====================

// FavoriteRepository 收藏仓储接口
type FavoriteRepository interface {
	// Save 保存收藏，同一用户对同一产品重复收藏不报错
	Save(ctx context.Context, userID, productID int64) error
	Delete(ctx context.Context, userID, productID int64) error
	// ListProductsByUser 返回用户收藏的产品列表
	ListProductsByUser(ctx context.Context, userID int64) ([]model.Product, error)
}

// ==================== 仓储实现 ====================

type favoriteRepo struct {
	db *gorm.DB
}

// NewFavoriteRepository 创建收藏仓储
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepo{db: db}
}

func (r *favoriteRepo) Save(ctx context.Context, userID, productID int64) error {
	favorite := model.Favorite{UserID: userID, ProductID: productID}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		FirstOrCreate(&favorite).Error
}

func (r *favoriteRepo) Delete(ctx context.Context, userID, productID int64) error {
	return r.db.WithContext(ctx).
		Unscoped().
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{}).Error
}

func (r *favoriteRepo) ListProductsByUser(ctx context.Context, userID int64) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Joins("JOIN favorites f ON f.product_id = products.id").
		Where("f.user_id = ? AND f.deleted_at IS NULL", userID).
		Order("f.created_at DESC").
		Find(&products).Error
	return products, err
}
