package repository

import (
	"context"

	"gorm.io/gorm"

	"purbeurre_dev_v1/internal/model"
)

// ==================== 接口定义 ====================

// CommentRepository 评论仓储接口
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	// ListValidatedByProduct 只返回审核通过的评论，按创建时间正序
	ListValidatedByProduct(ctx context.Context, productID int64) ([]model.Comment, error)
	CountByProduct(ctx context.Context, productID int64) (int64, error)
}

// ==================== 仓储实现 ====================

type commentRepo struct {
	db *gorm.DB
}

// NewCommentRepository 创建评论仓储
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *commentRepo) ListValidatedByProduct(ctx context.Context, productID int64) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_validated = ?", productID, true).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}

func (r *commentRepo) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Comment{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}
