package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"purbeurre_dev_v1/internal/model"
)

// ==================== 接口定义 ====================

// ReferenceRepository 参照数据仓储（类目 + 营养成分）
// 两类数据都由配置驱动，每轮导入整体重建
type ReferenceRepository interface {
	SeedCategories(ctx context.Context, names []string) error
	SeedNutriments(ctx context.Context, units map[string]string) error
	DeleteAll(ctx context.Context) error

	GetCategoryByName(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	ListNutriments(ctx context.Context) ([]model.Nutriment, error)

	WithTx(tx *gorm.DB) ReferenceRepository
	Transaction(ctx context.Context, fn func(txRepo ReferenceRepository) error) error
}

// ==================== 仓储实现 ====================

type referenceRepo struct {
	db *gorm.DB
}

// NewReferenceRepository 创建参照数据仓储
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepo{db: db}
}

// SeedCategories 按配置写入类目，一个名称一行
func (r *referenceRepo) SeedCategories(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	categories := make([]model.Category, 0, len(names))
	for _, name := range names {
		categories = append(categories, model.Category{Name: name})
	}
	return r.db.WithContext(ctx).Create(&categories).Error
}

// SeedNutriments 按配置写入营养成分（名称 -> 单位）
// map 迭代无序，先按名称排序保证每轮建出来的 ID 顺序稳定
func (r *referenceRepo) SeedNutriments(ctx context.Context, units map[string]string) error {
	if len(units) == 0 {
		return nil
	}
	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)

	nutriments := make([]model.Nutriment, 0, len(names))
	for _, name := range names {
		nutriments = append(nutriments, model.Nutriment{Name: name, Unit: units[name]})
	}
	return r.db.WithContext(ctx).Create(&nutriments).Error
}

// DeleteAll 全量删除类目与营养成分（物理删除）
// 调用方必须先清掉 products 及关联行，否则会留下悬空外键
func (r *referenceRepo) DeleteAll(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.Unscoped().Where("1 = 1").Delete(&model.Nutriment{}).Error; err != nil {
		return err
	}
	return db.Unscoped().Where("1 = 1").Delete(&model.Category{}).Error
}

func (r *referenceRepo) GetCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *referenceRepo) ListCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *referenceRepo) ListNutriments(ctx context.Context) ([]model.Nutriment, error) {
	var nutriments []model.Nutriment
	err := r.db.WithContext(ctx).Order("name ASC").Find(&nutriments).Error
	return nutriments, err
}

func (r *referenceRepo) WithTx(tx *gorm.DB) ReferenceRepository {
	return &referenceRepo{db: tx}
}

func (r *referenceRepo) Transaction(ctx context.Context, fn func(txRepo ReferenceRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
