package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"purbeurre_dev_v1/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 产品仓储接口
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)

	// 导入流水线专用
	ExistsByName(ctx context.Context, name string) (bool, error)
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)

	// 查询替代品
	SearchByName(ctx context.Context, keyword string) (*model.Product, error)
	ListBetterInCategories(ctx context.Context, categoryIDs []int64, score string, excludeID int64) ([]model.Product, error)

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// ProductFilter 产品过滤条件
type ProductFilter struct {
	Keyword  string // 名称模糊匹配（大小写不敏感）
	Category string // 按类目名过滤
	MaxScore string // 只保留评分不差于该等级的产品
	Page     int
	PageSize int
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建产品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Preload("Nutriments").
		Preload("Nutriments.Nutriment").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.Keyword != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Keyword)+"%")
	}
	if filter.Category != "" {
		query = query.
			Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Joins("JOIN categories c ON c.id = pc.category_id").
			Where("c.name = ?", filter.Category)
	}
	if filter.MaxScore != "" {
		query = query.Where("nutri_score <= ?", filter.MaxScore)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.
		Order("products.name ASC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&products).Error

	return products, total, err
}

// ExistsByName 名称是否已存在（大小写不敏感）
func (r *productRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteAll 全量删除产品及其关联行（导入前清库用，物理删除）
func (r *productRepo) DeleteAll(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	// 先删关联表，products 表带软删除字段，必须 Unscoped 物理删
	if err := db.Exec("DELETE FROM product_nutriments").Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM product_categories").Error; err != nil {
		return err
	}
	return db.Unscoped().Where("1 = 1").Delete(&model.Product{}).Error
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}

// SearchByName 按名称模糊搜索，返回最匹配的一条；未找到返回 gorm.ErrRecordNotFound
func (r *productRepo) SearchByName(ctx context.Context, keyword string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("LOWER(name) LIKE ?", "%"+strings.ToLower(keyword)+"%").
		Order("name ASC").
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ListBetterInCategories 查找指定类目下评分严格更优的产品（替代品查询）
// Nutri-Score 按字母序比较，a 最优
func (r *productRepo) ListBetterInCategories(ctx context.Context, categoryIDs []int64, score string, excludeID int64) ([]model.Product, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	var products []model.Product
	err := r.db.WithContext(ctx).
		Distinct("products.*").
		Joins("JOIN product_categories pc ON pc.product_id = products.id").
		Where("pc.category_id IN ?", categoryIDs).
		Where("products.nutri_score < ?", score).
		Where("products.id != ?", excludeID).
		Order("products.nutri_score ASC, products.name ASC").
		Find(&products).Error

	return products, err
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
