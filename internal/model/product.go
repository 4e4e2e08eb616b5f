package model

import (
	"gorm.io/datatypes"
)

// ==================== 营养评分 ====================

// Nutri-Score 等级常量，统一存小写
const (
	NutriScoreBest  = "a"
	NutriScoreWorst = "e"

	// NutriScoreDefault 上游完全没有返回评分时的缺省值
	// 对应参考实现里字段的默认值 "a"，并非真实的"最优"声明
	NutriScoreDefault = "a"
)

// IsValidNutriScore 判断是否为合法的 Nutri-Score 等级 (a-e)
func IsValidNutriScore(score string) bool {
	switch score {
	case "a", "b", "c", "d", "e":
		return true
	}
	return false
}

// ==================== 产品 ====================

// Product 食品产品
// 仅由导入流水线创建，每轮导入先全量删除再重建，不做原地更新
type Product struct {
	BaseModel
	Name       string `gorm:"size:255;uniqueIndex;not null" json:"name"` // 名称大小写不敏感唯一，去重在导入层做
	Url        string `gorm:"size:512" json:"url"`
	ImageUrl   string `gorm:"size:512" json:"image_url"`
	NutriScore string `gorm:"size:1;default:a;index" json:"nutri_score"`

	// 上游 categories_tags 原始快照，排查数据质量问题用
	RawTags datatypes.JSON `json:"-"`

	// --- 关联关系 ---
	Categories []Category         `gorm:"many2many:product_categories;" json:"categories,omitempty"`
	Nutriments []ProductNutriment `gorm:"foreignKey:ProductID" json:"nutriments,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// ==================== 类目 ====================

// Category 产品类目，每轮导入从配置整体重建
type Category struct {
	BaseModel
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

func (Category) TableName() string {
	return "categories"
}

// ==================== 营养成分 ====================

// Nutriment 营养成分参照数据 (名称 + 计量单位)
type Nutriment struct {
	BaseModel
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Unit string `gorm:"size:16" json:"unit"`
}

func (Nutriment) TableName() string {
	return "nutriments"
}

// ProductNutriment 产品-营养成分关联，附带每 100g 含量
// 每个入库产品对配置中的每个营养成分都有一行，含量缺失时 Quantity 为 nil
type ProductNutriment struct {
	BaseModel
	ProductID   int64      `gorm:"index:idx_product_nutriment,unique;not null"`
	NutrimentID int64      `gorm:"index:idx_product_nutriment,unique;not null"`
	Nutriment   *Nutriment `gorm:"foreignKey:NutrimentID"`

	// 每 100g 含量，nil 表示上游未提供，不等于 0
	Quantity *float64 `json:"quantity"`
}

func (ProductNutriment) TableName() string {
	return "product_nutriments"
}
