package model

// Comment 产品评论
// 用户体系由外部子系统管理，这里只存 UserID
// 注意：全量导入会重建 products 表，评论中的 ProductID 可能悬空（已知取舍）
type Comment struct {
	BaseModel
	UserID    int64    `gorm:"index;not null" json:"user_id"`
	ProductID int64    `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"-"`
	Message   string   `gorm:"type:text;not null" json:"message"`

	// 管理员审核通过后才对外展示
	IsValidated bool `gorm:"default:false;index" json:"is_validated"`
}

func (Comment) TableName() string {
	return "comments"
}

// Favorite 用户收藏的产品
type Favorite struct {
	BaseModel
	UserID    int64    `gorm:"index:idx_user_product,unique;not null" json:"user_id"`
	ProductID int64    `gorm:"index:idx_user_product,unique;not null" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (Favorite) TableName() string {
	return "favorites"
}
