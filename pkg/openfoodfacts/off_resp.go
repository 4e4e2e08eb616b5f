package openfoodfacts

// ==========================================
// DTO: 用于接收 Open Food Facts API 返回的原始 JSON 数据
// 上游 schema 不稳定，字段可能缺失或为 null，全部按可空处理
// ==========================================

// SearchResp 产品搜索响应
// GET /cgi/search.pl?search_terms=<category>&page_size=<n>&action=process&json=1
type SearchResp struct {
	Count    int          `json:"count"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
	Products []RawProduct `json:"products"`
}

// RawProduct 单条上游产品记录
type RawProduct struct {
	Url           *string `json:"url"`
	ImageUrl      *string `json:"image_url"`
	ProductName   *string `json:"product_name"`
	ProductNameFr *string `json:"product_name_fr"`

	// 首元素为评分字母，可能是非法值
	NutritionGradesTags []string `json:"nutrition_grades_tags"`

	// 形如 "en:snacks" / "fr:biscuits" 的带地区前缀标签
	CategoriesTags []string `json:"categories_tags"`

	// 键形如 "<name>_100g"，值可能是数字也可能是字符串
	Nutriments map[string]interface{} `json:"nutriments"`
}
