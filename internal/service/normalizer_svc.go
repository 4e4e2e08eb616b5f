package service

import (
	"errors"
	"fmt"
	"strings"

	"purbeurre_dev_v1/internal/model"
	"purbeurre_dev_v1/pkg/openfoodfacts"
)

// ==================== 记录过滤 ====================

// ErrRecordRejected 记录被过滤掉（数据质量问题），不是故障
var ErrRecordRejected = errors.New("记录被过滤")

// ==================== 规范化 ====================

// CanonicalProduct 规范化后的产品字段
type CanonicalProduct struct {
	Name       string
	Url        string
	ImageUrl   string
	NutriScore string
}

// NormalizeProduct 把一条上游原始记录整理成规范形态
// 规则按顺序执行：
//  1. url 原样拷贝，缺失时留空
//  2. image_url 存在才拷贝
//  3. 名称优先 product_name，回退 product_name_fr，都没有则拒绝
//  4. 评分取 nutrition_grades_tags 首元素转小写，非法值强制 "e"，
//     字段缺失（或数组为空）用缺省值 "a"
//
// 去重检查不在这里做，由导入层对照存储判断
func NormalizeProduct(raw *openfoodfacts.RawProduct) (*CanonicalProduct, error) {
	cp := &CanonicalProduct{
		Url:        strValue(raw.Url),
		ImageUrl:   strValue(raw.ImageUrl),
		NutriScore: model.NutriScoreDefault,
	}

	cp.Name = strValue(raw.ProductName)
	if cp.Name == "" {
		cp.Name = strValue(raw.ProductNameFr)
	}
	if cp.Name == "" {
		return nil, fmt.Errorf("%w: 产品名称缺失", ErrRecordRejected)
	}

	if len(raw.NutritionGradesTags) > 0 {
		grade := strings.ToLower(raw.NutritionGradesTags[0])
		if model.IsValidNutriScore(grade) {
			cp.NutriScore = grade
		} else {
			cp.NutriScore = model.NutriScoreWorst
		}
	}

	return cp, nil
}

// strValue 可空字符串取值，nil 视为空串
func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
