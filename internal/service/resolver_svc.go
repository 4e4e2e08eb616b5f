package service

import (
	"strconv"
	"strings"
)

// ==================== 类目解析 ====================

// ResolveCategories 把上游标签解析成本地类目名集合
// 标签形如 "en:snacks" / "fr:biscuits"，先去 en: 前缀再去 fr: 前缀，
// 去掉前缀后必须与配置类目完全相等才保留，其余静默丢弃
// 返回值去重且保持标签原始顺序
func ResolveCategories(tags []string, configured []string) []string {
	if len(tags) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(configured))
	for _, name := range configured {
		allowed[name] = struct{}{}
	}

	var resolved []string
	seen := make(map[string]struct{})
	for _, tag := range tags {
		name := strings.TrimPrefix(tag, "en:")
		name = strings.TrimPrefix(name, "fr:")

		if _, ok := allowed[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		resolved = append(resolved, name)
	}

	return resolved
}

// ==================== 含量解析 ====================

// ResolveQuantity 从上游 nutriments 映射中取出指定成分的每 100g 含量
// 键形如 "<name>_100g"，值可能是数字也可能是字符串
// 缺失、空字符串或无法解析时返回 nil（表示"未提供"，不是 0）
func ResolveQuantity(nutriments map[string]interface{}, name string) *float64 {
	if nutriments == nil {
		return nil
	}

	raw, ok := nutriments[name+"_100g"]
	if !ok {
		return nil
	}

	switch v := raw.(type) {
	case float64:
		return &v
	case string:
		if v == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}
