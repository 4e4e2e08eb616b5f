package service

import (
	"reflect"
	"testing"
)

func TestResolveCategories(t *testing.T) {
	configured := []string{"snacks", "fromages", "jus-de-fruits"}

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{
			name: "en 前缀匹配",
			tags: []string{"en:snacks"},
			want: []string{"snacks"},
		},
		{
			name: "fr 前缀匹配",
			tags: []string{"fr:fromages"},
			want: []string{"fromages"},
		},
		{
			name: "未配置的标签静默丢弃",
			tags: []string{"en:snacks", "en:beverages", "fr:desserts"},
			want: []string{"snacks"},
		},
		{
			name: "无前缀标签也参与匹配",
			tags: []string{"snacks"},
			want: []string{"snacks"},
		},
		{
			name: "重复标签去重保序",
			tags: []string{"en:snacks", "fr:snacks", "en:fromages"},
			want: []string{"snacks", "fromages"},
		},
		{
			name: "全部不匹配返回空",
			tags: []string{"en:beverages", "en:plant-based-foods"},
			want: nil,
		},
		{
			name: "标签列表为空返回空",
			tags: []string{},
			want: nil,
		},
		{
			name: "标签列表缺失返回空",
			tags: nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveCategories(tt.tags, configured)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveCategories() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveQuantity(t *testing.T) {
	tests := []struct {
		name       string
		nutriments map[string]interface{}
		nutriment  string
		want       *float64
	}{
		{
			name:       "数字值",
			nutriments: map[string]interface{}{"salt_100g": 1.2},
			nutriment:  "salt",
			want:       floatPtr(1.2),
		},
		{
			name:       "字符串数字值",
			nutriments: map[string]interface{}{"salt_100g": "1.2"},
			nutriment:  "salt",
			want:       floatPtr(1.2),
		},
		{
			name:       "零值是有效含量",
			nutriments: map[string]interface{}{"sugars_100g": 0.0},
			nutriment:  "sugars",
			want:       floatPtr(0),
		},
		{
			name:       "空字符串视为未提供",
			nutriments: map[string]interface{}{"salt_100g": ""},
			nutriment:  "salt",
			want:       nil,
		},
		{
			name:       "键缺失视为未提供",
			nutriments: map[string]interface{}{"sugars_100g": 3.4},
			nutriment:  "salt",
			want:       nil,
		},
		{
			name:       "无法解析的字符串视为未提供",
			nutriments: map[string]interface{}{"salt_100g": "beaucoup"},
			nutriment:  "salt",
			want:       nil,
		},
		{
			name:       "映射缺失视为未提供",
			nutriments: nil,
			nutriment:  "salt",
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveQuantity(tt.nutriments, tt.nutriment)

			if (got == nil) != (tt.want == nil) {
				t.Fatalf("ResolveQuantity() = %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("ResolveQuantity() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func floatPtr(f float64) *float64 { return &f }
