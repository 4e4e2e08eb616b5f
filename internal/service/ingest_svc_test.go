package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"purbeurre_dev_v1/internal/model"
	"purbeurre_dev_v1/internal/repository"
	"purbeurre_dev_v1/pkg/openfoodfacts"
)

// ==================== 测试辅助 ====================

func setupIngestTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Product{}, &model.Category{}, &model.Nutriment{}, &model.ProductNutriment{},
		&model.Comment{}, &model.Favorite{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// newFakeUpstream 伪造上游搜索接口
// bodies: 类目 -> 响应体；statuses: 类目 -> 非 200 状态码
func newFakeUpstream(bodies map[string]string, statuses map[string]int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("search_terms")
		if code, ok := statuses[category]; ok {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		body, ok := bodies[category]
		if !ok {
			body = `{"products":[]}`
		}
		fmt.Fprint(w, body)
	}))
}

func newTestIngestService(db *gorm.DB, upstreamURL string, cfg *IngestConfig) *IngestService {
	client := openfoodfacts.NewClient(&openfoodfacts.ClientConfig{
		BaseURL:   upstreamURL,
		PageSize:  20,
		UserAgent: "purbeurre - test",
	})
	return NewIngestService(
		repository.NewProductRepository(db),
		repository.NewReferenceRepository(db),
		client,
		cfg,
	)
}

// ==================== 端到端场景 ====================

// 完整场景：非法评分强制 e，类目与营养成分关联建立，字符串含量转数字
func TestIngestService_Run_ChipsScenario(t *testing.T) {
	db := setupIngestTestDB(t)
	upstream := newFakeUpstream(map[string]string{
		"snacks": `{"products":[{"url":"x.fr","product_name":"Chips","nutrition_grades_tags":["z"],"categories_tags":["en:snacks"],"nutriments":{"salt_100g":"1.2"}}]}`,
	}, nil)
	defer upstream.Close()

	svc := newTestIngestService(db, upstream.URL, &IngestConfig{
		Categories: []string{"snacks"},
		Nutriments: map[string]string{"salt": "g"},
	})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Rejected)
	assert.Empty(t, result.FailedCategories)

	var product model.Product
	require.NoError(t, db.Preload("Categories").Preload("Nutriments.Nutriment").
		Where("name = ?", "Chips").First(&product).Error)

	assert.Equal(t, "e", product.NutriScore, "非法评分 z 应强制为最差等级")
	assert.Equal(t, "x.fr", product.Url)

	require.Len(t, product.Categories, 1)
	assert.Equal(t, "snacks", product.Categories[0].Name)

	require.Len(t, product.Nutriments, 1)
	assert.Equal(t, "salt", product.Nutriments[0].Nutriment.Name)
	require.NotNil(t, product.Nutriments[0].Quantity)
	assert.InDelta(t, 1.2, *product.Nutriments[0].Quantity, 1e-9)
}

// 类目标签为空的记录不入库
func TestIngestService_Run_EmptyCategoriesRejected(t *testing.T) {
	db := setupIngestTestDB(t)
	upstream := newFakeUpstream(map[string]string{
		"snacks": `{"products":[{"url":"x.fr","product_name":"Chips","nutrition_grades_tags":["z"],"categories_tags":[],"nutriments":{"salt_100g":"1.2"}}]}`,
	}, nil)
	defer upstream.Close()

	svc := newTestIngestService(db, upstream.URL, &IngestConfig{
		Categories: []string{"snacks"},
		Nutriments: map[string]string{"salt": "g"},
	})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Rejected)

	var count int64
	db.Model(&model.Product{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

// 名称大小写不同的重复记录被跳过，库里只留第一条
func TestIngestService_Run_CaseInsensitiveDuplicate(t *testing.T) {
	db := setupIngestTestDB(t)
	upstream := newFakeUpstream(map[string]string{
		"snacks": `{"products":[
			{"url":"x.fr","product_name":"Chips","nutrition_grades_tags":["b"],"categories_tags":["en:snacks"],"nutriments":{}},
			{"url":"y.fr","product_name":"chips","nutrition_grades_tags":["a"],"categories_tags":["en:snacks"],"nutriments":{}}
		]}`,
	}, nil)
	defer upstream.Close()

	svc := newTestIngestService(db, upstream.URL, &IngestConfig{
		Categories: []string{"snacks"},
		Nutriments: map[string]string{"salt": "g"},
	})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Rejected)

	var products []model.Product
	require.NoError(t, db.Find(&products).Error)
	require.Len(t, products, 1)
	assert.Equal(t, "Chips", products[0].Name)
	assert.Equal(t, "x.fr", products[0].Url, "重复记录不应覆盖已有产品")
}

// 配置了几个营养成分，每个入库产品就有几行关联，含量缺失也建行
func TestIngestService_Run_NutrimentLinksAlwaysComplete(t *testing.T) {
	db := setupIngestTestDB(t)
	upstream := newFakeUpstream(map[string]string{
		"snacks": `{"products":[{"url":"x.fr","product_name":"Chips","categories_tags":["en:snacks"],"nutriments":{"salt_100g":0.5}}]}`,
	}, nil)
	defer upstream.Close()

	svc := newTestIngestService(db, upstream.URL, &IngestConfig{
		Categories: []string{"snacks"},
		Nutriments: map[string]string{"salt": "g", "sugars": "g", "fat": "g"},
	})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.Created)

	var product model.Product
	require.NoError(t, db.Preload("Nutriments.Nutriment").First(&product).Error)
	require.Len(t, product.Nutriments, 3, "关联行数必须等于配置的营养成分数")

	quantities := make(map[string]*float64)
	for _, pn := range product.Nutriments {
		quantities[pn.Nutriment.Name] = pn.Quantity
	}
	require.NotNil(t, quantities["salt"])
	assert.InDelta(t, 0.5, *quantities["salt"], 1e-9)
	assert.Nil(t, quantities["sugars"], "上游未提供的含量应留空而不是 0")
	assert.Nil(t, quantities["fat"])
}

// 单个类目抓取失败只跳过该类目，其余类目继续
func TestIngestService_Run_CategoryFetchFailureSkipped(t *testing.T) {
	db := setupIngestTestDB(t)
	upstream := newFakeUpstream(map[string]string{
		"snacks": `{"products":[{"url":"x.fr","product_name":"Chips","nutrition_grades_tags":["b"],"categories_tags":["en:snacks"],"nutriments":{}}]}`,
	}, map[string]int{
		"fromages": http.StatusInternalServerError,
	})
	defer upstream.Close()

	svc := newTestIngestService(db, upstream.URL, &IngestConfig{
		Categories: []string{"fromages", "snacks"},
		Nutriments: map[string]string{"salt": "g"},
	})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fromages"}, result.FailedCategories)
	assert.Equal(t, 1, result.Created)
}

// 名称缺失的记录被过滤，不产生产品行
func TestIngestService_Run_MissingNameRejected(t *testing.T) {
	db := setupIngestTestDB(t)
	upstream := newFakeUpstream(map[string]string{
		"snacks": `{"products":[
			{"url":"a.fr","product_name":"","product_name_fr":"","categories_tags":["en:snacks"],"nutriments":{}},
			{"url":"b.fr","categories_tags":["en:snacks"],"nutriments":{}}
		]}`,
	}, nil)
	defer upstream.Close()

	svc := newTestIngestService(db, upstream.URL, &IngestConfig{
		Categories: []string{"snacks"},
		Nutriments: map[string]string{"salt": "g"},
	})

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 2, result.Rejected)
}

// 相同上游数据重复导入，结果集合一致（全量替换语义）
func TestIngestService_Run_RerunYieldsSameOutcome(t *testing.T) {
	db := setupIngestTestDB(t)
	upstream := newFakeUpstream(map[string]string{
		"snacks": `{"products":[
			{"url":"x.fr","product_name":"Chips","nutrition_grades_tags":["b"],"categories_tags":["en:snacks"],"nutriments":{"salt_100g":"1.2"}},
			{"url":"y.fr","product_name":"Bretzels","nutrition_grades_tags":["c"],"categories_tags":["en:snacks"],"nutriments":{}}
		]}`,
	}, nil)
	defer upstream.Close()

	svc := newTestIngestService(db, upstream.URL, &IngestConfig{
		Categories: []string{"snacks"},
		Nutriments: map[string]string{"salt": "g"},
	})

	snapshot := func() (names []string, linkCount int64) {
		var products []model.Product
		require.NoError(t, db.Order("name ASC").Find(&products).Error)
		for _, p := range products {
			names = append(names, p.Name)
		}
		db.Model(&model.ProductNutriment{}).Count(&linkCount)
		return names, linkCount
	}

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	firstNames, firstLinks := snapshot()

	_, err = svc.Run(context.Background())
	require.NoError(t, err)
	secondNames, secondLinks := snapshot()

	assert.Equal(t, firstNames, secondNames)
	assert.Equal(t, firstLinks, secondLinks)
	assert.Equal(t, []string{"Bretzels", "Chips"}, secondNames)
}

// ==================== 单条故障隔离 ====================

// failingProductRepo 指定名称入库时报错，模拟持久化故障
type failingProductRepo struct {
	repository.ProductRepository
	failName string
}

func (r *failingProductRepo) Create(ctx context.Context, product *model.Product) error {
	if product.Name == r.failName {
		return fmt.Errorf("模拟持久化故障")
	}
	return r.ProductRepository.Create(ctx, product)
}

// 一条记录入库失败不影响同页后续记录（与参考实现的刻意差异）
func TestIngestService_Run_RecordFailureIsolated(t *testing.T) {
	db := setupIngestTestDB(t)
	upstream := newFakeUpstream(map[string]string{
		"snacks": `{"products":[
			{"url":"x.fr","product_name":"Chips","nutrition_grades_tags":["b"],"categories_tags":["en:snacks"],"nutriments":{}},
			{"url":"y.fr","product_name":"Bretzels","nutrition_grades_tags":["c"],"categories_tags":["en:snacks"],"nutriments":{}}
		]}`,
	}, nil)
	defer upstream.Close()

	client := openfoodfacts.NewClient(&openfoodfacts.ClientConfig{
		BaseURL: upstream.URL, UserAgent: "purbeurre - test",
	})
	svc := NewIngestService(
		&failingProductRepo{
			ProductRepository: repository.NewProductRepository(db),
			failName:          "Chips",
		},
		repository.NewReferenceRepository(db),
		client,
		&IngestConfig{
			Categories: []string{"snacks"},
			Nutriments: map[string]string{"salt": "g"},
		},
	)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Created, "故障记录之后的记录必须继续处理")

	var products []model.Product
	require.NoError(t, db.Find(&products).Error)
	require.Len(t, products, 1)
	assert.Equal(t, "Bretzels", products[0].Name)
}
