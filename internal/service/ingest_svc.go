package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"purbeurre_dev_v1/internal/model"
	"purbeurre_dev_v1/internal/repository"
	"purbeurre_dev_v1/pkg/openfoodfacts"
)

// ==================== 配置与结果 ====================

// IngestConfig 一轮导入的参照数据配置
// 显式传入，不走全局变量
type IngestConfig struct {
	Categories []string          // 类目名列表，同时决定抓取顺序
	Nutriments map[string]string // 营养成分名称 -> 计量单位
}

// IngestResult 一轮导入的统计结果
type IngestResult struct {
	RunID            string
	Created          int      // 成功入库的产品数
	Rejected         int      // 数据质量问题被过滤的记录数
	Failed           int      // 持久化失败被跳过的记录数
	FailedCategories []string // 抓取失败整体跳过的类目
}

// ErrRunInProgress 已有导入在执行中
// 跨进程的互斥由外部调度器保证，这里只挡住同进程内的并发触发
var ErrRunInProgress = errors.New("导入任务正在执行中")

// ==================== 服务实现 ====================

// IngestService 导入编排器
// 流程：清库 -> 写入参照数据 -> 逐类目抓取 -> 逐条规范化/去重/解析/入库
type IngestService struct {
	productRepo repository.ProductRepository
	refRepo     repository.ReferenceRepository
	client      *openfoodfacts.Client
	cfg         *IngestConfig

	runMu sync.Mutex
}

// NewIngestService 创建导入编排器
func NewIngestService(
	productRepo repository.ProductRepository,
	refRepo repository.ReferenceRepository,
	client *openfoodfacts.Client,
	cfg *IngestConfig,
) *IngestService {
	return &IngestService{
		productRepo: productRepo,
		refRepo:     refRepo,
		client:      client,
		cfg:         cfg,
	}
}

// Run 执行一轮全量导入
// 全量替换语义：先物理删除所有产品/类目/营养成分再重建，不做增量合并
// 单个类目抓取失败只跳过该类目；单条记录入库失败只跳过该条
func (s *IngestService) Run(ctx context.Context) (*IngestResult, error) {
	if !s.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer s.runMu.Unlock()

	result := &IngestResult{RunID: uuid.NewString()[:8]}
	log.Printf("[Ingest] 运行 %s 开始，共 %d 个类目", result.RunID, len(s.cfg.Categories))

	// CLEAR_STORE: 产品先删（关联行依赖参照数据的外键）
	if err := s.productRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("清空产品数据失败: %w", err)
	}
	if err := s.refRepo.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("清空参照数据失败: %w", err)
	}

	// SEED_REFERENCE_DATA
	if err := s.refRepo.SeedNutriments(ctx, s.cfg.Nutriments); err != nil {
		return nil, fmt.Errorf("写入营养成分失败: %w", err)
	}
	if err := s.refRepo.SeedCategories(ctx, s.cfg.Categories); err != nil {
		return nil, fmt.Errorf("写入类目失败: %w", err)
	}

	// 预加载参照数据，后面逐条建关联时不再查库
	categories, err := s.refRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取类目失败: %w", err)
	}
	categoryByName := make(map[string]model.Category, len(categories))
	for _, c := range categories {
		categoryByName[c.Name] = c
	}

	nutriments, err := s.refRepo.ListNutriments(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取营养成分失败: %w", err)
	}

	// 逐类目抓取并处理，严格串行
	for _, category := range s.cfg.Categories {
		resp, err := s.client.SearchByCategory(ctx, category)
		if err != nil {
			log.Printf("[Ingest] %v，跳过该类目", err)
			result.FailedCategories = append(result.FailedCategories, category)
			continue
		}

		log.Printf("[Ingest] 类目 %q 返回 %d 条记录", category, len(resp.Products))

		for i := range resp.Products {
			err := s.processRecord(ctx, &resp.Products[i], categoryByName, nutriments)
			switch {
			case err == nil:
				result.Created++
			case errors.Is(err, ErrRecordRejected):
				result.Rejected++
			default:
				// 单条记录的持久化故障不拖垮本页剩余记录
				log.Printf("[Ingest] 记录入库失败已跳过: %v", err)
				result.Failed++
			}
		}
	}

	log.Printf("[Ingest] 运行 %s 完成: 入库 %d, 过滤 %d, 失败 %d, 跳过类目 %d",
		result.RunID, result.Created, result.Rejected, result.Failed, len(result.FailedCategories))

	return result, nil
}

// processRecord 处理一条上游记录
// 返回 nil 表示入库成功，ErrRecordRejected 表示被过滤，其它为持久化故障
func (s *IngestService) processRecord(
	ctx context.Context,
	raw *openfoodfacts.RawProduct,
	categoryByName map[string]model.Category,
	nutriments []model.Nutriment,
) error {
	// NORMALIZE
	cp, err := NormalizeProduct(raw)
	if err != nil {
		return err
	}

	// DEDUPE_CHECK: 名称大小写不敏感去重，重复直接跳过，不合并不更新
	exists, err := s.productRepo.ExistsByName(ctx, cp.Name)
	if err != nil {
		return fmt.Errorf("去重检查失败: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: 名称 %q 已存在", ErrRecordRejected, cp.Name)
	}

	// RESOLVE_CATEGORIES: 没有任何可解析类目的产品不入库
	names := ResolveCategories(raw.CategoriesTags, s.cfg.Categories)
	if len(names) == 0 {
		return fmt.Errorf("%w: 无可解析类目", ErrRecordRejected)
	}

	product := model.Product{
		Name:       cp.Name,
		Url:        cp.Url,
		ImageUrl:   cp.ImageUrl,
		NutriScore: cp.NutriScore,
	}

	// 保留上游标签快照，排查解析问题用
	if rawTags, err := json.Marshal(raw.CategoriesTags); err == nil {
		product.RawTags = rawTags
	}

	// LINK_CATEGORIES
	for _, name := range names {
		product.Categories = append(product.Categories, categoryByName[name])
	}

	// LINK_NUTRIMENTS: 配置中的每个成分都建关联行，含量缺失时留空
	for _, nutriment := range nutriments {
		product.Nutriments = append(product.Nutriments, model.ProductNutriment{
			NutrimentID: nutriment.ID,
			Quantity:    ResolveQuantity(raw.Nutriments, nutriment.Name),
		})
	}

	// PERSIST_PRODUCT: 产品 + 关联行一次写入
	if err := s.productRepo.Create(ctx, &product); err != nil {
		return fmt.Errorf("产品 %q 入库失败: %w", cp.Name, err)
	}
	return nil
}
