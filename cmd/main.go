package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"purbeurre_dev_v1/internal/config"
	"purbeurre_dev_v1/internal/model"
	"purbeurre_dev_v1/internal/repository"
	"purbeurre_dev_v1/internal/service"
	"purbeurre_dev_v1/internal/task"
	"purbeurre_dev_v1/pkg/database"
	"purbeurre_dev_v1/pkg/openfoodfacts"
)

func main() {
	// 1. 加载配置
	cfg := loadConfig()

	// 2. 初始化数据库
	db := initDatabase(cfg)

	// 3. 初始化依赖
	deps := initDependencies(db, cfg)

	// 4. 启动定时任务
	ingestTask := initTasks(deps, cfg)

	// 5. 阻塞等待退出信号
	waitForShutdown(ingestTask)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB       *gorm.DB
	Repos    *Repositories
	Services *Services
}

// Repositories 仓库集合
type Repositories struct {
	Product   repository.ProductRepository
	Reference repository.ReferenceRepository
	Comment   repository.CommentRepository
	Favorite  repository.FavoriteRepository
}

// Services 服务集合
type Services struct {
	Ingest  *service.IngestService
	Catalog *service.CatalogService
}

// ==================== 初始化函数 ====================

// loadConfig 加载配置，配置文件路径来自 CONFIG_PATH，默认 config.yaml
func loadConfig() *config.Config {
	path := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("[Main] 加载配置失败: %v", err)
	}
	return cfg
}

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(
		cfg.Database.DSN,
		// Catalog
		&model.Product{}, &model.Category{}, &model.Nutriment{}, &model.ProductNutriment{},
		// Community
		&model.Comment{}, &model.Favorite{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB, cfg *config.Config) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Product:   repository.NewProductRepository(db),
		Reference: repository.NewReferenceRepository(db),
		Comment:   repository.NewCommentRepository(db),
		Favorite:  repository.NewFavoriteRepository(db),
	}

	// -------- 上游客户端 --------
	offClient := openfoodfacts.NewClient(&openfoodfacts.ClientConfig{
		BaseURL:   cfg.OpenFoodFacts.BaseURL,
		PageSize:  cfg.OpenFoodFacts.PageSize,
		UserAgent: cfg.OpenFoodFacts.UserAgent,
		Timeout:   time.Duration(cfg.OpenFoodFacts.TimeoutSeconds) * time.Second,
		Retry:     cfg.OpenFoodFacts.Retry,
	})

	// -------- 业务服务 --------
	services := &Services{
		Ingest: service.NewIngestService(repos.Product, repos.Reference, offClient, &service.IngestConfig{
			Categories: cfg.Ingest.Categories,
			Nutriments: cfg.Ingest.Nutriments,
		}),
		Catalog: service.NewCatalogService(repos.Product, repos.Comment, repos.Favorite),
	}

	return &Dependencies{DB: db, Repos: repos, Services: services}
}

// initTasks 启动定时任务
func initTasks(deps *Dependencies, cfg *config.Config) *task.IngestTask {
	ingestTask := task.NewIngestTask(
		deps.Services.Ingest,
		cfg.Ingest.CronSpec,
		time.Duration(cfg.Ingest.RunTimeoutMinutes)*time.Minute,
	)
	ingestTask.Start()

	if cfg.Ingest.RunOnStart {
		log.Println("[Main] RunOnStart 开启，立即触发一轮导入")
		ingestTask.RunNow()
	}

	return ingestTask
}

// waitForShutdown 等待退出信号并优雅停止
func waitForShutdown(ingestTask *task.IngestTask) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Main] 收到退出信号，正在停止...")
	ingestTask.Stop()
	log.Println("[Main] 已退出")
}

// getEnv 读取环境变量，空值回退默认
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
