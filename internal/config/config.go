package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config 应用配置
// 来源：YAML 文件 (可选) + 环境变量覆盖，参照数据全部显式配置，不留全局变量
type Config struct {
	Database struct {
		DSN string `yaml:"dsn" env:"DATABASE_DSN" env-default:"host=localhost user=purbeurre password=purbeurre dbname=purbeurre port=5432 sslmode=disable"`
	} `yaml:"database"`

	OpenFoodFacts struct {
		BaseURL        string `yaml:"base_url" env:"OFF_BASE_URL" env-default:"https://fr-en.openfoodfacts.org"`
		PageSize       int    `yaml:"page_size" env:"OFF_PAGE_SIZE" env-default:"50"`
		UserAgent      string `yaml:"user_agent" env:"OFF_USER_AGENT" env-default:"purbeurre - catalog import"`
		TimeoutSeconds int    `yaml:"timeout_seconds" env:"OFF_TIMEOUT_SECONDS" env-default:"20"`
		Retry          int    `yaml:"retry" env:"OFF_RETRY" env-default:"1"`
	} `yaml:"openfoodfacts"`

	Ingest struct {
		// cron 表达式（带秒），默认每日凌晨 3 点
		CronSpec          string `yaml:"cron_spec" env:"INGEST_CRON" env-default:"0 0 3 * * *"`
		RunTimeoutMinutes int    `yaml:"run_timeout_minutes" env:"INGEST_RUN_TIMEOUT_MINUTES" env-default:"30"`
		RunOnStart        bool   `yaml:"run_on_start" env:"INGEST_RUN_ON_START" env-default:"false"`

		// 抓取的类目列表，同时是类目参照数据
		Categories []string `yaml:"categories" env:"INGEST_CATEGORIES" env-default:"jus-de-fruits,snacks,cereales,chocolats,fromages"`

		// 营养成分名称 -> 计量单位
		Nutriments map[string]string `yaml:"nutriments" env:"INGEST_NUTRIMENTS" env-default:"salt:g,sugars:g,fat:g,saturated-fat:g,proteins:g"`
	} `yaml:"ingest"`
}

// Load 加载配置
// path 为空或文件不存在时只读环境变量
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
			}
			return &cfg, nil
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("读取环境变量配置失败: %w", err)
	}
	return &cfg, nil
}
