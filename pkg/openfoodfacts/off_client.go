package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 配置 ====================

type ClientConfig struct {
	BaseURL   string // 默认 https://fr-en.openfoodfacts.org
	PageSize  int    // 单次搜索返回的产品数上限
	UserAgent string // 上游要求的身份标识，放在 items 请求头
	Timeout   time.Duration
	Retry     int // 失败重试次数
}

// ==================== 错误定义 ====================

// FetchError 某个类目的抓取失败（网络异常 / 非 JSON 响应 / 异常状态码）
// 调用方按类目粒度跳过，不中断整轮导入
type FetchError struct {
	Category string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("类目 %q 抓取失败: %v", e.Category, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ==================== 客户端 ====================

// Client Open Food Facts 搜索客户端
type Client struct {
	cfg  *ClientConfig
	http *resty.Client
}

// NewClient 创建客户端
// 设置超时和重试，防止网络波动拖死整轮导入
func NewClient(cfg *ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://fr-en.openfoodfacts.org"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Retry < 0 {
		cfg.Retry = 0
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retry)

	return &Client{cfg: cfg, http: client}
}

// SearchByCategory 以类目名为关键词搜索产品
// GET <base>/cgi/search.pl?search_terms=<category>&page_size=<n>&action=process&json=1
func (c *Client) SearchByCategory(ctx context.Context, category string) (*SearchResp, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_terms": category,
			"page_size":    strconv.Itoa(c.cfg.PageSize),
			"action":       "process",
			"json":         "1",
		}).
		SetHeader("items", c.cfg.UserAgent).
		Get(c.cfg.BaseURL + "/cgi/search.pl")

	if err != nil {
		return nil, &FetchError{Category: category, Err: err}
	}
	if resp.StatusCode() != 200 {
		return nil, &FetchError{
			Category: category,
			Err:      fmt.Errorf("上游返回状态码 %d", resp.StatusCode()),
		}
	}

	// 手动解析，上游偶尔返回 HTML 错误页，必须当抓取失败处理
	var res SearchResp
	if err := json.Unmarshal(resp.Body(), &res); err != nil {
		return nil, &FetchError{
			Category: category,
			Err:      fmt.Errorf("响应不是合法 JSON: %w", err),
		}
	}

	return &res, nil
}
