package task

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"purbeurre_dev_v1/internal/service"
)

// ==================== IngestTask 产品导入定时任务 ====================

// IngestRunner 导入执行器
type IngestRunner interface {
	Run(ctx context.Context) (*service.IngestResult, error)
}

// IngestTask 全量导入定时任务
// 默认每日凌晨 3 点执行，同一时刻最多一轮（编排器内部有互斥）
type IngestTask struct {
	runner     IngestRunner
	cron       *cron.Cron
	cronSpec   string
	runTimeout time.Duration
}

// NewIngestTask 创建导入任务
func NewIngestTask(runner IngestRunner, cronSpec string, runTimeout time.Duration) *IngestTask {
	if cronSpec == "" {
		cronSpec = "0 0 3 * * *"
	}
	if runTimeout <= 0 {
		runTimeout = 30 * time.Minute
	}
	return &IngestTask{
		runner:     runner,
		cron:       cron.New(cron.WithSeconds()),
		cronSpec:   cronSpec,
		runTimeout: runTimeout,
	}
}

// Start 启动定时任务
func (t *IngestTask) Start() {
	_, err := t.cron.AddFunc(t.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.runTimeout)
		defer cancel()
		t.runOnce(ctx)
	})
	if err != nil {
		log.Printf("[IngestTask] cron 表达式 %q 非法: %v", t.cronSpec, err)
		return
	}

	t.cron.Start()
	log.Printf("[IngestTask] 已启动 (cron: %s)", t.cronSpec)
}

// Stop 停止任务，等待执行中的轮次结束
func (t *IngestTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	log.Println("[IngestTask] 已停止")
}

// RunNow 立即触发一轮导入（异步）
func (t *IngestTask) RunNow() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), t.runTimeout)
		defer cancel()
		t.runOnce(ctx)
	}()
}

// runOnce 执行一轮并记录统计
func (t *IngestTask) runOnce(ctx context.Context) {
	start := time.Now()
	result, err := t.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, service.ErrRunInProgress) {
			log.Println("[IngestTask] 上一轮尚未结束，本次触发跳过")
			return
		}
		log.Printf("[IngestTask] 导入失败: %v", err)
		return
	}

	log.Printf("[IngestTask] 运行 %s 耗时 %v: 入库 %d, 过滤 %d, 失败 %d",
		result.RunID, time.Since(start).Round(time.Millisecond),
		result.Created, result.Rejected, result.Failed)
}
