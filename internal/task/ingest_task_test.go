package task

import (
	"context"
	"testing"
	"time"

	"purbeurre_dev_v1/internal/service"
)

// fakeRunner 记录触发次数的假执行器
type fakeRunner struct {
	calls chan struct{}
	err   error
}

func (r *fakeRunner) Run(ctx context.Context) (*service.IngestResult, error) {
	r.calls <- struct{}{}
	if r.err != nil {
		return nil, r.err
	}
	return &service.IngestResult{RunID: "test", Created: 1}, nil
}

func TestIngestTask_RunNow(t *testing.T) {
	runner := &fakeRunner{calls: make(chan struct{}, 1)}
	task := NewIngestTask(runner, "", 0)

	task.RunNow()

	select {
	case <-runner.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("RunNow() 未触发导入")
	}
}

func TestIngestTask_RunNow_RunInProgress(t *testing.T) {
	// 正在执行中的错误只记日志，不 panic
	runner := &fakeRunner{calls: make(chan struct{}, 1), err: service.ErrRunInProgress}
	task := NewIngestTask(runner, "", 0)

	task.RunNow()

	select {
	case <-runner.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("RunNow() 未触发导入")
	}
}

func TestIngestTask_StartStop(t *testing.T) {
	runner := &fakeRunner{calls: make(chan struct{}, 1)}
	// 一个远未来的调度点，验证启动/停止不阻塞不报错
	task := NewIngestTask(runner, "0 0 3 * * *", time.Minute)

	task.Start()
	task.Stop()
}

func TestIngestTask_Start_InvalidCronSpec(t *testing.T) {
	runner := &fakeRunner{calls: make(chan struct{}, 1)}
	task := NewIngestTask(runner, "not a cron spec", time.Minute)

	// 非法表达式只记日志，不 panic
	task.Start()
	task.Stop()
}
