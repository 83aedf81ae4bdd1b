// Package loop 单 goroutine 事件循环：所有投递的任务顺序执行
package loop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrStopped 循环已停止
var ErrStopped = errors.New("event loop stopped")

// DefaultQueueSize 默认任务队列长度
const DefaultQueueSize = 256

// Loop 协作式事件循环
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	logger *zap.Logger
}

// New 创建事件循环
func New(queueSize int, logger *zap.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Loop{
		tasks:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run 执行任务直到 ctx 结束
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	l.logger.Info("Event loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Event loop stopped")
			return ctx.Err()
		case task := <-l.tasks:
			l.execute(task)
		}
	}
}

func (l *Loop) execute(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Event loop task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

// Post 投递任务（不等待）；循环已停止时返回 false
func (l *Loop) Post(task func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- task:
		return true
	case <-l.done:
		return false
	}
}

// Call 在循环内执行 fn 并等待结果
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	wrapped := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("task panic: %v", r)
			}
		}()
		result <- fn()
	}

	select {
	case l.tasks <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Every 每隔 d 向循环投递一次 fn，直到 ctx 结束
func (l *Loop) Every(ctx context.Context, d time.Duration, fn func(now time.Time)) {
	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.done:
				return
			case now := <-ticker.C:
				if !l.Post(func() { fn(now) }) {
					return
				}
			}
		}
	}()
}

// After 延迟 d 后投递 fn（不占用循环等待）
func (l *Loop) After(d time.Duration, fn func()) {
	time.AfterFunc(d, func() {
		l.Post(fn)
	})
}
