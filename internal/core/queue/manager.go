package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"hydro-advisor/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 隊列已滿
	ErrQueueFull = errors.New("queue is full")
	// ErrClosed 隊列已關閉
	ErrClosed = errors.New("queue manager is closed")
)

// Task 隊列中執行的工作
type Task func(ctx context.Context) error

// Request 隊列請求
type Request struct {
	Context context.Context
	Task    Task
	Result  chan error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int   `json:"queue_length"`
	ProcessedCount int64 `json:"processed_count"`
	FailedCount    int64 `json:"failed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 固定 worker 數的隊列，限制同時執行的推論數量
type Manager struct {
	queue     chan *Request
	done      chan struct{}
	workers   int
	maxSize   int
	processed int64
	failed    int64
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager 創建並啟動隊列管理器
func NewManager(workers, maxSize int) *Manager {
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	m := &Manager{
		queue:   make(chan *Request, maxSize),
		done:    make(chan struct{}),
		workers: workers,
		maxSize: maxSize,
	}
	for i := 0; i < workers; i++ {
		m.wg.Add(1)
		go m.worker(i)
	}
	return m
}

func (m *Manager) worker(id int) {
	defer m.wg.Done()
	for {
		select {
		case req := <-m.queue:
			m.run(id, req)
		case <-m.done:
			return
		}
	}
}

func (m *Manager) run(id int, req *Request) {
	// 呼叫端已放棄的請求不再執行
	if err := req.Context.Err(); err != nil {
		req.Result <- err
		return
	}

	err := req.Task(req.Context)
	atomic.AddInt64(&m.processed, 1)
	if err != nil {
		atomic.AddInt64(&m.failed, 1)
		common.LogDebug("Queue task failed", zap.Int("worker", id), zap.Error(err))
	}
	req.Result <- err
}

// Enqueue 將工作加入隊列，隊列已滿時立即回傳 ErrQueueFull
func (m *Manager) Enqueue(ctx context.Context, task Task) (<-chan error, error) {
	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	req := &Request{
		Context: ctx,
		Task:    task,
		Result:  make(chan error, 1),
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return req.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, ErrQueueFull
	}
}

// Do 加入隊列並等待結果或 ctx 結束
func (m *Manager) Do(ctx context.Context, task Task) error {
	result, err := m.Enqueue(ctx, task)
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() Status {
	return Status{
		QueueLength:    len(m.queue),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		FailedCount:    atomic.LoadInt64(&m.failed),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 停止 worker；尚在隊列中的請求收到 ErrClosed
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		for {
			select {
			case req := <-m.queue:
				req.Result <- ErrClosed
			default:
				return
			}
		}
	})
}
