package job

import (
	"context"
	"sync"

	"asset-forge/pkg/errors"
	"asset-forge/pkg/logger"
	"asset-forge/pkg/metrics"
)

// MemoryQueue 进程内任务队列
type MemoryQueue struct {
	ch     chan string
	mu     sync.RWMutex
	closed bool
}

// NewMemoryQueue 创建容量为 size 的队列
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 256
	}
	return &MemoryQueue{ch: make(chan string, size)}
}

// Enqueue 入队，队列已满或已关闭时立即返回错误
func (q *MemoryQueue) Enqueue(_ context.Context, jobID string) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errors.ErrQueue.WithDetail("queue is closed")
	}
	select {
	case q.ch <- jobID:
		metrics.JobQueueDepth.Inc()
		return nil
	default:
		return errors.ErrQueue.WithDetail("queue is full")
	}
}

// Close 关闭队列，已入队的任务仍会被消费
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Len 排队中的任务数
func (q *MemoryQueue) Len() int {
	return len(q.ch)
}

// WorkerPool 从内存队列取任务执行，默认单个 worker 严格串行
type WorkerPool struct {
	executor    *Executor
	queue       *MemoryQueue
	concurrency int
	wg          sync.WaitGroup
	once        sync.Once
}

// NewWorkerPool 创建 worker 池
func NewWorkerPool(executor *Executor, queue *MemoryQueue, concurrency int) *WorkerPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &WorkerPool{executor: executor, queue: queue, concurrency: concurrency}
}

// Start 启动 worker；任务不可取消，ctx 只用于携带日志与追踪信息
func (p *WorkerPool) Start(ctx context.Context) {
	p.once.Do(func() {
		ctx = context.WithoutCancel(ctx)
		for i := 0; i < p.concurrency; i++ {
			p.wg.Add(1)
			go p.work(ctx, i)
		}
		logger.Info(ctx, "worker pool started", "concurrency", p.concurrency)
	})
}

func (p *WorkerPool) work(ctx context.Context, worker int) {
	defer p.wg.Done()
	for id := range p.queue.ch {
		metrics.JobQueueDepth.Dec()
		if err := p.executor.Process(ctx, id); err != nil {
			logger.Error(ctx, "failed to process job", err, "job_id", id, "worker", worker)
		}
	}
}

// Stop 关闭队列并等待已入队任务执行完毕
func (p *WorkerPool) Stop() {
	p.queue.Close()
	p.wg.Wait()
}
