package workers

import (
	"context"
	"sync"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

// WorkerPool manages a pool of goroutine workers for concurrent task execution.
type WorkerPool struct {
	taskQueue chan Task
	workers   int
	executor  TaskExecutor
	wg        sync.WaitGroup
	logger    *logger.Logger

	mu      sync.RWMutex // guards stopped and the queue close
	stopped bool
	started bool

	metricsMu sync.RWMutex
	metrics   PoolMetrics
}

// NewPool creates a new worker pool with the specified configuration.
func NewPool(workers int, queueSize int, executor TaskExecutor, log *logger.Logger) *WorkerPool {
	if workers < 1 {
		workers = DefaultPoolSize
	}
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	return &WorkerPool{
		taskQueue: make(chan Task, queueSize),
		workers:   workers,
		executor:  executor,
		logger:    log,
	}
}

// Start initializes and starts all worker goroutines.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	p.logger.Info("starting worker pool",
		logger.Field{Key: "workers", Value: p.workers},
		logger.Field{Key: "buffer_size", Value: cap(p.taskQueue)})

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task. It blocks while the queue is full, until ctx is done.
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	p.logger.DebugCtx(ctx, "task submitted",
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "task_type", Value: task.Type})

	select {
	case p.taskQueue <- task:
		p.incrementSubmitted()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits until every queued task has been executed.
// Callers that need queued work to finish fast cancel the task contexts first.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.taskQueue)
	started := p.started
	p.mu.Unlock()

	if started {
		p.wg.Wait()
	}

	metrics := p.Metrics()
	p.logger.Info("worker pool stopped",
		logger.Field{Key: "tasks_submitted", Value: metrics.TasksSubmitted},
		logger.Field{Key: "tasks_completed", Value: metrics.TasksCompleted},
		logger.Field{Key: "tasks_failed", Value: metrics.TasksFailed})
}

// WorkerCount returns the number of workers.
func (p *WorkerPool) WorkerCount() int {
	return p.workers
}

// QueueSize returns the current number of tasks waiting in the queue.
func (p *WorkerPool) QueueSize() int {
	return len(p.taskQueue)
}
