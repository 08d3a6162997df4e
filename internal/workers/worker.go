package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

// worker is the main worker goroutine that processes tasks from the queue
// until it is closed and drained.
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started",
		logger.Field{Key: "worker_id", Value: id})

	for task := range p.taskQueue {
		p.processTask(id, task)
	}

	p.logger.Debug("worker stopping",
		logger.Field{Key: "worker_id", Value: id})
}

// processTask handles a single task execution with metrics and error handling.
func (p *WorkerPool) processTask(workerID int, task Task) {
	startTime := time.Now()

	execCtx := task.Context
	if execCtx == nil {
		execCtx = context.Background()
	}

	p.logger.DebugCtx(execCtx, "processing task",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "task_type", Value: task.Type})

	result := p.execute(execCtx, task)
	result.Duration = time.Since(startTime)

	if result.Error != nil {
		p.incrementFailed()
	} else {
		p.incrementCompleted()
	}
	p.recordDuration(result.Duration)

	p.logger.DebugCtx(execCtx, "task processed",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "task_id", Value: task.ID},
		logger.Field{Key: "duration_ms", Value: result.Duration.Milliseconds()},
		logger.Field{Key: "error", Value: result.Error})
}

// execute runs the executor with panic recovery. The executor always runs,
// even for canceled contexts, so it can account for the task.
func (p *WorkerPool) execute(ctx context.Context, task Task) (result Result) {
	result.TaskID = task.ID

	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("panic during task execution: %v", r)
			p.logger.ErrorCtx(ctx, "task panic recovered", result.Error,
				logger.Field{Key: "task_id", Value: task.ID})
		}
	}()

	result.Output, result.Error = p.executor(ctx, task)
	return result
}
