// Package workers provides an async worker pool for background task execution.
// Tasks are handed to a single executor supplied at construction; outcomes are
// counted in PoolMetrics and reported by the executor itself.
package workers

import (
	"context"
	"errors"
	"time"
)

// ErrPoolStopped is returned when submitting to a stopped pool.
var ErrPoolStopped = errors.New("worker pool stopped")

// Task represents a unit of work to be executed by a worker.
type Task struct {
	ID      string          // Unique task identifier
	Type    string          // Task type, for logs
	Payload any             // Executor-specific payload
	Context context.Context // Task-specific context for cancellation/timeout
}

// Result represents the outcome of a task execution.
type Result struct {
	TaskID   string        // ID of the executed task
	Error    error         // Error if execution failed
	Output   string        // Task output
	Duration time.Duration // Execution duration
}

// PoolMetrics tracks execution metrics for the worker pool.
type PoolMetrics struct {
	TasksSubmitted uint64
	TasksCompleted uint64
	TasksFailed    uint64
	TotalDuration  time.Duration
}

// TaskExecutor defines the execution logic run for every task.
type TaskExecutor func(context.Context, Task) (string, error)

// Constants for worker pool configuration
const (
	DefaultPoolSize  = 4
	DefaultQueueSize = 16
)
