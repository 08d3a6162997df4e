package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

func TestNewPool_Defaults(t *testing.T) {
	pool := NewPool(0, 0, func(context.Context, Task) (string, error) { return "", nil }, logger.Nop())
	assert.Equal(t, DefaultPoolSize, pool.WorkerCount())
	assert.Equal(t, 0, pool.QueueSize())
}

func TestPool_ExecutesTasks(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	pool := NewPool(2, 10, func(_ context.Context, task Task) (string, error) {
		mu.Lock()
		seen = append(seen, task.ID)
		mu.Unlock()
		if task.ID == "bad" {
			return "", errors.New("boom")
		}
		return "ok:" + task.ID, nil
	}, logger.Nop())
	pool.Start()

	ctx := context.Background()
	require.NoError(t, pool.Submit(ctx, Task{ID: "a", Type: "test"}))
	require.NoError(t, pool.Submit(ctx, Task{ID: "bad", Type: "test"}))
	pool.Stop()

	assert.ElementsMatch(t, []string{"a", "bad"}, seen)

	m := pool.Metrics()
	assert.EqualValues(t, 2, m.TasksSubmitted)
	assert.EqualValues(t, 1, m.TasksCompleted)
	assert.EqualValues(t, 1, m.TasksFailed)
}

func TestPool_StopDrainsQueue(t *testing.T) {
	release := make(chan struct{})
	var done atomic.Int32
	pool := NewPool(1, 5, func(ctx context.Context, task Task) (string, error) {
		<-release
		done.Add(1)
		return "", ctx.Err()
	}, logger.Nop())
	pool.Start()

	for i := range 3 {
		require.NoError(t, pool.Submit(context.Background(), Task{ID: string(rune('a' + i))}))
	}

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned before queued tasks ran")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return")
	}
	assert.EqualValues(t, 3, done.Load())
}

func TestPool_SubmitAfterStop(t *testing.T) {
	pool := NewPool(1, 1, func(context.Context, Task) (string, error) { return "", nil }, logger.Nop())
	pool.Start()
	pool.Stop()
	pool.Stop()

	assert.ErrorIs(t, pool.Submit(context.Background(), Task{ID: "late"}), ErrPoolStopped)
}

func TestPool_SubmitRespectsContextWhenFull(t *testing.T) {
	block := make(chan struct{})
	pool := NewPool(1, 1, func(context.Context, Task) (string, error) {
		<-block
		return "", nil
	}, logger.Nop())
	pool.Start()
	defer func() {
		close(block)
		pool.Stop()
	}()

	require.NoError(t, pool.Submit(context.Background(), Task{ID: "running"}))
	// дождаться, пока worker заберёт первую задачу
	require.Eventually(t, func() bool { return pool.QueueSize() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, pool.Submit(context.Background(), Task{ID: "queued"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Submit(ctx, Task{ID: "overflow"}), context.DeadlineExceeded)
}

func TestPool_CanceledTaskStillReachesExecutor(t *testing.T) {
	var seen atomic.Bool
	pool := NewPool(1, 1, func(ctx context.Context, _ Task) (string, error) {
		seen.Store(true)
		return "", ctx.Err()
	}, logger.Nop())
	pool.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, pool.Submit(context.Background(), Task{ID: "canceled", Context: ctx}))
	pool.Stop()

	assert.True(t, seen.Load())
	assert.EqualValues(t, 1, pool.Metrics().TasksFailed)
}

func TestPool_RecoversFromPanic(t *testing.T) {
	var after atomic.Bool
	pool := NewPool(1, 2, func(_ context.Context, task Task) (string, error) {
		if task.ID == "panic" {
			panic("executor exploded")
		}
		after.Store(true)
		return "fine", nil
	}, logger.Nop())
	pool.Start()

	require.NoError(t, pool.Submit(context.Background(), Task{ID: "panic"}))
	require.NoError(t, pool.Submit(context.Background(), Task{ID: "after"}))
	pool.Stop()

	assert.True(t, after.Load())
	m := pool.Metrics()
	assert.EqualValues(t, 1, m.TasksFailed)
	assert.EqualValues(t, 1, m.TasksCompleted)
}

func TestPool_Concurrency(t *testing.T) {
	const workers = 3
	var (
		mu      sync.Mutex
		current int
		peak    int
	)
	pool := NewPool(workers, 20, func(context.Context, Task) (string, error) {
		mu.Lock()
		current++
		peak = max(peak, current)
		mu.Unlock()

		time.Sleep(20 * time.Millisecond)

		mu.Lock()
		current--
		mu.Unlock()
		return "", nil
	}, logger.Nop())
	pool.Start()

	for range 12 {
		require.NoError(t, pool.Submit(context.Background(), Task{ID: "t"}))
	}
	pool.Stop()

	assert.LessOrEqual(t, peak, workers)
	assert.Greater(t, peak, 1)
}
