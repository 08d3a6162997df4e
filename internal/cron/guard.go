package cron

import (
	"context"
	"sync"
)

// guard holds one slot per job id. It implements the skip and queue
// overlap policies.
type guard struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newGuard() *guard {
	return &guard{slots: make(map[string]chan struct{})}
}

func (g *guard) slot(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()

	ch, ok := g.slots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		g.slots[id] = ch
	}
	return ch
}

// TryAcquire takes the slot for id without waiting.
func (g *guard) TryAcquire(id string) bool {
	select {
	case g.slot(id) <- struct{}{}:
		return true
	default:
		return false
	}
}

// Acquire waits for the slot for id or for ctx to be done.
func (g *guard) Acquire(ctx context.Context, id string) error {
	select {
	case g.slot(id) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the slot for id.
func (g *guard) Release(id string) {
	select {
	case <-g.slot(id):
	default:
	}
}

// Busy reports whether the slot for id is held.
func (g *guard) Busy(id string) bool {
	return len(g.slot(id)) > 0
}
