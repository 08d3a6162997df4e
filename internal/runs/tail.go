package runs

import (
	"sync"
	"unicode/utf8"
)

// Tail is an io.Writer keeping only the last limit bytes written.
type Tail struct {
	mu        sync.Mutex
	limit     int
	buf       []byte
	truncated bool
}

// NewTail creates a tail buffer. A limit <= 0 keeps nothing.
func NewTail(limit int) *Tail {
	if limit < 0 {
		limit = 0
	}
	return &Tail{limit: limit, buf: make([]byte, 0, min(limit, 4096))}
}

// Write always accepts all of p.
func (t *Tail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	if t.limit == 0 {
		t.truncated = t.truncated || n > 0
		return n, nil
	}

	if len(p) >= t.limit {
		t.truncated = t.truncated || len(t.buf) > 0 || len(p) > t.limit
		t.buf = append(t.buf[:0], p[len(p)-t.limit:]...)
		return n, nil
	}

	if overflow := len(t.buf) + len(p) - t.limit; overflow > 0 {
		t.truncated = true
		t.buf = append(t.buf[:0], t.buf[overflow:]...)
	}
	t.buf = append(t.buf, p...)
	return n, nil
}

// String returns the kept bytes, starting at a UTF-8 boundary.
func (t *Tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.buf
	if t.truncated {
		for len(b) > 0 && !utf8.RuneStart(b[0]) {
			b = b[1:]
		}
	}
	return string(b)
}

// Truncated reports whether earlier output was dropped.
func (t *Tail) Truncated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.truncated
}
