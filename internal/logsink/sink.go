// Package logsink owns the append-only file that receives the combined
// output of every script execution.
//
// The file is only ever opened with O_APPEND and never truncated, rotated or
// compacted. Concurrent executions share one descriptor; each Write is a
// single append, so output of overlapping runs may interleave.
package logsink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrClosed is returned when writing to a closed sink.
var ErrClosed = errors.New("log sink closed")

const (
	fileMode = 0644
	dirMode  = 0755
	openFlag = os.O_CREATE | os.O_APPEND | os.O_WRONLY
)

// Ensure creates the parent directory and the file if missing. Existing
// content is preserved; calling it again is a no-op.
func Ensure(path string) error {
	file, err := openFile(path)
	if err != nil {
		return err
	}
	return file.Close()
}

// Sink appends to the log file.
type Sink struct {
	path string

	mu     sync.RWMutex
	file   *os.File
	closed bool
}

// Open opens path for appending, creating it and its directory if needed.
func Open(path string) (*Sink, error) {
	file, err := openFile(path)
	if err != nil {
		return nil, err
	}
	return &Sink{path: path, file: file}, nil
}

func openFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, openFlag, fileMode)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}

// Path returns the file location.
func (s *Sink) Path() string {
	return s.path
}

// Write appends p to the file. Safe for concurrent use.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrClosed
	}
	return s.file.Write(p)
}

// Sync flushes written output to disk.
func (s *Sink) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return s.file.Sync()
}

// Close syncs and closes the file. Further calls are no-ops.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	syncErr := s.file.Sync()
	closeErr := s.file.Close()
	return errors.Join(syncErr, closeErr)
}
