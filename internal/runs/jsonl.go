package runs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

// maxLineSize bounds a single journal line (output tail plus metadata).
const maxLineSize = 1 << 20

// JSONLStore keeps one JSON object per line.
type JSONLStore struct {
	path   string
	logger *logger.Logger
	mu     sync.Mutex
}

// OpenJSONL prepares a JSONL journal at path.
func OpenJSONL(path string, log *logger.Logger) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}
	return &JSONLStore{path: path, logger: log}, nil
}

// Append writes rec at the end of the journal.
func (s *JSONLStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		s.logger.Error("failed to open runs journal for append", err,
			logger.Field{Key: "file", Value: s.path})
		return fmt.Errorf("failed to open runs journal: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}
	return file.Sync()
}

// Recent reads the journal and returns the newest n records.
func (s *JSONLStore) Recent(ctx context.Context, n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open runs journal: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			s.logger.Warn("skipping unreadable run record",
				logger.Field{Key: "file", Value: s.path},
				logger.Field{Key: "line", Value: lineNum})
			continue
		}
		records = append(records, rec)
		if n > 0 && len(records) > n {
			records = records[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs journal: %w", err)
	}

	slices.Reverse(records)
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Close is a no-op: the file is opened per append.
func (s *JSONLStore) Close() error {
	return nil
}
