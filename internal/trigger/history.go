package trigger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// HistoryEntry records one install. The command is not stored: it carries
// the password.
type HistoryEntry struct {
	InstalledAt time.Time `json:"installed_at" yaml:"installed_at"`
	Schedule    string    `json:"schedule" yaml:"schedule"`
	Revision    string    `json:"revision" yaml:"revision"`
	Previous    string    `json:"previous_revision,omitempty" yaml:"previous_revision,omitempty"`
	Changed     bool      `json:"changed" yaml:"changed"`
}

// History is the append-only JSONL journal of installs.
type History struct {
	path string
}

// NewHistory creates a history journal at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Append adds an entry to the end of the journal.
func (h *History) Append(entry HistoryEntry) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	file, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open install history: %w", err)
	}
	defer file.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write history entry: %w", err)
	}
	return nil
}

// Entries returns all recorded installs, oldest first. Unreadable lines are skipped.
func (h *History) Entries() ([]HistoryEntry, error) {
	file, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open install history: %w", err)
	}
	defer file.Close()

	var entries []HistoryEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry HistoryEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read install history: %w", err)
	}
	return entries, nil
}
