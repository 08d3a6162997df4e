package trigger

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

// ErrNotInstalled is returned by Load when no table exists yet.
var ErrNotInstalled = errors.New("trigger table not installed")

// tableMode is the permission of the installed table.
const tableMode = 0644

// Table is the on-disk trigger table holding a single record.
type Table struct {
	path   string
	logger *logger.Logger
}

// NewTable creates a table bound to path.
func NewTable(path string, log *logger.Logger) *Table {
	return &Table{path: path, logger: log}
}

// Path returns the table location.
func (t *Table) Path() string {
	return t.path
}

// Install replaces the table content with rec using an atomic write.
// It returns the revision found before the write ("" when none) and whether
// the content changed. An invalid schedule leaves the table untouched.
func (t *Table) Install(rec Record) (previous string, changed bool, err error) {
	if err := ValidateSchedule(rec.Schedule); err != nil {
		return "", false, err
	}

	line := []byte(rec.Line())

	old, err := os.ReadFile(t.path)
	switch {
	case err == nil:
		if prev, perr := ParseLine(string(old)); perr == nil {
			previous = prev.Revision()
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return "", false, fmt.Errorf("failed to read trigger table: %w", err)
	}
	changed = !bytes.Equal(old, line)

	if err := t.write(line); err != nil {
		return previous, false, err
	}

	t.logger.Debug("trigger table written",
		logger.Field{Key: "file", Value: t.path},
		logger.Field{Key: "revision", Value: rec.Revision()},
		logger.Field{Key: "changed", Value: changed})

	return previous, changed, nil
}

// write stores data in a temporary file, syncs it and renames it over the table.
func (t *Table) write(data []byte) error {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.logger.Error("failed to create trigger table directory", err,
			logger.Field{Key: "dir", Value: dir})
		return fmt.Errorf("failed to create trigger table directory: %w", err)
	}

	tmpPath := t.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, tableMode)
	if err != nil {
		t.logger.Error("failed to create temporary trigger table", err,
			logger.Field{Key: "file", Value: tmpPath})
		return fmt.Errorf("failed to create temporary trigger table: %w", err)
	}

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary trigger table: %w", err)
	}

	// Ensure all data is written to disk
	if err := file.Sync(); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temporary trigger table: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temporary trigger table: %w", err)
	}

	// Atomically rename temporary file to actual file
	if err := os.Rename(tmpPath, t.path); err != nil {
		t.logger.Error("failed to rename temporary trigger table", err,
			logger.Field{Key: "from", Value: tmpPath},
			logger.Field{Key: "to", Value: t.path})
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to install trigger table: %w", err)
	}

	return nil
}

// Load reads the installed record back.
func (t *Table) Load() (Record, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrNotInstalled
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read trigger table: %w", err)
	}

	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte("\n"))
	if len(lines) != 1 {
		return Record{}, fmt.Errorf("%w: table holds %d lines, expected 1", ErrMalformedRecord, len(lines))
	}
	return ParseLine(string(lines[0]))
}
