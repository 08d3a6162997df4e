package runs

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

//go:embed migrations.sql
var migrations string

// SQLiteStore keeps records in an append-only sqlite table.
type SQLiteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// pragmas tune the connection. Failures are logged, not fatal.
var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, log *logger.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create runs directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open runs database: %w", err)
	}
	// Один writer: supervisor пишет записи последовательно
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			log.Warn("failed to apply sqlite pragma",
				logger.Field{Key: "pragma", Value: pragma},
				logger.Field{Key: "error", Value: err.Error()})
		}
	}

	if _, err := db.Exec(migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate runs database: %w", err)
	}

	return &SQLiteStore{db: db, logger: log}, nil
}

// Append inserts rec.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(id, job_id, revision, source, scheduled_at, started_at, finished_at,
		                  duration_ms, status, exit_code, error, output_tail)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.JobID, rec.Revision, rec.Trigger,
		formatTime(rec.ScheduledAt), rec.StartedAt.Format(time.RFC3339Nano), formatTime(rec.FinishedAt),
		rec.DurationMS, string(rec.Status), rec.ExitCode, nullStr(rec.Error), nullStr(rec.OutputTail),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Record, error) {
	limit := n
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, revision, source, scheduled_at, started_at, finished_at,
		        duration_ms, status, exit_code, error, output_tail
		 FROM runs ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run records: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var (
			rec                              Record
			scheduledAt, startedAt, finished sql.NullString
			status                           string
			errText, tail                    sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.JobID, &rec.Revision, &rec.Trigger,
			&scheduledAt, &startedAt, &finished,
			&rec.DurationMS, &status, &rec.ExitCode, &errText, &tail); err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		rec.ScheduledAt = parseTime(scheduledAt)
		rec.StartedAt = parseTime(startedAt)
		rec.FinishedAt = parseTime(finished)
		rec.Status = Status(status)
		rec.Error = errText.String
		rec.OutputTail = tail.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(v sql.NullString) time.Time {
	if !v.Valid || v.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
