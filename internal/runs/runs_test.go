package runs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

func sampleRecord(i int, status Status) Record {
	started := time.Date(2026, 3, 1, 2, 0, i, 0, time.UTC)
	rec := NewRecord("bourso-scrap", "abcdef123456", TriggerSchedule)
	rec.ScheduledAt = started
	rec.StartedAt = started
	rec.OutputTail = "line\n"
	rec.Finish(started.Add(1500*time.Millisecond), status, 0, nil)
	return rec
}

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	jsonl, err := Open(config.RunsConfig{Backend: config.RunsBackendJSONL, Path: filepath.Join(dir, "runs.jsonl")}, logger.Nop())
	require.NoError(t, err)
	sqlite, err := Open(config.RunsConfig{Backend: config.RunsBackendSQLite, Path: filepath.Join(dir, "runs.db")}, logger.Nop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = jsonl.Close()
		_ = sqlite.Close()
	})
	return map[string]Store{"jsonl": jsonl, "sqlite": sqlite}
}

func TestStore_AppendAndRecent(t *testing.T) {
	for name, store := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			empty, err := store.Recent(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, empty)

			var ids []string
			for i, status := range []Status{StatusSuccess, StatusFailed, StatusSkipped} {
				rec := sampleRecord(i, status)
				ids = append(ids, rec.ID)
				require.NoError(t, store.Append(ctx, rec))
			}

			recent, err := store.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, ids[2], recent[0].ID)
			assert.Equal(t, ids[1], recent[1].ID)
			assert.Equal(t, StatusFailed, recent[1].Status)
			assert.Equal(t, int64(1500), recent[1].DurationMS)
			assert.Equal(t, "line\n", recent[1].OutputTail)
			assert.True(t, recent[1].StartedAt.Equal(time.Date(2026, 3, 1, 2, 0, 1, 0, time.UTC)))

			all, err := store.Recent(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 3)
		})
	}
}

func TestStore_DuplicateIDRejectedBySQLite(t *testing.T) {
	store := openBackends(t)["sqlite"]
	rec := sampleRecord(0, StatusSuccess)

	require.NoError(t, store.Append(context.Background(), rec))
	assert.Error(t, store.Append(context.Background(), rec))
}

func TestSQLite_AppliesPragmas(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := logger.New(logger.Config{Level: "debug", Format: "json", Writer: buf})
	require.NoError(t, err)

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "runs.db"), log)
	require.NoError(t, err)
	defer store.Close()

	var mode string
	require.NoError(t, store.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	assert.NotContains(t, buf.String(), "failed to apply sqlite pragma")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(config.RunsConfig{Backend: "postgres", Path: filepath.Join(t.TempDir(), "x")}, logger.Nop())
	assert.Error(t, err)
}

func TestJSONL_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := OpenJSONL(path, logger.Nop())
	require.NoError(t, err)

	require.NoError(t, store.Append(context.Background(), sampleRecord(0, StatusSuccess)))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, store.Append(context.Background(), sampleRecord(1, StatusSuccess)))

	recent, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestJSONL_LargestTailReadsBack(t *testing.T) {
	store, err := OpenJSONL(filepath.Join(t.TempDir(), "runs.jsonl"), logger.Nop())
	require.NoError(t, err)

	// Control bytes expand sixfold in JSON.
	rec := sampleRecord(1, StatusFailed)
	rec.OutputTail = strings.Repeat("\x01", constants.MaxOutputTailBytes)
	require.NoError(t, store.Append(context.Background(), rec))
	require.NoError(t, store.Append(context.Background(), sampleRecord(2, StatusSuccess)))

	records, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, rec.OutputTail, records[1].OutputTail)
}

func TestRecord_Finish(t *testing.T) {
	rec := NewRecord("job", "rev", TriggerManual)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, -1, rec.ExitCode)

	rec.StartedAt = time.Now()
	rec.Finish(rec.StartedAt.Add(2*time.Second), StatusFailed, 3, errors.New("exit status 3"))
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, 3, rec.ExitCode)
	assert.Equal(t, "exit status 3", rec.Error)
	assert.Equal(t, 2*time.Second, rec.Duration())
}

func TestRedactor(t *testing.T) {
	r := NewRedactor([]string{"12345678", "", "1234"})

	assert.Equal(t, "login *** ok", r.Redact("login 12345678 ok"))
	assert.Equal(t, "pin ***", r.Redact("pin 1234"))
	assert.Equal(t, "nothing here", r.Redact("nothing here"))

	var nilRedactor *Redactor
	assert.Equal(t, "x", nilRedactor.Redact("x"))
	assert.Equal(t, "12345678", NewRedactor(nil).Redact("12345678"))
}

func TestRedactor_MetacharactersAndNormalization(t *testing.T) {
	r := NewRedactor([]string{"p@ss.(word)+", "café"})

	assert.Equal(t, "pw=***", r.Redact("pw=p@ss.(word)+"))
	assert.Equal(t, "pw=p@ssX(word)+", r.Redact("pw=p@ssX(word)+"))
	assert.Equal(t, "*** au lait", r.Redact("café au lait"))
}

func TestTail(t *testing.T) {
	tail := NewTail(8)
	_, _ = tail.Write([]byte("hello "))
	assert.Equal(t, "hello ", tail.String())
	assert.False(t, tail.Truncated())

	_, _ = tail.Write([]byte("world"))
	assert.Equal(t, "lo world", tail.String())
	assert.True(t, tail.Truncated())

	n, err := tail.Write([]byte(strings.Repeat("x", 20)))
	require.NoError(t, err)
	assert.Equal(t, 20, n)
	assert.Equal(t, strings.Repeat("x", 8), tail.String())
}

func TestTail_UTF8Boundary(t *testing.T) {
	tail := NewTail(5)
	_, _ = tail.Write([]byte("aé€x"))

	// "é€x" занимает 2+3+1 байта, последние 5 начинаются внутри "é"
	assert.Equal(t, "€x", tail.String())
}

func TestTail_Disabled(t *testing.T) {
	tail := NewTail(0)
	n, err := tail.Write([]byte("data"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Empty(t, tail.String())
}
