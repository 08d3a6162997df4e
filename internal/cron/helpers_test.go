package cron

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logsink"
	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

// fixture is a job whose script lives in a temp directory and whose
// output and journal stay there too.
type fixture struct {
	dir   string
	job   Job
	table *trigger.Table
	sink  *logsink.Sink
	store *runs.JSONLStore
}

func newFixture(t *testing.T, script string) *fixture {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.sh"), []byte(script), 0755))

	inv := trigger.Invocation{
		Shell:       "/bin/sh",
		Interpreter: "/bin/sh",
		Script:      "job.sh",
		WorkDir:     dir,
		LogPath:     filepath.Join(dir, "cron.log"),
		Params:      [4]string{"true", "11111111", "12345678", "fake_account"},
	}
	rec, err := trigger.NewRecord("0 2 * * *", inv)
	require.NoError(t, err)

	table := trigger.NewTable(filepath.Join(dir, "bourso-cron"), logger.Nop())
	_, _, err = table.Install(rec)
	require.NoError(t, err)

	sink, err := logsink.Open(inv.LogPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	store, err := runs.OpenJSONL(filepath.Join(dir, "runs.jsonl"), logger.Nop())
	require.NoError(t, err)

	return &fixture{
		dir:   dir,
		job:   Job{ID: "bourso-scrap", Record: rec, Invocation: inv},
		table: table,
		sink:  sink,
		store: store,
	}
}

func (f *fixture) logContent(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.job.Invocation.LogPath)
	require.NoError(t, err)
	return string(data)
}
