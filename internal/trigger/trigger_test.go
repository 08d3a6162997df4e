package trigger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

const scenarioLine = `0 2 * * * /bin/sh -c 'cd /app && /usr/local/bin/python script.py "true" "11111111" "12345678" "fake_account" >> /var/log/cron.log 2>&1'` + "\n"

// scenarioConfig returns the documented default deployment with state under dir.
func scenarioConfig(dir string) *config.Config {
	return &config.Config{
		Job: config.JobConfig{
			ID:           "bourso-scrap",
			Schedule:     "0 2 * * *",
			DryRun:       "true",
			ClientNumber: "11111111",
			Password:     "12345678",
			Account:      "fake_account",
		},
		Invocation: config.InvocationConfig{
			Shell:       "/bin/sh",
			Interpreter: "/usr/local/bin/python",
			Script:      "script.py",
			WorkDir:     "/app",
		},
		Paths: config.PathsConfig{
			Table:    filepath.Join(dir, "cron.d", "bourso-cron"),
			Log:      "/var/log/cron.log",
			StateDir: filepath.Join(dir, "state"),
		},
	}
}

type countingRecorder struct {
	changed   int
	unchanged int
}

func (r *countingRecorder) RecordInstall(changed bool) {
	if changed {
		r.changed++
		return
	}
	r.unchanged++
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{expr: "0 2 * * *"},
		{expr: "*/5 * * * *"},
		{expr: "0 9-17 * * 1-5"},
		{expr: "  0   2 * * *  "},
		{expr: "bad", wantErr: true},
		{expr: "", wantErr: true},
		{expr: "0 2 * *", wantErr: true},
		{expr: "0 0 2 * * *", wantErr: true},
		{expr: "61 2 * * *", wantErr: true},
		{expr: "@daily", wantErr: true},
		{expr: "@every 1h", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateSchedule(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSchedule))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNextRuns(t *testing.T) {
	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	times, err := NextRuns("0 2 * * *", from, 2)
	require.NoError(t, err)
	require.Len(t, times, 2)
	assert.Equal(t, time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC), times[0])
	assert.Equal(t, time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC), times[1])
}

func TestRecord_ScenarioLine(t *testing.T) {
	inv, err := NewInvocation(scenarioConfig(t.TempDir()))
	require.NoError(t, err)

	rec, err := NewRecord("0 2 * * *", inv)
	require.NoError(t, err)

	assert.Equal(t, scenarioLine, rec.Line())
	assert.Len(t, rec.Revision(), 12)
	assert.Equal(t, `cd /app && /usr/local/bin/python script.py "true" "11111111" "12345678" "fake_account"`, inv.ShellCommand())
	assert.Empty(t, inv.Unsafe())
}

func TestRecord_ArgsRoundTrip(t *testing.T) {
	cfg := scenarioConfig(t.TempDir())
	cfg.Job.Account = "joint account"
	cfg.Job.DryRun = ""

	inv, err := NewInvocation(cfg)
	require.NoError(t, err)
	rec, err := NewRecord(cfg.Job.Schedule, inv)
	require.NoError(t, err)

	parsed, err := ParseLine(rec.Line())
	require.NoError(t, err)
	assert.Equal(t, rec, parsed)

	args, err := parsed.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"", "11111111", "12345678", "joint account"}, args)
}

func TestRecord_PaddedScheduleRoundTrip(t *testing.T) {
	inv, err := NewInvocation(scenarioConfig(t.TempDir()))
	require.NoError(t, err)

	for _, expr := range []string{"0  2 * * *", " 0 2 * * *", "0 2 * * * ", "0\t2 * * *"} {
		t.Run(expr, func(t *testing.T) {
			rec, err := NewRecord(expr, inv)
			require.NoError(t, err)
			assert.Equal(t, "0 2 * * *", rec.Schedule)
			assert.Equal(t, scenarioLine, rec.Line())

			table := NewTable(filepath.Join(t.TempDir(), "bourso-cron"), logger.Nop())
			_, _, err = table.Install(rec)
			require.NoError(t, err)

			loaded, err := table.Load()
			require.NoError(t, err)
			assert.Equal(t, rec, loaded)
		})
	}
}

func TestParseLine_Errors(t *testing.T) {
	_, err := ParseLine("0 2 * *")
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = ParseLine("bad bad bad bad bad /bin/true")
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	rec, err := ParseLine("0 2 * * * /bin/true")
	require.NoError(t, err)
	_, err = rec.Args()
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestInvocation_Params(t *testing.T) {
	cfg := scenarioConfig(t.TempDir())
	cfg.Job.Password = "multi\nline"
	_, err := NewInvocation(cfg)
	assert.ErrorIs(t, err, ErrInvalidParam)

	cfg = scenarioConfig(t.TempDir())
	cfg.Job.DryRun = `say "hi"`
	cfg.Job.Password = "pa$$word"
	cfg.Job.Account = "it's"
	inv, err := NewInvocation(cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 3}, inv.Unsafe())
}

func TestTable_InstallIsAtomicAndIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := scenarioConfig(dir)
	table := NewTable(cfg.Paths.Table, logger.Nop())

	inv, err := NewInvocation(cfg)
	require.NoError(t, err)
	rec, err := NewRecord(cfg.Job.Schedule, inv)
	require.NoError(t, err)

	previous, changed, err := table.Install(rec)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, previous)

	first, err := os.ReadFile(cfg.Paths.Table)
	require.NoError(t, err)
	assert.Equal(t, scenarioLine, string(first))

	previous, changed, err = table.Install(rec)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, rec.Revision(), previous)

	second, err := os.ReadFile(cfg.Paths.Table)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = os.Stat(cfg.Paths.Table + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not be left behind")

	loaded, err := table.Load()
	require.NoError(t, err)
	assert.Equal(t, rec, loaded)
}

func TestTable_LoadMissing(t *testing.T) {
	table := NewTable(filepath.Join(t.TempDir(), "absent"), logger.Nop())
	_, err := table.Load()
	assert.ErrorIs(t, err, ErrNotInstalled)
}

func TestInstaller_Install(t *testing.T) {
	dir := t.TempDir()
	cfg := scenarioConfig(dir)
	recorder := &countingRecorder{}
	installer := NewInstaller(cfg, logger.Nop(), recorder)

	installed, err := installer.Install(context.Background())
	require.NoError(t, err)
	assert.True(t, installed.Changed)
	assert.Equal(t, installed.Record.Revision(), installed.Revision)

	again, err := installer.Install(context.Background())
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, installed.Revision, again.Revision)

	// Новая конфигурация полностью заменяет запись
	cfg.Job.Schedule = "30 6 * * 1"
	replaced, err := installer.Install(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced.Changed)
	assert.Equal(t, installed.Revision, replaced.Previous)

	data, err := os.ReadFile(cfg.Paths.Table)
	require.NoError(t, err)
	assert.Equal(t, replaced.Record.Line(), string(data))

	entries, err := installer.History().Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "30 6 * * 1", entries[2].Schedule)
	assert.Equal(t, installed.Revision, entries[2].Previous)

	history, err := os.ReadFile(cfg.Paths.HistoryPath())
	require.NoError(t, err)
	assert.NotContains(t, string(history), "12345678", "history must not contain the password")

	assert.Equal(t, 2, recorder.changed)
	assert.Equal(t, 1, recorder.unchanged)
}

func TestInstaller_InvalidScheduleWritesNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := scenarioConfig(dir)
	cfg.Job.Schedule = "bad"

	_, err := NewInstaller(cfg, logger.Nop(), nil).Install(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = os.Stat(cfg.Paths.Table)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.Paths.HistoryPath())
	assert.True(t, os.IsNotExist(err))
}

func TestInstaller_InvalidScheduleKeepsPreviousTable(t *testing.T) {
	dir := t.TempDir()
	cfg := scenarioConfig(dir)
	installer := NewInstaller(cfg, logger.Nop(), nil)

	_, err := installer.Install(context.Background())
	require.NoError(t, err)

	cfg.Job.Schedule = "bad"
	_, err = installer.Install(context.Background())
	require.Error(t, err)

	data, err := os.ReadFile(cfg.Paths.Table)
	require.NoError(t, err)
	assert.Equal(t, scenarioLine, string(data))
}

func TestInstaller_CanceledContext(t *testing.T) {
	cfg := scenarioConfig(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInstaller(cfg, logger.Nop(), nil).Install(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(cfg.Paths.Table)
	assert.True(t, os.IsNotExist(statErr))
}
