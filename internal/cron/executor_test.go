package cron

import (
	"context"
	"os"
	osexec "os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

func TestExecutor_Success(t *testing.T) {
	f := newFixture(t, `echo "args: $1 $2 $4"
echo "to stderr" >&2
pwd
`)
	exec := NewExecutor(f.job, f.sink, 0, 4096, nil)

	out := exec.Run(context.Background())

	assert.Equal(t, runs.StatusSuccess, out.Status)
	assert.Equal(t, 0, out.ExitCode)
	assert.NoError(t, out.Err)
	assert.False(t, out.FinishedAt.Before(out.StartedAt))

	content := f.logContent(t)
	assert.Contains(t, content, "args: true 11111111 fake_account\n")
	assert.Contains(t, content, "to stderr\n")
	assert.Contains(t, content, f.dir)
	assert.Equal(t, content, out.Tail)
}

// argsScript prints the argument count and each argument between brackets.
const argsScript = `echo "argc=$#"
for a in "$@"; do
	echo "[$a]"
done
`

const argsOutput = "argc=4\n[a b]\n[ c ]\n[]\n[d  e]\n"

func argsFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, argsScript)
	f.job.Invocation.Params = [4]string{"a b", " c ", "", "d  e"}
	return f
}

func TestExecutor_ParamsArriveVerbatim(t *testing.T) {
	f := argsFixture(t)
	exec := NewExecutor(f.job, f.sink, 0, 4096, nil)

	out := exec.Run(context.Background())

	require.Equal(t, runs.StatusSuccess, out.Status)
	assert.Equal(t, argsOutput, f.logContent(t))
}

func TestRecordCommand_ParamsArriveVerbatim(t *testing.T) {
	f := argsFixture(t)
	rec, err := trigger.NewRecord("0 2 * * *", f.job.Invocation)
	require.NoError(t, err)

	// Run the installed line the way cron would: the command after the schedule.
	inner, err := rec.ShellCommand()
	require.NoError(t, err)
	require.NoError(t, osexec.Command("/bin/sh", "-c", inner).Run())

	data, err := os.ReadFile(f.job.Invocation.LogPath)
	require.NoError(t, err)
	assert.Equal(t, argsOutput, string(data))
}

func TestExecutor_AppendsAcrossRuns(t *testing.T) {
	f := newFixture(t, "echo run\n")
	exec := NewExecutor(f.job, f.sink, 0, 4096, nil)

	exec.Run(context.Background())
	exec.Run(context.Background())

	assert.Equal(t, "run\nrun\n", f.logContent(t))
}

func TestExecutor_NonZeroExit(t *testing.T) {
	f := newFixture(t, "echo failing\nexit 3\n")

	out := NewExecutor(f.job, f.sink, 0, 4096, nil).Run(context.Background())

	assert.Equal(t, runs.StatusFailed, out.Status)
	assert.Equal(t, 3, out.ExitCode)
	assert.Error(t, out.Err)
	assert.Equal(t, "failing\n", out.Tail)
}

func TestExecutor_Timeout(t *testing.T) {
	f := newFixture(t, "echo slow\nsleep 5\n")

	start := time.Now()
	out := NewExecutor(f.job, f.sink, 200*time.Millisecond, 4096, nil).Run(context.Background())

	assert.Equal(t, runs.StatusTimedOut, out.Status)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Contains(t, f.logContent(t), "slow\n")
}

func TestExecutor_CanceledBeforeStart(t *testing.T) {
	f := newFixture(t, "echo never\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := NewExecutor(f.job, f.sink, 0, 4096, nil).Run(ctx)

	assert.Equal(t, runs.StatusCanceled, out.Status)
	assert.Empty(t, f.logContent(t))
}

func TestExecutor_CanceledWhileRunning(t *testing.T) {
	f := newFixture(t, "sleep 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	out := NewExecutor(f.job, f.sink, 0, 4096, nil).Run(ctx)

	assert.Equal(t, runs.StatusCanceled, out.Status)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestExecutor_RedactsTail(t *testing.T) {
	f := newFixture(t, `echo "password is $3"`+"\n")
	redactor := runs.NewRedactor([]string{"12345678"})

	out := NewExecutor(f.job, f.sink, 0, 4096, redactor).Run(context.Background())

	assert.Equal(t, "password is ***\n", out.Tail)
	// Лог получает вывод как есть
	assert.Equal(t, "password is 12345678\n", f.logContent(t))
}

func TestExecutor_TailBounded(t *testing.T) {
	f := newFixture(t, `i=0; while [ $i -lt 100 ]; do echo "line $i"; i=$((i+1)); done`+"\n")

	out := NewExecutor(f.job, f.sink, 0, 16, nil).Run(context.Background())

	assert.LessOrEqual(t, len(out.Tail), 16)
	assert.True(t, strings.HasSuffix(out.Tail, "line 99\n"))
}

func TestExecutor_MissingWorkDir(t *testing.T) {
	f := newFixture(t, "echo hi\n")
	f.job.Invocation.WorkDir = f.dir + "/absent"

	out := NewExecutor(f.job, f.sink, 0, 4096, nil).Run(context.Background())

	assert.Equal(t, runs.StatusFailed, out.Status)
	assert.Equal(t, -1, out.ExitCode)
	assert.Contains(t, f.logContent(t), "failed to start job")
}
