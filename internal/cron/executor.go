package cron

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
)

// waitDelay bounds how long Wait keeps copying output after the shell exits
// or is killed, when a child still holds the pipe.
const waitDelay = 5 * time.Second

// Syncer is implemented by outputs that can flush to disk.
type Syncer interface {
	Sync() error
}

// Outcome is the result of one script execution.
type Outcome struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Status     runs.Status
	ExitCode   int
	Err        error
	Tail       string
}

// Executor runs the job command through the shell.
type Executor struct {
	Shell     string
	Command   string
	WorkDir   string
	Output    io.Writer
	Timeout   time.Duration
	TailBytes int
	Redactor  *runs.Redactor
}

// NewExecutor creates an executor for job writing to output.
func NewExecutor(job Job, output io.Writer, timeout time.Duration, tailBytes int, redactor *runs.Redactor) *Executor {
	return &Executor{
		Shell:     job.Invocation.Shell,
		Command:   job.Invocation.ShellCommand(),
		WorkDir:   job.Invocation.WorkDir,
		Output:    output,
		Timeout:   timeout,
		TailBytes: tailBytes,
		Redactor:  redactor,
	}
}

// Run executes the command once. Stdout and stderr share one writer that
// appends to Output and keeps a bounded tail. A canceled ctx kills the
// process group.
func (e *Executor) Run(ctx context.Context) Outcome {
	out := Outcome{StartedAt: time.Now(), ExitCode: -1}

	if err := ctx.Err(); err != nil {
		out.FinishedAt = out.StartedAt
		out.Status = runs.StatusCanceled
		out.Err = err
		return out
	}

	runCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	tail := runs.NewTail(e.TailBytes)
	combined := io.MultiWriter(e.Output, tail)

	cmd := exec.CommandContext(runCtx, e.Shell, "-c", e.Command)
	cmd.Dir = e.WorkDir
	cmd.Stdout = combined
	cmd.Stderr = combined
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	err := cmd.Run()
	out.FinishedAt = time.Now()
	out.Tail = e.Redactor.Redact(tail.String())

	if s, ok := e.Output.(Syncer); ok {
		_ = s.Sync()
	}

	switch {
	case err == nil:
		out.Status = runs.StatusSuccess
		out.ExitCode = 0
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		out.Status = runs.StatusTimedOut
		out.Err = fmt.Errorf("execution exceeded timeout of %s", e.Timeout)
	case ctx.Err() != nil:
		out.Status = runs.StatusCanceled
		out.Err = ctx.Err()
	default:
		out.Status = runs.StatusFailed
		out.Err = err
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		} else {
			// Процесс не запустился: оставить след в логе, как это сделал бы shell
			_, _ = fmt.Fprintf(e.Output, "bourso-cron: failed to start job: %v\n", e.Redactor.Redact(err.Error()))
		}
	}

	return out
}
