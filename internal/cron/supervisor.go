// Package cron drives the installed trigger table: it activates the table,
// fires the job on every schedule tick through a worker pool, applies the
// overlap policy and records each execution in the run journal.
package cron

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
	"github.com/maliciamrg/bourso-bank-scrap/internal/workers"
)

var (
	// ErrNotActivated is returned by Start before a table was activated.
	ErrNotActivated = errors.New("trigger table not activated")
	// ErrTableMismatch is returned when the installed table differs from the compiled record.
	ErrTableMismatch = errors.New("installed trigger table does not match configuration")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("supervisor already started")
)

// taskType labels supervisor tasks in the worker pool.
const taskType = "cron"

// RunRecorder observes executions.
type RunRecorder interface {
	RunStarted()
	RunDone()
	ObserveRun(status string, d time.Duration)
}

// Options configures the supervisor.
type Options struct {
	Overlap         string
	Timeout         time.Duration
	ShutdownGrace   time.Duration
	Location        *time.Location
	OutputTailBytes int
	PoolSize        int
	QueueSize       int
}

// OptionsFromConfig maps configuration onto supervisor options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Overlap:         cfg.Supervisor.Overlap,
		Timeout:         cfg.Supervisor.Timeout(),
		ShutdownGrace:   cfg.Supervisor.ShutdownGrace(),
		Location:        cfg.Supervisor.Location(),
		OutputTailBytes: cfg.Runs.OutputTailBytes,
		PoolSize:        cfg.Workers.PoolSize,
		QueueSize:       cfg.Workers.QueueSize,
	}
}

// runTask is the pool payload of one dispatched tick.
type runTask struct {
	record runs.Record
	held   bool // overlap slot already taken at dispatch
}

// Supervisor manages cron ticks and job executions.
type Supervisor struct {
	opts     Options
	output   io.Writer
	store    runs.Store
	recorder RunRecorder
	redactor *runs.Redactor
	logger   *logger.Logger

	cron  *cron.Cron
	pool  *workers.WorkerPool
	guard *guard

	skipWarn rate.Sometimes

	mu         sync.RWMutex
	job        Job
	executor   *Executor
	entryID    cron.EntryID
	activated  bool
	started    bool
	stopping   bool
	runCtx     context.Context
	cancelRuns context.CancelFunc

	// dispatchCtx bounds ticks blocked on a full queue
	dispatchCtx    context.Context
	cancelDispatch context.CancelFunc
	pending        sync.WaitGroup
}

// NewSupervisor creates a supervisor writing script output to output and
// records to store. recorder and redactor may be nil.
func NewSupervisor(opts Options, output io.Writer, store runs.Store, recorder RunRecorder, redactor *runs.Redactor, log *logger.Logger) *Supervisor {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Overlap == "" {
		opts.Overlap = config.OverlapAllow
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}

	s := &Supervisor{
		opts:     opts,
		output:   output,
		store:    store,
		recorder: recorder,
		redactor: redactor,
		logger:   log,
		guard:    newGuard(),
		skipWarn: rate.Sometimes{First: 1, Interval: 10 * time.Minute},
	}
	s.cron = cron.New(
		cron.WithLocation(opts.Location),
		cron.WithLogger(cronLogger{logger: log}),
	)
	s.pool = workers.NewPool(opts.PoolSize, opts.QueueSize, s.executeTask, log)
	s.runCtx, s.cancelRuns = context.WithCancel(context.Background())
	s.dispatchCtx, s.cancelDispatch = context.WithCancel(context.Background())
	return s
}

// Activate loads the installed table, checks that it holds exactly the
// compiled record of job and registers its schedule.
func (s *Supervisor) Activate(table *trigger.Table, job Job) error {
	installed, err := table.Load()
	if err != nil {
		return fmt.Errorf("failed to load trigger table: %w", err)
	}
	if installed != job.Record {
		return fmt.Errorf("%w: installed revision %s, expected %s", ErrTableMismatch, installed.Revision(), job.Revision())
	}

	sched, err := trigger.ParseSchedule(installed.Schedule, s.opts.Location)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activated {
		s.cron.Remove(s.entryID)
	}
	s.entryID = s.cron.Schedule(sched, cron.FuncJob(func() {
		s.tick(time.Now().In(s.opts.Location))
	}))
	s.job = job
	s.executor = NewExecutor(job, s.output, s.opts.Timeout, s.opts.OutputTailBytes, s.redactor)
	s.activated = true

	s.logger.Info("trigger table activated",
		logger.Field{Key: "file", Value: table.Path()},
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "schedule", Value: installed.Schedule},
		logger.Field{Key: "revision", Value: job.Revision()},
		logger.Field{Key: "overlap", Value: s.opts.Overlap})
	return nil
}

// Start starts the worker pool and the cron timer. It does not block.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.activated {
		return ErrNotActivated
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	s.pool.Start()
	s.cron.Start()

	s.logger.InfoCtx(ctx, "cron supervisor started",
		logger.Field{Key: "job_id", Value: s.job.ID},
		logger.Field{Key: "next_run", Value: s.cron.Entry(s.entryID).Next})
	return nil
}

// NextRun returns the next activation time, zero when not started.
func (s *Supervisor) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.activated {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// tick dispatches one scheduled activation.
func (s *Supervisor) tick(now time.Time) {
	s.mu.RLock()
	if s.stopping || !s.activated {
		s.mu.RUnlock()
		return
	}
	job := s.job
	s.mu.RUnlock()

	rec := runs.NewRecord(job.ID, job.Revision(), runs.TriggerSchedule)
	rec.ScheduledAt = now.Truncate(time.Minute)

	held := false
	if s.opts.Overlap == config.OverlapSkip {
		if !s.guard.TryAcquire(job.ID) {
			s.recordSkipped(rec)
			return
		}
		held = true
	}

	s.pending.Add(1)
	task := workers.Task{
		ID:      rec.ID,
		Type:    taskType,
		Payload: runTask{record: rec, held: held},
		Context: s.runCtx,
	}
	if err := s.pool.Submit(s.dispatchCtx, task); err != nil {
		if held {
			s.guard.Release(job.ID)
		}
		s.logger.Error("failed to dispatch job", err,
			logger.Field{Key: "job_id", Value: job.ID},
			logger.Field{Key: "run_id", Value: rec.ID})

		finished := time.Now()
		rec.StartedAt = finished
		rec.Finish(finished, runs.StatusCanceled, -1, fmt.Errorf("dispatch: %w", err))
		s.appendRecord(rec)
		s.recorder.ObserveRun(string(rec.Status), 0)
		s.pending.Done()
		return
	}

	s.logger.Debug("job dispatched",
		logger.Field{Key: "job_id", Value: job.ID},
		logger.Field{Key: "run_id", Value: rec.ID},
		logger.Field{Key: "scheduled_at", Value: rec.ScheduledAt})
}

// recordSkipped stores a tick that was not run because the previous
// execution is still active.
func (s *Supervisor) recordSkipped(rec runs.Record) {
	now := time.Now()
	rec.StartedAt = now
	rec.Finish(now, runs.StatusSkipped, -1, nil)
	rec.Error = "previous execution still running"

	s.appendRecord(rec)
	s.recorder.ObserveRun(string(rec.Status), 0)

	s.logger.Debug("skipped overlapping run",
		logger.Field{Key: "job_id", Value: rec.JobID},
		logger.Field{Key: "run_id", Value: rec.ID})
	s.skipWarn.Do(func() {
		s.logger.Warn("skipping ticks while the previous execution is still running",
			logger.Field{Key: "job_id", Value: rec.JobID},
			logger.Field{Key: "overlap", Value: s.opts.Overlap})
	})
}

// executeTask is the worker pool executor.
func (s *Supervisor) executeTask(ctx context.Context, task workers.Task) (string, error) {
	rt, ok := task.Payload.(runTask)
	if !ok {
		return "", fmt.Errorf("invalid task payload: %T", task.Payload)
	}
	defer s.pending.Done()

	s.mu.RLock()
	exec := s.executor
	s.mu.RUnlock()

	jobID := rt.record.JobID
	if rt.held {
		defer s.guard.Release(jobID)
	}
	if s.opts.Overlap == config.OverlapQueue {
		if err := s.guard.Acquire(ctx, jobID); err != nil {
			rec := rt.record
			now := time.Now()
			rec.StartedAt = now
			rec.Finish(now, runs.StatusCanceled, -1, err)
			s.appendRecord(rec)
			s.recorder.ObserveRun(string(rec.Status), 0)
			return "", err
		}
		defer s.guard.Release(jobID)
	}

	rec := s.run(ctx, exec, rt.record)
	if rec.Status != runs.StatusSuccess {
		return rec.OutputTail, errors.New(rec.Error)
	}
	return rec.OutputTail, nil
}

// run executes once and stores the record.
func (s *Supervisor) run(ctx context.Context, exec *Executor, rec runs.Record) runs.Record {
	s.recorder.RunStarted()
	defer s.recorder.RunDone()

	s.logger.InfoCtx(ctx, "job started",
		logger.Field{Key: "job_id", Value: rec.JobID},
		logger.Field{Key: "run_id", Value: rec.ID},
		logger.Field{Key: "trigger", Value: rec.Trigger})

	out := exec.Run(ctx)

	rec.StartedAt = out.StartedAt
	rec.Finish(out.FinishedAt, out.Status, out.ExitCode, out.Err)
	rec.Error = s.redactor.Redact(rec.Error)
	rec.OutputTail = out.Tail

	s.appendRecord(rec)
	s.recorder.ObserveRun(string(rec.Status), rec.Duration())

	fields := []logger.Field{
		{Key: "job_id", Value: rec.JobID},
		{Key: "run_id", Value: rec.ID},
		{Key: "status", Value: rec.Status},
		{Key: "exit_code", Value: rec.ExitCode},
		{Key: "duration_ms", Value: rec.DurationMS},
	}
	if rec.Status == runs.StatusSuccess {
		s.logger.InfoCtx(ctx, "job finished", fields...)
	} else {
		s.logger.WarnCtx(ctx, "job finished with error", append(fields, logger.Field{Key: "error", Value: rec.Error})...)
	}
	return rec
}

func (s *Supervisor) appendRecord(rec runs.Record) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Append(ctx, rec); err != nil {
		s.logger.Error("failed to append run record", err,
			logger.Field{Key: "run_id", Value: rec.ID})
	}
}

// RunOnce executes job immediately and synchronously, outside the schedule.
func (s *Supervisor) RunOnce(ctx context.Context, job Job) runs.Record {
	exec := NewExecutor(job, s.output, s.opts.Timeout, s.opts.OutputTailBytes, s.redactor)
	rec := runs.NewRecord(job.ID, job.Revision(), runs.TriggerManual)
	return s.run(ctx, exec, rec)
}

// Stop stops the timer, lets in-flight executions finish within the
// shutdown grace, kills what remains and stops the pool. ctx bounds the
// wait as well.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopping {
		s.mu.Unlock()
		return nil
	}
	s.stopping = true
	s.mu.Unlock()

	// Новые тики больше не запускаются. Тик, застрявший на полной очереди,
	// держит cron.Stop, поэтому ожидание идёт под тем же таймером grace.
	cronDone := s.cron.Stop().Done()

	done := make(chan struct{})
	go func() {
		<-cronDone
		s.pending.Wait()
		close(done)
	}()

	grace := time.NewTimer(s.opts.ShutdownGrace)
	defer grace.Stop()

	select {
	case <-done:
	case <-grace.C:
		s.logger.Warn("shutdown grace expired, canceling running executions",
			logger.Field{Key: "grace", Value: s.opts.ShutdownGrace.String()})
		s.cancelAll()
		<-done
	case <-ctx.Done():
		s.cancelAll()
		<-done
	}

	s.cancelAll()
	s.pool.Stop()

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	s.logger.Info("cron supervisor stopped")
	return nil
}

// cancelAll aborts blocked dispatches and kills running executions.
func (s *Supervisor) cancelAll() {
	s.cancelDispatch()
	s.cancelRuns()
}

// Running reports whether the supervisor was started and not stopped.
func (s *Supervisor) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && !s.stopping
}

type noopRecorder struct{}

func (noopRecorder) RunStarted()                      {}
func (noopRecorder) RunDone()                         {}
func (noopRecorder) ObserveRun(string, time.Duration) {}
