// Package runs keeps the append-only journal of script executions.
//
// Every activation, manual run or skipped tick produces one Record. Records
// are never updated in place; the journal is written by the supervisor and
// read by the CLI.
package runs

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of an execution.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
	StatusCanceled Status = "canceled"
	StatusSkipped  Status = "skipped"
)

// Trigger sources.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// Record describes one execution.
type Record struct {
	ID          string    `json:"id" yaml:"id"`
	JobID       string    `json:"job_id" yaml:"job_id"`
	Revision    string    `json:"revision" yaml:"revision"`
	Trigger     string    `json:"trigger" yaml:"trigger"`
	ScheduledAt time.Time `json:"scheduled_at,omitzero" yaml:"scheduled_at,omitempty"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero" yaml:"finished_at,omitempty"`
	DurationMS  int64     `json:"duration_ms" yaml:"duration_ms"`
	Status      Status    `json:"status" yaml:"status"`
	ExitCode    int       `json:"exit_code" yaml:"exit_code"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	OutputTail  string    `json:"output_tail,omitempty" yaml:"output_tail,omitempty"`
}

// NewRecord starts a record with a fresh id.
func NewRecord(jobID, revision, trigger string) Record {
	return Record{
		ID:       uuid.NewString(),
		JobID:    jobID,
		Revision: revision,
		Trigger:  trigger,
		ExitCode: -1,
	}
}

// Finish sets the end time, duration and outcome.
func (r *Record) Finish(at time.Time, status Status, exitCode int, err error) {
	r.FinishedAt = at
	if !r.StartedAt.IsZero() {
		r.DurationMS = at.Sub(r.StartedAt).Milliseconds()
	}
	r.Status = status
	r.ExitCode = exitCode
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration returns the recorded run time.
func (r Record) Duration() time.Duration {
	return time.Duration(r.DurationMS) * time.Millisecond
}
