package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/cron"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logsink"
	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

// RunOnce executes the configured job immediately, outside the schedule.
// The trigger table is left untouched; output and record go to the usual
// log file and run journal.
func RunOnce(ctx context.Context, cfg *config.Config, log *logger.Logger) (runs.Record, error) {
	rec, inv, err := trigger.NewInstaller(cfg, log, nil).Compile()
	if err != nil {
		return runs.Record{}, err
	}

	if err := logsink.Ensure(cfg.Paths.Log); err != nil {
		return runs.Record{}, fmt.Errorf("failed to prepare log file: %w", err)
	}
	sink, err := logsink.Open(cfg.Paths.Log)
	if err != nil {
		return runs.Record{}, fmt.Errorf("failed to open log file: %w", err)
	}

	store, err := runs.Open(cfg.Runs, log)
	if err != nil {
		_ = sink.Close()
		return runs.Record{}, fmt.Errorf("failed to open run journal: %w", err)
	}

	supervisor := cron.NewSupervisor(cron.OptionsFromConfig(cfg), sink, store, nil,
		runs.NewRedactor(cfg.Job.Secrets()), log)
	result := supervisor.RunOnce(ctx, cron.Job{ID: cfg.Job.ID, Record: rec, Invocation: inv})

	return result, errors.Join(store.Close(), sink.Close())
}
