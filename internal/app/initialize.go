package app

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
	"github.com/maliciamrg/bourso-bank-scrap/internal/cron"
	"github.com/maliciamrg/bourso-bank-scrap/internal/ipc"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logsink"
	"github.com/maliciamrg/bourso-bank-scrap/internal/metrics"
	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

// Initialize initializes all application components.
// Any error here happens before the supervisor runs and is fatal to startup.
func (a *App) Initialize(ctx context.Context) error {
	// 1. Create application context
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.mu.Lock()
	a.started = true
	a.mu.Unlock()

	// 2. Install the trigger table
	a.installer = trigger.NewInstaller(a.config, a.logger, a.metrics)
	installed, err := a.installer.Install(a.ctx)
	if err != nil {
		return fmt.Errorf("failed to install schedule: %w", err)
	}
	a.mu.Lock()
	a.installed = installed
	a.mu.Unlock()

	fmt.Fprintf(a.console, constants.MsgInstalled,
		installed.Record.Schedule, config.FormatParams(a.config.Job.MaskedParams()))

	// 3. Prepare the log sink
	if err := logsink.Ensure(a.config.Paths.Log); err != nil {
		return fmt.Errorf("failed to prepare log file: %w", err)
	}
	a.sink, err = logsink.Open(a.config.Paths.Log)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	// 4. Open the run journal
	a.store, err = runs.Open(a.config.Runs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}

	// 5. Activate and start the supervisor
	a.supervisor = cron.NewSupervisor(
		cron.OptionsFromConfig(a.config),
		a.sink,
		a.store,
		a.metrics,
		runs.NewRedactor(a.config.Job.Secrets()),
		a.logger,
	)
	if err := a.supervisor.Activate(a.installer.Table(), a.Job(installed)); err != nil {
		return fmt.Errorf("failed to activate trigger table: %w", err)
	}
	if err := a.supervisor.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start supervisor: %w", err)
	}

	// 6. Record the pid for status checks
	if err := ipc.Acquire(a.config.Paths.PIDPath()); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	a.pidHeld = true

	// 7. Optional metrics endpoint
	if a.config.Metrics.Enabled() {
		a.metricsServer, err = metrics.Listen(a.config.Metrics.Listen, a.config.Metrics.Path, a.registry, a.logger)
		if err != nil {
			return fmt.Errorf("failed to start metrics endpoint: %w", err)
		}
	}

	// 8. Tell systemd we are ready (no-op outside systemd)
	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.logger.Warn("failed to notify systemd",
			logger.Field{Key: "error", Value: err.Error()})
	} else if sent {
		a.logger.Debug("systemd notified: ready")
	}

	return nil
}
