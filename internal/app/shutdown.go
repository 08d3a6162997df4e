package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/maliciamrg/bourso-bank-scrap/internal/ipc"
)

// shutdownSlack is added to the supervisor grace to bound the whole shutdown.
const shutdownSlack = 5 * time.Second

// Shutdown performs graceful shutdown of all components.
// It stops the application in the following order:
//  1. Notifies systemd and stops the metrics endpoint
//  2. Stops the supervisor (in-flight runs get the shutdown grace)
//  3. Closes the run journal and the log sink
//  4. Removes the pid file
//
// The method is thread-safe and can be called more than once.
func (a *App) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.started {
		return nil
	}
	a.started = false

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	ctx, cancel := context.WithTimeout(context.Background(), a.config.Supervisor.ShutdownGrace()+shutdownSlack)
	defer cancel()

	var errs []error

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		a.metricsServer = nil
	}

	if a.supervisor != nil {
		if err := a.supervisor.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop supervisor: %w", err))
		}
	}

	if a.cancel != nil {
		a.cancel()
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close run journal: %w", err))
		}
		a.store = nil
	}

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
		}
		a.sink = nil
	}

	if a.pidHeld {
		if err := ipc.Cleanup(a.config.Paths.PIDPath()); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove pid file: %w", err))
		}
		a.pidHeld = false
	}

	a.logger.Info("Application stopped")
	return errors.Join(errs...)
}
