// Package app wires the bourso-cron components together: the schedule
// installer, the log sink, the run journal and the cron supervisor.
package app

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/cron"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logsink"
	"github.com/maliciamrg/bourso-bank-scrap/internal/metrics"
	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

// App represents the main application structure.
// It holds references to all major components and manages their lifecycle.
type App struct {
	// Configuration and core services
	config  *config.Config
	logger  *logger.Logger
	console io.Writer

	// Trigger table
	installer *trigger.Installer
	installed *trigger.Installed

	// Output and history
	sink  *logsink.Sink
	store runs.Store

	// Scheduled execution
	supervisor *cron.Supervisor

	// Observability
	registry      *prometheus.Registry
	metrics       *metrics.PrometheusMetrics
	metricsServer *metrics.Server

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Thread-safety
	mu      sync.RWMutex
	started bool
	pidHeld bool
}

// New creates a new App instance. console receives the human-readable
// startup line; nil means stdout.
func New(cfg *config.Config, log *logger.Logger, console io.Writer) *App {
	if console == nil {
		console = os.Stdout
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		config:   cfg,
		logger:   log,
		console:  console,
		registry: registry,
		metrics:  metrics.InitPrometheusMetrics(cfg.Metrics.Namespace, registry),
	}
}

// Run starts the application and blocks until the context is cancelled.
// It performs the following steps:
//  1. Initializes all components via Initialize()
//  2. Logs that the application is running
//  3. Waits for the context to be cancelled
//  4. Performs graceful shutdown via Shutdown()
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(ctx); err != nil {
		if shutdownErr := a.Shutdown(); shutdownErr != nil {
			a.logger.Error("cleanup after failed start", shutdownErr)
		}
		return err
	}

	a.logger.Info("Application is running",
		logger.Field{Key: "next_run", Value: a.supervisor.NextRun()})

	<-ctx.Done()

	return a.Shutdown()
}

// Installed returns the result of the startup install, nil before Initialize.
func (a *App) Installed() *trigger.Installed {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.installed
}

// Registry returns the Prometheus registry of the application.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Job builds the supervisor job from an install result.
func (a *App) Job(inst *trigger.Installed) cron.Job {
	return cron.Job{
		ID:         a.config.Job.ID,
		Record:     inst.Record,
		Invocation: inst.Invocation,
	}
}
