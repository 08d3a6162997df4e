package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
)

// Validate проверяет валидность конфигурации.
// Синтаксис расписания проверяет установщик триггера, здесь только его наличие.
func (c *Config) Validate() []error {
	var errors []error

	// Проверка задачи
	if strings.TrimSpace(c.Job.Schedule) == "" {
		errors = append(errors, fmt.Errorf("job.schedule is required (set CRON_SCHEDULE)"))
	}
	if c.Job.ID == "" {
		errors = append(errors, fmt.Errorf("job.id is required"))
	}

	// Проверка запуска скрипта
	if c.Invocation.Shell == "" {
		errors = append(errors, fmt.Errorf("invocation.shell is required"))
	}
	if c.Invocation.Interpreter == "" {
		errors = append(errors, fmt.Errorf("invocation.interpreter is required"))
	}
	if c.Invocation.Script == "" {
		errors = append(errors, fmt.Errorf("invocation.script is required"))
	}
	if err := validateAbsPath(c.Invocation.WorkDir, "invocation.workdir"); err != nil {
		errors = append(errors, err)
	}

	// Проверка путей
	for field, path := range map[string]string{
		"paths.table":     c.Paths.Table,
		"paths.log":       c.Paths.Log,
		"paths.state_dir": c.Paths.StateDir,
	} {
		if err := validatePath(path, field); err != nil {
			errors = append(errors, err)
		}
	}
	if c.Paths.Table != "" && c.Paths.Table == c.Paths.Log {
		errors = append(errors, fmt.Errorf("paths.table and paths.log must differ"))
	}

	// Проверка supervisor
	validOverlap := map[string]bool{OverlapAllow: true, OverlapSkip: true, OverlapQueue: true}
	if !validOverlap[c.Supervisor.Overlap] {
		errors = append(errors, fmt.Errorf("invalid supervisor.overlap: %s (expected: allow, skip, queue)", c.Supervisor.Overlap))
	}
	if c.Supervisor.TimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("supervisor.timeout_seconds must be >= 0"))
	}
	if c.Supervisor.ShutdownGraceSeconds < 0 {
		errors = append(errors, fmt.Errorf("supervisor.shutdown_grace_seconds must be >= 0"))
	}
	if c.Supervisor.Timezone != "" {
		if _, err := time.LoadLocation(c.Supervisor.Timezone); err != nil {
			errors = append(errors, fmt.Errorf("invalid supervisor.timezone: %w", err))
		}
	}

	// Проверка worker pool
	if c.Workers.PoolSize < 1 {
		errors = append(errors, fmt.Errorf("workers.pool_size must be >= 1"))
	}
	if c.Workers.QueueSize < 1 {
		errors = append(errors, fmt.Errorf("workers.queue_size must be >= 1"))
	}

	// Проверка журнала запусков
	switch c.Runs.Backend {
	case RunsBackendJSONL, RunsBackendSQLite:
	default:
		errors = append(errors, fmt.Errorf("invalid runs.backend: %s (expected: jsonl, sqlite)", c.Runs.Backend))
	}
	if err := validatePath(c.Runs.Path, "runs.path"); err != nil {
		errors = append(errors, err)
	}
	if c.Runs.OutputTailBytes < 0 || c.Runs.OutputTailBytes > constants.MaxOutputTailBytes {
		errors = append(errors, fmt.Errorf("runs.output_tail_bytes must be between 0 and %d", constants.MaxOutputTailBytes))
	}

	// Проверка metrics
	if c.Metrics.Enabled() && !strings.HasPrefix(c.Metrics.Path, "/") {
		errors = append(errors, fmt.Errorf("metrics.path must start with '/'"))
	}

	// Проверка logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}
	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	return errors
}

// Timeout returns the per-execution timeout, zero meaning none.
func (s SupervisorConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// ShutdownGrace returns how long in-flight runs may finish after a stop signal.
func (s SupervisorConfig) ShutdownGrace() time.Duration {
	return time.Duration(s.ShutdownGraceSeconds) * time.Second
}

// Location returns the configured timezone or time.Local.
func (s SupervisorConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func validatePath(path, fieldName string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	if strings.Contains(path, "..") {
		return fmt.Errorf("%s contains potentially dangerous path traversal sequence", fieldName)
	}

	return nil
}

func validateAbsPath(path, fieldName string) error {
	if err := validatePath(path, fieldName); err != nil {
		return err
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%s must be an absolute path, got %s", fieldName, path)
	}
	return nil
}
