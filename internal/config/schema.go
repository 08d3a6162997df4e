// Package config provides configuration loading and validation for bourso-cron.
// It reads an optional TOML file with environment variable expansion, applies
// process environment overrides for the job parameters and fills in defaults.
//
// Configuration structure:
//   - [job]: schedule expression and the four script parameters
//   - [invocation]: shell, interpreter, script and working directory
//   - [paths]: trigger table, output log and state directory
//   - [supervisor]: overlap policy, timeout, shutdown grace, timezone
//   - [workers]: worker pool sizing
//   - [runs]: run journal backend and output tail size
//   - [metrics]: optional Prometheus listener
//   - [logging]: harness log level, format and output
//
// Environment variables:
// DRY_RUN, CLIENT_NUMBER, PASSWORD, ACCOUNT and CRON_SCHEDULE always win over the
// file. File values may reference variables with ${VAR} or ${VAR:default}.
package config

import (
	"path/filepath"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
)

// Config represents the main application configuration.
type Config struct {
	Job        JobConfig        `toml:"job"`
	Invocation InvocationConfig `toml:"invocation"`
	Paths      PathsConfig      `toml:"paths"`
	Supervisor SupervisorConfig `toml:"supervisor"`
	Workers    WorkersConfig    `toml:"workers"`
	Runs       RunsConfig       `toml:"runs"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Logging    LoggingConfig    `toml:"logging"`
}

// JobConfig представляет расписание и параметры скрипта
type JobConfig struct {
	ID           string `toml:"id"`
	Schedule     string `toml:"schedule"`
	DryRun       string `toml:"dry_run"`
	ClientNumber string `toml:"client_number"`
	Password     string `toml:"password"`
	Account      string `toml:"account"`
}

// Params returns the script parameters in positional order.
func (j JobConfig) Params() [4]string {
	return [4]string{j.DryRun, j.ClientNumber, j.Password, j.Account}
}

// InvocationConfig представляет способ запуска скрипта
type InvocationConfig struct {
	Shell       string `toml:"shell"`
	Interpreter string `toml:"interpreter"`
	Script      string `toml:"script"`
	WorkDir     string `toml:"workdir"`
}

// PathsConfig представляет файлы, которыми владеет harness
type PathsConfig struct {
	Table    string `toml:"table"`
	Log      string `toml:"log"`
	StateDir string `toml:"state_dir"`
}

// HistoryPath returns the install history journal path.
func (p PathsConfig) HistoryPath() string {
	return filepath.Join(p.StateDir, constants.InstallHistoryFile)
}

// PIDPath returns the supervisor pid file path.
func (p PathsConfig) PIDPath() string {
	return filepath.Join(p.StateDir, constants.PIDFile)
}

// SupervisorConfig представляет конфигурацию планировщика
type SupervisorConfig struct {
	Overlap              string `toml:"overlap"`
	TimeoutSeconds       int    `toml:"timeout_seconds"`
	ShutdownGraceSeconds int    `toml:"shutdown_grace_seconds"`
	Timezone             string `toml:"timezone"`
}

// WorkersConfig представляет конфигурацию worker pool
type WorkersConfig struct {
	PoolSize  int `toml:"pool_size"`
	QueueSize int `toml:"queue_size"`
}

// RunsConfig представляет конфигурацию журнала запусков
type RunsConfig struct {
	Backend         string `toml:"backend"`
	Path            string `toml:"path"`
	OutputTailBytes int    `toml:"output_tail_bytes"`
}

// MetricsConfig представляет конфигурацию Prometheus endpoint
type MetricsConfig struct {
	Listen    string `toml:"listen"`
	Path      string `toml:"path"`
	Namespace string `toml:"namespace"`
}

// Enabled reports whether the metrics listener should be started.
func (m MetricsConfig) Enabled() bool {
	return m.Listen != ""
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// Overlap policies understood by the supervisor.
const (
	OverlapAllow = "allow"
	OverlapSkip  = "skip"
	OverlapQueue = "queue"
)

// Run journal backends.
const (
	RunsBackendJSONL  = "jsonl"
	RunsBackendSQLite = "sqlite"
)
