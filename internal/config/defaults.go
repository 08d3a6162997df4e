package config

import (
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
)

// applyDefaults применяет значения по умолчанию.
// Для полей, где 0 имеет смысл, значение по умолчанию ставится только
// если ключ отсутствует в файле.
func applyDefaults(c *Config, md toml.MetaData) {
	if c.Job.ID == "" {
		c.Job.ID = constants.DefaultJobID
	}

	if c.Invocation.Shell == "" {
		c.Invocation.Shell = constants.DefaultShell
	}
	if c.Invocation.Interpreter == "" {
		c.Invocation.Interpreter = constants.DefaultInterpreter
	}
	if c.Invocation.Script == "" {
		c.Invocation.Script = constants.DefaultScript
	}
	if c.Invocation.WorkDir == "" {
		c.Invocation.WorkDir = constants.DefaultWorkDir
	}

	if c.Paths.Table == "" {
		c.Paths.Table = constants.DefaultTablePath
	}
	if c.Paths.Log == "" {
		c.Paths.Log = constants.DefaultLogPath
	}
	if c.Paths.StateDir == "" {
		c.Paths.StateDir = constants.DefaultStateDir
	}

	if c.Supervisor.Overlap == "" {
		c.Supervisor.Overlap = OverlapAllow
	}
	if !md.IsDefined("supervisor", "shutdown_grace_seconds") && c.Supervisor.ShutdownGraceSeconds == 0 {
		c.Supervisor.ShutdownGraceSeconds = constants.DefaultShutdownGraceSeconds
	}

	if c.Workers.PoolSize == 0 {
		c.Workers.PoolSize = 4
	}
	if c.Workers.QueueSize == 0 {
		c.Workers.QueueSize = 16
	}

	if c.Runs.Backend == "" {
		c.Runs.Backend = RunsBackendJSONL
	}
	if c.Runs.Path == "" {
		name := constants.RunsJSONLFile
		if c.Runs.Backend == RunsBackendSQLite {
			name = constants.RunsSQLiteFile
		}
		c.Runs.Path = filepath.Join(c.Paths.StateDir, name)
	}
	if !md.IsDefined("runs", "output_tail_bytes") && c.Runs.OutputTailBytes == 0 {
		c.Runs.OutputTailBytes = constants.DefaultOutputTailBytes
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = constants.DefaultMetricsNamespace
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stderr"
	}
}
