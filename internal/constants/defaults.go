package constants

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the default Go version when not provided at build time
const DefaultGoVersion = "unknown"

// Invocation defaults.
const (
	DefaultShell       = "/bin/sh"
	DefaultInterpreter = "/usr/local/bin/python"
	DefaultScript      = "script.py"
)

// DefaultJobID identifies the single scheduled job.
const DefaultJobID = "bourso-scrap"

// DefaultOutputTailBytes is how much combined output a run record keeps.
const DefaultOutputTailBytes = 4096

// MaxOutputTailBytes caps the tail so an escaped record stays well under
// the run journal line limit.
const MaxOutputTailBytes = 64 << 10

// DefaultShutdownGraceSeconds bounds how long in-flight runs may finish on shutdown.
const DefaultShutdownGraceSeconds = 10

// DefaultMetricsNamespace prefixes every Prometheus metric name.
const DefaultMetricsNamespace = "bourso_cron"
