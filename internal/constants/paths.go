package constants

// DefaultEnvPath is the default path to the .env file
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the config.toml file
const DefaultConfigPath = "./config.toml"

// DefaultWorkDir is the directory the script is started from
const DefaultWorkDir = "/app"

// DefaultTablePath is where the trigger table is installed.
const DefaultTablePath = "/etc/cron.d/bourso-cron"

// DefaultLogPath is the append-only destination for script output.
const DefaultLogPath = "/var/log/cron.log"

// DefaultStateDir holds install history, the run journal and the pid file.
const DefaultStateDir = "/var/lib/bourso-cron"

// State file names inside DefaultStateDir.
const (
	InstallHistoryFile = "installs.jsonl"
	RunsJSONLFile      = "runs.jsonl"
	RunsSQLiteFile     = "runs.db"
	PIDFile            = "supervisor.pid"
)
