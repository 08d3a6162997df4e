package constants

// Environment variables carrying the job configuration.
// The four parameters are forwarded to the script in this order.
const (
	EnvDryRun       = "DRY_RUN"
	EnvClientNumber = "CLIENT_NUMBER"
	EnvPassword     = "PASSWORD"
	EnvAccount      = "ACCOUNT"
	EnvSchedule     = "CRON_SCHEDULE"
)

// Environment overrides for the harness itself.
const (
	EnvConfigPath = "BOURSO_CRON_CONFIG"
	EnvLogLevel   = "LOG_LEVEL"
)

// ParamEnvOrder lists the parameter variables in positional order.
var ParamEnvOrder = [4]string{EnvDryRun, EnvClientNumber, EnvPassword, EnvAccount}

// SecretParamIndex is the position (0-based) of the password parameter.
const SecretParamIndex = 2
