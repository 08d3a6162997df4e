package constants

// Console messages printed by the CLI. Advisory only, not a machine interface.
const (
	// MsgInstalled is the startup confirmation line: schedule and parameter list.
	MsgInstalled = "Installed schedule %q with parameters: %s\n"

	// MsgTableUnchanged notes that the installed record did not change.
	MsgTableUnchanged = "Trigger table %s unchanged (revision %s)\n"

	// MsgTableReplaced notes that a previous record was superseded.
	MsgTableReplaced = "Trigger table %s replaced (revision %s -> %s)\n"

	// MsgNoTable is printed when no trigger table is installed.
	MsgNoTable = "No trigger table installed at %s\n"

	// MsgNoRuns is printed when the run journal is empty.
	MsgNoRuns = "No runs recorded yet.\n"

	// MsgSupervisorRunning reports a live supervisor.
	MsgSupervisorRunning = "Supervisor running (pid %d)\n"

	// MsgSupervisorStopped reports that no supervisor is alive.
	MsgSupervisorStopped = "Supervisor not running\n"

	// MsgConfigValid confirms a successful validation.
	MsgConfigValid = "Configuration is valid\n"

	// MsgMaskedSecret replaces secret values in console output.
	MsgMaskedSecret = "***"
)
