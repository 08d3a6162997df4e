// Package version holds build metadata injected through -ldflags.
package version

import (
	"fmt"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
)

var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = constants.DefaultGoVersion
)

func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// String renders the one-line version banner used by the CLI and startup log.
func String() string {
	return fmt.Sprintf("bourso-cron %s (commit %s, built %s, %s)", Version, GitCommit, BuildTime, GoVersion)
}
