package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
	"github.com/maliciamrg/bourso-bank-scrap/internal/ipc"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

// statusCmd reports whether a supervisor is alive and when it fires next.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show supervisor liveness and the next activation",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	out := cmd.OutOrStdout()
	if pid, ok := ipc.Running(cfg.Paths.PIDPath()); ok {
		fmt.Fprintf(out, constants.MsgSupervisorRunning, pid)
	} else {
		fmt.Fprint(out, constants.MsgSupervisorStopped)
	}

	next, err := trigger.NextRuns(cfg.Job.Schedule, time.Now().In(cfg.Supervisor.Location()), 1)
	if err != nil {
		return err
	}
	if len(next) > 0 {
		fmt.Fprintf(out, "Next run: %s\n", next[0].Format(time.RFC3339))
	}
	return nil
}
