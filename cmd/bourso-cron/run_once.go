package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maliciamrg/bourso-bank-scrap/internal/app"
	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
)

// runOnceCmd executes the job immediately, outside the schedule.
var runOnceCmd = &cobra.Command{
	Use:   "run-once",
	Short: "Run the scraper once now and record the result",
	Long: `Run the configured command immediately. Output is appended to the
log file and the run is recorded in the run journal with trigger "manual".
The trigger table is not modified.`,
	Args: cobra.NoArgs,
	RunE: runRunOnce,
}

func runRunOnce(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	rec, err := app.RunOnce(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s finished: %s (exit code %d, %s)\n",
		rec.ID, rec.Status, rec.ExitCode, rec.Duration())
	if rec.Status != runs.StatusSuccess {
		return fmt.Errorf("run %s finished with status %s", rec.ID, rec.Status)
	}
	return nil
}
