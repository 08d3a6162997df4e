package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
)

var (
	runsLimit  int
	runsOutput string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run journal",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

func runRunsList(cmd *cobra.Command, args []string) error {
	if err := checkOutput(runsOutput); err != nil {
		return err
	}
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	store, err := runs.Open(cfg.Runs, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runsOutput == outputYAML {
		return writeYAML(out, records)
	}
	if len(records) == 0 {
		fmt.Fprint(out, constants.MsgNoRuns)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tTRIGGER\tSTATUS\tEXIT\tDURATION\tID")
	for _, r := range records {
		started := "-"
		if !r.StartedAt.IsZero() {
			started = r.StartedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			started, r.Trigger, r.Status, r.ExitCode, r.Duration(), r.ID)
	}
	return w.Flush()
}

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs to show (0 for all)")
	runsListCmd.Flags().StringVarP(&runsOutput, "output", "o", outputText, "output format (text, yaml)")
	runsCmd.AddCommand(runsListCmd)
}
