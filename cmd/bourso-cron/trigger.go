package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
	"github.com/maliciamrg/bourso-bank-scrap/internal/runs"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

var (
	triggerOutput  string
	triggerNext    int
	triggerHistory int
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Inspect the installed trigger table",
}

var triggerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the installed record, upcoming activations and install history",
	Args:  cobra.NoArgs,
	RunE:  runTriggerShow,
}

// triggerView is the masked, serializable view of the installed table.
type triggerView struct {
	Path     string                 `yaml:"path"`
	Line     string                 `yaml:"line"`
	Schedule string                 `yaml:"schedule"`
	Revision string                 `yaml:"revision"`
	NextRuns []time.Time            `yaml:"next_runs"`
	History  []trigger.HistoryEntry `yaml:"history,omitempty"`
}

func runTriggerShow(cmd *cobra.Command, args []string) error {
	if err := checkOutput(triggerOutput); err != nil {
		return err
	}
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	out := cmd.OutOrStdout()
	installer := trigger.NewInstaller(cfg, log, nil)

	rec, err := installer.Table().Load()
	if errors.Is(err, trigger.ErrNotInstalled) {
		fmt.Fprintf(out, constants.MsgNoTable, cfg.Paths.Table)
		return nil
	}
	if err != nil {
		return err
	}

	next, err := trigger.NextRuns(rec.Schedule, time.Now().In(cfg.Supervisor.Location()), triggerNext)
	if err != nil {
		return err
	}

	history, err := installer.History().Entries()
	if err != nil {
		return err
	}
	if triggerHistory > 0 && len(history) > triggerHistory {
		history = history[len(history)-triggerHistory:]
	}

	redactor := runs.NewRedactor(cfg.Job.Secrets())
	view := triggerView{
		Path:     cfg.Paths.Table,
		Line:     redactor.Redact(rec.Line()),
		Schedule: rec.Schedule,
		Revision: rec.Revision(),
		NextRuns: next,
		History:  history,
	}

	if triggerOutput == outputYAML {
		return writeYAML(out, view)
	}

	fmt.Fprintf(out, "Table:    %s\n", view.Path)
	fmt.Fprintf(out, "Revision: %s\n", view.Revision)
	fmt.Fprintf(out, "Record:   %s", view.Line)
	fmt.Fprintln(out, "Next runs:")
	for _, t := range view.NextRuns {
		fmt.Fprintf(out, "  %s\n", t.Format(time.RFC3339))
	}
	if len(view.History) > 0 {
		fmt.Fprintln(out, "History:")
		for _, h := range view.History {
			state := "unchanged"
			if h.Changed {
				state = "changed"
			}
			fmt.Fprintf(out, "  %s  %s  %-9s  %s\n",
				h.InstalledAt.Format(time.RFC3339), h.Revision, state, h.Schedule)
		}
	}
	return nil
}

func init() {
	triggerShowCmd.Flags().StringVarP(&triggerOutput, "output", "o", outputText, "output format (text, yaml)")
	triggerShowCmd.Flags().IntVar(&triggerNext, "next", 3, "number of upcoming activations to show")
	triggerShowCmd.Flags().IntVar(&triggerHistory, "history", 10, "number of install history entries to show (0 for all)")
	triggerCmd.AddCommand(triggerShowCmd)
}
