package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
	"github.com/maliciamrg/bourso-bank-scrap/internal/trigger"
)

// installCmd writes the trigger table and exits without scheduling anything.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the trigger table from the environment and exit",
	Args:  cobra.NoArgs,
	RunE:  runInstall,
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	inst, err := trigger.NewInstaller(cfg, log, nil).Install(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to install schedule: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, constants.MsgInstalled, inst.Record.Schedule, config.FormatParams(cfg.Job.MaskedParams()))
	switch {
	case !inst.Changed:
		fmt.Fprintf(out, constants.MsgTableUnchanged, cfg.Paths.Table, inst.Revision)
	case inst.Previous != "":
		fmt.Fprintf(out, constants.MsgTableReplaced, cfg.Paths.Table, inst.Previous, inst.Revision)
	}
	return nil
}
