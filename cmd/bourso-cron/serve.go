package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maliciamrg/bourso-bank-scrap/internal/app"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
	"github.com/maliciamrg/bourso-bank-scrap/internal/version"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Install the trigger and run the scheduler (container entry point)",
	Long: `Install the trigger table from the environment, prepare the log file
and keep the scheduler in the foreground until SIGINT or SIGTERM.

Any configuration or resource error aborts before the scheduler starts.`,
	Args: cobra.NoArgs,
	RunE: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()
	logger.SetDefault(log)

	log.Info("Starting bourso-cron",
		logger.Field{Key: "version", Value: version.String()},
		logger.Field{Key: "config", Value: resolveConfigPath()},
		logger.Field{Key: "table", Value: cfg.Paths.Table},
		logger.Field{Key: "log", Value: cfg.Paths.Log},
	)

	// Create context for graceful shutdown
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, log, cmd.OutOrStdout())
	if err := application.Run(ctx); err != nil {
		log.Error("bourso-cron stopped with error", err)
		return err
	}
	return nil
}
