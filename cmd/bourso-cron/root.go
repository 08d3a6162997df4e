package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maliciamrg/bourso-bank-scrap/internal/config"
	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
	"github.com/maliciamrg/bourso-bank-scrap/internal/logger"
)

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bourso-cron",
	Short: "bourso-cron - scheduled runner for the Boursorama scraper",
	Long: `bourso-cron installs a single cron trigger for the scraper script,
keeps an append-only log of every run and supervises the schedule
inside the container.

Job parameters come from DRY_RUN, CLIENT_NUMBER, PASSWORD, ACCOUNT
and CRON_SCHEDULE.`,
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to config file (default $"+constants.EnvConfigPath+" or "+constants.DefaultConfigPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(triggerCmd)
	rootCmd.AddCommand(runOnceCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(statusCmd)
}

// resolveConfigPath picks the flag, then the environment, then the default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv(constants.EnvConfigPath); p != "" {
		return p
	}
	return constants.DefaultConfigPath
}

// loadConfig loads .env, the config file and the environment, then validates.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvOptional(constants.DefaultEnvPath); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", constants.DefaultEnvPath, err)
	}

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}

	// Override log level if flag is set
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, validationError(errs)
	}
	return cfg, nil
}

// validationError folds validation errors into one multi-line error.
func validationError(errs []error) error {
	msg := "configuration validation failed:"
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s: %w", msg, errs[0])
}

// newLogger builds the harness logger from the logging section.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// setup is the common prelude of commands that need config and a logger.
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
