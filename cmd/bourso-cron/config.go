package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/maliciamrg/bourso-bank-scrap/internal/constants"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and display the effective bourso-cron configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and environment",
	Long: `Load the configuration file and the environment and check for errors,
including the schedule expression and the script parameters.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), constants.MsgConfigValid)
		return nil
	},
}

// configShowCmd prints the effective configuration with the password masked.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (secrets masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		masked := cfg.Masked()
		if err := toml.NewEncoder(cmd.OutOrStdout()).Encode(masked); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}
