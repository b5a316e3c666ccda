package main

import (
	"fmt"
	"os"

	"github.com/benvon/study-planner/cmd/configure/commands"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	var configFile string
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "study-planner-configure",
		Short: "Configuration tool for the Study Planner API",
		Long:  "Admin CLI for runtime CORS and rate limit settings, user scheduling preferences, slot lookups and schema migration",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			if configFile != "" {
				return os.Setenv("CONFIG_FILE", configFile)
			}
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "TOML config file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewListCmd())
	rootCmd.AddCommand(commands.NewPreferencesCmd())
	rootCmd.AddCommand(commands.NewSlotsCmd())
	rootCmd.AddCommand(commands.NewSweepCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())
	rootCmd.AddCommand(commands.NewOIDCCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}
