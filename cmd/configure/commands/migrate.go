package commands

import (
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCmd applies the embedded schema
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long:  "Apply the embedded schema. Every statement is idempotent, so running it twice is safe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				if err := db.Migrate(cmd.Context()); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			})
		},
	}
}
