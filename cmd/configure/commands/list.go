package commands

import (
	"fmt"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/spf13/cobra"
)

// NewListCmd prints every runtime setting the API hot-reloads
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List runtime configuration",
		Long:  "Show the CORS and rate limit settings stored in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				cors, err := database.NewCorsConfigRepository(db).Get(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get cors config: %w", err)
				}
				rate, err := database.NewRatelimitConfigRepository(db).Get(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get ratelimit config: %w", err)
				}
				printCors(cmd, cors, cfg.FrontendURL)
				fmt.Fprintln(cmd.OutOrStdout())
				printRatelimit(cmd, rate, cfg.RateLimit)
				return nil
			})
		},
	}
}
