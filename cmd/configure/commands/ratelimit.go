package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

// NewRatelimitCmd creates the ratelimit configuration command with list and set subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage rate limit configuration",
		Long:  "List or update the per-user rate limit (e.g. 5-S, 100-M). The API reloads it every minute.",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				c, err := database.NewRatelimitConfigRepository(db).Get(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to get ratelimit config: %w", err)
				}
				printRatelimit(cmd, c, cfg.RateLimit)
				return nil
			})
		},
	}
}

func printRatelimit(cmd *cobra.Command, c *models.RatelimitConfig, fallback string) {
	w := cmd.OutOrStdout()
	printHeader(w, "Rate limit configuration:")
	if c == nil || c.Rate == "" {
		printWarn(w, "  nothing stored; the API uses RATE_LIMIT (%s). Use 'ratelimit set' to change it.", fallback)
		return
	}
	printField(w, "Rate", c.Rate)
}

// validateRate accepts the limiter's "<count>-<S|M|H|D>" format
func validateRate(rate string) error {
	if rate == "" {
		return fmt.Errorf("--rate is required (e.g. 5-S, 100-M)")
	}
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return nil
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set rate limit configuration",
		Long:  "Update the rate limit (e.g. 5-S, 100-M, 1000-H).",
		RunE: func(cmd *cobra.Command, args []string) error {
			rate = strings.TrimSpace(rate)
			if err := validateRate(rate); err != nil {
				return err
			}
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				if err := database.NewRatelimitConfigRepository(db).Set(cmd.Context(), &models.RatelimitConfig{Rate: rate}); err != nil {
					return fmt.Errorf("failed to set ratelimit config: %w", err)
				}
				printOK(cmd.OutOrStdout(), "Rate limit set to %s", rate)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate (e.g. 5-S, 100-M, 1000-H) (required)")
	return cmd
}
