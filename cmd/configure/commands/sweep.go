package commands

import (
	"fmt"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/spf13/cobra"
)

// NewSweepCmd runs the missed-schedule sweep once, without the worker
func NewSweepCmd() *cobra.Command {
	var before string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Mark scheduled entries dated before a day as missed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(cfg *config.Config, db *database.DB) error {
				cutoff := clock.Today(cfg.SweepLocation())
				if before != "" {
					d, err := clock.ParseDate(before)
					if err != nil {
						return fmt.Errorf("--before: %w", err)
					}
					cutoff = d
				}
				svc := calendar.NewService(
					database.NewScheduleRepository(db),
					database.NewJourneyRepository(db),
					database.NewConflictRepository(db),
					database.NewTodoRepository(db),
					calendar.NewPreferencesService(database.NewPreferencesRepository(db), nil),
					nil,
				)
				n, err := svc.MarkMissedSchedules(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Marked %d entries before %s as missed", n, cutoff)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Cutoff date (YYYY-MM-DD, default today in SWEEP_TIMEZONE)")
	return cmd
}
