package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/spf13/cobra"
)

// NewSlotsCmd looks up free study slots for a user, as the API's slot endpoint would
func NewSlotsCmd() *cobra.Command {
	var user, from, to string
	var duration, count int
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Find a user's best free study slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(user)
			if err != nil {
				return err
			}
			dates, err := parseDateRange(from, to, clock.Today(time.UTC))
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				svc := calendar.NewService(
					database.NewScheduleRepository(db),
					database.NewJourneyRepository(db),
					database.NewConflictRepository(db),
					database.NewTodoRepository(db),
					calendar.NewPreferencesService(database.NewPreferencesRepository(db), nil),
					nil,
				)
				slots, err := svc.FindOptimalTimeSlots(cmd.Context(), userID, duration, dates, count)
				if err != nil {
					return err
				}
				printSlots(cmd, slots, dates)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id (required)")
	cmd.Flags().IntVar(&duration, "duration", 60, "Session length in minutes")
	cmd.Flags().IntVar(&count, "count", 5, "Number of slots to return")
	cmd.Flags().StringVar(&from, "from", "", "First date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&to, "to", "", "Last date (YYYY-MM-DD, default a week after --from)")
	return cmd
}

// parseDateRange applies the one-week default window starting at today
func parseDateRange(from, to string, today clock.Date) (models.DateRange, error) {
	r := models.DateRange{Start: today}
	if from != "" {
		d, err := clock.ParseDate(from)
		if err != nil {
			return r, fmt.Errorf("--from: %w", err)
		}
		r.Start = d
	}
	r.End = r.Start.AddDays(6)
	if to != "" {
		d, err := clock.ParseDate(to)
		if err != nil {
			return r, fmt.Errorf("--to: %w", err)
		}
		r.End = d
	}
	if r.End.Before(r.Start) {
		return r, fmt.Errorf("--to %s is before --from %s", r.End, r.Start)
	}
	return r, nil
}

func printSlots(cmd *cobra.Command, slots []models.OptimalTimeSlot, dates models.DateRange) {
	w := cmd.OutOrStdout()
	printHeader(w, fmt.Sprintf("Free slots %s to %s:", dates.Start, dates.End))
	if len(slots) == 0 {
		printWarn(w, "  no free slot fits; try a shorter --duration or a wider range")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  DATE\tSTART\tEND\tCONFIDENCE\tREASON")
	for _, s := range slots {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%.2f\t%s\n", s.Date, s.StartTime, s.EndTime, s.Confidence, s.Reasoning)
	}
	_ = tw.Flush()
}
