package commands

import (
	"fmt"

	"github.com/benvon/study-planner/internal/calendar"
	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewPreferencesCmd creates the preferences command with show and set subcommands
func NewPreferencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preferences",
		Short: "Inspect or change a user's scheduling preferences",
	}
	cmd.AddCommand(newPreferencesShowCmd())
	cmd.AddCommand(newPreferencesSetCmd())
	return cmd
}

func newPreferencesShowCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show preferences, creating the defaults on first use",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(user)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				svc := calendar.NewPreferencesService(database.NewPreferencesRepository(db), nil)
				prefs, err := svc.GetOrCreate(cmd.Context(), userID)
				if err != nil {
					return err
				}
				printPreferences(cmd, prefs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "User id (required)")
	return cmd
}

type preferenceFlags struct {
	user           string
	timezone       string
	preferredTimes string
	avoidTimes     string
	maxHours       float64
	breakMinutes   int
	sessionMinutes int
	weekends       bool
	autoSchedule   bool
}

func newPreferencesSetCmd() *cobra.Command {
	var f preferenceFlags
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update preferences; only the flags given are changed",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(f.user)
			if err != nil {
				return err
			}
			patch, err := buildPreferencesPatch(cmd.Flags(), f)
			if err != nil {
				return err
			}
			if err := calendar.ValidatePreferencesPatch(patch); err != nil {
				return err
			}
			return withDB(cmd.Context(), func(_ *config.Config, db *database.DB) error {
				svc := calendar.NewPreferencesService(database.NewPreferencesRepository(db), nil)
				prefs, err := svc.Update(cmd.Context(), userID, patch)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "Preferences updated")
				printPreferences(cmd, prefs)
				return nil
			})
		},
	}
	registerPreferenceFlags(cmd.Flags(), &f)
	return cmd
}

func registerPreferenceFlags(fs *pflag.FlagSet, f *preferenceFlags) {
	fs.StringVar(&f.user, "user", "", "User id (required)")
	fs.StringVar(&f.timezone, "timezone", "", "IANA timezone, e.g. Europe/Berlin")
	fs.StringVar(&f.preferredTimes, "preferred-times", "", "Study windows, e.g. 09:00-11:00,19:00-21:00")
	fs.StringVar(&f.avoidTimes, "avoid-times", "", "Blocked windows; pass an empty string to clear")
	fs.Float64Var(&f.maxHours, "max-hours", 0, "Maximum study hours per day")
	fs.IntVar(&f.breakMinutes, "break", 0, "Break between sessions in minutes")
	fs.IntVar(&f.sessionMinutes, "session", 0, "Preferred session length in minutes")
	fs.BoolVar(&f.weekends, "weekends", true, "Allow weekend sessions")
	fs.BoolVar(&f.autoSchedule, "auto-schedule", false, "Schedule new todos automatically")
}

// buildPreferencesPatch turns the flags that were set into a patch
func buildPreferencesPatch(flags *pflag.FlagSet, f preferenceFlags) (models.PreferencesPatch, error) {
	var patch models.PreferencesPatch
	if flags.Changed("timezone") {
		patch.Timezone = &f.timezone
	}
	if flags.Changed("preferred-times") {
		windows, err := parseWindows(f.preferredTimes)
		if err != nil {
			return patch, err
		}
		patch.PreferredTimes = &windows
	}
	if flags.Changed("avoid-times") {
		windows, err := parseWindows(f.avoidTimes)
		if err != nil {
			return patch, err
		}
		patch.AvoidTimes = &windows
	}
	if flags.Changed("max-hours") {
		patch.MaxDailyStudyHours = &f.maxHours
	}
	if flags.Changed("break") {
		patch.BreakDurationMinutes = &f.breakMinutes
	}
	if flags.Changed("session") {
		patch.PreferredSessionLength = &f.sessionMinutes
	}
	if flags.Changed("weekends") {
		patch.WeekendAvailability = &f.weekends
	}
	if flags.Changed("auto-schedule") {
		patch.AutoSchedule = &f.autoSchedule
	}
	if patch == (models.PreferencesPatch{}) {
		return patch, fmt.Errorf("nothing to update; pass at least one preference flag")
	}
	return patch, nil
}

func printPreferences(cmd *cobra.Command, p *models.UserSchedulePreferences) {
	w := cmd.OutOrStdout()
	printHeader(w, "Scheduling preferences for "+p.UserID.String()+":")
	printField(w, "Timezone", p.Timezone)
	printField(w, "Preferred times", formatWindows(p.PreferredTimes))
	printField(w, "Avoid times", formatWindows(p.AvoidTimes))
	printField(w, "Max daily hours", p.MaxDailyStudyHours)
	printField(w, "Break (min)", p.BreakDurationMinutes)
	printField(w, "Session length (min)", p.PreferredSessionLength)
	printField(w, "Weekends", p.WeekendAvailability)
	printField(w, "Auto schedule", p.AutoSchedule)
}
