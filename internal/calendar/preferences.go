package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PreferencesService owns per-user schedule preferences
type PreferencesService struct {
	repo   database.PreferencesRepositoryInterface
	logger *zap.Logger
}

// NewPreferencesService creates a preferences service
func NewPreferencesService(repo database.PreferencesRepositoryInterface, logger *zap.Logger) *PreferencesService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferencesService{repo: repo, logger: logger}
}

// GetOrCreate returns the user's preferences, creating the defaults on first access.
// The insert ignores an existing row, so concurrent first calls all read the same record.
func (s *PreferencesService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.UserSchedulePreferences, error) {
	prefs, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, newError(CodePreferencesFailed, http.StatusInternalServerError, "failed to load preferences", err)
	}

	if err := s.repo.CreateIfNotExists(ctx, models.DefaultSchedulePreferences(userID)); err != nil {
		return nil, newError(CodePreferencesFailed, http.StatusInternalServerError, "failed to create default preferences", err)
	}
	s.logger.Info("schedule_preferences_created", zap.String("user_id", userID.String()))

	prefs, err = s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, newError(CodePreferencesFailed, http.StatusInternalServerError, "failed to load preferences", err)
	}
	return prefs, nil
}

// Update applies a partial patch after validating it
func (s *PreferencesService) Update(ctx context.Context, userID uuid.UUID, patch models.PreferencesPatch) (*models.UserSchedulePreferences, error) {
	if err := ValidatePreferencesPatch(patch); err != nil {
		return nil, err
	}

	prefs, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	patch.Apply(prefs)

	if err := s.repo.Update(ctx, prefs); err != nil {
		return nil, newError(CodePreferencesFailed, http.StatusInternalServerError, "failed to update preferences", err)
	}
	s.logger.Info("schedule_preferences_updated", zap.String("user_id", userID.String()))
	return prefs, nil
}

// ValidatePreferencesPatch checks every field present in the patch
func ValidatePreferencesPatch(patch models.PreferencesPatch) error {
	if patch.Timezone != nil {
		if *patch.Timezone == "" {
			return invalidPreferences("timezone must not be empty")
		}
		if _, err := time.LoadLocation(*patch.Timezone); err != nil {
			return invalidPreferences(fmt.Sprintf("unknown timezone %q", *patch.Timezone))
		}
	}
	if patch.PreferredTimes != nil {
		if err := validateWindows("preferred_times", *patch.PreferredTimes); err != nil {
			return err
		}
	}
	if patch.AvoidTimes != nil {
		if err := validateWindows("avoid_times", *patch.AvoidTimes); err != nil {
			return err
		}
	}
	if patch.MaxDailyStudyHours != nil {
		if h := *patch.MaxDailyStudyHours; h <= 0 || h > 24 {
			return invalidPreferences("max_daily_study_hours must be greater than 0 and at most 24")
		}
	}
	if patch.BreakDurationMinutes != nil && *patch.BreakDurationMinutes < 0 {
		return invalidPreferences("break_duration_minutes must not be negative")
	}
	if patch.PreferredSessionLength != nil {
		if n := *patch.PreferredSessionLength; n < models.MinDurationMinutes || n > models.MaxDurationMinutes {
			return invalidPreferences(fmt.Sprintf("preferred_session_length must be between %d and %d", models.MinDurationMinutes, models.MaxDurationMinutes))
		}
	}
	if patch.NotificationSettings != nil && patch.NotificationSettings.ReminderMinutes < 0 {
		return invalidPreferences("notification_settings.reminder_minutes must not be negative")
	}
	return nil
}

func validateWindows(field string, windows []models.TimeWindow) error {
	for i, w := range windows {
		start, err := clock.ParseHHMM(w.Start())
		if err != nil {
			return invalidPreferences(fmt.Sprintf("%s[%d] start: %v", field, i, err))
		}
		end, err := clock.ParseHHMM(w.End())
		if err != nil {
			return invalidPreferences(fmt.Sprintf("%s[%d] end: %v", field, i, err))
		}
		if end <= start {
			return invalidPreferences(fmt.Sprintf("%s[%d] must start before it ends", field, i))
		}
	}
	return nil
}

func invalidPreferences(msg string) *CalendarError {
	return newError(CodeInvalidPreferences, http.StatusBadRequest, msg, nil)
}
