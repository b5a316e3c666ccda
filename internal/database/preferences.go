package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// PreferencesRepository handles user schedule preference database operations
type PreferencesRepository struct {
	db *DB
}

// NewPreferencesRepository creates a new preferences repository
func NewPreferencesRepository(db *DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// GetByUserID retrieves a user's preferences
func (r *PreferencesRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSchedulePreferences, error) {
	p := &models.UserSchedulePreferences{}
	var preferredJSON, avoidJSON, notificationsJSON []byte

	query := `
		SELECT user_id, timezone, preferred_times, max_daily_study_hours, break_duration_minutes,
			weekend_availability, preferred_session_length, avoid_times, auto_schedule,
			notification_settings, created_at, updated_at
		FROM user_schedule_preferences
		WHERE user_id = $1
	`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&p.Timezone,
		&preferredJSON,
		&p.MaxDailyStudyHours,
		&p.BreakDurationMinutes,
		&p.WeekendAvailability,
		&p.PreferredSessionLength,
		&avoidJSON,
		&p.AutoSchedule,
		&notificationsJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("preferences for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	if err := json.Unmarshal(preferredJSON, &p.PreferredTimes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preferred times: %w", err)
	}
	if err := json.Unmarshal(avoidJSON, &p.AvoidTimes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal avoid times: %w", err)
	}
	if err := json.Unmarshal(notificationsJSON, &p.NotificationSettings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification settings: %w", err)
	}
	return p, nil
}

// CreateIfNotExists inserts the row unless one exists; concurrent first access yields one row
func (r *PreferencesRepository) CreateIfNotExists(ctx context.Context, p *models.UserSchedulePreferences) error {
	preferredJSON, avoidJSON, notificationsJSON, err := marshalPreferences(p)
	if err != nil {
		return err
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_schedule_preferences (user_id, timezone, preferred_times, max_daily_study_hours,
			break_duration_minutes, weekend_availability, preferred_session_length, avoid_times,
			auto_schedule, notification_settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO NOTHING
	`,
		p.UserID,
		p.Timezone,
		preferredJSON,
		p.MaxDailyStudyHours,
		p.BreakDurationMinutes,
		p.WeekendAvailability,
		p.PreferredSessionLength,
		avoidJSON,
		p.AutoSchedule,
		notificationsJSON,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create preferences: %w", err)
	}
	return nil
}

// Update overwrites a user's preferences
func (r *PreferencesRepository) Update(ctx context.Context, p *models.UserSchedulePreferences) error {
	preferredJSON, avoidJSON, notificationsJSON, err := marshalPreferences(p)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(ctx, `
		UPDATE user_schedule_preferences
		SET timezone = $2, preferred_times = $3, max_daily_study_hours = $4, break_duration_minutes = $5,
			weekend_availability = $6, preferred_session_length = $7, avoid_times = $8,
			auto_schedule = $9, notification_settings = $10, updated_at = $11
		WHERE user_id = $1
		RETURNING updated_at
	`,
		p.UserID,
		p.Timezone,
		preferredJSON,
		p.MaxDailyStudyHours,
		p.BreakDurationMinutes,
		p.WeekendAvailability,
		p.PreferredSessionLength,
		avoidJSON,
		p.AutoSchedule,
		notificationsJSON,
		time.Now(),
	).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("preferences for user %s: %w", p.UserID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}

func marshalPreferences(p *models.UserSchedulePreferences) (preferred, avoid, notifications []byte, err error) {
	windows := p.PreferredTimes
	if windows == nil {
		windows = []models.TimeWindow{}
	}
	if preferred, err = json.Marshal(windows); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal preferred times: %w", err)
	}
	avoidWindows := p.AvoidTimes
	if avoidWindows == nil {
		avoidWindows = []models.TimeWindow{}
	}
	if avoid, err = json.Marshal(avoidWindows); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal avoid times: %w", err)
	}
	if notifications, err = json.Marshal(p.NotificationSettings); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal notification settings: %w", err)
	}
	return preferred, avoid, notifications, nil
}
