package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeWindow is an ordered [start, end] pair of HH:MM times within one day
type TimeWindow [2]string

// Start returns the window's opening time
func (w TimeWindow) Start() string { return w[0] }

// End returns the window's closing time
func (w TimeWindow) End() string { return w[1] }

// NotificationSettings controls reminder delivery for a user
type NotificationSettings struct {
	Email           bool `json:"email"`
	Push            bool `json:"push"`
	ReminderMinutes int  `json:"reminder_minutes"`
}

// UserSchedulePreferences holds one user's scheduling preferences
type UserSchedulePreferences struct {
	UserID                 uuid.UUID            `json:"user_id"`
	Timezone               string               `json:"timezone"`
	PreferredTimes         []TimeWindow         `json:"preferred_times"`
	MaxDailyStudyHours     float64              `json:"max_daily_study_hours"`
	BreakDurationMinutes   int                  `json:"break_duration_minutes"`
	WeekendAvailability    bool                 `json:"weekend_availability"`
	PreferredSessionLength int                  `json:"preferred_session_length"`
	AvoidTimes             []TimeWindow         `json:"avoid_times"`
	AutoSchedule           bool                 `json:"auto_schedule"`
	NotificationSettings   NotificationSettings `json:"notification_settings"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

// DailyCapMinutes converts the hour cap into whole minutes
func (p *UserSchedulePreferences) DailyCapMinutes() int {
	return int(p.MaxDailyStudyHours * 60)
}

// Location resolves the preference timezone, falling back to UTC
func (p *UserSchedulePreferences) Location() *time.Location {
	if p == nil || p.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultSchedulePreferences returns the preferences a user starts with
func DefaultSchedulePreferences(userID uuid.UUID) *UserSchedulePreferences {
	return &UserSchedulePreferences{
		UserID:   userID,
		Timezone: "UTC",
		PreferredTimes: []TimeWindow{
			{"09:00", "11:00"},
			{"14:00", "16:00"},
			{"19:00", "21:00"},
		},
		MaxDailyStudyHours:     2.0,
		BreakDurationMinutes:   15,
		WeekendAvailability:    true,
		PreferredSessionLength: 60,
		AvoidTimes:             []TimeWindow{},
		AutoSchedule:           false,
		NotificationSettings: NotificationSettings{
			Email:           false,
			Push:            true,
			ReminderMinutes: 15,
		},
	}
}

// PreferencesPatch is a partial update; nil fields are left unchanged
type PreferencesPatch struct {
	Timezone               *string               `json:"timezone,omitempty"`
	PreferredTimes         *[]TimeWindow         `json:"preferred_times,omitempty"`
	MaxDailyStudyHours     *float64              `json:"max_daily_study_hours,omitempty"`
	BreakDurationMinutes   *int                  `json:"break_duration_minutes,omitempty"`
	WeekendAvailability    *bool                 `json:"weekend_availability,omitempty"`
	PreferredSessionLength *int                  `json:"preferred_session_length,omitempty"`
	AvoidTimes             *[]TimeWindow         `json:"avoid_times,omitempty"`
	AutoSchedule           *bool                 `json:"auto_schedule,omitempty"`
	NotificationSettings   *NotificationSettings `json:"notification_settings,omitempty"`
}

// Apply copies the set fields of the patch onto p
func (patch *PreferencesPatch) Apply(p *UserSchedulePreferences) {
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	if patch.PreferredTimes != nil {
		p.PreferredTimes = append([]TimeWindow(nil), (*patch.PreferredTimes)...)
	}
	if patch.MaxDailyStudyHours != nil {
		p.MaxDailyStudyHours = *patch.MaxDailyStudyHours
	}
	if patch.BreakDurationMinutes != nil {
		p.BreakDurationMinutes = *patch.BreakDurationMinutes
	}
	if patch.WeekendAvailability != nil {
		p.WeekendAvailability = *patch.WeekendAvailability
	}
	if patch.PreferredSessionLength != nil {
		p.PreferredSessionLength = *patch.PreferredSessionLength
	}
	if patch.AvoidTimes != nil {
		p.AvoidTimes = append([]TimeWindow(nil), (*patch.AvoidTimes)...)
	}
	if patch.AutoSchedule != nil {
		p.AutoSchedule = *patch.AutoSchedule
	}
	if patch.NotificationSettings != nil {
		p.NotificationSettings = *patch.NotificationSettings
	}
}
