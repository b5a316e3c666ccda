package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestDefaultSchedulePreferences(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	p := DefaultSchedulePreferences(userID)

	if p.UserID != userID {
		t.Errorf("expected user id %s, got %s", userID, p.UserID)
	}
	if p.Timezone != "UTC" {
		t.Errorf("expected UTC timezone, got %q", p.Timezone)
	}
	if len(p.PreferredTimes) != 3 || p.PreferredTimes[0] != (TimeWindow{"09:00", "11:00"}) {
		t.Errorf("unexpected preferred times: %v", p.PreferredTimes)
	}
	if p.DailyCapMinutes() != 120 {
		t.Errorf("expected 120 minute cap, got %d", p.DailyCapMinutes())
	}
	if !p.WeekendAvailability || p.AutoSchedule {
		t.Errorf("unexpected availability flags: weekend=%v auto=%v", p.WeekendAvailability, p.AutoSchedule)
	}
	if !p.NotificationSettings.Push || p.NotificationSettings.ReminderMinutes != 15 {
		t.Errorf("unexpected notification settings: %+v", p.NotificationSettings)
	}
}

func TestPreferencesPatch_Apply(t *testing.T) {
	t.Parallel()

	p := DefaultSchedulePreferences(uuid.New())
	tz := "Europe/Berlin"
	hours := 3.5
	windows := []TimeWindow{{"06:00", "08:00"}}
	patch := PreferencesPatch{Timezone: &tz, MaxDailyStudyHours: &hours, PreferredTimes: &windows}
	patch.Apply(p)

	if p.Timezone != tz || p.MaxDailyStudyHours != hours {
		t.Errorf("patch not applied: %+v", p)
	}
	if len(p.PreferredTimes) != 1 || p.PreferredTimes[0].Start() != "06:00" {
		t.Errorf("unexpected windows: %v", p.PreferredTimes)
	}
	if p.BreakDurationMinutes != 15 {
		t.Errorf("unset field changed: break=%d", p.BreakDurationMinutes)
	}
	if p.Location().String() != tz {
		t.Errorf("expected location %s, got %s", tz, p.Location())
	}
}

func TestProgressPercentage(t *testing.T) {
	t.Parallel()

	steps := func(done, total int) []*LearningPathStep {
		out := make([]*LearningPathStep, total)
		for i := range out {
			out[i] = &LearningPathStep{Status: StepStatusPending}
			if i < done {
				out[i].Status = StepStatusCompleted
			}
		}
		return out
	}

	tests := []struct {
		name  string
		steps []*LearningPathStep
		want  float64
	}{
		{"empty", nil, 0},
		{"half", steps(2, 4), 50},
		{"third", steps(1, 3), 33.3},
		{"all", steps(3, 3), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ProgressPercentage(tt.steps); got != tt.want {
				t.Errorf("ProgressPercentage() = %v, want %v", got, tt.want)
			}
		})
	}
}
