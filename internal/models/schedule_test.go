package models

import (
	"testing"
	"time"
)

func TestScheduleStatus_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value ScheduleStatus
		want  ScheduleStatus
		valid bool
	}{
		{"scheduled", ScheduleStatusScheduled, ScheduleStatusScheduled, true},
		{"completed", ScheduleStatusCompleted, ScheduleStatusCompleted, true},
		{"missed", ScheduleStatusMissed, ScheduleStatusMissed, true},
		{"cancelled", ScheduleStatusCancelled, ScheduleStatusCancelled, true},
		{"legacy pending", ScheduleStatus("pending"), ScheduleStatusScheduled, true},
		{"invalid", ScheduleStatus("done"), ScheduleStatus("done"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.value.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %q, want %q", got, tt.want)
			}
			if got := tt.value.Valid(); got != tt.valid {
				t.Errorf("Valid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestScheduleEntry_SetStatus(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	entry := &ScheduleEntry{Status: ScheduleStatusScheduled}

	entry.SetStatus(ScheduleStatusCompleted, now)
	if entry.CompletedAt == nil || !entry.CompletedAt.Equal(now) {
		t.Fatalf("expected completed_at to be set to %v, got %v", now, entry.CompletedAt)
	}

	entry.SetStatus(ScheduleStatus("pending"), now.Add(time.Hour))
	if entry.Status != ScheduleStatusScheduled {
		t.Errorf("expected status scheduled, got %q", entry.Status)
	}
	if entry.CompletedAt != nil {
		t.Errorf("expected completed_at to be cleared, got %v", entry.CompletedAt)
	}
}

func TestScheduleEntry_TimeRange(t *testing.T) {
	t.Parallel()

	start := "09:30"
	bad := "9:30"
	tests := []struct {
		name      string
		entry     ScheduleEntry
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{"with start", ScheduleEntry{StartTime: &start, DurationMinutes: 45}, 570, 615, true},
		{"no start", ScheduleEntry{DurationMinutes: 45}, 0, 0, false},
		{"malformed start", ScheduleEntry{StartTime: &bad, DurationMinutes: 45}, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, e, ok := tt.entry.TimeRange()
			if s != tt.wantStart || e != tt.wantEnd || ok != tt.wantOK {
				t.Errorf("TimeRange() = (%d, %d, %v), want (%d, %d, %v)", s, e, ok, tt.wantStart, tt.wantEnd, tt.wantOK)
			}
		})
	}
}

func TestScheduleEntry_CloneIsDeep(t *testing.T) {
	t.Parallel()

	start := "10:00"
	orig := &ScheduleEntry{StartTime: &start, ReminderOffsets: []int{15}}
	clone := orig.Clone()
	*clone.StartTime = "11:00"
	clone.ReminderOffsets[0] = 30

	if *orig.StartTime != "10:00" {
		t.Errorf("clone shares start time with original")
	}
	if orig.ReminderOffsets[0] != 15 {
		t.Errorf("clone shares reminder offsets with original")
	}
}
