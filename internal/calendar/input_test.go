package calendar

import (
	"errors"
	"testing"

	"github.com/benvon/study-planner/internal/models"
)

func TestValidateInput_NamesFailedField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(in *ScheduleInput)
		wantField string
	}{
		{name: "valid", mutate: func(in *ScheduleInput) {}},
		{name: "empty start time means none", mutate: func(in *ScheduleInput) { in.StartTime = strPtr("") }},
		{name: "missing task type", mutate: func(in *ScheduleInput) { in.TaskType = "" }, wantField: "task_type"},
		{name: "unknown task type", mutate: func(in *ScheduleInput) { in.TaskType = "reading" }, wantField: "task_type"},
		{name: "malformed start", mutate: func(in *ScheduleInput) { in.StartTime = strPtr("9:5") }, wantField: "start_time"},
		{name: "duration too short", mutate: func(in *ScheduleInput) { in.DurationMinutes = 0 }, wantField: "duration_minutes"},
		{name: "duration too long", mutate: func(in *ScheduleInput) { in.DurationMinutes = 481 }, wantField: "duration_minutes"},
		{name: "ends after midnight", mutate: func(in *ScheduleInput) { in.StartTime = strPtr("22:00"); in.DurationMinutes = 121 }, wantField: "duration_minutes"},
		{name: "unknown status", mutate: func(in *ScheduleInput) { in.Status = "done" }, wantField: "status"},
		{name: "unknown priority", mutate: func(in *ScheduleInput) { in.Priority = "critical" }, wantField: "priority"},
		{name: "negative reminder", mutate: func(in *ScheduleInput) { in.ReminderOffsets = []int{15, -5} }, wantField: "reminder_offsets"},
		{name: "blank title", mutate: func(in *ScheduleInput) { in.Title = "\t " }, wantField: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := validInput("09:00", 60)
			tt.mutate(&in)
			err := validateInput(&in)
			assertInvalidField(t, err, tt.wantField)
		})
	}
}

func TestValidatePatch_NamesFailedField(t *testing.T) {
	t.Parallel()

	zero := 0
	ninety := 90
	lecture := models.TaskType("lecture")
	pending := models.ScheduleStatus("pending")
	done := models.ScheduleStatus("done")
	negative := []int{-1}

	tests := []struct {
		name      string
		patch     SchedulePatch
		wantField string
	}{
		{name: "empty patch", patch: SchedulePatch{}},
		{name: "duration and legacy status", patch: SchedulePatch{DurationMinutes: &ninety, Status: &pending}},
		{name: "zero duration", patch: SchedulePatch{DurationMinutes: &zero}, wantField: "duration_minutes"},
		{name: "empty start time", patch: SchedulePatch{StartTime: strPtr("")}, wantField: "start_time"},
		{name: "set and clear start", patch: SchedulePatch{StartTime: strPtr("10:00"), ClearStartTime: true}, wantField: "start_time"},
		{name: "unknown task type", patch: SchedulePatch{TaskType: &lecture}, wantField: "task_type"},
		{name: "unknown status", patch: SchedulePatch{Status: &done}, wantField: "status"},
		{name: "negative reminder", patch: SchedulePatch{ReminderOffsets: &negative}, wantField: "reminder_offsets"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			patch := tt.patch
			assertInvalidField(t, validatePatch(&patch), tt.wantField)
		})
	}
}

func assertInvalidField(t *testing.T, err error, wantField string) {
	t.Helper()

	if wantField == "" {
		if err != nil {
			t.Fatalf("error = %v, want nil", err)
		}
		return
	}
	var invalidErr *InvalidTimeSlotError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("error = %v, want InvalidTimeSlotError", err)
	}
	if invalidErr.Field != wantField {
		t.Errorf("Field = %q, want %q (%v)", invalidErr.Field, wantField, err)
	}
}
