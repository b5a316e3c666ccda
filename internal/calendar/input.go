package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxTitleLength = 200

// ScheduleInput is the data needed to create a schedule entry
type ScheduleInput struct {
	ScheduledDate   clock.Date            `json:"scheduled_date"`
	TaskType        models.TaskType       `json:"task_type" validate:"required,task_type"`
	Title           string                `json:"title"`
	Description     *string               `json:"description,omitempty"`
	StartTime       *string               `json:"start_time,omitempty" validate:"omitempty,hhmm"`
	DurationMinutes int                   `json:"duration_minutes" validate:"min=1,max=480"`
	Status          models.ScheduleStatus `json:"status,omitempty" validate:"omitempty,schedule_status"`
	TodoID          *uuid.UUID            `json:"todo_id,omitempty"`
	VideoID         *string               `json:"video_id,omitempty"`
	Priority        models.Priority       `json:"priority,omitempty" validate:"omitempty,priority"`
	ReminderOffsets []int                 `json:"reminder_offsets,omitempty" validate:"dive,gte=0"`
	Metadata        json.RawMessage       `json:"metadata,omitempty"`
}

// SchedulePatch is a partial update; nil fields are left unchanged.
// ClearStartTime turns a time-bound entry back into an unscheduled-time task.
type SchedulePatch struct {
	ScheduledDate   *clock.Date            `json:"scheduled_date,omitempty"`
	TaskType        *models.TaskType       `json:"task_type,omitempty" validate:"omitempty,task_type"`
	Title           *string                `json:"title,omitempty"`
	Description     *string                `json:"description,omitempty"`
	StartTime       *string                `json:"start_time,omitempty" validate:"omitempty,hhmm"`
	ClearStartTime  bool                   `json:"clear_start_time,omitempty"`
	DurationMinutes *int                   `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=480"`
	Status          *models.ScheduleStatus `json:"status,omitempty" validate:"omitempty,schedule_status"`
	Priority        *models.Priority       `json:"priority,omitempty" validate:"omitempty,priority"`
	ReminderOffsets *[]int                 `json:"reminder_offsets,omitempty" validate:"omitempty,dive,gte=0"`
	Metadata        json.RawMessage        `json:"metadata,omitempty"`
}

// validateInput checks a create request without touching storage
func validateInput(in *ScheduleInput) error {
	if in.StartTime != nil && *in.StartTime == "" {
		in.StartTime = nil
	}
	if in.ScheduledDate.IsZero() {
		return invalid("scheduled_date", "is required")
	}
	if err := validateTitle(in.Title); err != nil {
		return err
	}
	if err := validation.Validate.Struct(in); err != nil {
		return invalidFromValidator(reflect.TypeOf(*in), err)
	}
	if err := validateEndsByMidnight(in.StartTime, in.DurationMinutes); err != nil {
		return err
	}
	return validateMetadata(in.Metadata)
}

// validatePatch checks the fields present in an update request without touching storage
func validatePatch(p *SchedulePatch) error {
	if p.ScheduledDate != nil && p.ScheduledDate.IsZero() {
		return invalid("scheduled_date", "must not be empty")
	}
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.StartTime != nil && p.ClearStartTime {
		return invalid("start_time", "cannot be set and cleared in the same update")
	}
	if err := validation.Validate.Struct(p); err != nil {
		return invalidFromValidator(reflect.TypeOf(*p), err)
	}
	return validateMetadata(p.Metadata)
}

// invalidFromValidator reports the first failed rule as an InvalidTimeSlotError named by the
// field's JSON key
func invalidFromValidator(t reflect.Type, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return invalid("", err.Error())
	}
	fe := verrs[0]
	name, _, _ := strings.Cut(fe.StructField(), "[")
	field := name
	if sf, ok := t.FieldByName(name); ok {
		if tag, _, _ := strings.Cut(sf.Tag.Get("json"), ","); tag != "" {
			field = tag
		}
	}

	switch fe.Tag() {
	case "required":
		return invalid(field, "is required")
	case "task_type":
		return invalid(field, fmt.Sprintf("must be one of video, practice, project, review (got %q)", fmt.Sprint(fe.Value())))
	case "hhmm":
		return invalid(field, fmt.Sprintf("must be HH:MM (got %q)", fmt.Sprint(fe.Value())))
	case "min", "max":
		return invalid(field, fmt.Sprintf("must be between %d and %d (got %v)", models.MinDurationMinutes, models.MaxDurationMinutes, fe.Value()))
	case "schedule_status":
		return invalid(field, fmt.Sprintf("unknown status %q", fmt.Sprint(fe.Value())))
	case "priority":
		return invalid(field, fmt.Sprintf("unknown priority %q", fmt.Sprint(fe.Value())))
	case "gte":
		return invalid(field, "must not be negative")
	default:
		return invalid(field, "failed "+fe.Tag())
	}
}

func validateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return invalid("title", "must not be empty")
	}
	if len(trimmed) > maxTitleLength {
		return invalid("title", fmt.Sprintf("must be at most %d characters", maxTitleLength))
	}
	return nil
}

// validateDuration bounds a session length outside request structs, e.g. for slot searches
func validateDuration(minutes int) error {
	if minutes < models.MinDurationMinutes || minutes > models.MaxDurationMinutes {
		return invalid("duration_minutes", fmt.Sprintf("must be between %d and %d (got %d)", models.MinDurationMinutes, models.MaxDurationMinutes, minutes))
	}
	return nil
}

// validateEndsByMidnight rejects a time-bound session that would run into the next day
func validateEndsByMidnight(startTime *string, duration int) error {
	if startTime == nil {
		return nil
	}
	start, err := clock.ParseHHMM(*startTime)
	if err != nil {
		return invalid("start_time", fmt.Sprintf("must be HH:MM (got %q)", *startTime))
	}
	if start+duration > clock.MinutesPerDay {
		return invalid("duration_minutes", "session must end by midnight")
	}
	return nil
}

func validateMetadata(raw json.RawMessage) error {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return invalid("metadata", "must be a JSON object")
	}
	return nil
}

// apply merges the patch into e (which must be a copy)
func (p *SchedulePatch) apply(e *models.ScheduleEntry) {
	if p.ScheduledDate != nil {
		e.ScheduledDate = *p.ScheduledDate
	}
	if p.TaskType != nil {
		e.TaskType = *p.TaskType
	}
	if p.Title != nil {
		e.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		d := *p.Description
		e.Description = &d
	}
	if p.StartTime != nil {
		s := *p.StartTime
		e.StartTime = &s
	}
	if p.ClearStartTime {
		e.StartTime = nil
	}
	if p.DurationMinutes != nil {
		e.DurationMinutes = *p.DurationMinutes
	}
	if p.Priority != nil {
		e.Priority = *p.Priority
	}
	if p.ReminderOffsets != nil {
		e.ReminderOffsets = append([]int(nil), (*p.ReminderOffsets)...)
	}
	if len(p.Metadata) > 0 {
		e.Metadata = append(json.RawMessage(nil), p.Metadata...)
	}
}

// timingChanged reports whether before and after differ in anything the detector looks at
func timingChanged(before, after *models.ScheduleEntry) bool {
	if before.ScheduledDate != after.ScheduledDate || before.DurationMinutes != after.DurationMinutes {
		return true
	}
	if before.HasStartTime() != after.HasStartTime() {
		return true
	}
	if before.HasStartTime() && *before.StartTime != *after.StartTime {
		return true
	}
	// re-activating a cancelled entry makes it occupy time again
	wasCancelled := before.Status == models.ScheduleStatusCancelled
	isCancelled := after.Status == models.ScheduleStatusCancelled
	return wasCancelled && !isCancelled
}
