package models

import (
	"encoding/json"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/google/uuid"
)

const (
	// MinDurationMinutes is the shortest schedulable session
	MinDurationMinutes = 1
	// MaxDurationMinutes is the longest schedulable session (8 hours)
	MaxDurationMinutes = 480
)

// TaskType classifies the kind of study work a schedule entry represents
type TaskType string

const (
	TaskTypeVideo    TaskType = "video"
	TaskTypePractice TaskType = "practice"
	TaskTypeProject  TaskType = "project"
	TaskTypeReview   TaskType = "review"
)

// Valid reports whether t is a known task type
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeVideo, TaskTypePractice, TaskTypeProject, TaskTypeReview:
		return true
	}
	return false
}

// ScheduleStatus represents the lifecycle state of a schedule entry
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusMissed    ScheduleStatus = "missed"
	ScheduleStatusCancelled ScheduleStatus = "cancelled"

	// scheduleStatusLegacyPending is accepted from older clients and stored as scheduled
	scheduleStatusLegacyPending ScheduleStatus = "pending"
)

// Normalize maps legacy status values onto the current set
func (s ScheduleStatus) Normalize() ScheduleStatus {
	if s == scheduleStatusLegacyPending {
		return ScheduleStatusScheduled
	}
	return s
}

// Valid reports whether s (after normalization) is a known status
func (s ScheduleStatus) Valid() bool {
	switch s.Normalize() {
	case ScheduleStatusScheduled, ScheduleStatusCompleted, ScheduleStatusMissed, ScheduleStatusCancelled:
		return true
	}
	return false
}

// Priority is shared by schedule entries and todos
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ScheduleEntry is a single planned study session on a journey
type ScheduleEntry struct {
	ID              uuid.UUID       `json:"id"`
	JourneyID       uuid.UUID       `json:"journey_id"`
	ScheduledDate   clock.Date      `json:"scheduled_date"`
	TaskType        TaskType        `json:"task_type"`
	Title           string          `json:"title"`
	Description     *string         `json:"description,omitempty"`
	StartTime       *string         `json:"start_time,omitempty"` // HH:MM, nil for unscheduled-time tasks
	DurationMinutes int             `json:"duration_minutes"`
	Status          ScheduleStatus  `json:"status"`
	TodoID          *uuid.UUID      `json:"todo_id,omitempty"`
	VideoID         *string         `json:"video_id,omitempty"`
	Priority        Priority        `json:"priority"`
	ReminderOffsets []int           `json:"reminder_offsets,omitempty"` // minutes before start
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// HasStartTime reports whether the entry occupies a concrete time range
func (e *ScheduleEntry) HasStartTime() bool {
	return e.StartTime != nil && *e.StartTime != ""
}

// TimeRange returns the entry's [start, end) range in minutes since midnight.
// ok is false when the entry has no parseable start time.
func (e *ScheduleEntry) TimeRange() (start, end int, ok bool) {
	if !e.HasStartTime() {
		return 0, 0, false
	}
	start, err := clock.ParseHHMM(*e.StartTime)
	if err != nil {
		return 0, 0, false
	}
	return start, start + e.DurationMinutes, true
}

// SetStatus applies a status change and keeps CompletedAt consistent with it:
// completed stamps the completion time, every other status clears it.
func (e *ScheduleEntry) SetStatus(status ScheduleStatus, now time.Time) {
	e.Status = status.Normalize()
	if e.Status == ScheduleStatusCompleted {
		if e.CompletedAt == nil {
			e.CompletedAt = &now
		}
		return
	}
	e.CompletedAt = nil
}

// Clone returns a deep copy of the entry
func (e *ScheduleEntry) Clone() *ScheduleEntry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Description != nil {
		v := *e.Description
		c.Description = &v
	}
	if e.StartTime != nil {
		v := *e.StartTime
		c.StartTime = &v
	}
	if e.TodoID != nil {
		v := *e.TodoID
		c.TodoID = &v
	}
	if e.VideoID != nil {
		v := *e.VideoID
		c.VideoID = &v
	}
	if e.CompletedAt != nil {
		v := *e.CompletedAt
		c.CompletedAt = &v
	}
	if e.ReminderOffsets != nil {
		c.ReminderOffsets = append([]int(nil), e.ReminderOffsets...)
	}
	if e.Metadata != nil {
		c.Metadata = append(json.RawMessage(nil), e.Metadata...)
	}
	return &c
}

// ScheduleFilter narrows a date-range listing
type ScheduleFilter struct {
	From   clock.Date
	To     clock.Date
	Status *ScheduleStatus
}
