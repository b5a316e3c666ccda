package models

import (
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/google/uuid"
)

// ConflictType identifies why a candidate schedule was rejected
type ConflictType string

const (
	ConflictTypeOverlap      ConflictType = "overlap"
	ConflictTypeExceedsLimit ConflictType = "exceeds_limit"
)

// ResolutionStatus tracks whether a logged conflict has been handled
type ResolutionStatus string

const (
	ResolutionUnresolved   ResolutionStatus = "unresolved"
	ResolutionUserResolved ResolutionStatus = "user_resolved"
)

// ResolutionAction is what the user chose to do about a conflict
type ResolutionAction string

const (
	ResolutionActionRescheduled ResolutionAction = "rescheduled"
	ResolutionActionKeptBoth    ResolutionAction = "kept_both"
	ResolutionActionCancelled   ResolutionAction = "cancelled"
	ResolutionActionDismissed   ResolutionAction = "dismissed"
)

// Valid reports whether a is a known resolution action
func (a ResolutionAction) Valid() bool {
	switch a {
	case ResolutionActionRescheduled, ResolutionActionKeptBoth, ResolutionActionCancelled, ResolutionActionDismissed:
		return true
	}
	return false
}

// ConflictDetails describes the clash. Overlap conflicts fill the range fields,
// exceeds_limit conflicts fill the totals.
type ConflictDetails struct {
	Date                clock.Date `json:"date"`
	CandidateTitle      string     `json:"candidate_title,omitempty"`
	CandidateStart      string     `json:"candidate_start,omitempty"`
	CandidateEnd        string     `json:"candidate_end,omitempty"`
	ExistingTitle       string     `json:"existing_title,omitempty"`
	ExistingStart       string     `json:"existing_start,omitempty"`
	ExistingEnd         string     `json:"existing_end,omitempty"`
	OverlapStart        string     `json:"overlap_start,omitempty"`
	OverlapEnd          string     `json:"overlap_end,omitempty"`
	OverlapMinutes      int        `json:"overlap_minutes,omitempty"`
	TotalMinutes        int        `json:"total_minutes,omitempty"`
	LimitMinutes        int        `json:"limit_minutes,omitempty"`
	ExceedByMinutes     int        `json:"exceed_by_minutes,omitempty"`
	ContributingEntries int        `json:"contributing_entries,omitempty"`
}

// ScheduleConflict is a detected clash between a candidate and the existing calendar.
// PrimaryScheduleID is the candidate's ID (uuid.Nil for a not-yet-created entry).
type ScheduleConflict struct {
	ID                    uuid.UUID         `json:"id"`
	UserID                uuid.UUID         `json:"user_id"`
	ConflictType          ConflictType      `json:"conflict_type"`
	PrimaryScheduleID     uuid.UUID         `json:"primary_schedule_id"`
	ConflictingScheduleID *uuid.UUID        `json:"conflicting_schedule_id,omitempty"`
	Details               ConflictDetails   `json:"details"`
	ResolutionStatus      ResolutionStatus  `json:"resolution_status"`
	ResolutionAction      *ResolutionAction `json:"resolution_action,omitempty"`
	DetectedAt            time.Time         `json:"detected_at"`
	ResolvedAt            *time.Time        `json:"resolved_at,omitempty"`
}
