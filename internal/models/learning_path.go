package models

import (
	"time"

	"github.com/google/uuid"
)

// LearningPathStatus represents the state of a learning path
type LearningPathStatus string

const (
	LearningPathStatusActive    LearningPathStatus = "active"
	LearningPathStatusCompleted LearningPathStatus = "completed"
)

// StepStatus represents the state of a single learning path step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusCompleted StepStatus = "completed"
)

// LearningPath is an ordered curriculum whose progress is derived from its steps
type LearningPath struct {
	ID                 uuid.UUID          `json:"id"`
	UserID             uuid.UUID          `json:"user_id"`
	Title              string             `json:"title"`
	Status             LearningPathStatus `json:"status"`
	ProgressPercentage float64            `json:"progress_percentage"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// LearningPathStep is one step of a learning path
type LearningPathStep struct {
	ID          uuid.UUID        `json:"id"`
	PathID      uuid.UUID        `json:"path_id"`
	StepOrder   int              `json:"step_order"`
	Title       string           `json:"title"`
	Videos      []VideoReference `json:"videos"`
	Status      StepStatus       `json:"status"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Complete marks the step completed at now. It reports false if it already was.
func (s *LearningPathStep) Complete(now time.Time) bool {
	if s.Status == StepStatusCompleted {
		return false
	}
	s.Status = StepStatusCompleted
	s.CompletedAt = &now
	return true
}

// ProgressPercentage computes completed/total*100 rounded to one decimal place
func ProgressPercentage(steps []*LearningPathStep) float64 {
	if len(steps) == 0 {
		return 0
	}
	completed := 0
	for _, s := range steps {
		if s.Status == StepStatusCompleted {
			completed++
		}
	}
	pct := float64(completed) / float64(len(steps)) * 100
	return float64(int(pct*10+0.5)) / 10
}
