package models

import (
	"time"

	"github.com/google/uuid"
)

// TodoStatus represents the status of a todo
type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
)

// Valid reports whether s is a known todo status
func (s TodoStatus) Valid() bool {
	switch s {
	case TodoStatusPending, TodoStatusInProgress, TodoStatusCompleted:
		return true
	}
	return false
}

// Todo is an actionable study item, optionally linked to videos and a learning path
type Todo struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	Title            string           `json:"title"`
	Description      *string          `json:"description,omitempty"`
	Status           TodoStatus       `json:"status"`
	Priority         Priority         `json:"priority"`
	Category         string           `json:"category"`
	DueDate          *time.Time       `json:"due_date,omitempty"`
	EstimatedMinutes int              `json:"estimated_minutes"`
	ActualMinutes    int              `json:"actual_minutes"`
	Videos           []VideoReference `json:"videos"`
	Tags             []string         `json:"tags"`
	Metadata         TodoMetadata     `json:"metadata"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

// SetStatus changes the todo status and keeps CompletedAt consistent
func (t *Todo) SetStatus(status TodoStatus, now time.Time) {
	t.Status = status
	if status == TodoStatusCompleted {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		return
	}
	t.CompletedAt = nil
}

// LinkedPathID returns the learning path this todo is tagged with, if any
func (t *Todo) LinkedPathID() (uuid.UUID, bool) {
	if t.Metadata.PathRef == nil || t.Metadata.PathRef.PathID == uuid.Nil {
		return uuid.Nil, false
	}
	return t.Metadata.PathRef.PathID, true
}
