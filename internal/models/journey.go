package models

import (
	"time"

	"github.com/google/uuid"
)

// JourneyStatus represents the state of a learning journey
type JourneyStatus string

const (
	JourneyStatusActive    JourneyStatus = "active"
	JourneyStatusPaused    JourneyStatus = "paused"
	JourneyStatusCompleted JourneyStatus = "completed"
)

// Journey is the learning journey that scopes a user's schedule entries
type Journey struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	Title     string        `json:"title"`
	Status    JourneyStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
