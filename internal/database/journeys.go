package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// JourneyRepository handles learning journey database operations
type JourneyRepository struct {
	db *DB
}

// NewJourneyRepository creates a new journey repository
func NewJourneyRepository(db *DB) *JourneyRepository {
	return &JourneyRepository{db: db}
}

// Create inserts a journey
func (r *JourneyRepository) Create(ctx context.Context, j *models.Journey) error {
	now := time.Now()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO ai_journeys (id, user_id, title, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, j.ID, j.UserID, j.Title, j.Status, now, now).Scan(&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create journey: %w", err)
	}
	return nil
}

// GetActiveByUserID returns the user's most recent active journey
func (r *JourneyRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.Journey, error) {
	j := &models.Journey{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, status, created_at, updated_at
		FROM ai_journeys
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, models.JourneyStatusActive).Scan(
		&j.ID,
		&j.UserID,
		&j.Title,
		&j.Status,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active journey for user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journey: %w", err)
	}
	return j, nil
}
