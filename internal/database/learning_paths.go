package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// LearningPathRepository handles learning path and step database operations
type LearningPathRepository struct {
	db *DB
	q  querier
	tx *sql.Tx
}

// NewLearningPathRepository creates a new learning path repository
func NewLearningPathRepository(db *DB) *LearningPathRepository {
	return &LearningPathRepository{db: db, q: db}
}

// Create inserts a path together with its steps
func (r *LearningPathRepository) Create(ctx context.Context, path *models.LearningPath, steps []*models.LearningPathStep) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		err := tx.QueryRowContext(ctx, `
			INSERT INTO learning_paths (id, user_id, title, status, progress_percentage, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at
		`, path.ID, path.UserID, path.Title, path.Status, path.ProgressPercentage, now, now).Scan(&path.CreatedAt, &path.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create learning path: %w", err)
		}

		for _, step := range steps {
			videos, err := json.Marshal(nonNilVideos(step.Videos))
			if err != nil {
				return fmt.Errorf("failed to marshal step videos: %w", err)
			}
			step.PathID = path.ID
			_, err = tx.ExecContext(ctx, `
				INSERT INTO learning_path_steps (id, path_id, step_order, title, videos, status, completed_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, step.ID, step.PathID, step.StepOrder, step.Title, videos, step.Status, nullTime(step.CompletedAt))
			if err != nil {
				return fmt.Errorf("failed to create learning path step: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves one of the user's learning paths
func (r *LearningPathRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.LearningPath, error) {
	p := &models.LearningPath{}
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, title, status, progress_percentage, created_at, updated_at
		FROM learning_paths
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&p.ID, &p.UserID, &p.Title, &p.Status, &p.ProgressPercentage, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("learning path %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get learning path: %w", err)
	}
	return p, nil
}

// ListSteps returns a path's steps in order
func (r *LearningPathRepository) ListSteps(ctx context.Context, pathID uuid.UUID) ([]*models.LearningPathStep, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, path_id, step_order, title, videos, status, completed_at
		FROM learning_path_steps
		WHERE path_id = $1
		ORDER BY step_order
	`, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to query learning path steps: %w", err)
	}
	defer rows.Close()

	var steps []*models.LearningPathStep
	for rows.Next() {
		s := &models.LearningPathStep{}
		var videosJSON []byte
		var completedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.PathID, &s.StepOrder, &s.Title, &videosJSON, &s.Status, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan learning path step: %w", err)
		}
		if err := json.Unmarshal(videosJSON, &s.Videos); err != nil {
			return nil, fmt.Errorf("failed to unmarshal step videos: %w", err)
		}
		s.CompletedAt = timePtr(completedAt)
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating learning path steps: %w", err)
	}
	return steps, nil
}

// UpdateStep stores a step's completion state
func (r *LearningPathRepository) UpdateStep(ctx context.Context, step *models.LearningPathStep) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE learning_path_steps SET status = $2, completed_at = $3 WHERE id = $1
	`, step.ID, step.Status, nullTime(step.CompletedAt))
	if err != nil {
		return fmt.Errorf("failed to update learning path step: %w", err)
	}
	return nil
}

// UpdateProgress stores a path's progress percentage and status
func (r *LearningPathRepository) UpdateProgress(ctx context.Context, path *models.LearningPath) error {
	err := r.q.QueryRowContext(ctx, `
		UPDATE learning_paths SET progress_percentage = $2, status = $3, updated_at = $4
		WHERE id = $1
		RETURNING updated_at
	`, path.ID, path.ProgressPercentage, path.Status, time.Now()).Scan(&path.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("learning path %s: %w", path.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update learning path progress: %w", err)
	}
	return nil
}

// WithPathLock runs fn in a transaction holding an advisory lock on the path
func (r *LearningPathRepository) WithPathLock(ctx context.Context, pathID uuid.UUID, fn func(repo LearningPathRepositoryInterface) error) error {
	key := "learning_path|" + pathID.String()
	if r.tx != nil {
		if err := advisoryXactLock(ctx, r.tx, key); err != nil {
			return err
		}
		return fn(r)
	}
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := advisoryXactLock(ctx, tx, key); err != nil {
			return err
		}
		return fn(&LearningPathRepository{db: r.db, q: tx, tx: tx})
	})
}

func nonNilVideos(v []models.VideoReference) []models.VideoReference {
	if v == nil {
		return []models.VideoReference{}
	}
	return v
}
