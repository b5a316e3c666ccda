package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

const conflictColumns = `id, user_id, conflict_type, primary_schedule_id, conflicting_schedule_id,
	details, resolution_status, resolution_action, detected_at, resolved_at`

// ConflictRepository handles the schedule conflict log
type ConflictRepository struct {
	db *DB
}

// NewConflictRepository creates a new conflict repository
func NewConflictRepository(db *DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// Create records a detected conflict
func (r *ConflictRepository) Create(ctx context.Context, c *models.ScheduleConflict) error {
	details, err := json.Marshal(c.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal conflict details: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO schedule_conflicts (`+conflictColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		c.ID,
		c.UserID,
		c.ConflictType,
		c.PrimaryScheduleID,
		nullUUID(c.ConflictingScheduleID),
		details,
		c.ResolutionStatus,
		nullAction(c.ResolutionAction),
		c.DetectedAt,
		nullTime(c.ResolvedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create conflict: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's conflicts
func (r *ConflictRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.ScheduleConflict, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+conflictColumns+` FROM schedule_conflicts WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanConflict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conflict %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conflict: %w", err)
	}
	return c, nil
}

// ListByUserID lists the user's conflicts, newest first
func (r *ConflictRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status *models.ResolutionStatus) ([]*models.ScheduleConflict, error) {
	query := `SELECT ` + conflictColumns + ` FROM schedule_conflicts WHERE user_id = $1`
	args := []any{userID}
	if status != nil {
		query += " AND resolution_status = $2"
		args = append(args, string(*status))
	}
	query += " ORDER BY detected_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []*models.ScheduleConflict
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		conflicts = append(conflicts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conflicts: %w", err)
	}
	return conflicts, nil
}

// Update stores the resolution state of a conflict
func (r *ConflictRepository) Update(ctx context.Context, c *models.ScheduleConflict) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE schedule_conflicts
		SET resolution_status = $3, resolution_action = $4, resolved_at = $5
		WHERE id = $1 AND user_id = $2
	`, c.ID, c.UserID, c.ResolutionStatus, nullAction(c.ResolutionAction), nullTime(c.ResolvedAt))
	if err != nil {
		return fmt.Errorf("failed to update conflict: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("conflict %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

func scanConflict(row rowScanner) (*models.ScheduleConflict, error) {
	c := &models.ScheduleConflict{}
	var (
		conflicting uuid.NullUUID
		detailsJSON []byte
		action      sql.NullString
		resolvedAt  sql.NullTime
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.ConflictType,
		&c.PrimaryScheduleID,
		&conflicting,
		&detailsJSON,
		&c.ResolutionStatus,
		&action,
		&c.DetectedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if conflicting.Valid {
		id := conflicting.UUID
		c.ConflictingScheduleID = &id
	}
	if action.Valid {
		a := models.ResolutionAction(action.String)
		c.ResolutionAction = &a
	}
	c.ResolvedAt = timePtr(resolvedAt)
	if len(detailsJSON) > 0 {
		if err := json.Unmarshal(detailsJSON, &c.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conflict details: %w", err)
		}
	}
	return c, nil
}

func nullAction(a *models.ResolutionAction) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*a), Valid: true}
}
