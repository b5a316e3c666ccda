package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

const scheduleColumns = `id, journey_id, scheduled_date, task_type, title, description, start_time,
	duration_minutes, status, todo_id, video_id, priority, reminder_offsets, metadata,
	completed_at, created_at, updated_at`

// ScheduleRepository handles learning schedule database operations
type ScheduleRepository struct {
	db *DB
	q  querier
	tx *sql.Tx
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db, q: db}
}

// Create inserts a schedule entry
func (r *ScheduleRepository) Create(ctx context.Context, e *models.ScheduleEntry) error {
	query := `
		INSERT INTO ai_journey_schedule (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at
	`

	reminders, metadata, err := marshalScheduleJSON(e)
	if err != nil {
		return err
	}

	now := time.Now()
	err = r.q.QueryRowContext(ctx, query,
		e.ID,
		e.JourneyID,
		e.ScheduledDate,
		e.TaskType,
		e.Title,
		nullString(e.Description),
		nullString(e.StartTime),
		e.DurationMinutes,
		e.Status,
		nullUUID(e.TodoID),
		nullString(e.VideoID),
		e.Priority,
		reminders,
		metadata,
		nullTime(e.CompletedAt),
		now,
		now,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

// GetByID retrieves a schedule entry of a journey
func (r *ScheduleRepository) GetByID(ctx context.Context, journeyID, id uuid.UUID) (*models.ScheduleEntry, error) {
	query := `SELECT ` + scheduleColumns + ` FROM ai_journey_schedule WHERE id = $1 AND journey_id = $2`
	e, err := scanSchedule(r.q.QueryRowContext(ctx, query, id, journeyID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("schedule %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return e, nil
}

// Update overwrites the mutable fields of a schedule entry
func (r *ScheduleRepository) Update(ctx context.Context, e *models.ScheduleEntry) error {
	query := `
		UPDATE ai_journey_schedule
		SET scheduled_date = $3, task_type = $4, title = $5, description = $6, start_time = $7,
			duration_minutes = $8, status = $9, todo_id = $10, video_id = $11, priority = $12,
			reminder_offsets = $13, metadata = $14, completed_at = $15, updated_at = $16
		WHERE id = $1 AND journey_id = $2
		RETURNING updated_at
	`

	reminders, metadata, err := marshalScheduleJSON(e)
	if err != nil {
		return err
	}

	err = r.q.QueryRowContext(ctx, query,
		e.ID,
		e.JourneyID,
		e.ScheduledDate,
		e.TaskType,
		e.Title,
		nullString(e.Description),
		nullString(e.StartTime),
		e.DurationMinutes,
		e.Status,
		nullUUID(e.TodoID),
		nullString(e.VideoID),
		e.Priority,
		reminders,
		metadata,
		nullTime(e.CompletedAt),
		time.Now(),
	).Scan(&e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("schedule %s: %w", e.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule entry of a journey
func (r *ScheduleRepository) Delete(ctx context.Context, journeyID, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM ai_journey_schedule WHERE id = $1 AND journey_id = $2`, id, journeyID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("schedule %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListByDate returns the journey's entries on one date
func (r *ScheduleRepository) ListByDate(ctx context.Context, journeyID uuid.UUID, date clock.Date, excludeID *uuid.UUID) ([]*models.ScheduleEntry, error) {
	query := `SELECT ` + scheduleColumns + ` FROM ai_journey_schedule WHERE journey_id = $1 AND scheduled_date = $2`
	args := []any{journeyID, date}
	if excludeID != nil {
		query += " AND id <> $3"
		args = append(args, *excludeID)
	}
	query += " ORDER BY start_time NULLS LAST, created_at"

	return r.list(ctx, query, args...)
}

// ListByDateRange returns the journey's entries in [From, To], optionally filtered by status
func (r *ScheduleRepository) ListByDateRange(ctx context.Context, journeyID uuid.UUID, filter models.ScheduleFilter) ([]*models.ScheduleEntry, error) {
	query := `SELECT ` + scheduleColumns + ` FROM ai_journey_schedule WHERE journey_id = $1 AND scheduled_date BETWEEN $2 AND $3`
	args := []any{journeyID, filter.From, filter.To}
	if filter.Status != nil {
		query += " AND status = $4"
		args = append(args, string(*filter.Status))
	}
	query += " ORDER BY scheduled_date, start_time NULLS LAST, created_at"

	return r.list(ctx, query, args...)
}

// MarkMissedBefore flips past scheduled entries to missed
func (r *ScheduleRepository) MarkMissedBefore(ctx context.Context, before clock.Date, now time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE ai_journey_schedule
		SET status = $1, completed_at = NULL, updated_at = $2
		WHERE status = $3 AND scheduled_date < $4
	`, models.ScheduleStatusMissed, now, models.ScheduleStatusScheduled, before)
	if err != nil {
		return 0, fmt.Errorf("failed to mark missed schedules: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read sweep result: %w", err)
	}
	return n, nil
}

// WithDateLock runs fn in a transaction holding an advisory lock on (journey, date).
// Nested calls reuse the enclosing transaction.
func (r *ScheduleRepository) WithDateLock(ctx context.Context, journeyID uuid.UUID, date clock.Date, fn func(repo ScheduleRepositoryInterface) error) error {
	key := fmt.Sprintf("schedule|%s|%s", journeyID, date)
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
		return fn(&ScheduleRepository{db: r.db, q: tx, tx: tx})
	})
}

func (r *ScheduleRepository) list(ctx context.Context, query string, args ...any) ([]*models.ScheduleEntry, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var entries []*models.ScheduleEntry
	for rows.Next() {
		e, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (*models.ScheduleEntry, error) {
	e := &models.ScheduleEntry{}
	var (
		description, startTime, videoID sql.NullString
		todoID                          uuid.NullUUID
		remindersJSON, metadataJSON     []byte
		completedAt                     sql.NullTime
	)
	err := row.Scan(
		&e.ID,
		&e.JourneyID,
		&e.ScheduledDate,
		&e.TaskType,
		&e.Title,
		&description,
		&startTime,
		&e.DurationMinutes,
		&e.Status,
		&todoID,
		&videoID,
		&e.Priority,
		&remindersJSON,
		&metadataJSON,
		&completedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Description = stringPtr(description)
	e.StartTime = stringPtr(startTime)
	e.VideoID = stringPtr(videoID)
	e.CompletedAt = timePtr(completedAt)
	if todoID.Valid {
		id := todoID.UUID
		e.TodoID = &id
	}
	if len(remindersJSON) > 0 {
		if err := json.Unmarshal(remindersJSON, &e.ReminderOffsets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reminder offsets: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		e.Metadata = json.RawMessage(metadataJSON)
	}
	return e, nil
}

func marshalScheduleJSON(e *models.ScheduleEntry) ([]byte, []byte, error) {
	offsets := e.ReminderOffsets
	if offsets == nil {
		offsets = []int{}
	}
	reminders, err := json.Marshal(offsets)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal reminder offsets: %w", err)
	}
	metadata := []byte(e.Metadata)
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}
	return reminders, metadata, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
