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
	"go.uber.org/zap"
)

const todoColumns = `id, user_id, title, description, status, priority, category, due_date,
	estimated_minutes, actual_minutes, videos, tags, metadata, created_at, updated_at, completed_at`

// TodoRepository handles todo database operations
type TodoRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db, logger: zap.NewNop()}
}

// SetLogger sets the logger for debug output
func (r *TodoRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Create creates a new todo
func (r *TodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	videos, tags, metadata, err := marshalTodoJSON(todo)
	if err != nil {
		return err
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO todos (`+todoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`,
		todo.ID,
		todo.UserID,
		todo.Title,
		nullString(todo.Description),
		todo.Status,
		todo.Priority,
		todo.Category,
		nullTime(todo.DueDate),
		todo.EstimatedMinutes,
		todo.ActualMinutes,
		videos,
		tags,
		metadata,
		now,
		now,
		nullTime(todo.CompletedAt),
	).Scan(&todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's todos
func (r *TodoRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Todo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	todo, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// ListByUserID retrieves the user's todos, optionally filtered by status
func (r *TodoRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status *models.TodoStatus) ([]*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1`
	args := []any{userID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at DESC"
	return r.list(ctx, query, args...)
}

// ListByLearningPath retrieves the user's todos tagged with a learning path
func (r *TodoRepository) ListByLearningPath(ctx context.Context, userID, pathID uuid.UUID) ([]*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos
		WHERE user_id = $1 AND metadata->'path_ref'->>'path_id' = $2
		ORDER BY created_at`
	return r.list(ctx, query, userID, pathID.String())
}

// Update overwrites a todo
func (r *TodoRepository) Update(ctx context.Context, todo *models.Todo) error {
	videos, tags, metadata, err := marshalTodoJSON(todo)
	if err != nil {
		return err
	}

	r.logger.Debug("updating_todo",
		zap.String("todo_id", todo.ID.String()),
		zap.String("status", string(todo.Status)),
	)

	err = r.db.QueryRowContext(ctx, `
		UPDATE todos
		SET title = $3, description = $4, status = $5, priority = $6, category = $7, due_date = $8,
			estimated_minutes = $9, actual_minutes = $10, videos = $11, tags = $12, metadata = $13,
			completed_at = $14, updated_at = $15
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`,
		todo.ID,
		todo.UserID,
		todo.Title,
		nullString(todo.Description),
		todo.Status,
		todo.Priority,
		todo.Category,
		nullTime(todo.DueDate),
		todo.EstimatedMinutes,
		todo.ActualMinutes,
		videos,
		tags,
		metadata,
		nullTime(todo.CompletedAt),
		time.Now(),
	).Scan(&todo.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("todo %s: %w", todo.ID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return nil
}

// Delete removes one of the user's todos
func (r *TodoRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("todo %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *TodoRepository) list(ctx context.Context, query string, args ...any) ([]*models.Todo, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}
	return todos, nil
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	todo := &models.Todo{}
	var (
		description                        sql.NullString
		dueDate, completedAt               sql.NullTime
		videosJSON, tagsJSON, metadataJSON []byte
	)
	err := row.Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&description,
		&todo.Status,
		&todo.Priority,
		&todo.Category,
		&dueDate,
		&todo.EstimatedMinutes,
		&todo.ActualMinutes,
		&videosJSON,
		&tagsJSON,
		&metadataJSON,
		&todo.CreatedAt,
		&todo.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	todo.Description = stringPtr(description)
	todo.DueDate = timePtr(dueDate)
	todo.CompletedAt = timePtr(completedAt)
	if err := json.Unmarshal(videosJSON, &todo.Videos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal videos: %w", err)
	}
	if err := json.Unmarshal(tagsJSON, &todo.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(metadataJSON, &todo.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return todo, nil
}

func marshalTodoJSON(todo *models.Todo) (videos, tags, metadata []byte, err error) {
	refs := todo.Videos
	if refs == nil {
		refs = []models.VideoReference{}
	}
	if videos, err = json.Marshal(refs); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal videos: %w", err)
	}
	tagList := todo.Tags
	if tagList == nil {
		tagList = []string{}
	}
	if tags, err = json.Marshal(tagList); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	if metadata, err = json.Marshal(todo.Metadata); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return videos, tags, metadata, nil
}
