// Package progress propagates completion signals from videos and todos into learning path steps
// and recomputes path progress.
package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "github.com/benvon/study-planner/internal/progress"

// CompletionThreshold is the watched fraction at which a video counts as complete
const CompletionThreshold = 0.8

var (
	// ErrPathNotFound is returned when the path does not exist or belongs to another user
	ErrPathNotFound = errors.New("learning path not found")
	// ErrTodoNotFound is returned when the completed todo does not exist
	ErrTodoNotFound = errors.New("todo not found")
	// ErrTodoNotOnPath is returned when the todo is not tagged with the path
	ErrTodoNotOnPath = errors.New("todo is not linked to this learning path")
)

// SyncResult describes the path after a sync
type SyncResult struct {
	PathID             uuid.UUID                 `json:"path_id"`
	CompletedStepIDs   []uuid.UUID               `json:"completed_step_ids"`
	ProgressPercentage float64                   `json:"progress_percentage"`
	Status             models.LearningPathStatus `json:"status"`
}

// Service applies progress events to learning paths
type Service struct {
	paths  database.LearningPathRepositoryInterface
	todos  database.TodoRepositoryInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a progress service
func NewService(paths database.LearningPathRepositoryInterface, todos database.TodoRepositoryInterface, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{paths: paths, todos: todos, logger: logger, now: time.Now}
}

// SetClock replaces the time source (tests)
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// SyncProgress applies one event to the path. Steps are only ever completed, never reopened,
// so replaying an event is harmless.
func (s *Service) SyncProgress(ctx context.Context, userID, pathID uuid.UUID, event Event) (result *SyncResult, err error) {
	if event == nil {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidEvent)
	}
	ctx, span := telemetry.StartSpan(ctx, tracerName, "progress.SyncProgress",
		attribute.String("path_id", pathID.String()),
		attribute.String("event_type", string(event.Type())),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if _, err := s.paths.GetByID(ctx, userID, pathID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrPathNotFound
		}
		return nil, fmt.Errorf("failed to get learning path: %w", err)
	}

	matches, err := s.matcher(ctx, userID, pathID, event)
	if err != nil {
		return nil, err
	}

	err = s.paths.WithPathLock(ctx, pathID, func(repo database.LearningPathRepositoryInterface) error {
		path, err := repo.GetByID(ctx, userID, pathID)
		if err != nil {
			return fmt.Errorf("failed to get learning path: %w", err)
		}
		steps, err := repo.ListSteps(ctx, pathID)
		if err != nil {
			return fmt.Errorf("failed to list learning path steps: %w", err)
		}

		now := s.now()
		var completed []uuid.UUID
		for _, step := range steps {
			if !matches(step) || !step.Complete(now) {
				continue
			}
			if err := repo.UpdateStep(ctx, step); err != nil {
				return fmt.Errorf("failed to update learning path step: %w", err)
			}
			completed = append(completed, step.ID)
		}

		path.ProgressPercentage = models.ProgressPercentage(steps)
		path.Status = models.LearningPathStatusActive
		if len(steps) > 0 && path.ProgressPercentage >= 100 {
			path.Status = models.LearningPathStatusCompleted
		}
		if len(completed) > 0 {
			if err := repo.UpdateProgress(ctx, path); err != nil {
				return fmt.Errorf("failed to update learning path progress: %w", err)
			}
		}

		result = &SyncResult{
			PathID:             pathID,
			CompletedStepIDs:   completed,
			ProgressPercentage: path.ProgressPercentage,
			Status:             path.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.CompletedStepIDs == nil {
		result.CompletedStepIDs = []uuid.UUID{}
	}

	s.logger.Info("learning_path_progress_synced",
		zap.String("user_id", userID.String()),
		zap.String("path_id", pathID.String()),
		zap.String("event_type", string(event.Type())),
		zap.Int("steps_completed", len(result.CompletedStepIDs)),
		zap.Float64("progress_percentage", result.ProgressPercentage),
	)
	return result, nil
}

// matcher resolves the event into a predicate over steps
func (s *Service) matcher(ctx context.Context, userID, pathID uuid.UUID, event Event) (func(*models.LearningPathStep) bool, error) {
	switch e := event.(type) {
	case VideoWatched:
		if !e.Complete() {
			s.logger.Debug("video_below_completion_threshold",
				zap.String("youtube_id", e.YoutubeID),
				zap.Float64("watched_seconds", e.WatchedSeconds),
				zap.Float64("total_seconds", e.TotalSeconds),
			)
			return func(*models.LearningPathStep) bool { return false }, nil
		}
		return func(step *models.LearningPathStep) bool {
			return models.HasVideo(step.Videos, e.YoutubeID)
		}, nil

	case TodoCompleted:
		todo, err := s.linkedTodo(ctx, userID, pathID, e.TodoID)
		if err != nil {
			return nil, err
		}
		var stepID *uuid.UUID
		if todo.Metadata.PathRef != nil {
			stepID = todo.Metadata.PathRef.StepID
		}
		return func(step *models.LearningPathStep) bool {
			if stepID != nil && step.ID == *stepID {
				return true
			}
			for _, ref := range todo.Videos {
				if models.HasVideo(step.Videos, ref.YoutubeID) {
					return true
				}
			}
			return false
		}, nil

	default:
		return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidEvent, event.Type())
	}
}

// linkedTodo finds the todo among those tagged with the path
func (s *Service) linkedTodo(ctx context.Context, userID, pathID, todoID uuid.UUID) (*models.Todo, error) {
	linked, err := s.todos.ListByLearningPath(ctx, userID, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos for learning path: %w", err)
	}
	for _, t := range linked {
		if t.ID == todoID {
			return t, nil
		}
	}

	// distinguish a missing todo from one tagged elsewhere
	if _, err := s.todos.GetByID(ctx, userID, todoID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return nil, ErrTodoNotOnPath
}
