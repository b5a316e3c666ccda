package database

import (
	"context"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// ScheduleRepositoryInterface defines schedule entry storage.
// Every lookup is scoped by journey so one user can never reach another user's entries.
type ScheduleRepositoryInterface interface {
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	GetByID(ctx context.Context, journeyID, id uuid.UUID) (*models.ScheduleEntry, error)
	Update(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, journeyID, id uuid.UUID) error
	// ListByDate returns every entry of the journey on date, skipping excludeID when set
	ListByDate(ctx context.Context, journeyID uuid.UUID, date clock.Date, excludeID *uuid.UUID) ([]*models.ScheduleEntry, error)
	ListByDateRange(ctx context.Context, journeyID uuid.UUID, filter models.ScheduleFilter) ([]*models.ScheduleEntry, error)
	// MarkMissedBefore flips scheduled entries dated before 'before' to missed and returns how many changed
	MarkMissedBefore(ctx context.Context, before clock.Date, now time.Time) (int64, error)
	// WithDateLock serializes writers of one (journey, date) pair. fn receives a repository bound
	// to the locked scope; its writes commit only if fn returns nil.
	WithDateLock(ctx context.Context, journeyID uuid.UUID, date clock.Date, fn func(repo ScheduleRepositoryInterface) error) error
}

// JourneyRepositoryInterface defines learning journey lookups
type JourneyRepositoryInterface interface {
	Create(ctx context.Context, journey *models.Journey) error
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.Journey, error)
}

// PreferencesRepositoryInterface defines schedule preference storage
type PreferencesRepositoryInterface interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSchedulePreferences, error)
	// CreateIfNotExists inserts prefs unless a row for the user already exists
	CreateIfNotExists(ctx context.Context, prefs *models.UserSchedulePreferences) error
	Update(ctx context.Context, prefs *models.UserSchedulePreferences) error
}

// ConflictRepositoryInterface defines the conflict log
type ConflictRepositoryInterface interface {
	Create(ctx context.Context, conflict *models.ScheduleConflict) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.ScheduleConflict, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, status *models.ResolutionStatus) ([]*models.ScheduleConflict, error)
	Update(ctx context.Context, conflict *models.ScheduleConflict) error
}

// TodoRepositoryInterface defines todo storage
type TodoRepositoryInterface interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Todo, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, status *models.TodoStatus) ([]*models.Todo, error)
	ListByLearningPath(ctx context.Context, userID, pathID uuid.UUID) ([]*models.Todo, error)
	Update(ctx context.Context, todo *models.Todo) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// LearningPathRepositoryInterface defines learning path and step storage
type LearningPathRepositoryInterface interface {
	Create(ctx context.Context, path *models.LearningPath, steps []*models.LearningPathStep) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.LearningPath, error)
	ListSteps(ctx context.Context, pathID uuid.UUID) ([]*models.LearningPathStep, error)
	UpdateStep(ctx context.Context, step *models.LearningPathStep) error
	UpdateProgress(ctx context.Context, path *models.LearningPath) error
	// WithPathLock serializes progress syncs of one path
	WithPathLock(ctx context.Context, pathID uuid.UUID, fn func(repo LearningPathRepositoryInterface) error) error
}

// UserRepositoryInterface defines user storage used by authentication
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
}

// CorsConfigRepositoryInterface defines the hot-reloaded CORS config store
type CorsConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
	Set(ctx context.Context, c *models.CorsConfig) error
}

// RatelimitConfigRepositoryInterface defines the hot-reloaded rate limit config store
type RatelimitConfigRepositoryInterface interface {
	Get(ctx context.Context) (*models.RatelimitConfig, error)
	Set(ctx context.Context, c *models.RatelimitConfig) error
}

// Ensure concrete types implement the interfaces
var (
	_ ScheduleRepositoryInterface        = (*ScheduleRepository)(nil)
	_ JourneyRepositoryInterface         = (*JourneyRepository)(nil)
	_ PreferencesRepositoryInterface     = (*PreferencesRepository)(nil)
	_ ConflictRepositoryInterface        = (*ConflictRepository)(nil)
	_ TodoRepositoryInterface            = (*TodoRepository)(nil)
	_ LearningPathRepositoryInterface    = (*LearningPathRepository)(nil)
	_ UserRepositoryInterface            = (*UserRepository)(nil)
	_ CorsConfigRepositoryInterface      = (*CorsConfigRepository)(nil)
	_ RatelimitConfigRepositoryInterface = (*RatelimitConfigRepository)(nil)
)
