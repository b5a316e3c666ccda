package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JourneyRepository is the in-memory journey store
type JourneyRepository struct{ s *Store }

// Create stores a journey
func (r *JourneyRepository) Create(ctx context.Context, j *models.Journey) error {
	r.s.log.Debug("journey_create", zap.String("journey_id", j.ID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	j.CreatedAt, j.UpdatedAt = now, now
	c := *j
	r.s.journeys[j.ID] = &c
	return nil
}

// GetActiveByUserID returns the user's most recent active journey
func (r *JourneyRepository) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.Journey, error) {
	r.s.log.Debug("journey_get_active", zap.String("user_id", userID.String()))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *models.Journey
	for _, j := range r.s.journeys {
		if j.UserID != userID || j.Status != models.JourneyStatusActive {
			continue
		}
		if found == nil || j.CreatedAt.After(found.CreatedAt) {
			found = j
		}
	}
	if found == nil {
		return nil, fmt.Errorf("active journey for user %s: %w", userID, database.ErrNotFound)
	}
	c := *found
	return &c, nil
}

// PreferencesRepository is the in-memory preferences store
type PreferencesRepository struct{ s *Store }

// GetByUserID returns a copy of the user's preferences
func (r *PreferencesRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserSchedulePreferences, error) {
	r.s.log.Debug("preferences_get", zap.String("user_id", userID.String()))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.preferences[userID]
	if !ok {
		return nil, fmt.Errorf("preferences for user %s: %w", userID, database.ErrNotFound)
	}
	return clonePreferences(p), nil
}

// CreateIfNotExists stores p unless the user already has preferences
func (r *PreferencesRepository) CreateIfNotExists(ctx context.Context, p *models.UserSchedulePreferences) error {
	r.s.log.Debug("preferences_create_if_not_exists", zap.String("user_id", p.UserID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.preferences[p.UserID]; ok {
		return nil
	}
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.preferences[p.UserID] = clonePreferences(p)
	return nil
}

// Update replaces the user's preferences
func (r *PreferencesRepository) Update(ctx context.Context, p *models.UserSchedulePreferences) error {
	r.s.log.Debug("preferences_update", zap.String("user_id", p.UserID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.preferences[p.UserID]
	if !ok {
		return fmt.Errorf("preferences for user %s: %w", p.UserID, database.ErrNotFound)
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()
	r.s.preferences[p.UserID] = clonePreferences(p)
	return nil
}

func clonePreferences(p *models.UserSchedulePreferences) *models.UserSchedulePreferences {
	c := *p
	c.PreferredTimes = append([]models.TimeWindow(nil), p.PreferredTimes...)
	c.AvoidTimes = append([]models.TimeWindow(nil), p.AvoidTimes...)
	return &c
}

// ConflictRepository is the in-memory conflict log
type ConflictRepository struct{ s *Store }

// Create records a conflict
func (r *ConflictRepository) Create(ctx context.Context, c *models.ScheduleConflict) error {
	r.s.log.Debug("conflict_create", zap.String("conflict_id", c.ID.String()), zap.String("type", string(c.ConflictType)))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cp := *c
	r.s.conflicts[c.ID] = &cp
	return nil
}

// GetByID returns one of the user's conflicts
func (r *ConflictRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.ScheduleConflict, error) {
	r.s.log.Debug("conflict_get", zap.String("conflict_id", id.String()))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.conflicts[id]
	if !ok || c.UserID != userID {
		return nil, fmt.Errorf("conflict %s: %w", id, database.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

// ListByUserID lists the user's conflicts, newest first
func (r *ConflictRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status *models.ResolutionStatus) ([]*models.ScheduleConflict, error) {
	r.s.log.Debug("conflict_list", zap.String("user_id", userID.String()))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.ScheduleConflict
	for _, c := range r.s.conflicts {
		if c.UserID != userID || (status != nil && c.ResolutionStatus != *status) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	return out, nil
}

// Update stores a conflict's resolution
func (r *ConflictRepository) Update(ctx context.Context, c *models.ScheduleConflict) error {
	r.s.log.Debug("conflict_update", zap.String("conflict_id", c.ID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.conflicts[c.ID]
	if !ok || existing.UserID != c.UserID {
		return fmt.Errorf("conflict %s: %w", c.ID, database.ErrNotFound)
	}
	cp := *c
	r.s.conflicts[c.ID] = &cp
	return nil
}

// TodoRepository is the in-memory todo store
type TodoRepository struct{ s *Store }

// Create stores a todo
func (r *TodoRepository) Create(ctx context.Context, t *models.Todo) error {
	r.s.log.Debug("todo_create", zap.String("todo_id", t.ID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.todos[t.ID] = cloneTodo(t)
	return nil
}

// GetByID returns one of the user's todos
func (r *TodoRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Todo, error) {
	r.s.log.Debug("todo_get", zap.String("todo_id", id.String()))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.todos[id]
	if !ok || t.UserID != userID {
		return nil, fmt.Errorf("todo %s: %w", id, database.ErrNotFound)
	}
	return cloneTodo(t), nil
}

// ListByUserID lists the user's todos, newest first
func (r *TodoRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status *models.TodoStatus) ([]*models.Todo, error) {
	r.s.log.Debug("todo_list", zap.String("user_id", userID.String()))
	return r.filter(func(t *models.Todo) bool {
		return t.UserID == userID && (status == nil || t.Status == *status)
	}), nil
}

// ListByLearningPath lists the user's todos tagged with pathID
func (r *TodoRepository) ListByLearningPath(ctx context.Context, userID, pathID uuid.UUID) ([]*models.Todo, error) {
	r.s.log.Debug("todo_list_by_path", zap.String("path_id", pathID.String()))
	return r.filter(func(t *models.Todo) bool {
		linked, ok := t.LinkedPathID()
		return t.UserID == userID && ok && linked == pathID
	}), nil
}

// Update replaces a todo
func (r *TodoRepository) Update(ctx context.Context, t *models.Todo) error {
	r.s.log.Debug("todo_update", zap.String("todo_id", t.ID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.todos[t.ID]
	if !ok || existing.UserID != t.UserID {
		return fmt.Errorf("todo %s: %w", t.ID, database.ErrNotFound)
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now()
	r.s.todos[t.ID] = cloneTodo(t)
	return nil
}

// Delete removes one of the user's todos
func (r *TodoRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	r.s.log.Debug("todo_delete", zap.String("todo_id", id.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.todos[id]
	if !ok || t.UserID != userID {
		return fmt.Errorf("todo %s: %w", id, database.ErrNotFound)
	}
	delete(r.s.todos, id)
	return nil
}

func (r *TodoRepository) filter(keep func(*models.Todo) bool) []*models.Todo {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.Todo
	for _, t := range r.s.todos {
		if keep(t) {
			out = append(out, cloneTodo(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func cloneTodo(t *models.Todo) *models.Todo {
	c := *t
	c.Videos = append([]models.VideoReference(nil), t.Videos...)
	c.Tags = append([]string(nil), t.Tags...)
	if t.Metadata.PathRef != nil {
		ref := *t.Metadata.PathRef
		c.Metadata.PathRef = &ref
	}
	return &c
}

// LearningPathRepository is the in-memory learning path store
type LearningPathRepository struct {
	s      *Store
	locked bool
}

// Create stores a path and its steps
func (r *LearningPathRepository) Create(ctx context.Context, p *models.LearningPath, steps []*models.LearningPathStep) error {
	r.s.log.Debug("learning_path_create", zap.String("path_id", p.ID.String()), zap.Int("steps", len(steps)))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.s.paths[p.ID] = &cp
	stored := make([]*models.LearningPathStep, 0, len(steps))
	for _, step := range steps {
		step.PathID = p.ID
		stored = append(stored, cloneStep(step))
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].StepOrder < stored[j].StepOrder })
	r.s.steps[p.ID] = stored
	return nil
}

// GetByID returns one of the user's paths
func (r *LearningPathRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.LearningPath, error) {
	r.s.log.Debug("learning_path_get", zap.String("path_id", id.String()))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.paths[id]
	if !ok || p.UserID != userID {
		return nil, fmt.Errorf("learning path %s: %w", id, database.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

// ListSteps returns copies of a path's steps in order
func (r *LearningPathRepository) ListSteps(ctx context.Context, pathID uuid.UUID) ([]*models.LearningPathStep, error) {
	r.s.log.Debug("learning_path_list_steps", zap.String("path_id", pathID.String()))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	steps := r.s.steps[pathID]
	out := make([]*models.LearningPathStep, 0, len(steps))
	for _, s := range steps {
		out = append(out, cloneStep(s))
	}
	return out, nil
}

// UpdateStep stores a step's completion state
func (r *LearningPathRepository) UpdateStep(ctx context.Context, step *models.LearningPathStep) error {
	r.s.log.Debug("learning_path_update_step", zap.String("step_id", step.ID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, s := range r.s.steps[step.PathID] {
		if s.ID == step.ID {
			r.s.steps[step.PathID][i] = cloneStep(step)
			return nil
		}
	}
	return fmt.Errorf("learning path step %s: %w", step.ID, database.ErrNotFound)
}

// UpdateProgress stores a path's progress and status
func (r *LearningPathRepository) UpdateProgress(ctx context.Context, p *models.LearningPath) error {
	r.s.log.Debug("learning_path_update_progress",
		zap.String("path_id", p.ID.String()),
		zap.Float64("progress", p.ProgressPercentage),
	)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.paths[p.ID]
	if !ok {
		return fmt.Errorf("learning path %s: %w", p.ID, database.ErrNotFound)
	}
	existing.ProgressPercentage = p.ProgressPercentage
	existing.Status = p.Status
	existing.UpdatedAt = time.Now()
	p.UpdatedAt = existing.UpdatedAt
	return nil
}

// WithPathLock serializes fn per path
func (r *LearningPathRepository) WithPathLock(ctx context.Context, pathID uuid.UUID, fn func(repo database.LearningPathRepositoryInterface) error) error {
	if r.locked {
		return fn(r)
	}
	unlock := r.s.locks.lock("learning_path|" + pathID.String())
	defer unlock()
	return fn(&LearningPathRepository{s: r.s, locked: true})
}

func cloneStep(s *models.LearningPathStep) *models.LearningPathStep {
	c := *s
	c.Videos = append([]models.VideoReference(nil), s.Videos...)
	return &c
}

// UserRepository is the in-memory user store
type UserRepository struct{ s *Store }

// Create stores a user
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	r.s.log.Debug("user_create", zap.String("user_id", u.ID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return fmt.Errorf("failed to create user: email already registered")
		}
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

// GetByID returns a user
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", database.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

// GetByProviderID returns the user with the given identity provider subject
func (r *UserRepository) GetByProviderID(ctx context.Context, providerID string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.ProviderID != nil && *u.ProviderID == providerID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user: %w", database.ErrNotFound)
}

// CorsConfigRepository is the in-memory CORS config
type CorsConfigRepository struct{ s *Store }

// Get returns the stored config or nil
func (r *CorsConfigRepository) Get(ctx context.Context) (*models.CorsConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.cors == nil {
		return nil, nil
	}
	cp := *r.s.cors
	return &cp, nil
}

// Set stores the config
func (r *CorsConfigRepository) Set(ctx context.Context, c *models.CorsConfig) error {
	if len(database.AllowedOriginsSlice(c.AllowedOrigins)) == 0 {
		return fmt.Errorf("allowed_origins cannot be empty")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	cp.UpdatedAt = time.Now()
	r.s.cors = &cp
	return nil
}

// RatelimitConfigRepository is the in-memory rate limit config
type RatelimitConfigRepository struct{ s *Store }

// Get returns the stored config or nil
func (r *RatelimitConfigRepository) Get(ctx context.Context) (*models.RatelimitConfig, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.ratelimit == nil {
		return nil, nil
	}
	cp := *r.s.ratelimit
	return &cp, nil
}

// Set stores the config
func (r *RatelimitConfigRepository) Set(ctx context.Context, c *models.RatelimitConfig) error {
	if strings.TrimSpace(c.Rate) == "" {
		return fmt.Errorf("rate cannot be empty")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	cp.UpdatedAt = time.Now()
	r.s.ratelimit = &cp
	return nil
}
