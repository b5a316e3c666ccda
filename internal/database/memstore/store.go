// Package memstore provides in-memory implementations of the database repositories.
// They back mock mode (no Postgres) and service-level tests. Every call is logged at debug level.
package memstore

import (
	"sync"

	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store holds all in-memory tables behind a single lock
type Store struct {
	mu          sync.RWMutex
	log         *zap.Logger
	users       map[uuid.UUID]*models.User
	journeys    map[uuid.UUID]*models.Journey
	schedules   map[uuid.UUID]*models.ScheduleEntry
	preferences map[uuid.UUID]*models.UserSchedulePreferences
	conflicts   map[uuid.UUID]*models.ScheduleConflict
	todos       map[uuid.UUID]*models.Todo
	paths       map[uuid.UUID]*models.LearningPath
	steps       map[uuid.UUID][]*models.LearningPathStep
	cors        *models.CorsConfig
	ratelimit   *models.RatelimitConfig

	locks keyedMutex
}

// New creates an empty store
func New(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		log:         log.Named("memstore"),
		users:       make(map[uuid.UUID]*models.User),
		journeys:    make(map[uuid.UUID]*models.Journey),
		schedules:   make(map[uuid.UUID]*models.ScheduleEntry),
		preferences: make(map[uuid.UUID]*models.UserSchedulePreferences),
		conflicts:   make(map[uuid.UUID]*models.ScheduleConflict),
		todos:       make(map[uuid.UUID]*models.Todo),
		paths:       make(map[uuid.UUID]*models.LearningPath),
		steps:       make(map[uuid.UUID][]*models.LearningPathStep),
	}
}

// Schedules returns the schedule repository view of the store
func (s *Store) Schedules() *ScheduleRepository { return &ScheduleRepository{s: s} }

// Journeys returns the journey repository view of the store
func (s *Store) Journeys() *JourneyRepository { return &JourneyRepository{s: s} }

// Preferences returns the preferences repository view of the store
func (s *Store) Preferences() *PreferencesRepository { return &PreferencesRepository{s: s} }

// Conflicts returns the conflict repository view of the store
func (s *Store) Conflicts() *ConflictRepository { return &ConflictRepository{s: s} }

// Todos returns the todo repository view of the store
func (s *Store) Todos() *TodoRepository { return &TodoRepository{s: s} }

// LearningPaths returns the learning path repository view of the store
func (s *Store) LearningPaths() *LearningPathRepository { return &LearningPathRepository{s: s} }

// Users returns the user repository view of the store
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// CorsConfig returns the CORS config repository view of the store
func (s *Store) CorsConfig() *CorsConfigRepository { return &CorsConfigRepository{s: s} }

// RatelimitConfig returns the rate limit config repository view of the store
func (s *Store) RatelimitConfig() *RatelimitConfigRepository { return &RatelimitConfigRepository{s: s} }

// keyedMutex hands out one mutex per key. Entries are dropped once no caller holds or
// waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

var (
	_ database.ScheduleRepositoryInterface        = (*ScheduleRepository)(nil)
	_ database.JourneyRepositoryInterface         = (*JourneyRepository)(nil)
	_ database.PreferencesRepositoryInterface     = (*PreferencesRepository)(nil)
	_ database.ConflictRepositoryInterface        = (*ConflictRepository)(nil)
	_ database.TodoRepositoryInterface            = (*TodoRepository)(nil)
	_ database.LearningPathRepositoryInterface    = (*LearningPathRepository)(nil)
	_ database.UserRepositoryInterface            = (*UserRepository)(nil)
	_ database.CorsConfigRepositoryInterface      = (*CorsConfigRepository)(nil)
	_ database.RatelimitConfigRepositoryInterface = (*RatelimitConfigRepository)(nil)
)
