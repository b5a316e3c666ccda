package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScheduleRepository is the in-memory schedule store
type ScheduleRepository struct {
	s      *Store
	locked bool
}

// Create stores a copy of e
func (r *ScheduleRepository) Create(ctx context.Context, e *models.ScheduleEntry) error {
	r.s.log.Debug("schedule_create", zap.String("schedule_id", e.ID.String()), zap.String("date", e.ScheduledDate.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.schedules[e.ID]; exists {
		return fmt.Errorf("failed to create schedule: duplicate id %s", e.ID)
	}
	now := time.Now()
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.schedules[e.ID] = e.Clone()
	return nil
}

// GetByID returns a copy of the journey's entry
func (r *ScheduleRepository) GetByID(ctx context.Context, journeyID, id uuid.UUID) (*models.ScheduleEntry, error) {
	r.s.log.Debug("schedule_get", zap.String("schedule_id", id.String()))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.schedules[id]
	if !ok || e.JourneyID != journeyID {
		return nil, fmt.Errorf("schedule %s: %w", id, database.ErrNotFound)
	}
	return e.Clone(), nil
}

// Update replaces the stored entry
func (r *ScheduleRepository) Update(ctx context.Context, e *models.ScheduleEntry) error {
	r.s.log.Debug("schedule_update", zap.String("schedule_id", e.ID.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.schedules[e.ID]
	if !ok || existing.JourneyID != e.JourneyID {
		return fmt.Errorf("schedule %s: %w", e.ID, database.ErrNotFound)
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now()
	r.s.schedules[e.ID] = e.Clone()
	return nil
}

// Delete removes the journey's entry
func (r *ScheduleRepository) Delete(ctx context.Context, journeyID, id uuid.UUID) error {
	r.s.log.Debug("schedule_delete", zap.String("schedule_id", id.String()))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.schedules[id]
	if !ok || e.JourneyID != journeyID {
		return fmt.Errorf("schedule %s: %w", id, database.ErrNotFound)
	}
	delete(r.s.schedules, id)
	return nil
}

// ListByDate returns the journey's entries on date
func (r *ScheduleRepository) ListByDate(ctx context.Context, journeyID uuid.UUID, date clock.Date, excludeID *uuid.UUID) ([]*models.ScheduleEntry, error) {
	r.s.log.Debug("schedule_list_by_date", zap.String("journey_id", journeyID.String()), zap.String("date", date.String()))
	return r.filter(func(e *models.ScheduleEntry) bool {
		if e.JourneyID != journeyID || e.ScheduledDate != date {
			return false
		}
		return excludeID == nil || e.ID != *excludeID
	}), nil
}

// ListByDateRange returns the journey's entries within the filter range
func (r *ScheduleRepository) ListByDateRange(ctx context.Context, journeyID uuid.UUID, filter models.ScheduleFilter) ([]*models.ScheduleEntry, error) {
	r.s.log.Debug("schedule_list_by_range",
		zap.String("journey_id", journeyID.String()),
		zap.String("from", filter.From.String()),
		zap.String("to", filter.To.String()),
	)
	return r.filter(func(e *models.ScheduleEntry) bool {
		if e.JourneyID != journeyID || e.ScheduledDate.Before(filter.From) || e.ScheduledDate.After(filter.To) {
			return false
		}
		return filter.Status == nil || e.Status == *filter.Status
	}), nil
}

// MarkMissedBefore flips past scheduled entries to missed
func (r *ScheduleRepository) MarkMissedBefore(ctx context.Context, before clock.Date, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, e := range r.s.schedules {
		if e.Status == models.ScheduleStatusScheduled && e.ScheduledDate.Before(before) {
			e.SetStatus(models.ScheduleStatusMissed, now)
			e.UpdatedAt = now
			n++
		}
	}
	r.s.log.Debug("schedule_mark_missed", zap.String("before", before.String()), zap.Int64("count", n))
	return n, nil
}

// WithDateLock serializes fn per (journey, date). Writes made by fn are not rolled back on error.
func (r *ScheduleRepository) WithDateLock(ctx context.Context, journeyID uuid.UUID, date clock.Date, fn func(repo database.ScheduleRepositoryInterface) error) error {
	if r.locked {
		return fn(r)
	}
	unlock := r.s.locks.lock(fmt.Sprintf("schedule|%s|%s", journeyID, date))
	defer unlock()
	return fn(&ScheduleRepository{s: r.s, locked: true})
}

func (r *ScheduleRepository) filter(keep func(*models.ScheduleEntry) bool) []*models.ScheduleEntry {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*models.ScheduleEntry
	for _, e := range r.s.schedules {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ScheduledDate != b.ScheduledDate {
			return a.ScheduledDate.Before(b.ScheduledDate)
		}
		as, bs := startKey(a), startKey(b)
		if as != bs {
			return as < bs
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

// startKey orders entries without a start time last
func startKey(e *models.ScheduleEntry) string {
	if !e.HasStartTime() {
		return "~"
	}
	return *e.StartTime
}
