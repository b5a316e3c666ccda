// Package calendar implements the study schedule engine: conflict detection, optimal slot
// search and the schedule CRUD operations that enforce both.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/benvon/study-planner/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	tracerName = "github.com/benvon/study-planner/internal/calendar"

	// DefaultUpcomingDays is the look-ahead used when the caller does not give one
	DefaultUpcomingDays = 7
	// MaxUpcomingDays bounds the upcoming look-ahead
	MaxUpcomingDays = 90
	// MaxListRangeDays bounds ListSchedules
	MaxListRangeDays = 366
)

// Service is the schedule facade. Every operation is scoped to the user's active journey.
type Service struct {
	schedules   database.ScheduleRepositoryInterface
	journeys    database.JourneyRepositoryInterface
	conflicts   database.ConflictRepositoryInterface
	todos       database.TodoRepositoryInterface
	preferences *PreferencesService
	scorer      SlotScorer
	logger      *zap.Logger
	now         func() time.Time
}

// NewService creates the schedule facade
func NewService(
	schedules database.ScheduleRepositoryInterface,
	journeys database.JourneyRepositoryInterface,
	conflicts database.ConflictRepositoryInterface,
	todos database.TodoRepositoryInterface,
	preferences *PreferencesService,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		schedules:   schedules,
		journeys:    journeys,
		conflicts:   conflicts,
		todos:       todos,
		preferences: preferences,
		scorer:      FixedScorer{},
		logger:      logger,
		now:         time.Now,
	}
}

// SetScorer replaces the slot scorer
func (s *Service) SetScorer(scorer SlotScorer) {
	if scorer != nil {
		s.scorer = scorer
	}
}

// SetClock replaces the time source (tests)
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Preferences exposes the preferences service the facade reads caps and windows from
func (s *Service) Preferences() *PreferencesService {
	return s.preferences
}

// DetectConflicts checks a candidate against the user's calendar without persisting anything.
// excludeID skips the entry being updated.
func (s *Service) DetectConflicts(ctx context.Context, userID uuid.UUID, candidate *models.ScheduleEntry, excludeID *uuid.UUID) (conflicts []models.ScheduleConflict, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "calendar.DetectConflicts")
	defer func() { telemetry.EndSpan(span, err) }()

	if !candidate.HasStartTime() {
		return nil, nil
	}
	if candidate.JourneyID == uuid.Nil {
		journey, err := s.activeJourney(ctx, userID)
		if err != nil {
			return nil, err
		}
		candidate.JourneyID = journey.ID
	}
	return s.detect(ctx, s.schedules, userID, candidate, excludeID)
}

// detect fetches the candidate's date through repo (which may be lock-bound) and runs Detect
func (s *Service) detect(ctx context.Context, repo database.ScheduleRepositoryInterface, userID uuid.UUID, candidate *models.ScheduleEntry, excludeID *uuid.UUID) ([]models.ScheduleConflict, error) {
	if !candidate.HasStartTime() {
		return nil, nil
	}

	prefs, err := s.preferences.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, newError(CodeConflictCheckFailed, http.StatusInternalServerError, "failed to load daily limit", err)
	}
	existing, err := repo.ListByDate(ctx, candidate.JourneyID, candidate.ScheduledDate, excludeID)
	if err != nil {
		return nil, newError(CodeConflictCheckFailed, http.StatusInternalServerError, "failed to load schedules for conflict check", err)
	}

	conflicts := Detect(userID, candidate, existing, prefs.DailyCapMinutes(), s.now())
	if len(conflicts) > 0 {
		s.logger.Debug("schedule_conflicts_detected",
			zap.String("user_id", userID.String()),
			zap.String("date", candidate.ScheduledDate.String()),
			zap.Int("conflict_count", len(conflicts)),
		)
	}
	return conflicts, nil
}

// FindOptimalTimeSlots suggests up to count free slots of the given duration within dates
func (s *Service) FindOptimalTimeSlots(ctx context.Context, userID uuid.UUID, duration int, dates models.DateRange, count int) (slots []models.OptimalTimeSlot, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "calendar.FindOptimalTimeSlots",
		attribute.Int("duration_minutes", duration),
		attribute.String("start", dates.Start.String()),
		attribute.String("end", dates.End.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validateDuration(duration); err != nil {
		return nil, err
	}
	if dates.Start.IsZero() || dates.End.IsZero() {
		return nil, invalid("date_range", "start and end are required")
	}
	if dates.End.Before(dates.Start) {
		return nil, invalid("date_range", "end must not be before start")
	}
	if dates.Days() > MaxSlotRangeDays {
		return nil, invalid("date_range", fmt.Sprintf("must span at most %d days", MaxSlotRangeDays))
	}

	journey, err := s.activeJourney(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := s.preferences.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.schedules.ListByDateRange(ctx, journey.ID, models.ScheduleFilter{From: dates.Start, To: dates.End})
	if err != nil {
		return nil, newError(CodeFetchError, http.StatusInternalServerError, "failed to load schedules", err)
	}

	byDate := make(map[clock.Date][]*models.ScheduleEntry)
	for _, e := range entries {
		byDate[e.ScheduledDate] = append(byDate[e.ScheduledDate], e)
	}

	slots = FindSlots(prefs, byDate, duration, dates, count, s.scorer)
	s.logger.Debug("optimal_slots_found",
		zap.String("user_id", userID.String()),
		zap.Int("duration_minutes", duration),
		zap.Int("slot_count", len(slots)),
	)
	return slots, nil
}

// CheckSchedule validates a create request and returns the conflicts it would raise.
// Nothing is written, not even the conflict log.
func (s *Service) CheckSchedule(ctx context.Context, userID uuid.UUID, in ScheduleInput) ([]models.ScheduleConflict, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	journey, err := s.activeJourney(ctx, userID)
	if err != nil {
		return nil, err
	}
	conflicts, err := s.DetectConflicts(ctx, userID, newEntry(journey.ID, in, s.now()), nil)
	if err != nil {
		return nil, err
	}
	if conflicts == nil {
		conflicts = []models.ScheduleConflict{}
	}
	return conflicts, nil
}

// CreateSchedule validates, checks conflicts and inserts a schedule entry.
// Conflicting requests are rejected with ScheduleConflictError and the conflicts are logged.
func (s *Service) CreateSchedule(ctx context.Context, userID uuid.UUID, in ScheduleInput) (*models.ScheduleEntry, error) {
	entry, conflicts, err := s.create(ctx, userID, in)
	if len(conflicts) > 0 {
		s.logConflicts(ctx, conflicts)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// create is CreateSchedule without conflict logging. On rejection it returns the conflicts
// alongside the ScheduleConflictError.
func (s *Service) create(ctx context.Context, userID uuid.UUID, in ScheduleInput) (entry *models.ScheduleEntry, rejected []models.ScheduleConflict, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "calendar.CreateSchedule",
		attribute.String("user_id", userID.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validateInput(&in); err != nil {
		return nil, nil, err
	}

	journey, err := s.activeJourney(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	entry = newEntry(journey.ID, in, s.now())

	err = s.schedules.WithDateLock(ctx, journey.ID, entry.ScheduledDate, func(repo database.ScheduleRepositoryInterface) error {
		conflicts, err := s.detect(ctx, repo, userID, entry, nil)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			rejected = conflicts
			return &ScheduleConflictError{Conflicts: conflicts}
		}
		if err := repo.Create(ctx, entry); err != nil {
			return newError(CodeCreateFailed, http.StatusInternalServerError, "failed to create schedule", err)
		}
		return nil
	})
	if err != nil {
		return nil, rejected, s.wrapLockError(err, CodeCreateFailed, "failed to create schedule")
	}

	s.logger.Info("schedule_created",
		zap.String("user_id", userID.String()),
		zap.String("schedule_id", entry.ID.String()),
		zap.String("date", entry.ScheduledDate.String()),
	)
	return entry, nil, nil
}

// GetSchedule returns one of the user's entries
func (s *Service) GetSchedule(ctx context.Context, userID, id uuid.UUID) (*models.ScheduleEntry, error) {
	journey, err := s.activeJourney(ctx, userID)
	if err != nil {
		return nil, err
	}
	entry, err := s.schedules.GetByID(ctx, journey.ID, id)
	if err != nil {
		return nil, s.notFoundOr(err, id, CodeFetchError, "failed to fetch schedule")
	}
	return entry, nil
}

// ListSchedules returns the user's entries between from and to (inclusive), optionally by status
func (s *Service) ListSchedules(ctx context.Context, userID uuid.UUID, from, to clock.Date, status *models.ScheduleStatus) ([]*models.ScheduleEntry, error) {
	if from.IsZero() || to.IsZero() {
		return nil, invalid("date_range", "from and to are required")
	}
	if to.Before(from) {
		return nil, invalid("date_range", "to must not be before from")
	}
	if (models.DateRange{Start: from, End: to}).Days() > MaxListRangeDays {
		return nil, invalid("date_range", fmt.Sprintf("must span at most %d days", MaxListRangeDays))
	}
	if status != nil {
		if !status.Valid() {
			return nil, invalid("status", fmt.Sprintf("unknown status %q", *status))
		}
		normalized := status.Normalize()
		status = &normalized
	}
	return s.listRange(ctx, userID, models.ScheduleFilter{From: from, To: to, Status: status})
}

// GetTodaySchedule returns today's entries, where today is taken in the user's timezone
func (s *Service) GetTodaySchedule(ctx context.Context, userID uuid.UUID) ([]*models.ScheduleEntry, error) {
	today, err := s.today(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.listRange(ctx, userID, models.ScheduleFilter{From: today, To: today})
}

// GetUpcomingSchedules returns scheduled entries from today through the next days-1 days
func (s *Service) GetUpcomingSchedules(ctx context.Context, userID uuid.UUID, days int) ([]*models.ScheduleEntry, error) {
	if days == 0 {
		days = DefaultUpcomingDays
	}
	if days < 0 || days > MaxUpcomingDays {
		return nil, invalid("days", fmt.Sprintf("must be between 1 and %d", MaxUpcomingDays))
	}
	today, err := s.today(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := models.ScheduleStatusScheduled
	return s.listRange(ctx, userID, models.ScheduleFilter{From: today, To: today.AddDays(days - 1), Status: &status})
}

// UpdateSchedule applies a patch. Changes to date, time, duration or re-activation are
// re-checked against the rest of the calendar, excluding the entry itself.
func (s *Service) UpdateSchedule(ctx context.Context, userID, id uuid.UUID, patch SchedulePatch) (entry *models.ScheduleEntry, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "calendar.UpdateSchedule",
		attribute.String("schedule_id", id.String()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	journey, err := s.activeJourney(ctx, userID)
	if err != nil {
		return nil, err
	}
	current, err := s.schedules.GetByID(ctx, journey.ID, id)
	if err != nil {
		return nil, s.notFoundOr(err, id, CodeFetchError, "failed to fetch schedule")
	}

	merged := current.Clone()
	patch.apply(merged)
	if patch.Status != nil {
		merged.SetStatus(*patch.Status, s.now())
	}
	if err := validateEndsByMidnight(merged.StartTime, merged.DurationMinutes); err != nil {
		return nil, err
	}

	var rejected []models.ScheduleConflict
	err = s.schedules.WithDateLock(ctx, journey.ID, merged.ScheduledDate, func(repo database.ScheduleRepositoryInterface) error {
		if timingChanged(current, merged) && merged.Status != models.ScheduleStatusCancelled {
			conflicts, err := s.detect(ctx, repo, userID, merged, &merged.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				rejected = conflicts
				return &ScheduleConflictError{Conflicts: conflicts}
			}
		}
		if err := repo.Update(ctx, merged); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return &ScheduleNotFoundError{ID: id.String()}
			}
			return newError(CodeUpdateFailed, http.StatusInternalServerError, "failed to update schedule", err)
		}
		return nil
	})
	if len(rejected) > 0 {
		s.logConflicts(ctx, rejected)
	}
	if err != nil {
		return nil, s.wrapLockError(err, CodeUpdateFailed, "failed to update schedule")
	}

	s.logger.Info("schedule_updated",
		zap.String("user_id", userID.String()),
		zap.String("schedule_id", id.String()),
		zap.String("status", string(merged.Status)),
	)
	return merged, nil
}

// RescheduleSchedule moves an entry to a new date and, optionally, a new start time
func (s *Service) RescheduleSchedule(ctx context.Context, userID, id uuid.UUID, date clock.Date, startTime *string) (*models.ScheduleEntry, error) {
	patch := SchedulePatch{ScheduledDate: &date, StartTime: startTime}
	return s.UpdateSchedule(ctx, userID, id, patch)
}

// UpdateScheduleStatus changes only the status of an entry
func (s *Service) UpdateScheduleStatus(ctx context.Context, userID, id uuid.UUID, status models.ScheduleStatus) (*models.ScheduleEntry, error) {
	return s.UpdateSchedule(ctx, userID, id, SchedulePatch{Status: &status})
}

// DeleteSchedule removes one of the user's entries
func (s *Service) DeleteSchedule(ctx context.Context, userID, id uuid.UUID) error {
	journey, err := s.activeJourney(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, journey.ID, id); err != nil {
		return s.notFoundOr(err, id, CodeDeleteFailed, "failed to delete schedule")
	}
	s.logger.Info("schedule_deleted",
		zap.String("user_id", userID.String()),
		zap.String("schedule_id", id.String()),
	)
	return nil
}

// BulkItemError describes why one bulk item was not created
type BulkItemError struct {
	Index     int                       `json:"index"`
	Code      ErrorCode                 `json:"code"`
	Message   string                    `json:"message"`
	Conflicts []models.ScheduleConflict `json:"conflicts,omitempty"`
}

// BulkResult summarizes a bulk create
type BulkResult struct {
	Successful int                     `json:"successful"`
	Failed     int                     `json:"failed"`
	Errors     []BulkItemError         `json:"errors"`
	Created    []*models.ScheduleEntry `json:"created"`
}

// BulkCreateSchedules creates each item independently. Partial failure is reported in the
// result, never as an error. Items are processed in order, so later items see earlier ones.
func (s *Service) BulkCreateSchedules(ctx context.Context, userID uuid.UUID, items []ScheduleInput) *BulkResult {
	result := &BulkResult{Errors: []BulkItemError{}, Created: []*models.ScheduleEntry{}}
	for i, item := range items {
		entry, err := s.CreateSchedule(ctx, userID, item)
		if err != nil {
			itemErr := BulkItemError{Index: i, Code: CodeOf(err), Message: err.Error()}
			if itemErr.Code == "" {
				itemErr.Code = CodeCreateFailed
			}
			var conflictErr *ScheduleConflictError
			if errors.As(err, &conflictErr) {
				itemErr.Conflicts = conflictErr.Conflicts
			}
			result.Failed++
			result.Errors = append(result.Errors, itemErr)
			continue
		}
		result.Successful++
		result.Created = append(result.Created, entry)
	}

	s.logger.Info("bulk_schedule_create_completed",
		zap.String("user_id", userID.String()),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
	)
	return result
}

// ListConflicts returns the user's logged conflicts, optionally filtered by resolution status
func (s *Service) ListConflicts(ctx context.Context, userID uuid.UUID, status *models.ResolutionStatus) ([]*models.ScheduleConflict, error) {
	conflicts, err := s.conflicts.ListByUserID(ctx, userID, status)
	if err != nil {
		return nil, newError(CodeFetchError, http.StatusInternalServerError, "failed to fetch conflicts", err)
	}
	if conflicts == nil {
		conflicts = []*models.ScheduleConflict{}
	}
	return conflicts, nil
}

// ResolveConflict marks a logged conflict as handled by the user
func (s *Service) ResolveConflict(ctx context.Context, userID, id uuid.UUID, action models.ResolutionAction) (*models.ScheduleConflict, error) {
	if !action.Valid() {
		return nil, invalid("action", fmt.Sprintf("must be one of rescheduled, kept_both, cancelled, dismissed (got %q)", action))
	}
	conflict, err := s.conflicts.GetByID(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(CodeConflictNotFound, http.StatusNotFound, "conflict not found", err)
	}
	if err != nil {
		return nil, newError(CodeFetchError, http.StatusInternalServerError, "failed to fetch conflict", err)
	}

	now := s.now()
	conflict.ResolutionStatus = models.ResolutionUserResolved
	conflict.ResolutionAction = &action
	conflict.ResolvedAt = &now
	if err := s.conflicts.Update(ctx, conflict); err != nil {
		return nil, newError(CodeUpdateFailed, http.StatusInternalServerError, "failed to resolve conflict", err)
	}

	s.logger.Info("schedule_conflict_resolved",
		zap.String("user_id", userID.String()),
		zap.String("conflict_id", id.String()),
		zap.String("action", string(action)),
	)
	return conflict, nil
}

// MarkMissedSchedules flips every still-scheduled entry dated before 'before' to missed
func (s *Service) MarkMissedSchedules(ctx context.Context, before clock.Date) (int64, error) {
	n, err := s.schedules.MarkMissedBefore(ctx, before, s.now())
	if err != nil {
		return 0, newError(CodeUpdateFailed, http.StatusInternalServerError, "failed to mark missed schedules", err)
	}
	s.logger.Info("missed_schedules_marked",
		zap.String("before", before.String()),
		zap.Int64("count", n),
	)
	return n, nil
}

// AutoScheduleTodo books the best free slot for a todo and links the new entry to it.
// Slots are tried best-first; a slot that would break the daily cap falls through to the next.
func (s *Service) AutoScheduleTodo(ctx context.Context, userID, todoID uuid.UUID, dates models.DateRange) (*models.ScheduleEntry, error) {
	todo, err := s.todos.GetByID(ctx, userID, todoID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(CodeTodoNotFound, http.StatusNotFound, "todo not found", err)
	}
	if err != nil {
		return nil, newError(CodeFetchError, http.StatusInternalServerError, "failed to fetch todo", err)
	}

	duration := todo.EstimatedMinutes
	if duration <= 0 {
		prefs, err := s.preferences.GetOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}
		duration = prefs.PreferredSessionLength
	}
	duration = min(max(duration, models.MinDurationMinutes), models.MaxDurationMinutes)

	slots, err := s.FindOptimalTimeSlots(ctx, userID, duration, dates, DefaultSlotCount)
	if err != nil {
		return nil, err
	}

	input := inputForTodo(todo, duration)
	var lastConflicts []models.ScheduleConflict
	for _, slot := range slots {
		start := slot.StartTime
		input.ScheduledDate = slot.Date
		input.StartTime = &start

		entry, conflicts, err := s.create(ctx, userID, input)
		if err == nil {
			s.logger.Info("todo_auto_scheduled",
				zap.String("user_id", userID.String()),
				zap.String("todo_id", todoID.String()),
				zap.String("schedule_id", entry.ID.String()),
			)
			return entry, nil
		}
		if !IsConflict(err) {
			return nil, err
		}
		lastConflicts = conflicts
	}

	if len(lastConflicts) > 0 {
		s.logConflicts(ctx, lastConflicts)
		return nil, &ScheduleConflictError{Conflicts: lastConflicts}
	}
	return nil, newError(CodeNoAvailableSlot, http.StatusUnprocessableEntity, "no free slot in the requested range", nil)
}

func inputForTodo(todo *models.Todo, duration int) ScheduleInput {
	in := ScheduleInput{
		TaskType:        models.TaskTypePractice,
		Title:           todo.Title,
		Description:     todo.Description,
		DurationMinutes: duration,
		TodoID:          &todo.ID,
		Priority:        todo.Priority,
		Metadata:        json.RawMessage(`{"auto_scheduled":true}`),
	}
	if !in.Priority.Valid() {
		in.Priority = models.PriorityMedium
	}
	if len(todo.Videos) > 0 {
		videoID := todo.Videos[0].YoutubeID
		in.TaskType = models.TaskTypeVideo
		in.VideoID = &videoID
	}
	return in
}

func newEntry(journeyID uuid.UUID, in ScheduleInput, now time.Time) *models.ScheduleEntry {
	entry := &models.ScheduleEntry{
		ID:              uuid.New(),
		JourneyID:       journeyID,
		ScheduledDate:   in.ScheduledDate,
		TaskType:        in.TaskType,
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		DurationMinutes: in.DurationMinutes,
		TodoID:          in.TodoID,
		VideoID:         in.VideoID,
		Priority:        in.Priority,
		ReminderOffsets: in.ReminderOffsets,
		Metadata:        in.Metadata,
	}
	if in.StartTime != nil && *in.StartTime != "" {
		start := *in.StartTime
		entry.StartTime = &start
	}
	if entry.Priority == "" {
		entry.Priority = models.PriorityMedium
	}
	status := in.Status
	if status == "" {
		status = models.ScheduleStatusScheduled
	}
	entry.SetStatus(status, now)
	return entry
}

func (s *Service) listRange(ctx context.Context, userID uuid.UUID, filter models.ScheduleFilter) ([]*models.ScheduleEntry, error) {
	journey, err := s.activeJourney(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.schedules.ListByDateRange(ctx, journey.ID, filter)
	if err != nil {
		return nil, newError(CodeFetchError, http.StatusInternalServerError, "failed to fetch schedules", err)
	}
	if entries == nil {
		entries = []*models.ScheduleEntry{}
	}
	return entries, nil
}

func (s *Service) today(ctx context.Context, userID uuid.UUID) (clock.Date, error) {
	prefs, err := s.preferences.GetOrCreate(ctx, userID)
	if err != nil {
		return clock.Date{}, err
	}
	return clock.DateOf(s.now().In(prefs.Location())), nil
}

func (s *Service) activeJourney(ctx context.Context, userID uuid.UUID) (*models.Journey, error) {
	journey, err := s.journeys.GetActiveByUserID(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, newError(CodeJourneyNotFound, http.StatusNotFound, "no active learning journey", err)
	}
	if err != nil {
		return nil, newError(CodeFetchError, http.StatusInternalServerError, "failed to fetch journey", err)
	}
	return journey, nil
}

// logConflicts persists conflicts that caused a write to be rejected.
// A logging failure does not change the caller's outcome.
func (s *Service) logConflicts(ctx context.Context, conflicts []models.ScheduleConflict) {
	for i := range conflicts {
		if err := s.conflicts.Create(ctx, &conflicts[i]); err != nil {
			s.logger.Warn("failed_to_log_schedule_conflict",
				zap.String("conflict_id", conflicts[i].ID.String()),
				zap.Error(err),
			)
		}
	}
}

// notFoundOr maps a repository ErrNotFound to ScheduleNotFoundError and anything else to code
func (s *Service) notFoundOr(err error, id uuid.UUID, code ErrorCode, msg string) error {
	if errors.Is(err, database.ErrNotFound) {
		return &ScheduleNotFoundError{ID: id.String()}
	}
	return newError(code, http.StatusInternalServerError, msg, err)
}

// wrapLockError passes calendar errors through and wraps lock or transaction failures in code
func (s *Service) wrapLockError(err error, code ErrorCode, msg string) error {
	if CodeOf(err) != "" {
		return err
	}
	return newError(code, http.StatusInternalServerError, msg, err)
}
