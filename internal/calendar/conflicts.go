package calendar

import (
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

// occupiesTime reports whether an existing entry takes part in conflict checks:
// it needs a start time and must not be cancelled
func occupiesTime(e *models.ScheduleEntry) bool {
	return e.HasStartTime() && e.Status.Normalize() != models.ScheduleStatusCancelled
}

// Detect compares a candidate against the other entries of its date and returns every conflict.
// existing must already exclude the candidate itself. It performs no I/O.
//
// A candidate without a start time never conflicts. Each existing entry whose [start, end)
// range intersects the candidate's yields one overlap conflict. When the summed durations of
// the time-bound entries plus the candidate exceed capMinutes, exactly one exceeds_limit
// conflict is added.
func Detect(userID uuid.UUID, candidate *models.ScheduleEntry, existing []*models.ScheduleEntry, capMinutes int, now time.Time) []models.ScheduleConflict {
	newStart, newEnd, ok := candidate.TimeRange()
	if !ok {
		return nil
	}

	var conflicts []models.ScheduleConflict
	total := candidate.DurationMinutes
	contributing := 0

	for _, e := range existing {
		if !occupiesTime(e) || e.ID == candidate.ID {
			continue
		}
		start, end, ok := e.TimeRange()
		if !ok {
			continue
		}
		total += e.DurationMinutes
		contributing++

		if !clock.Overlaps(newStart, newEnd, start, end) {
			continue
		}
		existingID := e.ID
		conflicts = append(conflicts, models.ScheduleConflict{
			ID:                    uuid.New(),
			UserID:                userID,
			ConflictType:          models.ConflictTypeOverlap,
			PrimaryScheduleID:     candidate.ID,
			ConflictingScheduleID: &existingID,
			Details: models.ConflictDetails{
				Date:           candidate.ScheduledDate,
				CandidateTitle: candidate.Title,
				CandidateStart: clock.FormatHHMM(newStart),
				CandidateEnd:   clock.FormatHHMM(newEnd),
				ExistingTitle:  e.Title,
				ExistingStart:  clock.FormatHHMM(start),
				ExistingEnd:    clock.FormatHHMM(end),
				OverlapStart:   clock.FormatHHMM(max(newStart, start)),
				OverlapEnd:     clock.FormatHHMM(min(newEnd, end)),
				OverlapMinutes: clock.OverlapMinutes(newStart, newEnd, start, end),
			},
			ResolutionStatus: models.ResolutionUnresolved,
			DetectedAt:       now,
		})
	}

	if total > capMinutes {
		conflicts = append(conflicts, models.ScheduleConflict{
			ID:                uuid.New(),
			UserID:            userID,
			ConflictType:      models.ConflictTypeExceedsLimit,
			PrimaryScheduleID: candidate.ID,
			Details: models.ConflictDetails{
				Date:                candidate.ScheduledDate,
				CandidateTitle:      candidate.Title,
				CandidateStart:      clock.FormatHHMM(newStart),
				CandidateEnd:        clock.FormatHHMM(newEnd),
				TotalMinutes:        total,
				LimitMinutes:        capMinutes,
				ExceedByMinutes:     total - capMinutes,
				ContributingEntries: contributing,
			},
			ResolutionStatus: models.ResolutionUnresolved,
			DetectedAt:       now,
		})
	}

	return conflicts
}
