package calendar

import (
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

var testDate = clock.NewDate(2025, time.March, 10) // Monday

func entryAt(start string, duration int) *models.ScheduleEntry {
	e := &models.ScheduleEntry{
		ID:              uuid.New(),
		ScheduledDate:   testDate,
		TaskType:        models.TaskTypePractice,
		Title:           "Session " + start,
		DurationMinutes: duration,
		Status:          models.ScheduleStatusScheduled,
		Priority:        models.PriorityMedium,
	}
	if start != "" {
		s := start
		e.StartTime = &s
	}
	return e
}

func countType(conflicts []models.ScheduleConflict, typ models.ConflictType) int {
	n := 0
	for _, c := range conflicts {
		if c.ConflictType == typ {
			n++
		}
	}
	return n
}

func TestDetect(t *testing.T) {
	t.Parallel()

	cancelled := entryAt("09:00", 60)
	cancelled.Status = models.ScheduleStatusCancelled

	tests := []struct {
		name       string
		candidate  *models.ScheduleEntry
		existing   []*models.ScheduleEntry
		capMinutes int
		overlaps   int
		exceeds    int
	}{
		{
			name:       "no start time never conflicts",
			candidate:  entryAt("", 480),
			existing:   []*models.ScheduleEntry{entryAt("09:00", 60)},
			capMinutes: 60,
		},
		{
			name:       "partial overlap",
			candidate:  entryAt("09:30", 60),
			existing:   []*models.ScheduleEntry{entryAt("09:00", 60)},
			capMinutes: 600,
			overlaps:   1,
		},
		{
			name:       "adjacent ranges do not overlap",
			candidate:  entryAt("10:00", 60),
			existing:   []*models.ScheduleEntry{entryAt("09:00", 60)},
			capMinutes: 600,
		},
		{
			name:       "one overlap per existing entry",
			candidate:  entryAt("09:00", 180),
			existing:   []*models.ScheduleEntry{entryAt("09:00", 30), entryAt("10:00", 30), entryAt("13:00", 30)},
			capMinutes: 600,
			overlaps:   2,
		},
		{
			name:       "cancelled entries are ignored",
			candidate:  entryAt("09:00", 60),
			existing:   []*models.ScheduleEntry{cancelled},
			capMinutes: 60,
		},
		{
			name:       "unscheduled-time entries do not count toward the cap",
			candidate:  entryAt("09:00", 60),
			existing:   []*models.ScheduleEntry{entryAt("", 300)},
			capMinutes: 60,
		},
		{
			name:       "reaching the cap exactly is allowed",
			candidate:  entryAt("14:00", 60),
			existing:   []*models.ScheduleEntry{entryAt("09:00", 60)},
			capMinutes: 120,
		},
		{
			name:       "exceeding the cap yields one conflict",
			candidate:  entryAt("14:00", 90),
			existing:   []*models.ScheduleEntry{entryAt("09:00", 60), entryAt("19:00", 30)},
			capMinutes: 120,
			exceeds:    1,
		},
		{
			name:       "overlap and cap together",
			candidate:  entryAt("09:30", 120),
			existing:   []*models.ScheduleEntry{entryAt("09:00", 60)},
			capMinutes: 120,
			overlaps:   1,
			exceeds:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Detect(uuid.New(), tt.candidate, tt.existing, tt.capMinutes, time.Now())
			if n := countType(got, models.ConflictTypeOverlap); n != tt.overlaps {
				t.Errorf("overlap conflicts = %d, want %d", n, tt.overlaps)
			}
			if n := countType(got, models.ConflictTypeExceedsLimit); n != tt.exceeds {
				t.Errorf("exceeds_limit conflicts = %d, want %d", n, tt.exceeds)
			}
		})
	}
}

func TestDetect_Details(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	existing := entryAt("09:00", 60)
	candidate := entryAt("09:30", 120)

	got := Detect(userID, candidate, []*models.ScheduleEntry{existing}, 120, time.Now())
	if len(got) != 2 {
		t.Fatalf("Detect() returned %d conflicts, want 2", len(got))
	}

	overlap := got[0]
	if overlap.ConflictType != models.ConflictTypeOverlap {
		t.Fatalf("first conflict type = %s, want overlap", overlap.ConflictType)
	}
	if overlap.UserID != userID || overlap.PrimaryScheduleID != candidate.ID {
		t.Errorf("overlap conflict not attributed to user and candidate")
	}
	if overlap.ConflictingScheduleID == nil || *overlap.ConflictingScheduleID != existing.ID {
		t.Errorf("ConflictingScheduleID = %v, want %v", overlap.ConflictingScheduleID, existing.ID)
	}
	d := overlap.Details
	if d.OverlapStart != "09:30" || d.OverlapEnd != "10:00" || d.OverlapMinutes != 30 {
		t.Errorf("overlap window = %s-%s (%d min), want 09:30-10:00 (30 min)", d.OverlapStart, d.OverlapEnd, d.OverlapMinutes)
	}
	if d.CandidateEnd != "11:30" || d.ExistingStart != "09:00" {
		t.Errorf("ranges = candidate end %s, existing start %s", d.CandidateEnd, d.ExistingStart)
	}
	if overlap.ResolutionStatus != models.ResolutionUnresolved {
		t.Errorf("ResolutionStatus = %s, want unresolved", overlap.ResolutionStatus)
	}

	limit := got[1].Details
	if limit.TotalMinutes != 180 || limit.LimitMinutes != 120 || limit.ExceedByMinutes != 60 {
		t.Errorf("limit details = total %d, limit %d, exceed %d; want 180, 120, 60", limit.TotalMinutes, limit.LimitMinutes, limit.ExceedByMinutes)
	}
	if got[1].ConflictingScheduleID != nil {
		t.Errorf("exceeds_limit conflict should not name a single conflicting entry")
	}
}

func TestDetect_SkipsCandidateItself(t *testing.T) {
	t.Parallel()

	candidate := entryAt("09:00", 60)
	got := Detect(uuid.New(), candidate, []*models.ScheduleEntry{candidate}, 600, time.Now())
	if len(got) != 0 {
		t.Errorf("Detect() = %d conflicts against itself, want 0", len(got))
	}
}
