package calendar

import (
	"testing"
	"time"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
)

func TestFindSlots_EmptyCalendar(t *testing.T) {
	t.Parallel()

	prefs := models.DefaultSchedulePreferences(uuid.New())
	dates := models.DateRange{Start: testDate, End: testDate.AddDays(1)}

	got := FindSlots(prefs, nil, 60, dates, 10, nil)
	if len(got) != 6 {
		t.Fatalf("FindSlots() returned %d slots, want 6 (3 windows x 2 days)", len(got))
	}
	want := []string{"09:00", "14:00", "19:00", "09:00", "14:00", "19:00"}
	for i, slot := range got {
		if slot.StartTime != want[i] {
			t.Errorf("slot %d start = %s, want %s", i, slot.StartTime, want[i])
		}
		if slot.Confidence != FixedConfidence {
			t.Errorf("slot %d confidence = %v, want %v", i, slot.Confidence, FixedConfidence)
		}
		if !slot.PreferenceMatch || slot.ConflictCount != 0 || slot.Reasoning != preferredTimeReasoning {
			t.Errorf("slot %d = %+v, want preference match without conflicts", i, slot)
		}
	}
	if got[0].EndTime != "10:00" || !got[3].Date.After(got[0].Date) {
		t.Errorf("unexpected ordering or end time: %+v", got)
	}
}

func TestFindSlots(t *testing.T) {
	t.Parallel()

	saturday := clock.NewDate(2025, time.March, 8)

	tests := []struct {
		name      string
		mutate    func(p *models.UserSchedulePreferences)
		entries   map[clock.Date][]*models.ScheduleEntry
		duration  int
		dates     models.DateRange
		count     int
		wantStart []string
	}{
		{
			name:      "count truncates",
			duration:  60,
			dates:     models.DateRange{Start: testDate, End: testDate.AddDays(6)},
			count:     2,
			wantStart: []string{"09:00", "14:00"},
		},
		{
			name:      "zero count uses the default",
			duration:  60,
			dates:     models.DateRange{Start: testDate, End: testDate.AddDays(6)},
			wantStart: []string{"09:00", "14:00", "19:00", "09:00", "14:00"},
		},
		{
			name:      "duration longer than every window",
			duration:  150,
			dates:     models.DateRange{Start: testDate, End: testDate},
			wantStart: nil,
		},
		{
			name:     "busy window is skipped",
			duration: 60,
			entries: map[clock.Date][]*models.ScheduleEntry{
				testDate: {entryAt("09:30", 30)},
			},
			dates:     models.DateRange{Start: testDate, End: testDate},
			wantStart: []string{"14:00", "19:00"},
		},
		{
			name:     "cancelled entries do not block",
			duration: 60,
			entries: map[clock.Date][]*models.ScheduleEntry{
				testDate: {func() *models.ScheduleEntry {
					e := entryAt("09:00", 60)
					e.Status = models.ScheduleStatusCancelled
					return e
				}()},
			},
			dates:     models.DateRange{Start: testDate, End: testDate},
			wantStart: []string{"09:00", "14:00", "19:00"},
		},
		{
			name:      "weekends skipped when unavailable",
			mutate:    func(p *models.UserSchedulePreferences) { p.WeekendAvailability = false },
			duration:  60,
			dates:     models.DateRange{Start: saturday, End: saturday.AddDays(1)},
			wantStart: nil,
		},
		{
			name: "avoid times are respected",
			mutate: func(p *models.UserSchedulePreferences) {
				p.AvoidTimes = []models.TimeWindow{{"13:30", "14:30"}}
			},
			duration:  60,
			dates:     models.DateRange{Start: testDate, End: testDate},
			wantStart: []string{"09:00", "19:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prefs := models.DefaultSchedulePreferences(uuid.New())
			if tt.mutate != nil {
				tt.mutate(prefs)
			}
			got := FindSlots(prefs, tt.entries, tt.duration, tt.dates, tt.count, FixedScorer{})
			if len(got) != len(tt.wantStart) {
				t.Fatalf("FindSlots() returned %d slots, want %d: %+v", len(got), len(tt.wantStart), got)
			}
			for i, slot := range got {
				if slot.StartTime != tt.wantStart[i] {
					t.Errorf("slot %d start = %s, want %s", i, slot.StartTime, tt.wantStart[i])
				}
			}
		})
	}
}

func TestFindSlots_ScorerOrdersAndClamps(t *testing.T) {
	t.Parallel()

	prefs := models.DefaultSchedulePreferences(uuid.New())
	dates := models.DateRange{Start: testDate, End: testDate}

	// evening first, and out-of-range scores clamp into [0, 1]
	scorer := SlotScorerFunc(func(slot models.OptimalTimeSlot, ctx SlotContext) float64 {
		switch ctx.WindowIndex {
		case 2:
			return 5
		case 1:
			return 0.5
		default:
			return -1
		}
	})

	got := FindSlots(prefs, nil, 60, dates, 3, scorer)
	if len(got) != 3 {
		t.Fatalf("FindSlots() returned %d slots, want 3", len(got))
	}
	if got[0].StartTime != "19:00" || got[0].Confidence != 1 {
		t.Errorf("best slot = %s (%v), want 19:00 (1)", got[0].StartTime, got[0].Confidence)
	}
	if got[2].StartTime != "09:00" || got[2].Confidence != 0 {
		t.Errorf("worst slot = %s (%v), want 09:00 (0)", got[2].StartTime, got[2].Confidence)
	}
}

func TestFindSlots_ScorerSeesBookedMinutes(t *testing.T) {
	t.Parallel()

	prefs := models.DefaultSchedulePreferences(uuid.New())
	entries := map[clock.Date][]*models.ScheduleEntry{
		testDate: {entryAt("11:00", 45), entryAt("", 30)},
	}

	var seen []int
	scorer := SlotScorerFunc(func(slot models.OptimalTimeSlot, ctx SlotContext) float64 {
		seen = append(seen, ctx.BookedMinutes)
		return 0.5
	})
	FindSlots(prefs, entries, 60, models.DateRange{Start: testDate, End: testDate}, 5, scorer)

	for _, booked := range seen {
		if booked != 45 {
			t.Errorf("BookedMinutes = %d, want 45", booked)
		}
	}
	if len(seen) != 3 {
		t.Errorf("scorer called %d times, want 3", len(seen))
	}
}
