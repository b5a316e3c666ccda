package calendar

import (
	"sort"

	"github.com/benvon/study-planner/internal/clock"
	"github.com/benvon/study-planner/internal/models"
)

const (
	// DefaultSlotCount is how many slots are returned when the caller does not ask for a number
	DefaultSlotCount = 5
	// MaxSlotRangeDays bounds the date range searched for slots
	MaxSlotRangeDays = 31
	// FixedConfidence is the score FixedScorer gives every slot
	FixedConfidence = 0.9

	preferredTimeReasoning = "Matches your preferred study time"
)

// SlotContext is what a scorer may consider beyond the slot itself
type SlotContext struct {
	Preferences   *models.UserSchedulePreferences
	Window        models.TimeWindow
	WindowIndex   int
	BookedMinutes int // time-bound, non-cancelled minutes already on the slot's date
	DayEntries    []*models.ScheduleEntry
}

// SlotScorer assigns a confidence in [0, 1] to a candidate slot
type SlotScorer interface {
	Score(slot models.OptimalTimeSlot, ctx SlotContext) float64
}

// FixedScorer gives every slot the same confidence
type FixedScorer struct{}

// Score returns FixedConfidence
func (FixedScorer) Score(models.OptimalTimeSlot, SlotContext) float64 {
	return FixedConfidence
}

// SlotScorerFunc adapts a function to SlotScorer
type SlotScorerFunc func(slot models.OptimalTimeSlot, ctx SlotContext) float64

// Score calls f
func (f SlotScorerFunc) Score(slot models.OptimalTimeSlot, ctx SlotContext) float64 {
	return f(slot, ctx)
}

// FindSlots walks each date of the range and each preferred window, proposing the window's
// opening [start, start+duration) whenever it fits the window and intersects no existing
// time-bound entry. entriesByDate holds the existing entries keyed by date. It performs no I/O.
func FindSlots(prefs *models.UserSchedulePreferences, entriesByDate map[clock.Date][]*models.ScheduleEntry, duration int, dates models.DateRange, count int, scorer SlotScorer) []models.OptimalTimeSlot {
	if count <= 0 {
		count = DefaultSlotCount
	}
	if scorer == nil {
		scorer = FixedScorer{}
	}

	avoid := parseWindows(prefs.AvoidTimes)

	var slots []models.OptimalTimeSlot
	for _, date := range clock.DatesBetween(dates.Start, dates.End) {
		if !prefs.WeekendAvailability && date.IsWeekend() {
			continue
		}

		dayEntries := entriesByDate[date]
		booked := 0
		var busy [][2]int
		for _, e := range dayEntries {
			if !occupiesTime(e) {
				continue
			}
			start, end, ok := e.TimeRange()
			if !ok {
				continue
			}
			busy = append(busy, [2]int{start, end})
			booked += e.DurationMinutes
		}

		for i, window := range prefs.PreferredTimes {
			windowStart, err := clock.ParseHHMM(window.Start())
			if err != nil {
				continue
			}
			windowEnd, err := clock.ParseHHMM(window.End())
			if err != nil || windowEnd-windowStart < duration {
				continue
			}

			slotStart, slotEnd := windowStart, windowStart+duration
			if intersectsAny(slotStart, slotEnd, busy) || intersectsAny(slotStart, slotEnd, avoid) {
				continue
			}

			slot := models.OptimalTimeSlot{
				Date:            date,
				StartTime:       clock.FormatHHMM(slotStart),
				EndTime:         clock.FormatHHMM(slotEnd),
				Reasoning:       preferredTimeReasoning,
				ConflictCount:   0,
				PreferenceMatch: true,
			}
			slot.Confidence = clamp01(scorer.Score(slot, SlotContext{
				Preferences:   prefs,
				Window:        window,
				WindowIndex:   i,
				BookedMinutes: booked,
				DayEntries:    dayEntries,
			}))
			slots = append(slots, slot)
		}
	}

	// slots are generated in date/time order, so a stable sort keeps that order among equal scores
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].Confidence > slots[j].Confidence
	})
	if len(slots) > count {
		slots = slots[:count]
	}
	return slots
}

func parseWindows(windows []models.TimeWindow) [][2]int {
	var out [][2]int
	for _, w := range windows {
		start, err := clock.ParseHHMM(w.Start())
		if err != nil {
			continue
		}
		end, err := clock.ParseHHMM(w.End())
		if err != nil || end <= start {
			continue
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

func intersectsAny(start, end int, ranges [][2]int) bool {
	for _, r := range ranges {
		if clock.Overlaps(start, end, r[0], r[1]) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
