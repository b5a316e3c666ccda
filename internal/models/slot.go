package models

import "github.com/benvon/study-planner/internal/clock"

// OptimalTimeSlot is a suggested free slot for a study session
type OptimalTimeSlot struct {
	Date            clock.Date `json:"date"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	Confidence      float64    `json:"confidence"`
	Reasoning       string     `json:"reasoning"`
	ConflictCount   int        `json:"conflict_count"`
	PreferenceMatch bool       `json:"preference_match"`
}

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	Start clock.Date `json:"start"`
	End   clock.Date `json:"end"`
}

// Days returns the number of dates in the range
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}
