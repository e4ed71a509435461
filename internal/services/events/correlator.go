package events

import (
	"sort"
	"time"

	"RegimeShift/internal/domain/models"
)

// DefaultWindowDays is the credible window used when none is configured.
const DefaultWindowDays = 30

// Correlate returns the events dated within windowDays calendar days of date,
// bounds inclusive, ordered by date with ties in catalog order. A negative
// window is treated as zero.
func Correlate(date time.Time, events []models.EventRecord, windowDays int) []models.EventRecord {
	if windowDays < 0 {
		windowDays = 0
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	lo := day.AddDate(0, 0, -windowDays)
	hi := day.AddDate(0, 0, windowDays)

	out := make([]models.EventRecord, 0)
	for _, e := range events {
		d := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(lo) || d.After(hi) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
