package util

import (
	"strconv"
	"strings"
	"time"
)

// textLayouts carry an unambiguous month.
var textLayouts = []string{
	"2006-01-02",
	"02-Jan-06",
	"2-Jan-06",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 02, 2006",
	"Jan 2, 2006",
	"2006/01/02",
}

// Price exports write numeric dates day-first; the event list is month-first.
var (
	dayFirstLayouts   = []string{"02/01/2006", "2/1/2006", "02-01-2006", "02.01.2006"}
	monthFirstLayouts = []string{"01/02/2006", "1/2/2006", "01-02-2006"}
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseDate parses a calendar date and returns it at UTC midnight.
// Textual months and day-first numeric layouts are accepted, then the ParseTime forms.
func ParseDate(s string) (time.Time, bool) {
	return parseDate(s, dayFirstLayouts)
}

// ParseEventDate is ParseDate with month-first numeric layouts, so "01/02/2020"
// is the 2nd of January.
func ParseEventDate(s string) (time.Time, bool) {
	return parseDate(s, monthFirstLayouts)
}

func parseDate(s string, numeric []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layouts := range [][]string{textLayouts, numeric} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return Midnight(t), true
			}
		}
	}
	// "2006-01-02 15:04:05" as written by spreadsheet exports
	if len(s) > 10 {
		if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
			return Midnight(t), true
		}
	}
	if t, ok := ParseTime(s); ok {
		return Midnight(t.UTC()), true
	}
	return time.Time{}, false
}

// Midnight drops the clock part of t, keeping its calendar date, in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}
