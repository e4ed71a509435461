package models

import "time"

// DateLayout is the calendar-date format used on every output surface.
const DateLayout = "2006-01-02"

// NoEvent fills Event_Name and Description for dates without a catalog entry.
const NoEvent = "No Event"

// PricePoint is one observation of the raw price series.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// EventRecord is one entry of the external event catalog. Records are unordered
// relative to the series and several may share a date.
type EventRecord struct {
	Date        time.Time
	Name        string
	Description string
}

// ReturnSeries holds log returns. Dates[i] is the later date of the price pair
// that produced Values[i].
type ReturnSeries struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations.
func (r ReturnSeries) Len() int { return len(r.Values) }

// First and Last return the date range covered by the series.
func (r ReturnSeries) First() time.Time {
	if len(r.Dates) == 0 {
		return time.Time{}
	}
	return r.Dates[0]
}

func (r ReturnSeries) Last() time.Time {
	if len(r.Dates) == 0 {
		return time.Time{}
	}
	return r.Dates[len(r.Dates)-1]
}

// PreprocessedRow is a return observation left-merged with the event catalog.
// A date with several events yields one row per event.
type PreprocessedRow struct {
	Date        time.Time
	Price       float64
	LogReturn   float64
	EventName   string
	Description string
}

// Dataset is everything the series pipeline derives from the two sources.
type Dataset struct {
	PricePath    string
	EventPath    string
	Digest       string
	Prices       []PricePoint
	Events       []EventRecord
	Returns      ReturnSeries
	Preprocessed []PreprocessedRow
}
