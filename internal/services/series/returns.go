package series

import (
	"math"
	"time"

	"RegimeShift/internal/domain/models"
)

// LogReturns computes r_i = ln(p_{i+1} / p_i) over date-sorted prices.
// The result is dated by the later price of each pair.
func LogReturns(prices []models.PricePoint) models.ReturnSeries {
	if len(prices) < 2 {
		return models.ReturnSeries{}
	}
	rs := models.ReturnSeries{
		Dates:  make([]time.Time, 0, len(prices)-1),
		Values: make([]float64, 0, len(prices)-1),
	}
	for i := 1; i < len(prices); i++ {
		rs.Dates = append(rs.Dates, prices[i].Date)
		rs.Values = append(rs.Values, math.Log(prices[i].Price/prices[i-1].Price))
	}
	return rs
}

// Reconstruct rebuilds the price path from a starting price and its returns.
func Reconstruct(first float64, rs models.ReturnSeries) []float64 {
	out := make([]float64, 0, rs.Len()+1)
	out = append(out, first)
	p := first
	for _, r := range rs.Values {
		p *= math.Exp(r)
		out = append(out, p)
	}
	return out
}

// Merge left-joins the return rows with the event catalog on exact date.
// Dates without an event carry NoEvent; a date with k events yields k rows
// in catalog order.
func Merge(prices []models.PricePoint, rs models.ReturnSeries, events []models.EventRecord) []models.PreprocessedRow {
	byDate := make(map[time.Time][]models.EventRecord, len(events))
	for _, e := range events {
		byDate[e.Date] = append(byDate[e.Date], e)
	}
	rows := make([]models.PreprocessedRow, 0, rs.Len())
	for i, d := range rs.Dates {
		base := models.PreprocessedRow{Date: d, Price: prices[i+1].Price, LogReturn: rs.Values[i]}
		matched := byDate[d]
		if len(matched) == 0 {
			base.EventName = models.NoEvent
			base.Description = models.NoEvent
			rows = append(rows, base)
			continue
		}
		for _, e := range matched {
			r := base
			r.EventName = e.Name
			r.Description = e.Description
			rows = append(rows, r)
		}
	}
	return rows
}
