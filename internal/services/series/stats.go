package series

import (
	"math"

	"RegimeShift/internal/domain/models"
	"RegimeShift/pkg/util"
)

const histogramBins = 50

// Describe produces the exploratory summary of a dataset: per-column
// descriptive statistics and a histogram of the log returns.
func Describe(ds *models.Dataset) models.SeriesSummary {
	prices := make([]float64, len(ds.Prices))
	for i, p := range ds.Prices {
		prices[i] = p.Price
	}
	s := models.SeriesSummary{
		Prices: len(ds.Prices),
		Events: len(ds.Events),
		Columns: []models.ColumnStats{
			columnStats("Price", prices),
			columnStats("Log_Returns", ds.Returns.Values),
		},
		Histogram: Histogram(ds.Returns.Values, histogramBins),
	}
	if len(ds.Prices) > 0 {
		s.From = util.FormatDate(ds.Prices[0].Date)
		s.To = util.FormatDate(ds.Prices[len(ds.Prices)-1].Date)
	}
	return s
}

func columnStats(name string, xs []float64) models.ColumnStats {
	cs := models.ColumnStats{Name: name}
	vals := make([]float64, 0, len(xs))
	for _, x := range xs {
		if math.IsNaN(x) {
			cs.Missing++
			continue
		}
		vals = append(vals, x)
	}
	cs.Count = len(vals)
	if cs.Count == 0 {
		return cs
	}
	cs.Mean = util.Mean(vals)
	if cs.Count > 1 {
		cs.Std = util.StdDev(vals)
	}
	cs.Min = util.Quantile(vals, 0)
	cs.Q25 = util.Quantile(vals, 0.25)
	cs.Median = util.Quantile(vals, 0.5)
	cs.Q75 = util.Quantile(vals, 0.75)
	cs.Max = util.Quantile(vals, 1)
	return cs
}

// Histogram buckets xs into n equal-width bins spanning [min, max].
func Histogram(xs []float64, n int) []models.HistBin {
	if len(xs) == 0 || n <= 0 {
		return nil
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi == lo {
		return []models.HistBin{{Lo: lo, Hi: hi, Count: len(xs)}}
	}
	width := (hi - lo) / float64(n)
	bins := make([]models.HistBin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	for _, x := range xs {
		k := int((x - lo) / width)
		if k >= n {
			k = n - 1
		}
		bins[k].Count++
	}
	return bins
}
