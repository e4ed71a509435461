package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"RegimeShift/internal/domain/models"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrTooFewPoints is returned when a series cannot span a chart axis.
var ErrTooFewPoints = errors.New("report: at least two points are required")

const (
	chartWidth  = 1280
	chartHeight = 720
)

var changePointStyle = chart.Style{
	StrokeColor:     drawing.ColorRed,
	StrokeWidth:     2,
	StrokeDashArray: []float64{6, 4},
}

func dateFormatter(v interface{}) string {
	return chart.TimeValueFormatterWithFormat(models.DateLayout)(v)
}

func floatFormatter(format string) chart.ValueFormatter {
	return func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, format)
	}
}

// yRange pads a degenerate range so the axis never collapses.
func yRange(ys []float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, y := range ys {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if hi-lo == 0 {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

// timeChart plots ys over xs and marks the change point when it is set.
func timeChart(path, name, yName string, xs []time.Time, ys []float64, changePoint time.Time, yFormat string) error {
	if len(xs) < 2 || len(xs) != len(ys) {
		return ErrTooFewPoints
	}
	yr := yRange(ys)
	series := []chart.Series{
		chart.TimeSeries{Name: name, XValues: xs, YValues: ys},
	}
	if !changePoint.IsZero() {
		series = append(series, chart.TimeSeries{
			Name:    "Change point " + changePoint.Format(models.DateLayout),
			Style:   changePointStyle,
			XValues: []time.Time{changePoint, changePoint},
			YValues: []float64{yr.Min, yr.Max},
		})
	}

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		XAxis:  chart.XAxis{ValueFormatter: dateFormatter},
		YAxis: chart.YAxis{
			Name:           yName,
			Range:          yr,
			ValueFormatter: floatFormatter(yFormat),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(path, graph.Render)
}

// PriceChart plots the raw price series.
func PriceChart(path string, prices []models.PricePoint, changePoint time.Time) error {
	xs := make([]time.Time, len(prices))
	ys := make([]float64, len(prices))
	for i, p := range prices {
		xs[i], ys[i] = p.Date, p.Price
	}
	return timeChart(path, "Price", "Price (USD)", xs, ys, changePoint, "%.2f")
}

// ReturnsChart plots the log-return series.
func ReturnsChart(path string, rs models.ReturnSeries, changePoint time.Time) error {
	return timeChart(path, "Log returns", "Log return", rs.Dates, rs.Values, changePoint, "%.3f")
}

func barChart(path, title string, bars []chart.Value) error {
	if len(bars) == 0 {
		return ErrTooFewPoints
	}
	maxV := 0.0
	for _, b := range bars {
		maxV = math.Max(maxV, b.Value)
	}
	if maxV == 0 {
		maxV = 1
	}
	width := (chartWidth-120)/len(bars) - 2
	if width < 2 {
		width = 2
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   width,
		BarSpacing: 2,
		YAxis: chart.YAxis{
			Range:          &chart.ContinuousRange{Min: 0, Max: maxV * 1.1},
			ValueFormatter: floatFormatter("%.0f"),
		},
		Bars: bars,
	}
	return render(path, bc.Render)
}

// HistogramChart plots the log-return histogram.
func HistogramChart(path string, bins []models.HistBin) error {
	bars := make([]chart.Value, len(bins))
	for i, b := range bins {
		bars[i] = chart.Value{Value: float64(b.Count), Label: fmt.Sprintf("%.3f", (b.Lo+b.Hi)/2)}
	}
	return barChart(path, "Distribution of log returns", bars)
}

// TauChart plots the posterior draw counts per change-point date.
func TauChart(path string, bins []models.TauBin) error {
	bars := make([]chart.Value, len(bins))
	for i, b := range bins {
		bars[i] = chart.Value{Value: float64(b.Count), Label: b.Date.Format(models.DateLayout)}
	}
	return barChart(path, "Posterior distribution of the change point", bars)
}

func render(path string, fn func(chart.RendererProvider, io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(chart.PNG, file); err != nil {
		file.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return file.Close()
}
