// Package report renders the analysis artefacts written by the eda and export commands.
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/services/series"
	applogger "RegimeShift/pkg/logger"
)

// Artefact file names inside the output directory.
const (
	PricesPNG       = "prices.png"
	ReturnsPNG      = "log_returns.png"
	HistogramPNG    = "log_returns_hist.png"
	TauPNG          = "tau_posterior.png"
	PreprocessedCSV = "preprocessed_data.csv"
	TraceCSV        = "posterior_trace.csv"
)

type Reporter struct {
	dir string
	l   *applogger.Logger
}

func New(dir string, l *applogger.Logger) *Reporter {
	if l == nil {
		l = applogger.Nop()
	}
	return &Reporter{dir: dir, l: l}
}

func (r *Reporter) path(name string) string { return filepath.Join(r.dir, name) }

// EDA writes the price, return and histogram charts of ds and returns its summary.
func (r *Reporter) EDA(ds *models.Dataset) (models.SeriesSummary, []string, error) {
	sum := series.Describe(ds)
	var written []string

	steps := []struct {
		name string
		fn   func(string) error
	}{
		{PricesPNG, func(p string) error { return PriceChart(p, ds.Prices, time.Time{}) }},
		{ReturnsPNG, func(p string) error { return ReturnsChart(p, ds.Returns, time.Time{}) }},
		{HistogramPNG, func(p string) error { return HistogramChart(p, sum.Histogram) }},
	}
	for _, s := range steps {
		p := r.path(s.name)
		if err := s.fn(p); err != nil {
			return sum, written, fmt.Errorf("eda %s: %w", s.name, err)
		}
		written = append(written, p)
	}
	r.l.Info("eda charts written", applogger.String("dir", r.dir), applogger.Int("files", len(written)))
	return sum, written, nil
}

// Export writes the preprocessed table, the posterior summary and the charts
// annotated with the detected change point.
func (r *Reporter) Export(res *models.AnalysisResult) ([]string, error) {
	cp := res.Estimate.ChangePointDate
	steps := []struct {
		name string
		fn   func(string) error
	}{
		{PreprocessedCSV, func(p string) error { return WritePreprocessedCSV(p, res.Preprocessed) }},
		{TraceCSV, func(p string) error { return WriteTraceCSV(p, res.Estimate.Trace) }},
		{PricesPNG, func(p string) error { return PriceChart(p, res.PricesRaw, cp) }},
		{ReturnsPNG, func(p string) error { return ReturnsChart(p, res.Returns, cp) }},
		{TauPNG, func(p string) error { return TauChart(p, res.Estimate.TauHistogram) }},
	}

	var written []string
	for _, s := range steps {
		p := r.path(s.name)
		if err := s.fn(p); err != nil {
			return written, fmt.Errorf("export %s: %w", s.name, err)
		}
		written = append(written, p)
	}
	r.l.Info("export written",
		applogger.String("dir", r.dir),
		applogger.String("change_point", cp.Format(models.DateLayout)),
		applogger.Int("files", len(written)),
	)
	return written, nil
}
