package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"RegimeShift/internal/domain/models"

	"github.com/shopspring/decimal"
)

var preprocessedHeader = []string{"Date", "Price", "Log_Returns", "Event_Name", "Description"}

// WritePreprocessedCSV writes the merged price, return and event table.
func WritePreprocessedCSV(path string, rows []models.PreprocessedRow) error {
	return writeCSV(path, preprocessedHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.Date.Format(models.DateLayout),
			decimal.NewFromFloat(r.Price).String(),
			strconv.FormatFloat(r.LogReturn, 'g', -1, 64),
			r.EventName,
			r.Description,
		}
	})
}

var traceHeader = []string{"param", "mean", "sd", "q03", "q97", "r_hat"}

// WriteTraceCSV writes the per-parameter posterior summary.
func WriteTraceCSV(path string, trace []models.ParamSummary) error {
	return writeCSV(path, traceHeader, len(trace), func(i int) []string {
		p := trace[i]
		rhat := ""
		if p.RHat > 0 {
			rhat = strconv.FormatFloat(p.RHat, 'f', 4, 64)
		}
		return []string{
			p.Name,
			strconv.FormatFloat(p.Mean, 'g', 8, 64),
			strconv.FormatFloat(p.SD, 'g', 8, 64),
			strconv.FormatFloat(p.Q03, 'g', 8, 64),
			strconv.FormatFloat(p.Q97, 'g', 8, 64),
			rhat,
		}
	})
}

func writeCSV(path string, header []string, n int, row func(int) []string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
