package series

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"RegimeShift/internal/domain/models"
	"RegimeShift/pkg/util"

	"github.com/shopspring/decimal"
)

const op = "series.load"

type table struct {
	path   string
	header map[string]int
	rows   [][]string
}

func (t *table) col(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := t.header[n]; ok {
			return i, true
		}
	}
	return -1, false
}

func (t *table) cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseTable(path string, raw []byte) (*table, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, models.Errorf(models.KindData, op, "%s: empty file", path)
	}
	if err != nil {
		return nil, models.Errorf(models.KindData, op, "%s: read header: %w", path, err)
	}
	t := &table{path: path, header: make(map[string]int, len(head))}
	for i, h := range head {
		t.header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, models.Errorf(models.KindData, op, "%s: %w", path, err)
		}
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// parsePrices reads Date/Price records. Dates are day-first; prices must be positive decimals.
func parsePrices(path string, raw []byte) ([]models.PricePoint, error) {
	t, err := parseTable(path, raw)
	if err != nil {
		return nil, err
	}
	di, ok := t.col("date")
	if !ok {
		return nil, models.Errorf(models.KindData, op, "%s: missing Date column", path)
	}
	pi, ok := t.col("price", "close")
	if !ok {
		return nil, models.Errorf(models.KindData, op, "%s: missing Price column", path)
	}

	out := make([]models.PricePoint, 0, len(t.rows))
	for n, row := range t.rows {
		line := n + 2
		ds := t.cell(row, di)
		d, ok := util.ParseDate(ds)
		if !ok {
			return nil, models.Errorf(models.KindData, op, "%s: line %d: unparseable date %q", path, line, ds)
		}
		ps := t.cell(row, pi)
		p, err := decimal.NewFromString(ps)
		if err != nil {
			return nil, models.Errorf(models.KindData, op, "%s: line %d: non-numeric price %q", path, line, ps)
		}
		if !p.IsPositive() {
			return nil, models.Errorf(models.KindData, op, "%s: line %d: non-positive price %s", path, line, p.String())
		}
		out = append(out, models.PricePoint{Date: d, Price: p.InexactFloat64()})
	}
	return out, nil
}

// parseEvents reads Approximate_Date/Event_Name/Description records.
func parseEvents(path string, raw []byte) ([]models.EventRecord, error) {
	t, err := parseTable(path, raw)
	if err != nil {
		return nil, err
	}
	di, ok := t.col("approximate_date", "date")
	if !ok {
		return nil, models.Errorf(models.KindData, op, "%s: missing Approximate_Date column", path)
	}
	ni, ok := t.col("event_name", "event")
	if !ok {
		return nil, models.Errorf(models.KindData, op, "%s: missing Event_Name column", path)
	}
	desc, _ := t.col("description")

	out := make([]models.EventRecord, 0, len(t.rows))
	for n, row := range t.rows {
		ds := t.cell(row, di)
		d, ok := util.ParseEventDate(ds)
		if !ok {
			return nil, models.Errorf(models.KindData, op, "%s: line %d: unparseable date %q", path, n+2, ds)
		}
		out = append(out, models.EventRecord{
			Date:        d,
			Name:        t.cell(row, ni),
			Description: t.cell(row, desc),
		})
	}
	return out, nil
}
