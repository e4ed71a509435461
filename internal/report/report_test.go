package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"RegimeShift/internal/domain/models"
)

func day(d int) time.Time { return time.Date(2020, time.January, d, 0, 0, 0, 0, time.UTC) }

func fixture() *models.AnalysisResult {
	prices := []models.PricePoint{
		{Date: day(1), Price: 10}, {Date: day(2), Price: 12}, {Date: day(3), Price: 11},
		{Date: day(4), Price: 15}, {Date: day(5), Price: 20},
	}
	rs := models.ReturnSeries{
		Dates:  []time.Time{day(2), day(3), day(4), day(5)},
		Values: []float64{0.1823, -0.0870, 0.3102, 0.2877},
	}
	rows := make([]models.PreprocessedRow, len(rs.Values))
	for i := range rows {
		rows[i] = models.PreprocessedRow{
			Date: rs.Dates[i], Price: prices[i+1].Price, LogReturn: rs.Values[i],
			EventName: models.NoEvent, Description: models.NoEvent,
		}
	}
	rows[1].EventName, rows[1].Description = "Embargo", "Supply cut, partial"
	return &models.AnalysisResult{
		PricesRaw:    prices,
		Returns:      rs,
		Preprocessed: rows,
		Estimate: models.PointEstimate{
			Tau:             2,
			ChangePointDate: day(4),
			TauHistogram:    []models.TauBin{{Index: 1, Date: day(3), Count: 3}, {Index: 2, Date: day(4), Count: 7}},
			Trace:           []models.ParamSummary{{Name: "tau", Mean: 1.7, SD: 0.45, Q03: 1, Q97: 2, RHat: 1.01}},
		},
	}
}

func TestExportWritesArtefacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	files, err := New(dir, nil).Export(fixture())
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 5 {
		t.Fatalf("wrote %v", files)
	}
	pngMagic := []byte("\x89PNG")
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Ext(f) == ".png" && !bytes.HasPrefix(b, pngMagic) {
			t.Fatalf("%s is not a png", f)
		}
	}
}

func TestPreprocessedCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), PreprocessedCSV)
	if err := WritePreprocessedCSV(path, fixture().Preprocessed); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 5 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0][2] != "Log_Returns" || recs[0][3] != "Event_Name" {
		t.Fatalf("header %v", recs[0])
	}
	want := []string{"2020-01-03", "11", "-0.087", "Embargo", "Supply cut, partial"}
	for i := range want {
		if recs[2][i] != want[i] {
			t.Fatalf("row %v, want %v", recs[2], want)
		}
	}
	if recs[1][3] != models.NoEvent {
		t.Fatalf("missing fill: %v", recs[1])
	}
}

func TestEDA(t *testing.T) {
	res := fixture()
	ds := &models.Dataset{Prices: res.PricesRaw, Returns: res.Returns}
	sum, files, err := New(t.TempDir(), nil).EDA(ds)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 || sum.Prices != 5 || sum.From != "2020-01-01" {
		t.Fatalf("unexpected eda output %v %+v", files, sum)
	}
}

func TestChartsNeedPoints(t *testing.T) {
	dir := t.TempDir()
	if err := PriceChart(filepath.Join(dir, "p.png"), []models.PricePoint{{Date: day(1), Price: 1}}, time.Time{}); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
	if err := TauChart(filepath.Join(dir, "t.png"), nil); !errors.Is(err, ErrTooFewPoints) {
		t.Fatalf("expected ErrTooFewPoints, got %v", err)
	}
}
