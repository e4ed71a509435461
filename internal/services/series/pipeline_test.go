package series

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"RegimeShift/internal/domain/models"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

const eventsCSV = "Approximate_Date,Event_Name,Description\n2020-01-04,OPEC cut,Production cut announced\n"

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	prices := writeFile(t, dir, "prices.csv", "Date,Price\n01-Jan-20,10\n02-Jan-20,12\n03-Jan-20,11\n04-Jan-20,15\n05-Jan-20,20\n")
	events := writeFile(t, dir, "events.csv", eventsCSV)

	ds, err := NewPipeline().Load(context.Background(), prices, events)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []float64{math.Log(1.2), math.Log(11.0 / 12.0), math.Log(15.0 / 11.0), math.Log(20.0 / 15.0)}
	if ds.Returns.Len() != len(want) {
		t.Fatalf("expected %d returns, got %d", len(want), ds.Returns.Len())
	}
	for i, w := range want {
		if math.Abs(ds.Returns.Values[i]-w) > 1e-12 {
			t.Fatalf("return %d: got %v want %v", i, ds.Returns.Values[i], w)
		}
		if !ds.Returns.Dates[i].Equal(ds.Prices[i+1].Date) {
			t.Fatalf("return %d dated %v, want %v", i, ds.Returns.Dates[i], ds.Prices[i+1].Date)
		}
	}
	if !ds.Returns.Dates[0].Equal(day(2020, 1, 2)) {
		t.Fatalf("unexpected first return date %v", ds.Returns.Dates[0])
	}
	if ds.Digest == "" {
		t.Fatal("expected digest")
	}
}

func TestLoadReadsEventDatesMonthFirst(t *testing.T) {
	dir := t.TempDir()
	prices := writeFile(t, dir, "prices.csv", "Date,Price\n01/01/2020,10\n02/01/2020,12\n03/01/2020,11\n")
	events := writeFile(t, dir, "events.csv", "Approximate_Date,Event_Name,Description\n01/02/2020,Embargo,\n3/4/2020,Cut,\n")

	ds, err := NewPipeline().Load(context.Background(), prices, events)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ds.Prices[1].Date.Equal(day(2020, 1, 2)) {
		t.Fatalf("price dates are day-first, got %v", ds.Prices[1].Date)
	}
	if len(ds.Events) != 2 || !ds.Events[0].Date.Equal(day(2020, 1, 2)) || !ds.Events[1].Date.Equal(day(2020, 3, 4)) {
		t.Fatalf("event dates are month-first, got %+v", ds.Events)
	}
}

func TestLoadSortsUnorderedInput(t *testing.T) {
	dir := t.TempDir()
	prices := writeFile(t, dir, "prices.csv", "Date,Price\n03-Jan-20,11\n01-Jan-20,10\n02-Jan-20,12\n")
	events := writeFile(t, dir, "events.csv", eventsCSV)

	ds, err := NewPipeline().Load(context.Background(), prices, events)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 1; i < len(ds.Prices); i++ {
		if !ds.Prices[i-1].Date.Before(ds.Prices[i].Date) {
			t.Fatalf("prices not strictly increasing at %d", i)
		}
	}
	if math.Abs(ds.Returns.Values[0]-math.Log(1.2)) > 1e-12 {
		t.Fatalf("returns derived before sorting: %v", ds.Returns.Values)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	events := writeFile(t, dir, "events.csv", eventsCSV)
	cases := []struct {
		name   string
		prices string
		kind   models.ErrorKind
		substr string
	}{
		{"bad date", "Date,Price\nnot-a-date,10\n02-Jan-20,12\n03-Jan-20,13\n", models.KindData, "unparseable date"},
		{"non numeric", "Date,Price\n01-Jan-20,abc\n02-Jan-20,12\n03-Jan-20,13\n", models.KindData, "non-numeric"},
		{"zero price", "Date,Price\n01-Jan-20,0\n02-Jan-20,12\n03-Jan-20,13\n", models.KindData, "non-positive"},
		{"negative price", "Date,Price\n01-Jan-20,-3\n02-Jan-20,12\n03-Jan-20,13\n", models.KindData, "non-positive"},
		{"duplicate date", "Date,Price\n01-Jan-20,10\n01-Jan-20,12\n03-Jan-20,13\n", models.KindData, "duplicate date"},
		{"missing column", "Day,Price\n01-Jan-20,10\n", models.KindData, "missing Date"},
		{"too short", "Date,Price\n01-Jan-20,10\n02-Jan-20,12\n", models.KindModel, "need at least 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := writeFile(t, dir, strings.ReplaceAll(tc.name, " ", "_")+".csv", tc.prices)
			_, err := NewPipeline().Load(context.Background(), p, events)
			if err == nil {
				t.Fatal("expected error")
			}
			if models.KindOf(err) != tc.kind {
				t.Fatalf("kind %s, want %s (%v)", models.KindOf(err), tc.kind, err)
			}
			if !strings.Contains(err.Error(), tc.substr) || !strings.Contains(err.Error(), p) {
				t.Fatalf("message %q should mention %q and the path", err.Error(), tc.substr)
			}
		})
	}
}

func TestLoadMissingSourceCarriesPath(t *testing.T) {
	dir := t.TempDir()
	events := writeFile(t, dir, "events.csv", eventsCSV)
	missing := filepath.Join(dir, "absent.csv")
	_, err := NewPipeline().Load(context.Background(), missing, events)
	if !models.IsKind(err, models.KindData) {
		t.Fatalf("expected DataError, got %v", err)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Fatalf("message should carry path: %v", err)
	}
}

func TestLoadHandlesBOMAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	prices := writeFile(t, dir, "prices.csv", "\xef\xbb\xbfDate,Price\n01-Jan-20,10\n\n02-Jan-20,12\n03-Jan-20,11\n")
	events := writeFile(t, dir, "events.csv", eventsCSV)
	ds, err := NewPipeline().Load(context.Background(), prices, events)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ds.Prices) != 3 {
		t.Fatalf("expected 3 prices, got %d", len(ds.Prices))
	}
}

func TestRoundTrip(t *testing.T) {
	prices := []models.PricePoint{
		{Date: day(2020, 1, 1), Price: 18.63},
		{Date: day(2020, 1, 2), Price: 18.45},
		{Date: day(2020, 1, 3), Price: 18.55},
		{Date: day(2020, 1, 6), Price: 18.60},
		{Date: day(2020, 1, 7), Price: 18.63},
	}
	rs := LogReturns(prices)
	if rs.Len() != len(prices)-1 {
		t.Fatalf("expected %d returns", len(prices)-1)
	}
	got := Reconstruct(prices[0].Price, rs)
	for i, p := range prices {
		if math.Abs(got[i]-p.Price) > 1e-9 {
			t.Fatalf("price %d: got %v want %v", i, got[i], p.Price)
		}
	}
}

func TestMergeFillsNoEvent(t *testing.T) {
	prices := []models.PricePoint{
		{Date: day(2020, 1, 1), Price: 10},
		{Date: day(2020, 1, 2), Price: 11},
		{Date: day(2020, 1, 3), Price: 12},
	}
	events := []models.EventRecord{
		{Date: day(2020, 1, 3), Name: "A", Description: "first"},
		{Date: day(2020, 1, 3), Name: "B", Description: "second"},
		{Date: day(2020, 1, 1), Name: "C", Description: "before returns"},
	}
	rows := Merge(prices, LogReturns(prices), events)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].EventName != models.NoEvent || rows[0].Description != models.NoEvent {
		t.Fatalf("expected fill on first row: %+v", rows[0])
	}
	if rows[1].EventName != "A" || rows[2].EventName != "B" || rows[2].Price != 12 {
		t.Fatalf("unexpected merged rows: %+v", rows)
	}
}

func TestDescribe(t *testing.T) {
	ds := &models.Dataset{
		Prices: []models.PricePoint{
			{Date: day(2020, 1, 1), Price: 10},
			{Date: day(2020, 1, 2), Price: 20},
			{Date: day(2020, 1, 3), Price: 30},
		},
	}
	ds.Returns = LogReturns(ds.Prices)
	s := Describe(ds)
	if s.From != "2020-01-01" || s.To != "2020-01-03" {
		t.Fatalf("unexpected range %s..%s", s.From, s.To)
	}
	price := s.Columns[0]
	if price.Count != 3 || price.Mean != 20 || price.Median != 20 || price.Min != 10 || price.Max != 30 {
		t.Fatalf("unexpected price stats %+v", price)
	}
	total := 0
	for _, b := range s.Histogram {
		total += b.Count
	}
	if total != 2 {
		t.Fatalf("histogram should count every return, got %d", total)
	}
}
