package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/service/ratelimit"
	"RegimeShift/internal/services/changepoint"
	"RegimeShift/internal/services/series"
	"RegimeShift/internal/usecase"

	"github.com/labstack/echo/v4"
)

type stubEngine struct{}

func (stubEngine) Sample(context.Context, models.ModelSpec, models.ReturnSeries, models.SamplerConfig) (models.PosteriorSamples, error) {
	chain := []models.PosteriorSample{
		{Tau: 2, Mu1: 0.01, Sigma1: 0.1, Mu2: 0.02, Sigma2: 0.2},
		{Tau: 2, Mu1: 0.03, Sigma1: 0.1, Mu2: 0.04, Sigma2: 0.2},
	}
	return models.PosteriorSamples{Chains: [][]models.PosteriorSample{chain}}, nil
}

func newTestServer(t *testing.T, pricesPath string) *echo.Echo {
	t.Helper()
	dir := t.TempDir()
	if pricesPath == "" {
		pricesPath = filepath.Join(dir, "prices.csv")
		body := "Date,Price\n2020-01-01,10\n2020-01-02,12\n2020-01-03,11\n2020-01-04,15\n2020-01-05,20\n"
		if err := os.WriteFile(pricesPath, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	eventsPath := filepath.Join(dir, "events.csv")
	evs := "Approximate_Date,Event_Name,Description\n2020-01-20,Embargo,Supply cut\n2020-04-01,Far,Outside\n"
	if err := os.WriteFile(eventsPath, []byte(evs), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := usecase.AnalysisConfig{
		PricesPath: pricesPath,
		EventsPath: eventsPath,
		WindowDays: 30,
		Sampler:    models.DefaultSamplerConfig(),
		Priors:     models.DefaultPriors(),
	}
	svc := usecase.NewAnalysisService(cfg, series.NewPipeline(), changepoint.NewBuilder(cfg.Priors), stubEngine{})
	h := NewAnalysisEchoHandler(nil, svc, ratelimit.New(), RerunLimit{Capacity: 1, RefillSec: 0.001})

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAllDataReady(t *testing.T) {
	e := newTestServer(t, "")
	rec := do(e, http.MethodGet, "/api/all_data")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var body models.AllDataResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ModelResults.ChangePointDate != "2020-01-04" {
		t.Fatalf("change point %s", body.ModelResults.ChangePointDate)
	}
	if math.Abs(body.ModelResults.Mu1Post-0.02) > 1e-12 || math.Abs(body.ModelResults.Mu2Post-0.03) > 1e-12 {
		t.Fatalf("unexpected means %+v", body.ModelResults)
	}
	if len(body.RelevantEvents) != 1 || body.RelevantEvents[0].EventName != "Embargo" {
		t.Fatalf("unexpected events %+v", body.RelevantEvents)
	}
	for _, key := range []string{`"prices_raw"`, `"preprocessed_data"`, `"Log_Returns"`, `"mu_1_post"`, `"Event_Name"`} {
		if !strings.Contains(rec.Body.String(), key) {
			t.Fatalf("body is missing %s", key)
		}
	}
}

func TestAllDataFailedIsServerError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")
	e := newTestServer(t, missing)
	rec := do(e, http.MethodGet, "/api/all_data")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	msg, _ := body["error"].(string)
	if !strings.Contains(msg, missing) || len(body) != 1 {
		t.Fatalf("unexpected failure body %s", rec.Body)
	}

	if rec := do(e, http.MethodGet, "/api/model_results"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("model_results status %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/health"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"failed"`) {
		t.Fatalf("health %d %s", rec.Code, rec.Body)
	}
}

func TestEventsWindowOverride(t *testing.T) {
	e := newTestServer(t, "")
	cases := []struct {
		target string
		code   int
		events int
		window int
	}{
		{"/api/events", http.StatusOK, 1, 30},
		{"/api/events?window_days=0", http.StatusOK, 0, 0},
		{"/api/events?window_days=120", http.StatusOK, 2, 120},
		{"/api/events?window_days=-1", http.StatusBadRequest, 0, 0},
		{"/api/events?window_days=abc", http.StatusBadRequest, 0, 0},
	}
	for _, tc := range cases {
		rec := do(e, http.MethodGet, tc.target)
		if rec.Code != tc.code {
			t.Fatalf("%s: status %d: %s", tc.target, rec.Code, rec.Body)
		}
		if tc.code != http.StatusOK {
			continue
		}
		var body models.EventsResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if len(body.Events) != tc.events || body.WindowDays != tc.window || body.ChangePointDate != "2020-01-04" {
			t.Fatalf("%s: unexpected body %+v", tc.target, body)
		}
	}
}

func TestRerunIsRateLimited(t *testing.T) {
	e := newTestServer(t, "")
	if rec := do(e, http.MethodPost, "/api/rerun"); rec.Code != http.StatusOK {
		t.Fatalf("first rerun %d: %s", rec.Code, rec.Body)
	}
	rec := do(e, http.MethodPost, "/api/rerun")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second rerun %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}

	rec = do(e, http.MethodGet, "/api/status")
	if !strings.Contains(rec.Body.String(), `"runs":1`) || !strings.Contains(rec.Body.String(), `"ready"`) {
		t.Fatalf("unexpected status %s", rec.Body)
	}
}

func TestPosteriorAndSummary(t *testing.T) {
	e := newTestServer(t, "")
	rec := do(e, http.MethodGet, "/api/posterior")
	if rec.Code != http.StatusOK {
		t.Fatalf("posterior %d", rec.Code)
	}
	var post models.PosteriorDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatal(err)
	}
	if post.Tau != 2 || post.Draws != 2 || len(post.TauHistogram) != 1 || post.TauHistogram[0].Count != 2 {
		t.Fatalf("unexpected posterior %+v", post)
	}

	rec = do(e, http.MethodGet, "/api/summary")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"Log_Returns"`) {
		t.Fatalf("summary %d %s", rec.Code, rec.Body)
	}

	rec = do(e, http.MethodGet, "/api/runs?limit=0")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("runs with limit=0 should be rejected, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/runs?limit=600"); rec.Code != http.StatusBadRequest {
		t.Fatalf("runs with limit=600 should be rejected, got %d", rec.Code)
	}
	rec = do(e, http.MethodGet, "/api/runs")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"rows":[]`) {
		t.Fatalf("runs %d %s", rec.Code, rec.Body)
	}
}

// swappingAnalyzer hands out its current snapshot and replaces it with next,
// the way a rerun publishing between two reads would.
type swappingAnalyzer struct {
	mu      sync.Mutex
	current *models.Snapshot
	next    *models.Snapshot
}

func (a *swappingAnalyzer) Ensure(context.Context) (*models.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := a.current
	a.current = a.next
	return snap, nil
}

func (a *swappingAnalyzer) Rerun(ctx context.Context, _ string) (*models.Snapshot, error) {
	return a.Ensure(ctx)
}

func (a *swappingAnalyzer) Status() models.RunStatus { return models.RunStatus{} }

func (a *swappingAnalyzer) RecentRuns(context.Context, int) ([]models.RunRecord, error) {
	return nil, nil
}

func readySnapshot(id string, cp time.Time) *models.Snapshot {
	evs := []models.EventRecord{
		{Date: time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC), Name: "Embargo"},
		{Date: time.Date(2020, 6, 10, 0, 0, 0, 0, time.UTC), Name: "Cut"},
	}
	return &models.Snapshot{
		RunID: id,
		State: models.StateReady,
		Result: &models.AnalysisResult{
			Events:   evs,
			Estimate: models.PointEstimate{ChangePointDate: cp},
		},
	}
}

func TestEventsUseTheResultTheyChecked(t *testing.T) {
	first := readySnapshot("run-1", time.Date(2020, 1, 4, 0, 0, 0, 0, time.UTC))
	second := readySnapshot("run-2", time.Date(2020, 6, 4, 0, 0, 0, 0, time.UTC))
	svc := &swappingAnalyzer{current: first, next: second}

	e := echo.New()
	NewAnalysisEchoHandler(nil, svc, nil, RerunLimit{}).RegisterRoutes(e)

	rec := do(e, http.MethodGet, "/api/events?window_days=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var body models.EventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ChangePointDate != "2020-01-04" || len(body.Events) != 1 || body.Events[0].EventName != "Embargo" {
		t.Fatalf("events mixed two runs: %+v", body)
	}

	rec = do(e, http.MethodGet, "/api/events?window_days=10")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.ChangePointDate != "2020-06-04" || len(body.Events) != 1 || body.Events[0].EventName != "Cut" {
		t.Fatalf("second request should see the new run: %+v", body)
	}
}
