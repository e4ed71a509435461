package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"RegimeShift/internal/domain/models"
)

func newSQLiteStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	s, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "history", "runs.db"), "regime_runs")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func TestSQLiteRunStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ok := models.RunRecord{
		RunID: "run-1", Trigger: "startup", Engine: "gibbs", State: models.StateReady,
		StartedAt: base, CompletedAt: base.Add(3 * time.Second), Digest: "abc",
		Tau: 41, ChangePointDate: "2020-03-09", Mu1: 0.001, Mu2: -0.004, Sigma1: 0.02, Sigma2: 0.05,
	}
	failed := models.RunRecord{
		RunID: "run-2", Trigger: "rerun", Engine: "gibbs", State: models.StateFailed,
		StartedAt: base.Add(time.Minute), CompletedAt: base.Add(time.Minute + time.Second),
		ErrorKind: "DataError", ErrorMessage: "prices.csv: no such file",
	}
	for _, r := range []models.RunRecord{ok, failed} {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.RunID, err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].RunID != "run-2" || got[1].RunID != "run-1" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	back := got[1]
	if !back.StartedAt.Equal(ok.StartedAt) || !back.CompletedAt.Equal(ok.CompletedAt) {
		t.Fatalf("timestamps changed: %v %v", back.StartedAt, back.CompletedAt)
	}
	back.StartedAt, back.CompletedAt = ok.StartedAt, ok.CompletedAt
	if back != ok {
		t.Fatalf("ready run changed on the way through:\n got %+v\nwant %+v", back, ok)
	}
	if got[0].State != models.StateFailed || got[0].ErrorKind != "DataError" {
		t.Fatalf("failed run lost its failure: %+v", got[0])
	}

	got, err = s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "run-2" {
		t.Fatalf("limit not applied: %+v", got)
	}
}

func TestSQLiteRunStoreRejectsDuplicateRunID(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	r := models.RunRecord{RunID: "dup", State: models.StateReady, StartedAt: time.Unix(0, 0).UTC(), CompletedAt: time.Unix(1, 0).UTC()}
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, r); err == nil {
		t.Fatal("expected unique violation on second save")
	}
	if err := s.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
}
