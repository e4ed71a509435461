package events

import (
	"testing"
	"time"

	"RegimeShift/internal/domain/models"
)

var cp = time.Date(2008, 7, 15, 0, 0, 0, 0, time.UTC)

func ev(name string, offsetDays int) models.EventRecord {
	return models.EventRecord{Date: cp.AddDate(0, 0, offsetDays), Name: name}
}

func TestCorrelateBoundary(t *testing.T) {
	events := []models.EventRecord{ev("in+30", 30), ev("out+31", 31), ev("in-30", -30), ev("out-31", -31)}
	got := Correlate(cp, events, 30)
	if len(got) != 2 || got[0].Name != "in-30" || got[1].Name != "in+30" {
		t.Fatalf("unexpected selection %+v", got)
	}
}

func TestCorrelateOrdersStably(t *testing.T) {
	events := []models.EventRecord{ev("late", 5), ev("tie-a", 0), ev("early", -3), ev("tie-b", 0)}
	got := Correlate(cp, events, DefaultWindowDays)
	want := []string{"early", "tie-a", "tie-b", "late"}
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Name != w {
			t.Fatalf("position %d: got %s want %s", i, got[i].Name, w)
		}
	}
}

func TestCorrelateEmpty(t *testing.T) {
	if got := Correlate(cp, nil, 30); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
	if got := Correlate(cp, []models.EventRecord{ev("far", 400)}, 30); len(got) != 0 {
		t.Fatalf("expected no matches, got %+v", got)
	}
}

func TestCorrelateZeroAndNegativeWindow(t *testing.T) {
	events := []models.EventRecord{ev("same", 0), ev("next", 1)}
	for _, w := range []int{0, -5} {
		got := Correlate(cp, events, w)
		if len(got) != 1 || got[0].Name != "same" {
			t.Fatalf("window %d: unexpected %+v", w, got)
		}
	}
}

func TestCorrelateDoesNotMutateInput(t *testing.T) {
	events := []models.EventRecord{ev("b", 2), ev("a", 1)}
	_ = Correlate(cp, events, 30)
	if events[0].Name != "b" {
		t.Fatal("input reordered")
	}
}
