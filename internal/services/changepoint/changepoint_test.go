package changepoint

import (
	"math"
	"testing"
	"time"

	"RegimeShift/internal/domain/models"
)

func series(values ...float64) models.ReturnSeries {
	rs := models.ReturnSeries{Values: values}
	d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for range values {
		d = d.AddDate(0, 0, 1)
		rs.Dates = append(rs.Dates, d)
	}
	return rs
}

func TestBuildDeclaresPriors(t *testing.T) {
	spec, err := NewBuilder(models.DefaultPriors()).Build(series(0.01, -0.02, 0.03, 0.0))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if spec.M != 4 || spec.Tau.Lower != 0 || spec.Tau.Upper != 3 {
		t.Fatalf("unexpected tau support %+v (M=%d)", spec.Tau, spec.M)
	}
	if spec.Mu1.Sigma != 0.1 || spec.Mu2.Mu != 0 || spec.Sigma1.Sigma != 0.1 || spec.Sigma2.Sigma != 0.1 {
		t.Fatalf("unexpected priors %+v", spec)
	}
	if got := spec.Tau.LogPMF(2); math.Abs(got+math.Log(4)) > 1e-12 {
		t.Fatalf("tau prior not uniform: %v", got)
	}
	if !math.IsInf(spec.Tau.LogPMF(4), -1) {
		t.Fatal("tau = M must be outside the support")
	}
}

func TestBuildRebuildsPerLength(t *testing.T) {
	b := NewBuilder(models.Priors{})
	a, _ := b.Build(series(0.1, 0.2))
	c, _ := b.Build(series(0.1, 0.2, 0.3))
	if a.M == c.M || a.Tau.Upper != 1 || c.Tau.Upper != 2 {
		t.Fatalf("spec not length-parametric: %d %d", a.M, c.M)
	}
	if a.Mu1.Sigma != 0.1 {
		t.Fatalf("zero priors should fall back to defaults: %+v", a.Mu1)
	}
}

func TestBuildRejectsShortOrBadSeries(t *testing.T) {
	b := NewBuilder(models.DefaultPriors())
	for _, rs := range []models.ReturnSeries{series(), series(0.1), series(0.1, math.NaN())} {
		if _, err := b.Build(rs); !models.IsKind(err, models.KindModel) {
			t.Fatalf("expected ModelError for %v, got %v", rs.Values, err)
		}
	}
}

func TestRegimeIsHardSwitch(t *testing.T) {
	var spec models.ModelSpec
	for i := 0; i < 5; i++ {
		want := 2
		if i < 3 {
			want = 1
		}
		if got := spec.Regime(i, 3); got != want {
			t.Fatalf("i=%d: regime %d want %d", i, got, want)
		}
	}
	if spec.Regime(0, 0) != 2 {
		t.Fatal("tau=0 puts everything in regime 2")
	}
}

func TestTauLogLikMatchesFullLikelihood(t *testing.T) {
	x := []float64{0.01, -0.02, 0.015, 0.2, 0.25, 0.18}
	spec, _ := NewBuilder(models.DefaultPriors()).Build(series(x...))
	p := models.PosteriorSample{Mu1: 0.0, Sigma1: 0.02, Mu2: 0.2, Sigma2: 0.05}
	ll := TauLogLik(NewPrefix(x), p, nil)

	// The grid omits a constant shared by every tau.
	p.Tau = 0
	offset := spec.LogLikelihood(x, p) - ll[0]
	for tau := range ll {
		p.Tau = tau
		if d := spec.LogLikelihood(x, p) - ll[tau]; math.Abs(d-offset) > 1e-9 {
			t.Fatalf("tau=%d: offset %v differs from %v", tau, d, offset)
		}
	}
}

func TestProfileFindsObviousBreak(t *testing.T) {
	x := []float64{0.001, -0.002, 0.0015, -0.001, 0.002, 0.09, 0.11, 0.1, 0.095, 0.105}
	best := Best(Profile(x, 1e-4))
	if best.Tau != 5 {
		t.Fatalf("expected break at 5, got %d", best.Tau)
	}
	if best.Mu1 > 0.01 || best.Mu2 < 0.09 {
		t.Fatalf("unexpected regime means %+v", best)
	}
}
