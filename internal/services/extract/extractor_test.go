package extract

import (
	"math"
	"testing"
	"time"

	"RegimeShift/internal/domain/models"
)

func dates(n int) models.ReturnSeries {
	rs := models.ReturnSeries{}
	d := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		d = d.AddDate(0, 0, 1)
		rs.Dates = append(rs.Dates, d)
		rs.Values = append(rs.Values, 0)
	}
	return rs
}

func draws(taus ...int) models.PosteriorSamples {
	c := make([]models.PosteriorSample, 0, len(taus))
	for _, t := range taus {
		c = append(c, models.PosteriorSample{Tau: t, Mu1: 0.01, Sigma1: 0.02, Mu2: -0.01, Sigma2: 0.05})
	}
	return models.PosteriorSamples{Chains: [][]models.PosteriorSample{c}}
}

func TestSummarizePoolsChains(t *testing.T) {
	data := dates(4)
	s := models.PosteriorSamples{Chains: [][]models.PosteriorSample{
		{{Tau: 2, Mu1: 0.1, Sigma1: 1, Mu2: 0.3, Sigma2: 3}, {Tau: 2, Mu1: 0.3, Sigma1: 3, Mu2: 0.5, Sigma2: 5}},
		{{Tau: 2, Mu1: 0.2, Sigma1: 2, Mu2: 0.4, Sigma2: 4}},
	}}
	est, err := Summarize(s, data)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if est.Tau != 2 || !est.ChangePointDate.Equal(data.Dates[2]) {
		t.Fatalf("unexpected change point %d %v", est.Tau, est.ChangePointDate)
	}
	if math.Abs(est.Mu1-0.2) > 1e-12 || math.Abs(est.Mu2-0.4) > 1e-12 || est.Sigma1 != 2 || est.Sigma2 != 4 {
		t.Fatalf("unexpected means %+v", est)
	}
	if est.Draws != 3 || est.Chains != 2 {
		t.Fatalf("unexpected counts %d/%d", est.Draws, est.Chains)
	}
	if len(est.TauHistogram) != 1 || est.TauHistogram[0].Count != 3 {
		t.Fatalf("unexpected histogram %+v", est.TauHistogram)
	}
}

func TestSummarizeRoundsHalfToEven(t *testing.T) {
	data := dates(10)
	// mean 2.5 rounds to 2, mean 3.5 rounds to 4
	if est, _ := Summarize(draws(2, 3), data); est.Tau != 2 {
		t.Fatalf("2.5 rounded to %d", est.Tau)
	}
	if est, _ := Summarize(draws(3, 4), data); est.Tau != 4 {
		t.Fatalf("3.5 rounded to %d", est.Tau)
	}
	if est, _ := Summarize(draws(3, 3, 4), data); est.Tau != 3 {
		t.Fatalf("3.33 rounded to %d", est.Tau)
	}
}

func TestSummarizeIndexStaysInRange(t *testing.T) {
	data := dates(5)
	for _, taus := range [][]int{{4, 4, 4}, {0, 0}, {3, 4}, {4}} {
		est, err := Summarize(draws(taus...), data)
		if err != nil {
			t.Fatalf("summarize %v: %v", taus, err)
		}
		if est.Tau < 0 || est.Tau > 4 {
			t.Fatalf("tau %d out of range", est.Tau)
		}
		if est.ChangePointDate.Before(data.First()) || est.ChangePointDate.After(data.Last()) {
			t.Fatalf("date %v outside series", est.ChangePointDate)
		}
	}
}

func TestClampIndex(t *testing.T) {
	cases := []struct {
		v    float64
		m    int
		want int
	}{
		{5, 5, 4}, {-1, 5, 0}, {2, 5, 2}, {math.NaN(), 5, 0}, {100, 3, 2},
	}
	for _, c := range cases {
		if got := ClampIndex(c.v, c.m); got != c.want {
			t.Fatalf("ClampIndex(%v, %d) = %d, want %d", c.v, c.m, got, c.want)
		}
	}
}

func TestSummarizeErrors(t *testing.T) {
	data := dates(3)
	cases := map[string]models.PosteriorSamples{
		"empty":        {},
		"empty chains": {Chains: [][]models.PosteriorSample{{}, {}}},
		"tau too big":  draws(3),
		"tau negative": draws(-1),
		"nan":          {Chains: [][]models.PosteriorSample{{{Tau: 1, Mu1: math.NaN(), Sigma1: 1, Sigma2: 1}}}},
	}
	for name, s := range cases {
		if _, err := Summarize(s, data); !models.IsKind(err, models.KindExtraction) {
			t.Fatalf("%s: expected ExtractionError, got %v", name, err)
		}
	}
}

func TestSummarizeConstantDrawsAreExact(t *testing.T) {
	data := dates(5)
	chain := make([]models.PosteriorSample, 10)
	for i := range chain {
		chain[i] = models.PosteriorSample{Tau: 2, Mu1: 0.05, Mu2: 0.2, Sigma1: 0.02, Sigma2: 0.03}
	}
	s := models.PosteriorSamples{Chains: [][]models.PosteriorSample{chain, chain}}
	est, err := Summarize(s, data)
	if err != nil {
		t.Fatal(err)
	}
	if est.Mu1 != 0.05 || est.Mu2 != 0.2 || est.Sigma1 != 0.02 || est.Sigma2 != 0.03 || est.Tau != 2 {
		t.Fatalf("constant draws must summarize to themselves, got %+v", est)
	}
}
