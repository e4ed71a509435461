package inference

import (
	"context"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/services/changepoint"
)

// synthetic builds a series with a clear shift in mean and scale at brk.
func synthetic(n, brk int, seed uint64) models.ReturnSeries {
	rng := rand.New(rand.NewPCG(seed, 1))
	rs := models.ReturnSeries{}
	d := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		v := 0.001 + 0.01*rng.NormFloat64()
		if i >= brk {
			v = -0.02 + 0.04*rng.NormFloat64()
		}
		d = d.AddDate(0, 0, 1)
		rs.Dates = append(rs.Dates, d)
		rs.Values = append(rs.Values, v)
	}
	return rs
}

func build(t *testing.T, rs models.ReturnSeries) models.ModelSpec {
	t.Helper()
	spec, err := changepoint.NewBuilder(models.DefaultPriors()).Build(rs)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return spec
}

func TestGibbsRecoversChangePoint(t *testing.T) {
	rs := synthetic(300, 180, 7)
	spec := build(t, rs)
	cfg := models.SamplerConfig{Draws: 400, Tune: 300, Chains: 2, Seed: 42}

	out, err := NewGibbs().Sample(context.Background(), spec, rs, cfg)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(out.Chains) != 2 || out.Len() != 800 {
		t.Fatalf("unexpected shape: %d chains, %d draws", len(out.Chains), out.Len())
	}
	var tau, mu1, s1, s2 float64
	for _, p := range out.Pooled() {
		if p.Tau < 0 || p.Tau >= spec.M {
			t.Fatalf("tau out of range: %d", p.Tau)
		}
		if p.Sigma1 <= 0 || p.Sigma2 <= 0 {
			t.Fatalf("non-positive sigma: %+v", p)
		}
		tau += float64(p.Tau)
		mu1 += p.Mu1
		s1 += p.Sigma1
		s2 += p.Sigma2
	}
	n := float64(out.Len())
	if got := tau / n; math.Abs(got-180) > 10 {
		t.Fatalf("posterior mean tau %v, want about 180", got)
	}
	if got := s1 / n; math.Abs(got-0.01) > 0.004 {
		t.Fatalf("sigma_1 %v, want about 0.01", got)
	}
	if got := s2 / n; math.Abs(got-0.04) > 0.012 {
		t.Fatalf("sigma_2 %v, want about 0.04", got)
	}
	if got := mu1 / n; math.Abs(got) > 0.01 {
		t.Fatalf("mu_1 %v, want near zero", got)
	}
}

func TestGibbsDeterministicForSeed(t *testing.T) {
	rs := synthetic(80, 40, 3)
	spec := build(t, rs)
	cfg := models.SamplerConfig{Draws: 50, Tune: 50, Chains: 3, Seed: 11}

	a, err := NewGibbs().Sample(context.Background(), spec, rs, cfg)
	if err != nil {
		t.Fatalf("sample a: %v", err)
	}
	b, err := NewGibbs().Sample(context.Background(), spec, rs, cfg)
	if err != nil {
		t.Fatalf("sample b: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed and config produced different draws")
	}

	cfg.Seed = 12
	c, _ := NewGibbs().Sample(context.Background(), spec, rs, cfg)
	if reflect.DeepEqual(a, c) {
		t.Fatal("different seeds produced identical draws")
	}
}

func TestGibbsRejectsBadInput(t *testing.T) {
	rs := synthetic(20, 10, 1)
	spec := build(t, rs)

	_, err := NewGibbs().Sample(context.Background(), spec, rs, models.SamplerConfig{Draws: 0, Chains: 1})
	if !models.IsKind(err, models.KindInference) {
		t.Fatalf("expected InferenceFailure for zero draws, got %v", err)
	}

	short := models.ReturnSeries{Dates: rs.Dates[:5], Values: rs.Values[:5]}
	_, err = NewGibbs().Sample(context.Background(), spec, short, models.DefaultSamplerConfig())
	if !models.IsKind(err, models.KindModel) {
		t.Fatalf("expected ModelError for mismatched spec, got %v", err)
	}
}

func TestGibbsHonoursCancelledContext(t *testing.T) {
	rs := synthetic(50, 25, 2)
	spec := build(t, rs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGibbs().Sample(ctx, spec, rs, models.SamplerConfig{Draws: 10, Tune: 10, Chains: 2, Seed: 1})
	if !models.IsKind(err, models.KindInference) {
		t.Fatalf("expected InferenceFailure on cancelled context, got %v", err)
	}
}

func TestSplitRHat(t *testing.T) {
	same := [][]float64{{1, 2, 1, 2, 1, 2}, {2, 1, 2, 1, 2, 1}}
	if r := SplitRHat(same); math.Abs(r-1) > 0.2 {
		t.Fatalf("mixed chains r_hat %v", r)
	}
	stuck := [][]float64{{0, 0, 0, 0}, {5, 5, 5, 5}}
	if r := SplitRHat(stuck); !math.IsInf(r, 1) {
		t.Fatalf("stuck chains r_hat %v", r)
	}
	constant := [][]float64{{3, 3, 3, 3}, {3, 3, 3, 3}}
	if r := SplitRHat(constant); r != 1 {
		t.Fatalf("constant chains r_hat %v", r)
	}
	apart := [][]float64{{0, 0.1, 0, 0.1}, {10, 10.1, 10, 10.1}}
	if r := SplitRHat(apart); r < 5 {
		t.Fatalf("separated chains r_hat %v", r)
	}
}

func TestDiagnoseSummaries(t *testing.T) {
	s := models.PosteriorSamples{Chains: [][]models.PosteriorSample{
		{{Tau: 1, Mu1: 0.1, Sigma1: 1, Mu2: 0.2, Sigma2: 2}, {Tau: 3, Mu1: 0.3, Sigma1: 1, Mu2: 0.2, Sigma2: 2}},
	}}
	sum := Diagnose(s)
	if len(sum) != 5 || sum[0].Name != "tau" || sum[0].Mean != 2 {
		t.Fatalf("unexpected summaries %+v", sum)
	}
	if math.Abs(sum[1].Mean-0.2) > 1e-12 {
		t.Fatalf("mu_1 mean %v", sum[1].Mean)
	}
}
