package extract

import (
	"math"

	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/services/inference"
)

const op = "extract.summarize"

// Summarize reduces posterior draws to point estimates. Continuous parameters
// are pooled means; tau is the mean rounded half to even, clamped to [0, M-1].
func Summarize(samples models.PosteriorSamples, data models.ReturnSeries) (models.PointEstimate, error) {
	var est models.PointEstimate
	m := data.Len()
	if m == 0 || len(data.Dates) != m {
		return est, models.Errorf(models.KindExtraction, op, "return series is empty or misaligned")
	}
	pooled := samples.Pooled()
	if len(pooled) == 0 {
		return est, models.Errorf(models.KindExtraction, op, "no posterior samples")
	}

	var tau, mu1, mu2, s1, s2 runningMean
	counts := make(map[int]int)
	for i, p := range pooled {
		if p.Tau < 0 || p.Tau >= m {
			return est, models.Errorf(models.KindExtraction, op, "draw %d: tau %d outside [0, %d]", i, p.Tau, m-1)
		}
		if !p.Finite() {
			return est, models.Errorf(models.KindExtraction, op, "draw %d: non-finite parameters", i)
		}
		counts[p.Tau]++
		tau.add(float64(p.Tau))
		mu1.add(p.Mu1)
		mu2.add(p.Mu2)
		s1.add(p.Sigma1)
		s2.add(p.Sigma2)
	}
	idx := ClampIndex(math.RoundToEven(tau.m), m)

	est = models.PointEstimate{
		Tau:             idx,
		ChangePointDate: data.Dates[idx],
		Mu1:             mu1.m,
		Mu2:             mu2.m,
		Sigma1:          s1.m,
		Sigma2:          s2.m,
		TauHistogram:    histogram(counts, data),
		Trace:           trace(samples),
		Draws:           len(pooled),
		Chains:          len(samples.Chains),
	}
	for _, ps := range est.Trace {
		if ps.Name == "tau" {
			est.TauLow = data.Dates[ClampIndex(math.Floor(ps.Q03), m)]
			est.TauHigh = data.Dates[ClampIndex(math.Ceil(ps.Q97), m)]
		}
	}
	return est, nil
}

// runningMean is updated incrementally so identical draws average to exactly
// their common value.
type runningMean struct {
	m float64
	k int
}

func (r *runningMean) add(x float64) {
	r.k++
	r.m += (x - r.m) / float64(r.k)
}

// ClampIndex converts v to an index within [0, m-1].
func ClampIndex(v float64, m int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > float64(m-1) {
		return m - 1
	}
	return int(v)
}

func histogram(counts map[int]int, data models.ReturnSeries) []models.TauBin {
	out := make([]models.TauBin, 0, len(counts))
	for i := 0; i < data.Len(); i++ {
		if c, ok := counts[i]; ok {
			out = append(out, models.TauBin{Index: i, Date: data.Dates[i], Count: c})
		}
	}
	return out
}

// trace keeps only finite diagnostics so the summary stays encodable.
func trace(samples models.PosteriorSamples) []models.ParamSummary {
	out := inference.Diagnose(samples)
	for i := range out {
		if math.IsNaN(out[i].RHat) || math.IsInf(out[i].RHat, 0) {
			out[i].RHat = 0
		}
		if math.IsNaN(out[i].SD) {
			out[i].SD = 0
		}
	}
	return out
}
