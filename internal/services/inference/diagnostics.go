package inference

import (
	"math"

	"RegimeShift/internal/domain/models"
	"RegimeShift/pkg/util"
)

var paramNames = [...]string{"tau", "mu_1", "sigma_1", "mu_2", "sigma_2"}

func paramValue(p models.PosteriorSample, k int) float64 {
	switch k {
	case 0:
		return float64(p.Tau)
	case 1:
		return p.Mu1
	case 2:
		return p.Sigma1
	case 3:
		return p.Mu2
	default:
		return p.Sigma2
	}
}

// Diagnose summarises every parameter over the pooled draws and reports its
// split R-hat across chains.
func Diagnose(s models.PosteriorSamples) []models.ParamSummary {
	out := make([]models.ParamSummary, 0, len(paramNames))
	for k, name := range paramNames {
		perChain := make([][]float64, 0, len(s.Chains))
		var pooled []float64
		for _, c := range s.Chains {
			vals := make([]float64, len(c))
			for i, p := range c {
				vals[i] = paramValue(p, k)
			}
			perChain = append(perChain, vals)
			pooled = append(pooled, vals...)
		}
		if len(pooled) == 0 {
			continue
		}
		ps := models.ParamSummary{
			Name: name,
			Mean: util.Mean(pooled),
			Q03:  util.Quantile(pooled, 0.03),
			Q97:  util.Quantile(pooled, 0.97),
			RHat: SplitRHat(perChain),
		}
		if len(pooled) > 1 {
			ps.SD = util.StdDev(pooled)
		}
		out = append(out, ps)
	}
	return out
}

// SplitRHat is the Gelman-Rubin statistic computed on chains split in half.
// Constant draws across all chains give 1; chains stuck at different
// constants give +Inf.
func SplitRHat(chains [][]float64) float64 {
	var halves [][]float64
	for _, c := range chains {
		h := len(c) / 2
		if h < 2 {
			continue
		}
		halves = append(halves, c[:h], c[len(c)-h:])
	}
	if len(halves) < 2 {
		return math.NaN()
	}
	n := len(halves[0])
	for _, h := range halves {
		if len(h) < n {
			n = len(h)
		}
	}

	means := make([]float64, len(halves))
	w := 0.0
	for i, h := range halves {
		h = h[:n]
		means[i] = util.Mean(h)
		w += variance(h, means[i])
	}
	w /= float64(len(halves))
	grand := util.Mean(means)
	b := variance(means, grand) * float64(n)

	if w == 0 {
		if b == 0 {
			return 1
		}
		return math.Inf(1)
	}
	fn := float64(n)
	vhat := (fn-1)/fn*w + b/fn
	return math.Sqrt(vhat / w)
}

func variance(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs)-1)
}
