package changepoint

import (
	"math"

	"RegimeShift/internal/domain/models"
)

// Prefix holds cumulative sums of x and x^2 so that segment sufficient
// statistics are O(1): Sum[k] and SumSq[k] cover x[0:k].
type Prefix struct {
	Sum   []float64
	SumSq []float64
}

func NewPrefix(x []float64) Prefix {
	p := Prefix{Sum: make([]float64, len(x)+1), SumSq: make([]float64, len(x)+1)}
	for i, v := range x {
		p.Sum[i+1] = p.Sum[i] + v
		p.SumSq[i+1] = p.SumSq[i] + v*v
	}
	return p
}

// N is the series length.
func (p Prefix) N() int { return len(p.Sum) - 1 }

// Segment returns count, sum and sum of squares of x[lo:hi].
func (p Prefix) Segment(lo, hi int) (n int, s, ss float64) {
	return hi - lo, p.Sum[hi] - p.Sum[lo], p.SumSq[hi] - p.SumSq[lo]
}

// segmentLogLik is the Gaussian log likelihood of a segment from its sufficient
// statistics, without the constant term.
func segmentLogLik(n int, s, ss, mu, sigma float64) float64 {
	if n == 0 {
		return 0
	}
	fn := float64(n)
	sq := ss - 2*mu*s + fn*mu*mu
	return -fn*math.Log(sigma) - sq/(2*sigma*sigma)
}

// TauLogLik fills out[tau] with the log likelihood of every candidate change
// point given the regime parameters in p. The shared constant is omitted.
func TauLogLik(pre Prefix, p models.PosteriorSample, out []float64) []float64 {
	m := pre.N()
	if cap(out) < m {
		out = make([]float64, m)
	}
	out = out[:m]
	for tau := 0; tau < m; tau++ {
		n1, s1, ss1 := pre.Segment(0, tau)
		n2, s2, ss2 := pre.Segment(tau, m)
		out[tau] = segmentLogLik(n1, s1, ss1, p.Mu1, p.Sigma1) + segmentLogLik(n2, s2, ss2, p.Mu2, p.Sigma2)
	}
	return out
}

// ProfilePoint is the maximum-likelihood fit for one candidate change point.
type ProfilePoint struct {
	Tau    int
	LogLik float64
	Mu1    float64
	Sigma1 float64
	Mu2    float64
	Sigma2 float64
}

// Profile evaluates the profile likelihood over every tau in [0, M-1] using
// per-segment maximum-likelihood means and scales. Degenerate segments
// (fewer than two points or zero spread) fall back to floor for their scale.
func Profile(x []float64, floor float64) []ProfilePoint {
	pre := NewPrefix(x)
	m := pre.N()
	out := make([]ProfilePoint, m)
	for tau := 0; tau < m; tau++ {
		n1, s1, ss1 := pre.Segment(0, tau)
		n2, s2, ss2 := pre.Segment(tau, m)
		mu1, sd1 := mle(n1, s1, ss1, floor)
		mu2, sd2 := mle(n2, s2, ss2, floor)
		out[tau] = ProfilePoint{
			Tau:    tau,
			LogLik: segmentLogLik(n1, s1, ss1, mu1, sd1) + segmentLogLik(n2, s2, ss2, mu2, sd2) - float64(m)*0.5*math.Log(2*math.Pi),
			Mu1:    mu1, Sigma1: sd1,
			Mu2: mu2, Sigma2: sd2,
		}
	}
	return out
}

func mle(n int, s, ss, floor float64) (mu, sigma float64) {
	if n == 0 {
		return 0, floor
	}
	fn := float64(n)
	mu = s / fn
	v := ss/fn - mu*mu
	if n < 2 || v <= floor*floor {
		return mu, floor
	}
	return mu, math.Sqrt(v)
}

// Best returns the profile point with the highest log likelihood.
func Best(points []ProfilePoint) ProfilePoint {
	best := points[0]
	for _, p := range points[1:] {
		if p.LogLik > best.LogLik {
			best = p
		}
	}
	return best
}
