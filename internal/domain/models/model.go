package models

import "math"

var logSqrt2Pi = 0.5 * math.Log(2*math.Pi)

// Normal is a Gaussian distribution.
type Normal struct {
	Mu    float64
	Sigma float64
}

func (n Normal) LogPDF(x float64) float64 {
	z := (x - n.Mu) / n.Sigma
	return -0.5*z*z - math.Log(n.Sigma) - logSqrt2Pi
}

// HalfNormal is a zero-centred Gaussian folded onto the positive axis.
type HalfNormal struct {
	Sigma float64
}

func (h HalfNormal) LogPDF(x float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	z := x / h.Sigma
	return -0.5*z*z - math.Log(h.Sigma) - logSqrt2Pi + math.Ln2
}

// DiscreteUniform puts equal mass on every integer in [Lower, Upper].
type DiscreteUniform struct {
	Lower int
	Upper int
}

func (d DiscreteUniform) LogPMF(k int) float64 {
	if k < d.Lower || k > d.Upper {
		return math.Inf(-1)
	}
	return -math.Log(float64(d.Upper - d.Lower + 1))
}

// Priors holds the prior scales of the regime parameters.
type Priors struct {
	MuSigma    float64 `json:"mu_sigma" default:"0.1" validate:"gt=0"`
	SigmaScale float64 `json:"sigma_scale" default:"0.1" validate:"gt=0"`
}

// DefaultPriors returns the standard prior scales.
func DefaultPriors() Priors {
	return Priors{MuSigma: 0.1, SigmaScale: 0.1}
}

// ModelSpec declares the two-regime single change-point model over a series of length M.
// Observation i follows regime 1 when i < tau and regime 2 otherwise.
type ModelSpec struct {
	M      int
	Tau    DiscreteUniform
	Mu1    Normal
	Mu2    Normal
	Sigma1 HalfNormal
	Sigma2 HalfNormal
}

// Regime returns 1 or 2 for observation i under change point tau.
func (s ModelSpec) Regime(i, tau int) int {
	if i < tau {
		return 1
	}
	return 2
}

// LogPrior is the joint log prior density of a draw.
func (s ModelSpec) LogPrior(p PosteriorSample) float64 {
	return s.Tau.LogPMF(p.Tau) +
		s.Mu1.LogPDF(p.Mu1) + s.Mu2.LogPDF(p.Mu2) +
		s.Sigma1.LogPDF(p.Sigma1) + s.Sigma2.LogPDF(p.Sigma2)
}

// LogLikelihood evaluates the hard-switch likelihood of x under a draw.
func (s ModelSpec) LogLikelihood(x []float64, p PosteriorSample) float64 {
	if p.Sigma1 <= 0 || p.Sigma2 <= 0 {
		return math.Inf(-1)
	}
	r1 := Normal{Mu: p.Mu1, Sigma: p.Sigma1}
	r2 := Normal{Mu: p.Mu2, Sigma: p.Sigma2}
	var ll float64
	for i, v := range x {
		if s.Regime(i, p.Tau) == 1 {
			ll += r1.LogPDF(v)
		} else {
			ll += r2.LogPDF(v)
		}
	}
	return ll
}

// LogPosterior is the unnormalised log posterior of a draw.
func (s ModelSpec) LogPosterior(x []float64, p PosteriorSample) float64 {
	lp := s.LogPrior(p)
	if math.IsInf(lp, -1) {
		return lp
	}
	return lp + s.LogLikelihood(x, p)
}
