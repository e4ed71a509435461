package models

import "math"

// PosteriorSample is one joint draw of the five latents.
type PosteriorSample struct {
	Tau    int     `json:"tau"`
	Mu1    float64 `json:"mu_1"`
	Sigma1 float64 `json:"sigma_1"`
	Mu2    float64 `json:"mu_2"`
	Sigma2 float64 `json:"sigma_2"`
}

// Finite reports whether every continuous parameter is a finite number.
func (p PosteriorSample) Finite() bool {
	for _, v := range [...]float64{p.Mu1, p.Sigma1, p.Mu2, p.Sigma2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// PosteriorSamples holds draws grouped by chain, in draw order.
type PosteriorSamples struct {
	Chains [][]PosteriorSample `json:"chains"`
}

// Len returns the pooled number of draws.
func (p PosteriorSamples) Len() int {
	n := 0
	for _, c := range p.Chains {
		n += len(c)
	}
	return n
}

// Pooled returns all draws of all chains, chain by chain.
func (p PosteriorSamples) Pooled() []PosteriorSample {
	out := make([]PosteriorSample, 0, p.Len())
	for _, c := range p.Chains {
		out = append(out, c...)
	}
	return out
}

// SamplerConfig enumerates the run configuration handed to an inference engine.
type SamplerConfig struct {
	Draws  int   `json:"draws" default:"2000" validate:"gte=1"`
	Tune   int   `json:"tune" default:"1000" validate:"gte=0"`
	Chains int   `json:"chains" default:"2" validate:"gte=1,lte=64"`
	Seed   int64 `json:"seed" default:"42"`
}

// DefaultSamplerConfig mirrors the struct defaults.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{Draws: 2000, Tune: 1000, Chains: 2, Seed: 42}
}

// ParamSummary is the trace summary of one parameter.
type ParamSummary struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
	Q03  float64 `json:"q03"`
	Q97  float64 `json:"q97"`
	RHat float64 `json:"r_hat,omitempty"`
}
