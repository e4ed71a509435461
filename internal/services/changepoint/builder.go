package changepoint

import (
	"math"

	"RegimeShift/internal/domain/models"
)

// Builder declares the two-regime model for a return series.
type Builder struct {
	priors models.Priors
}

func NewBuilder(p models.Priors) *Builder {
	if p.MuSigma <= 0 {
		p.MuSigma = models.DefaultPriors().MuSigma
	}
	if p.SigmaScale <= 0 {
		p.SigmaScale = models.DefaultPriors().SigmaScale
	}
	return &Builder{priors: p}
}

// Build returns a fresh spec sized to data. It never samples.
func (b *Builder) Build(data models.ReturnSeries) (models.ModelSpec, error) {
	m := data.Len()
	if m < 2 {
		return models.ModelSpec{}, models.Errorf(models.KindModel, "changepoint.build", "series has %d observations, need at least 2", m)
	}
	if len(data.Dates) != m {
		return models.ModelSpec{}, models.Errorf(models.KindModel, "changepoint.build", "series has %d dates for %d values", len(data.Dates), m)
	}
	for i, v := range data.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.ModelSpec{}, models.Errorf(models.KindModel, "changepoint.build", "non-finite return at index %d", i)
		}
	}
	return models.ModelSpec{
		M:      m,
		Tau:    models.DiscreteUniform{Lower: 0, Upper: m - 1},
		Mu1:    models.Normal{Mu: 0, Sigma: b.priors.MuSigma},
		Mu2:    models.Normal{Mu: 0, Sigma: b.priors.MuSigma},
		Sigma1: models.HalfNormal{Sigma: b.priors.SigmaScale},
		Sigma2: models.HalfNormal{Sigma: b.priors.SigmaScale},
	}, nil
}
