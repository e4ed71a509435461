package inference

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"RegimeShift/internal/domain/models"
	domsvc "RegimeShift/internal/domain/service"
	"RegimeShift/internal/services/changepoint"
	applogger "RegimeShift/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	pcgStream    = 0x9e3779b97f4a7c15
	adaptWindow  = 50
	targetAccept = 0.44
	sigmaFloor   = 1e-4
)

// Gibbs samples the change-point posterior in process. Each sweep draws tau
// exactly from its discrete conditional, each mu from its conjugate Normal
// conditional and each sigma by random-walk Metropolis on log scale.
type Gibbs struct {
	maxRHat float64
	l       *applogger.Logger
}

type GibbsOption func(*Gibbs)

// WithMaxRHat fails a run whose split R-hat exceeds max on any parameter. Zero disables the check.
func WithMaxRHat(max float64) GibbsOption {
	return func(g *Gibbs) { g.maxRHat = max }
}

func WithGibbsLogger(l *applogger.Logger) GibbsOption {
	return func(g *Gibbs) { g.l = l }
}

func NewGibbs(opts ...GibbsOption) *Gibbs {
	g := &Gibbs{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gibbs) Name() string { return "gibbs" }

// Sample runs cfg.Chains independent chains in parallel. Chain c is seeded with
// cfg.Seed+c so results depend only on the seed and configuration.
func (g *Gibbs) Sample(ctx context.Context, spec models.ModelSpec, data models.ReturnSeries, cfg models.SamplerConfig) (models.PosteriorSamples, error) {
	if cfg.Draws < 1 || cfg.Chains < 1 || cfg.Tune < 0 {
		return models.PosteriorSamples{}, models.Errorf(models.KindInference, "gibbs.sample", "invalid sampler config %+v", cfg)
	}
	if spec.M != data.Len() || spec.M < 2 {
		return models.PosteriorSamples{}, models.Errorf(models.KindModel, "gibbs.sample", "model sized for %d observations, data has %d", spec.M, data.Len())
	}

	start := time.Now()
	x := data.Values
	pre := changepoint.NewPrefix(x)
	init := changepoint.Best(changepoint.Profile(x, sigmaFloor))

	out := models.PosteriorSamples{Chains: make([][]models.PosteriorSample, cfg.Chains)}
	eg, egCtx := errgroup.WithContext(ctx)
	for c := 0; c < cfg.Chains; c++ {
		eg.Go(func() error {
			ch := newChain(spec, pre, init, uint64(cfg.Seed)+uint64(c), c)
			draws, err := ch.run(egCtx, cfg.Tune, cfg.Draws)
			if err != nil {
				return models.NewError(models.KindInference, fmt.Sprintf("gibbs.chain[%d]", c), err)
			}
			out.Chains[c] = draws
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return models.PosteriorSamples{}, err
	}

	if g.maxRHat > 0 {
		for _, s := range Diagnose(out) {
			if !math.IsNaN(s.RHat) && s.RHat > g.maxRHat {
				return models.PosteriorSamples{}, models.Errorf(models.KindInference, "gibbs.sample", "chains did not converge: r_hat(%s)=%.3f > %.3f", s.Name, s.RHat, g.maxRHat)
			}
		}
	}

	if g.l != nil {
		g.l.Info("gibbs sampling done",
			applogger.Int("chains", cfg.Chains),
			applogger.Int("draws", cfg.Draws),
			applogger.Int("tune", cfg.Tune),
			applogger.Int("m", spec.M),
			applogger.Duration("took_ms", time.Since(start)),
		)
	}
	return out, nil
}

type chain struct {
	spec  models.ModelSpec
	pre   changepoint.Prefix
	rng   *rand.Rand
	state models.PosteriorSample

	step    [2]float64
	accepts [2]int
	ll      []float64
}

func newChain(spec models.ModelSpec, pre changepoint.Prefix, init changepoint.ProfilePoint, seed uint64, idx int) *chain {
	c := &chain{
		spec: spec,
		pre:  pre,
		rng:  rand.New(rand.NewPCG(seed, pcgStream)),
		step: [2]float64{0.5, 0.5},
		ll:   make([]float64, spec.M),
	}
	c.state = models.PosteriorSample{
		Tau: init.Tau,
		Mu1: init.Mu1, Sigma1: math.Max(init.Sigma1, sigmaFloor),
		Mu2: init.Mu2, Sigma2: math.Max(init.Sigma2, sigmaFloor),
	}
	// Chains after the first start from a random change point.
	if idx > 0 {
		c.state.Tau = c.rng.IntN(spec.M)
	}
	return c
}

func (c *chain) run(ctx context.Context, tune, draws int) ([]models.PosteriorSample, error) {
	out := make([]models.PosteriorSample, 0, draws)
	for it := 0; it < tune+draws; it++ {
		if it%200 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c.sweep()
		if it < tune {
			if (it+1)%adaptWindow == 0 {
				c.adapt()
			}
			continue
		}
		if !c.state.Finite() {
			return nil, fmt.Errorf("non-finite draw %d: %+v", it-tune, c.state)
		}
		out = append(out, c.state)
	}
	return out, nil
}

func (c *chain) sweep() {
	c.updateTau()
	m := c.spec.M
	n1, s1, ss1 := c.pre.Segment(0, c.state.Tau)
	n2, s2, ss2 := c.pre.Segment(c.state.Tau, m)

	c.state.Mu1 = c.drawMu(c.spec.Mu1, n1, s1, c.state.Sigma1)
	c.state.Mu2 = c.drawMu(c.spec.Mu2, n2, s2, c.state.Sigma2)
	c.state.Sigma1 = c.drawSigma(0, c.spec.Sigma1, n1, s1, ss1, c.state.Mu1, c.state.Sigma1)
	c.state.Sigma2 = c.drawSigma(1, c.spec.Sigma2, n2, s2, ss2, c.state.Mu2, c.state.Sigma2)
}

// updateTau draws tau from its full conditional. The prior is uniform, so the
// conditional is proportional to the likelihood.
func (c *chain) updateTau() {
	c.ll = changepoint.TauLogLik(c.pre, c.state, c.ll)
	maxLL := math.Inf(-1)
	for _, v := range c.ll {
		if v > maxLL {
			maxLL = v
		}
	}
	total := 0.0
	for i, v := range c.ll {
		w := math.Exp(v - maxLL)
		c.ll[i] = w
		total += w
	}
	u := c.rng.Float64() * total
	acc := 0.0
	for i, w := range c.ll {
		acc += w
		if u < acc {
			c.state.Tau = i
			return
		}
	}
	c.state.Tau = len(c.ll) - 1
}

// drawMu samples the conjugate Normal posterior of a segment mean. An empty
// segment leaves only the prior.
func (c *chain) drawMu(prior models.Normal, n int, s, sigma float64) float64 {
	prec := 1 / (prior.Sigma * prior.Sigma)
	num := prior.Mu * prec
	if n > 0 {
		v := sigma * sigma
		prec += float64(n) / v
		num += s / v
	}
	return num/prec + c.rng.NormFloat64()/math.Sqrt(prec)
}

func (c *chain) drawSigma(k int, prior models.HalfNormal, n int, s, ss, mu, sigma float64) float64 {
	sq := ss - 2*mu*s + float64(n)*mu*mu
	if sq < 0 {
		sq = 0
	}
	target := func(z float64) float64 {
		sd := math.Exp(z)
		return prior.LogPDF(sd) - float64(n)*z - sq/(2*sd*sd) + z
	}
	z := math.Log(sigma)
	prop := z + c.step[k]*c.rng.NormFloat64()
	if math.Log(c.rng.Float64()) < target(prop)-target(z) {
		c.accepts[k]++
		return math.Exp(prop)
	}
	return sigma
}

func (c *chain) adapt() {
	for k := range c.step {
		rate := float64(c.accepts[k]) / adaptWindow
		if rate > targetAccept {
			c.step[k] *= 1.25
		} else {
			c.step[k] /= 1.25
		}
		c.step[k] = math.Min(math.Max(c.step[k], 1e-3), 5)
		c.accepts[k] = 0
	}
}

var _ domsvc.InferenceEngine = (*Gibbs)(nil)
