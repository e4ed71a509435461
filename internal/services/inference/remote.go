package inference

import (
	"context"
	"time"

	"RegimeShift/internal/domain/models"
	domsvc "RegimeShift/internal/domain/service"
	xhttp "RegimeShift/pkg/http"
	"RegimeShift/pkg/util"
)

// Remote delegates sampling to an external sampler service over HTTP.
type Remote struct {
	client *xhttp.Client
}

// NewRemote builds a client for the sampler at baseURL. attempts bounds tries
// on transport errors and 5xx answers.
func NewRemote(baseURL string, timeout time.Duration, attempts int) *Remote {
	return &Remote{
		client: xhttp.NewClient(baseURL,
			xhttp.WithTimeout(timeout),
			xhttp.WithRetry(attempts, 50*time.Millisecond),
		),
	}
}

func (r *Remote) Name() string { return "remote" }

type samplePriors struct {
	MuSigma    float64 `json:"mu_sigma"`
	SigmaScale float64 `json:"sigma_scale"`
}

type sampleRequest struct {
	Dates   []string     `json:"dates"`
	Returns []float64    `json:"returns"`
	Priors  samplePriors `json:"priors"`
	Draws   int          `json:"draws"`
	Tune    int          `json:"tune"`
	Chains  int          `json:"chains"`
	Seed    int64        `json:"seed"`
}

type sampleResponse struct {
	Chains [][]models.PosteriorSample `json:"chains"`
	Error  string                     `json:"error,omitempty"`
}

// Sample posts the series and run configuration to {baseURL}/bcp/sample.
func (r *Remote) Sample(ctx context.Context, spec models.ModelSpec, data models.ReturnSeries, cfg models.SamplerConfig) (models.PosteriorSamples, error) {
	req := sampleRequest{
		Dates:   make([]string, len(data.Dates)),
		Returns: data.Values,
		Priors:  samplePriors{MuSigma: spec.Mu1.Sigma, SigmaScale: spec.Sigma1.Sigma},
		Draws:   cfg.Draws,
		Tune:    cfg.Tune,
		Chains:  cfg.Chains,
		Seed:    cfg.Seed,
	}
	for i, d := range data.Dates {
		req.Dates[i] = util.FormatDate(d)
	}

	var resp sampleResponse
	if err := r.client.PostJSON(ctx, "/bcp/sample", req, &resp); err != nil {
		return models.PosteriorSamples{}, models.NewError(models.KindInference, "remote.sample", err)
	}
	if resp.Error != "" {
		return models.PosteriorSamples{}, models.Errorf(models.KindInference, "remote.sample", "sampler: %s", resp.Error)
	}
	out := models.PosteriorSamples{Chains: resp.Chains}
	if out.Len() == 0 {
		return out, models.Errorf(models.KindInference, "remote.sample", "sampler returned no draws")
	}
	return out, nil
}

var _ domsvc.InferenceEngine = (*Remote)(nil)
