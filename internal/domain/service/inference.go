package service

import (
	"context"

	"RegimeShift/internal/domain/models"
)

// InferenceEngine draws samples from the joint posterior of a change-point model.
// Implementations must be deterministic for an identical seed and configuration.
type InferenceEngine interface {
	Sample(ctx context.Context, spec models.ModelSpec, data models.ReturnSeries, cfg models.SamplerConfig) (models.PosteriorSamples, error)
}

// Named is implemented by engines that report a label for logs and metrics.
type Named interface {
	Name() string
}

// EngineName returns the engine's label, or "custom".
func EngineName(e InferenceEngine) string {
	if n, ok := e.(Named); ok {
		return n.Name()
	}
	return "custom"
}
