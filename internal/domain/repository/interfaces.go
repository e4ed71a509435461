package repository

import (
	"context"

	"RegimeShift/internal/domain/models"
)

// RunStore persists the history of finished analysis runs.
type RunStore interface {
	Init(ctx context.Context) error // ensure tables
	Save(ctx context.Context, r models.RunRecord) error
	Recent(ctx context.Context, limit int) ([]models.RunRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// RunPublisher announces finished runs to downstream consumers.
type RunPublisher interface {
	PublishRun(ctx context.Context, r models.RunRecord) error
	Close() error
}

// EstimateCache keeps point estimates keyed by dataset digest and run configuration.
type EstimateCache interface {
	Get(ctx context.Context, key string) (*models.PointEstimate, bool, error)
	Set(ctx context.Context, key string, est *models.PointEstimate) error
}

type Metrics interface {
	RecordRun(outcome string, seconds float64)
	RecordInference(engine string, seconds float64, failed bool)
	RecordChangePoint(tau int, mu1, mu2, sigma1, sigma2 float64)
	RecordError(kind string)
}
