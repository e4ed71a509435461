package inference

import (
	"context"
	"sync/atomic"
	"time"

	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/domain/repository"
	domsvc "RegimeShift/internal/domain/service"
	applogger "RegimeShift/pkg/logger"
)

// Instrumented wraps an engine with a call counter, timing metrics and error logs.
type Instrumented struct {
	next    domsvc.InferenceEngine
	name    string
	metrics repository.Metrics
	l       *applogger.Logger
	calls   atomic.Int64
}

func NewInstrumented(next domsvc.InferenceEngine, m repository.Metrics, l *applogger.Logger) *Instrumented {
	return &Instrumented{next: next, name: domsvc.EngineName(next), metrics: m, l: l}
}

func (i *Instrumented) Name() string { return i.name }

// Calls returns the number of Sample invocations so far.
func (i *Instrumented) Calls() int64 { return i.calls.Load() }

func (i *Instrumented) Sample(ctx context.Context, spec models.ModelSpec, data models.ReturnSeries, cfg models.SamplerConfig) (models.PosteriorSamples, error) {
	i.calls.Add(1)
	start := time.Now()
	out, err := i.next.Sample(ctx, spec, data, cfg)
	took := time.Since(start)

	if i.metrics != nil {
		i.metrics.RecordInference(i.name, took.Seconds(), err != nil)
	}
	if err != nil && i.l != nil {
		i.l.Error("inference failed",
			applogger.String("engine", i.name),
			applogger.Int("m", spec.M),
			applogger.Duration("took_ms", took),
			applogger.Error(err),
		)
	}
	return out, err
}

var _ domsvc.InferenceEngine = (*Instrumented)(nil)
