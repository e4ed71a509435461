package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"RegimeShift/internal/domain/models"
	domrepo "RegimeShift/internal/domain/repository"
	domsvc "RegimeShift/internal/domain/service"
	"RegimeShift/internal/services/events"
	"RegimeShift/internal/services/extract"
	"RegimeShift/internal/services/series"
	applogger "RegimeShift/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrNotReady is returned by read operations before a successful run has been published.
var ErrNotReady = errors.New("analysis not ready")

const flightKey = "analysis"

// Trigger labels for run records.
const (
	TriggerStartup  = "startup"
	TriggerRequest  = "request"
	TriggerRerun    = "rerun"
	TriggerSchedule = "schedule"
	TriggerKafka    = "kafka"
)

// DatasetLoader loads and prepares the input series.
type DatasetLoader interface {
	Load(ctx context.Context, pricePath, eventPath string) (*models.Dataset, error)
}

// ModelBuilder declares the change-point model for a return series.
type ModelBuilder interface {
	Build(data models.ReturnSeries) (models.ModelSpec, error)
}

// AnalysisConfig holds the run parameters of the service.
type AnalysisConfig struct {
	PricesPath string
	EventsPath string
	WindowDays int
	Sampler    models.SamplerConfig
	Priors     models.Priors
	RunTimeout time.Duration
}

// Listener is notified after every published snapshot.
type Listener func(ctx context.Context, snap *models.Snapshot)

// AnalysisService runs the pipeline once, publishes an immutable snapshot and
// serves it to readers. Concurrent triggers share one run.
type AnalysisService struct {
	cfg     AnalysisConfig
	loader  DatasetLoader
	builder ModelBuilder
	engine  domsvc.InferenceEngine

	cache     domrepo.EstimateCache
	store     domrepo.RunStore
	publisher domrepo.RunPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger

	snap    atomic.Pointer[models.Snapshot]
	running atomic.Bool
	runs    atomic.Int64
	group   singleflight.Group

	mu        sync.RWMutex
	listeners []Listener

	now   func() time.Time
	newID func() string
}

func NewAnalysisService(cfg AnalysisConfig, loader DatasetLoader, builder ModelBuilder, engine domsvc.InferenceEngine) *AnalysisService {
	if cfg.WindowDays < 0 {
		cfg.WindowDays = events.DefaultWindowDays
	}
	return &AnalysisService{
		cfg:     cfg,
		loader:  loader,
		builder: builder,
		engine:  engine,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *AnalysisService) SetCache(c domrepo.EstimateCache)    { s.cache = c }
func (s *AnalysisService) SetRunStore(st domrepo.RunStore)     { s.store = st }
func (s *AnalysisService) SetPublisher(p domrepo.RunPublisher) { s.publisher = p }
func (s *AnalysisService) SetMetrics(m domrepo.Metrics)        { s.metrics = m }
func (s *AnalysisService) SetLogger(l *applogger.Logger)       { s.l = l }
func (s *AnalysisService) Config() AnalysisConfig              { return s.cfg }
func (s *AnalysisService) Snapshot() *models.Snapshot          { return s.snap.Load() }
func (s *AnalysisService) Engine() domsvc.InferenceEngine      { return s.engine }

// Subscribe registers a listener for published snapshots.
func (s *AnalysisService) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Ensure returns the published snapshot, running the pipeline first if nothing
// has been published yet. The returned error is only ever the caller's context error.
func (s *AnalysisService) Ensure(ctx context.Context) (*models.Snapshot, error) {
	if cur := s.snap.Load(); cur != nil {
		return cur, nil
	}
	return s.run(ctx, false, TriggerRequest)
}

// Warm runs the pipeline at process start unless a snapshot exists already.
func (s *AnalysisService) Warm(ctx context.Context) (*models.Snapshot, error) {
	return s.run(ctx, false, TriggerStartup)
}

// Rerun starts a fresh run, or joins one already in flight, and returns its outcome.
func (s *AnalysisService) Rerun(ctx context.Context, trigger string) (*models.Snapshot, error) {
	if trigger == "" {
		trigger = TriggerRerun
	}
	return s.run(ctx, true, trigger)
}

func (s *AnalysisService) run(ctx context.Context, force bool, trigger string) (*models.Snapshot, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(flightKey, func() (interface{}, error) {
		if !force {
			if cur := s.snap.Load(); cur != nil {
				return cur, nil
			}
		}
		return s.execute(runCtx, trigger), nil
	})
	select {
	case r := <-ch:
		return r.Val.(*models.Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Status reports the lifecycle state without the result payload.
func (s *AnalysisService) Status() models.RunStatus {
	st := models.RunStatus{
		State:   models.StateUninitialized,
		Running: s.running.Load(),
		Runs:    s.runs.Load(),
	}
	if cur := s.snap.Load(); cur != nil {
		st.State = cur.State
		st.RunID = cur.RunID
		st.StartedAt = cur.StartedAt
		st.CompletedAt = cur.CompletedAt
		st.Failure = cur.Failure
	}
	if st.Running {
		st.State = models.StateRunning
	}
	return st
}

func (s *AnalysisService) execute(ctx context.Context, trigger string) *models.Snapshot {
	s.running.Store(true)
	defer s.running.Store(false)

	snap := &models.Snapshot{RunID: s.newID(), StartedAt: s.now()}
	if s.l != nil {
		s.l.Info("analysis run started", applogger.String("run_id", snap.RunID), applogger.String("trigger", trigger))
	}

	runCtx := ctx
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	res, err := s.compute(runCtx, snap.RunID)
	snap.CompletedAt = s.now()
	if err != nil {
		kind := models.KindOf(err)
		snap.State = models.StateFailed
		snap.Failure = &models.Failure{Kind: kind, Message: err.Error()}
		if s.metrics != nil {
			s.metrics.RecordError(string(kind))
		}
		if s.l != nil {
			s.l.Error("analysis run failed",
				applogger.String("run_id", snap.RunID),
				applogger.String("kind", string(kind)),
				applogger.Error(err),
			)
		}
	} else {
		snap.State = models.StateReady
		snap.Result = res
		if s.metrics != nil {
			e := res.Estimate
			s.metrics.RecordChangePoint(e.Tau, e.Mu1, e.Mu2, e.Sigma1, e.Sigma2)
		}
		if s.l != nil {
			s.l.Info("analysis run ready",
				applogger.String("run_id", snap.RunID),
				applogger.String("change_point_date", res.Estimate.ChangePointDate.Format(models.DateLayout)),
				applogger.Int("tau", res.Estimate.Tau),
				applogger.Int("relevant_events", len(res.RelevantEvents)),
				applogger.Duration("took_ms", snap.CompletedAt.Sub(snap.StartedAt)),
			)
		}
	}

	s.snap.Store(snap)
	s.runs.Add(1)
	if s.metrics != nil {
		s.metrics.RecordRun(string(snap.State), snap.CompletedAt.Sub(snap.StartedAt).Seconds())
	}
	s.record(ctx, snap, trigger)
	s.notify(ctx, snap)
	return snap
}

func (s *AnalysisService) compute(ctx context.Context, runID string) (*models.AnalysisResult, error) {
	ds, err := s.loader.Load(ctx, s.cfg.PricesPath, s.cfg.EventsPath)
	if err != nil {
		return nil, err
	}
	spec, err := s.builder.Build(ds.Returns)
	if err != nil {
		return nil, err
	}

	key := s.cacheKey(ds.Digest)
	est, ok := s.cachedEstimate(ctx, key, ds.Returns)
	if !ok {
		samples, err := s.engine.Sample(ctx, spec, ds.Returns, s.cfg.Sampler)
		if err != nil {
			var ae *models.AnalysisError
			if !errors.As(err, &ae) {
				err = models.NewError(models.KindInference, "inference.sample", err)
			}
			return nil, err
		}
		e, err := extract.Summarize(samples, ds.Returns)
		if err != nil {
			return nil, err
		}
		est = &e
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, est); err != nil && s.l != nil {
				s.l.Warn("estimate cache set failed", applogger.String("run_id", runID), applogger.Error(err))
			}
		}
	}

	return &models.AnalysisResult{
		Digest:         ds.Digest,
		PricesRaw:      ds.Prices,
		Preprocessed:   ds.Preprocessed,
		Returns:        ds.Returns,
		Events:         ds.Events,
		Estimate:       *est,
		RelevantEvents: events.Correlate(est.ChangePointDate, ds.Events, s.cfg.WindowDays),
		WindowDays:     s.cfg.WindowDays,
	}, nil
}

// cachedEstimate returns a cached estimate only if it is a valid index into data.
func (s *AnalysisService) cachedEstimate(ctx context.Context, key string, data models.ReturnSeries) (*models.PointEstimate, bool) {
	if s.cache == nil {
		return nil, false
	}
	est, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		if s.l != nil {
			s.l.Warn("estimate cache get failed", applogger.Error(err))
		}
		return nil, false
	}
	if !ok || est == nil || est.Tau < 0 || est.Tau >= data.Len() || !est.ChangePointDate.Equal(data.Dates[est.Tau]) {
		return nil, false
	}
	if s.l != nil {
		s.l.Debug("estimate cache hit", applogger.String("key", key))
	}
	return est, true
}

func (s *AnalysisService) cacheKey(digest string) string {
	c := s.cfg.Sampler
	return fmt.Sprintf("estimate:%s:%s:d%d:t%d:c%d:s%d:p%g/%g",
		domsvc.EngineName(s.engine), digest, c.Draws, c.Tune, c.Chains, c.Seed, s.cfg.Priors.MuSigma, s.cfg.Priors.SigmaScale)
}

func (s *AnalysisService) record(ctx context.Context, snap *models.Snapshot, trigger string) {
	if s.store == nil && s.publisher == nil {
		return
	}
	rec := ToRunRecord(snap, trigger, domsvc.EngineName(s.engine))
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil && s.l != nil {
			s.l.Warn("run history save failed", applogger.String("run_id", rec.RunID), applogger.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishRun(ctx, rec); err != nil && s.l != nil {
			s.l.Warn("run publish failed", applogger.String("run_id", rec.RunID), applogger.Error(err))
		}
	}
}

func (s *AnalysisService) notify(ctx context.Context, snap *models.Snapshot) {
	s.mu.RLock()
	ls := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range ls {
		fn(ctx, snap)
	}
}

// RelevantEvents recorrelates the published change point with the catalog
// using windowDays instead of the configured window.
func (s *AnalysisService) RelevantEvents(windowDays int) (time.Time, []models.EventRecord, error) {
	cur := s.snap.Load()
	if !cur.Ready() {
		return time.Time{}, nil, ErrNotReady
	}
	d, evs := Recorrelate(cur.Result, windowDays)
	return d, evs, nil
}

// Summary describes the dataset of the published result.
func (s *AnalysisService) Summary() (models.SeriesSummary, error) {
	cur := s.snap.Load()
	if !cur.Ready() {
		return models.SeriesSummary{}, ErrNotReady
	}
	return Describe(cur.Result), nil
}

// Recorrelate selects the events of res within windowDays of its change point.
func Recorrelate(res *models.AnalysisResult, windowDays int) (time.Time, []models.EventRecord) {
	d := res.Estimate.ChangePointDate
	return d, events.Correlate(d, res.Events, windowDays)
}

// Describe summarizes the series res was computed from.
func Describe(res *models.AnalysisResult) models.SeriesSummary {
	return series.Describe(&models.Dataset{Prices: res.PricesRaw, Events: res.Events, Returns: res.Returns})
}

// RecentRuns lists persisted run history, newest first.
func (s *AnalysisService) RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	if s.store == nil {
		return []models.RunRecord{}, nil
	}
	return s.store.Recent(ctx, limit)
}
