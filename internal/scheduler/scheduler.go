package scheduler

import (
	"context"
	"fmt"
	"time"

	"RegimeShift/internal/domain/models"
	"RegimeShift/internal/usecase"
	applogger "RegimeShift/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Rerunner forces a fresh analysis.
type Rerunner interface {
	Rerun(ctx context.Context, trigger string) (*models.Snapshot, error)
}

// Scheduler reruns the analysis on a cron spec with a seconds field.
type Scheduler struct {
	cron    *cron.Cron
	svc     Rerunner
	spec    string
	timeout time.Duration
	l       *applogger.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a scheduler. A zero timeout lets a scheduled run take as long as it needs.
func New(svc Rerunner, spec string, timeout time.Duration, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	l = l.With(applogger.String("component", "scheduler"))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{l}),
			cron.WithChain(cron.Recover(cronLogger{l}), cron.SkipIfStillRunning(cronLogger{l})),
		),
		svc:     svc,
		spec:    spec,
		timeout: timeout,
		l:       l,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds the rerun job. It fails on an invalid spec.
func (s *Scheduler) Register() error {
	if _, err := s.cron.AddFunc(s.spec, s.RunNow); err != nil {
		return fmt.Errorf("register rerun job %q: %w", s.spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.l.Info("scheduler started", applogger.String("spec", s.spec))
}

// Stop cancels a scheduled run in flight and waits for the job to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.l.Info("scheduler stopped")
}

// Next returns the next activation time, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	for _, e := range s.cron.Entries() {
		return e.Next
	}
	return time.Time{}
}

// RunNow executes the rerun job once.
func (s *Scheduler) RunNow() {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	snap, err := s.svc.Rerun(ctx, usecase.TriggerSchedule)
	if err != nil {
		s.l.Warn("scheduled rerun not awaited", applogger.Error(err))
		return
	}
	if !snap.Ready() {
		msg := "no result"
		if snap.Failure != nil {
			msg = snap.Failure.Message
		}
		s.l.Error("scheduled rerun failed", applogger.String("error", msg))
		return
	}
	s.l.Info("scheduled rerun done",
		applogger.String("run_id", snap.RunID),
		applogger.Duration("took", time.Since(start)),
	)
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	l *applogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(kvFields(keysAndValues), applogger.Error(err))...)
}

func kvFields(kv []interface{}) []applogger.Field {
	fields := make([]applogger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, applogger.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
