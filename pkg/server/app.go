package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"RegimeShift/internal/handler/ws"
	"RegimeShift/internal/scheduler"
	"RegimeShift/internal/usecase"
	"RegimeShift/pkg/config"
	xhttp "RegimeShift/pkg/http"
	pkgkafka "RegimeShift/pkg/kafka"
	applogger "RegimeShift/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	svc        *usecase.AnalysisService
	httpServer *xhttp.Server
	hub        *ws.Hub
	consumer   *pkgkafka.Consumer
	rerun      *usecase.KafkaRerunHandler
	sched      *scheduler.Scheduler
}

// New creates a new App. consumer, rerun and sched are optional.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.AnalysisService,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	consumer *pkgkafka.Consumer,
	rerun *usecase.KafkaRerunHandler,
	sched *scheduler.Scheduler,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		l:          l,
		svc:        svc,
		httpServer: httpServer,
		hub:        hub,
		consumer:   consumer,
		rerun:      rerun,
		sched:      sched,
	}
}

// Run starts every component and blocks until ctx is cancelled, a termination
// signal arrives or the HTTP server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := a.httpServer.Start()

	if a.consumer != nil && a.rerun != nil {
		a.consumer.RegisterHandler(a.rerun)
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer error", applogger.Error(err))
		} else {
			a.l.Info("kafka consumer started", applogger.String("topic", a.rerun.Topic()))
		}
	}

	if a.sched != nil {
		if err := a.sched.Register(); err != nil {
			a.l.Error("scheduler disabled", applogger.Error(err))
			a.sched = nil
		} else {
			a.sched.Start()
		}
	}

	if a.cfg.Analysis.ComputeOnStart {
		go a.warm(ctx)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			runErr = err
		}
	}

	a.shutdown()
	return runErr
}

// warm computes the first snapshot so early requests do not wait for inference.
func (a *App) warm(ctx context.Context) {
	start := time.Now()
	snap, err := a.svc.Warm(ctx)
	if err != nil {
		a.l.Warn("startup analysis abandoned", applogger.Error(err))
		return
	}
	if !snap.Ready() {
		a.l.Error("startup analysis failed",
			applogger.String("kind", string(snap.Failure.Kind)),
			applogger.String("error", snap.Failure.Message),
		)
		return
	}
	est := snap.Result.Estimate
	a.l.Info("startup analysis ready",
		applogger.String("run_id", snap.RunID),
		applogger.String("change_point", est.ChangePointDate.Format("2006-01-02")),
		applogger.Int("relevant_events", len(snap.Result.RelevantEvents)),
		applogger.Duration("took", time.Since(start)),
	)
}

// shutdown gracefully stops all services. Resources created by the injector are
// released by its cleanup function.
func (a *App) shutdown() {
	a.l.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	if a.sched != nil {
		a.sched.Stop()
	}

	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
}
