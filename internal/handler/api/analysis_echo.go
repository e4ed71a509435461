package api

import (
	"context"
	"net/http"
	"time"

	models "RegimeShift/internal/domain/models"
	apimetrics "RegimeShift/internal/service/metrics"
	"RegimeShift/internal/service/ratelimit"
	"RegimeShift/internal/usecase"
	xhttp "RegimeShift/pkg/http"
	xlogger "RegimeShift/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Analyzer is the part of the analysis service the HTTP surface needs.
type Analyzer interface {
	Ensure(ctx context.Context) (*models.Snapshot, error)
	Rerun(ctx context.Context, trigger string) (*models.Snapshot, error)
	Status() models.RunStatus
	RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error)
}

// RerunLimit bounds POST /api/rerun per client.
type RerunLimit struct {
	Capacity  float64
	RefillSec float64
}

// AnalysisEchoHandler serves the analysis result and its auxiliary views.
type AnalysisEchoHandler struct {
	logger  *xlogger.Logger
	svc     Analyzer
	limiter *ratelimit.Limiter
	limit   RerunLimit
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, svc Analyzer, limiter *ratelimit.Limiter, limit RerunLimit) *AnalysisEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	if limit.Capacity < 1 {
		limit.Capacity = 1
	}
	apimetrics.Register()
	return &AnalysisEchoHandler{logger: logger, svc: svc, limiter: limiter, limit: limit}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/all_data", h.AllData)
	g.GET("/model_results", h.ModelResults)
	g.GET("/posterior", h.Posterior)
	g.GET("/events", h.Events)
	g.GET("/summary", h.Summary)
	g.GET("/status", h.Status)
	g.GET("/runs", h.Runs)
	g.POST("/rerun", h.Rerun)
	g.GET("/health", h.Health)
}

func observe(endpoint string, start time.Time) {
	apimetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// ready waits for the published snapshot. It writes the failure response itself
// and returns nil when the run is not usable.
func (h *AnalysisEchoHandler) ready(c echo.Context, endpoint string) (*models.AnalysisResult, error) {
	snap, err := h.svc.Ensure(c.Request().Context())
	if err != nil {
		apimetrics.APIErrors.WithLabelValues(endpoint, "unavailable").Inc()
		return nil, xhttp.ErrorResponse(c, http.StatusServiceUnavailable, "analysis still running: "+err.Error())
	}
	if !snap.Ready() {
		return nil, h.failed(c, endpoint, snap)
	}
	return snap.Result, nil
}

func (h *AnalysisEchoHandler) failed(c echo.Context, endpoint string, snap *models.Snapshot) error {
	kind, msg := string(models.KindInternal), "analysis did not produce a result"
	if snap != nil && snap.Failure != nil {
		kind, msg = string(snap.Failure.Kind), snap.Failure.Message
	}
	apimetrics.APIErrors.WithLabelValues(endpoint, kind).Inc()
	h.logger.Warn("serving failed analysis", xlogger.String("endpoint", endpoint), xlogger.String("kind", kind))
	return xhttp.ErrorResponse(c, http.StatusInternalServerError, msg)
}

// AllData returns the combined payload of the dashboard.
func (h *AnalysisEchoHandler) AllData(c echo.Context) error {
	defer observe("all_data", time.Now())
	res, err := h.ready(c, "all_data")
	if res == nil {
		return err
	}
	return c.JSON(http.StatusOK, usecase.ToAllData(res))
}

func (h *AnalysisEchoHandler) ModelResults(c echo.Context) error {
	defer observe("model_results", time.Now())
	res, err := h.ready(c, "model_results")
	if res == nil {
		return err
	}
	return c.JSON(http.StatusOK, usecase.ToModelResults(res.Estimate))
}

// Posterior returns the model results together with the tau distribution and trace summary.
func (h *AnalysisEchoHandler) Posterior(c echo.Context) error {
	defer observe("posterior", time.Now())
	res, err := h.ready(c, "posterior")
	if res == nil {
		return err
	}
	return c.JSON(http.StatusOK, usecase.ToPosterior(res.Estimate))
}

// Events recorrelates the change point of the result it serves with
// window_days, default 30.
func (h *AnalysisEchoHandler) Events(c echo.Context) error {
	defer observe("events", time.Now())
	req := &models.EventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		apimetrics.APIErrors.WithLabelValues("events", "bad_request").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.ready(c, "events")
	if res == nil {
		return err
	}
	date, evs := usecase.Recorrelate(res, req.WindowDays)
	return c.JSON(http.StatusOK, usecase.ToEvents(date, req.WindowDays, evs))
}

// Summary returns descriptive statistics of the analysed series.
func (h *AnalysisEchoHandler) Summary(c echo.Context) error {
	defer observe("summary", time.Now())
	res, err := h.ready(c, "summary")
	if res == nil {
		return err
	}
	return xhttp.SuccessResponse(c, usecase.Describe(res))
}

// Status never blocks on a run.
func (h *AnalysisEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.Status())
}

func (h *AnalysisEchoHandler) Runs(c echo.Context) error {
	defer observe("runs", time.Now())
	req := &models.RunsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	runs, err := h.svc.RecentRuns(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("run history query failed", xlogger.Error(err))
		apimetrics.APIErrors.WithLabelValues("runs", "history").Inc()
		return xhttp.AppErrorResponse(c, xhttp.InternalError("run history unavailable").WithError(err))
	}
	out := make([]models.RunRecordDTO, 0, len(runs))
	for _, r := range runs {
		out = append(out, usecase.ToRunDTO(r))
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

// Rerun forces a fresh analysis and answers with the resulting status.
func (h *AnalysisEchoHandler) Rerun(c echo.Context) error {
	defer observe("rerun", time.Now())
	if ok, wait := h.limiter.Allow("rerun:"+c.RealIP(), h.limit.Capacity, h.limit.RefillSec); !ok {
		apimetrics.APIErrors.WithLabelValues("rerun", "rate_limited").Inc()
		return xhttp.AppErrorResponse(c, xhttp.RateLimitedError("too many rerun requests", wait))
	}
	snap, err := h.svc.Rerun(c.Request().Context(), usecase.TriggerRerun)
	if err != nil {
		apimetrics.APIErrors.WithLabelValues("rerun", "unavailable").Inc()
		return xhttp.ErrorResponse(c, http.StatusServiceUnavailable, "rerun still running: "+err.Error())
	}
	if !snap.Ready() {
		return h.failed(c, "rerun", snap)
	}
	return xhttp.SuccessResponse(c, h.svc.Status())
}

// Health reports liveness and the analysis state. A failed analysis is not unhealthy.
func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	st := h.svc.Status()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"state":  st.State,
	})
}

var _ xhttp.Handler = (*AnalysisEchoHandler)(nil)
