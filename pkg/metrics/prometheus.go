package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	inferenceTotal   *prometheus.CounterVec
	inferenceLatency *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	changePoint      prometheus.Gauge
	regime           *prometheus.GaugeVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimeshift_runs_total",
				Help: "Total number of analysis runs by outcome",
			},
			[]string{"outcome"},
		),
		runDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regimeshift_run_duration_seconds",
				Help:    "Duration of analysis runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"outcome"},
		),
		inferenceTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimeshift_inference_calls_total",
				Help: "Total number of inference engine invocations",
			},
			[]string{"engine", "status"},
		),
		inferenceLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "regimeshift_inference_duration_seconds",
				Help:    "Duration of posterior sampling in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"engine"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "regimeshift_errors_total",
				Help: "Total number of errors encountered by kind",
			},
			[]string{"kind"},
		),
		changePoint: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "regimeshift_change_point_index",
				Help: "Index of the last detected change point in the return series",
			},
		),
		regime: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "regimeshift_regime_parameter",
				Help: "Posterior mean of the regime parameters of the last run",
			},
			[]string{"regime", "param"},
		),
	}
}

// RecordRun records a finished run.
func (r *Recorder) RecordRun(outcome string, seconds float64) {
	r.runsTotal.WithLabelValues(outcome).Inc()
	r.runDuration.WithLabelValues(outcome).Observe(seconds)
}

// RecordInference records one sampling call.
func (r *Recorder) RecordInference(engine string, seconds float64, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	r.inferenceTotal.WithLabelValues(engine, status).Inc()
	r.inferenceLatency.WithLabelValues(engine).Observe(seconds)
}

// RecordChangePoint publishes the last point estimate.
func (r *Recorder) RecordChangePoint(tau int, mu1, mu2, sigma1, sigma2 float64) {
	r.changePoint.Set(float64(tau))
	r.regime.WithLabelValues("1", "mu").Set(mu1)
	r.regime.WithLabelValues("2", "mu").Set(mu2)
	r.regime.WithLabelValues("1", "sigma").Set(sigma1)
	r.regime.WithLabelValues("2", "sigma").Set(sigma2)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
