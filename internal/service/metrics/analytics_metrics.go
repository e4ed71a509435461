package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// APILatency observes handler latency of the analysis API by endpoint.
	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "regimeshift",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of analysis endpoints",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
		[]string{"endpoint"},
	)

	// APIErrors counts non-2xx answers by endpoint and error kind.
	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "regimeshift",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by analysis endpoint",
		},
		[]string{"endpoint", "kind"},
	)

	// WSClients is the number of connected status subscribers.
	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "regimeshift",
			Subsystem: "ws",
			Name:      "clients",
			Help:      "Connected websocket status subscribers",
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, WSClients)
	})
}
