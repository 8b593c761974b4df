package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Primary store Prometheus metrics.
var (
	StoreQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Store operation duration in seconds, including pool acquisition",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"op"},
	)

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Store operation failures by kind",
		},
		[]string{"op", "kind"}, // "unavailable" / "query"
	)

	StoreConnectAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "connect_attempts_total",
			Help:      "Startup connection attempts by store and result",
		},
		[]string{"store", "result"},
	)

	StoreDegraded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "degraded",
			Help:      "1 when the primary store failed startup and requests fail fast",
		},
	)

	StoreBreakerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open",
		},
	)
)

var storeMetricsRegistered bool

// RegisterStoreMetrics registers Prometheus store metrics. Must be called once from main.
func RegisterStoreMetrics() {
	if storeMetricsRegistered {
		return
	}
	prometheus.MustRegister(StoreQueryDuration)
	prometheus.MustRegister(StoreErrorsTotal)
	prometheus.MustRegister(StoreConnectAttemptsTotal)
	prometheus.MustRegister(StoreDegraded)
	prometheus.MustRegister(StoreBreakerState)
	storeMetricsRegistered = true
}

// StoreRecorder records store metrics. The zero value is a no-op.
type StoreRecorder struct {
	enabled bool
}

// NewStoreRecorder returns a recorder writing to the package-level collectors.
func NewStoreRecorder() StoreRecorder { return StoreRecorder{enabled: true} }

// ObserveQuery records one operation.
func (r StoreRecorder) ObserveQuery(op string, d time.Duration, errKind string) {
	if !r.enabled {
		return
	}
	StoreQueryDuration.WithLabelValues(op).Observe(d.Seconds())
	if errKind != "" {
		StoreErrorsTotal.WithLabelValues(op, errKind).Inc()
	}
}

// ConnectAttempt records a startup connection attempt.
func (r StoreRecorder) ConnectAttempt(store string, ok bool) {
	if !r.enabled {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	StoreConnectAttemptsTotal.WithLabelValues(store, result).Inc()
}

// SetDegraded flips the degraded gauge.
func (r StoreRecorder) SetDegraded(degraded bool) {
	if !r.enabled {
		return
	}
	if degraded {
		StoreDegraded.Set(1)
		return
	}
	StoreDegraded.Set(0)
}

// SetBreakerState records the breaker state as its numeric value.
func (r StoreRecorder) SetBreakerState(state int) {
	if !r.enabled {
		return
	}
	StoreBreakerState.Set(float64(state))
}
