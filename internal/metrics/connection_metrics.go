package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"stealthcompany.com/devevent/internal/connection"
)

var (
	dbConnectAttemptsTotal *prometheus.CounterVec
	dbConnectDuration      *prometheus.HistogramVec
	dbConnectionState      prometheus.Gauge
	dbAcquireTotal         *prometheus.CounterVec

	connectionMetricsOnce sync.Once
)

// initializeConnectionMetrics registers the database connection metrics on first use
func initializeConnectionMetrics() {
	connectionMetricsOnce.Do(func() {
		dbConnectAttemptsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_connect_attempts_total",
				Help: "Total number of database connection attempts",
			},
			[]string{"driver", "result"},
		)

		dbConnectDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_connect_duration_seconds",
				Help:    "Time spent establishing a database connection",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
			},
			[]string{"driver", "result"},
		)

		dbConnectionState = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "db_connection_state",
				Help: "Connection manager state (0=empty, 1=pending, 2=ready, 3=failed)",
			},
		)

		dbAcquireTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_acquire_total",
				Help: "Total number of connection acquisitions by outcome",
			},
			[]string{"outcome"},
		)

		GetRegistry().MustRegister(
			dbConnectAttemptsTotal,
			dbConnectDuration,
			dbConnectionState,
			dbAcquireTotal,
		)
	})
}

// ConnectionObserver records connection manager events as Prometheus metrics
type ConnectionObserver struct{}

// NewConnectionObserver registers the connection metrics and returns an observer for them
func NewConnectionObserver() ConnectionObserver {
	initializeConnectionMetrics()
	return ConnectionObserver{}
}

// ConnectAttempt records the result and duration of one dial
func (ConnectionObserver) ConnectAttempt(driver string, err error, elapsed time.Duration) {
	initializeConnectionMetrics()

	result := "success"
	if err != nil {
		result = "failure"
	}

	dbConnectAttemptsTotal.WithLabelValues(driver, result).Inc()
	dbConnectDuration.WithLabelValues(driver, result).Observe(elapsed.Seconds())
}

// StateChanged records the manager's new state
func (ConnectionObserver) StateChanged(state connection.State) {
	initializeConnectionMetrics()
	dbConnectionState.Set(float64(state))
}

// Acquired counts an Acquire call by outcome
func (ConnectionObserver) Acquired(outcome connection.Outcome) {
	initializeConnectionMetrics()
	dbAcquireTotal.WithLabelValues(string(outcome)).Inc()
}
