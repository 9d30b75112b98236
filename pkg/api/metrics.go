package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRequestsTotal       = "leaderboard_http_requests_total"
	MetricRequestDuration     = "leaderboard_http_request_duration_seconds"
	MetricSessionsActive      = "leaderboard_sessions_active"
	MetricSessionActions      = "leaderboard_session_actions_total"
	MetricDatasetEntries      = "leaderboard_dataset_entries"
	MetricDatasetRefreshes    = "leaderboard_dataset_refreshes_total"
	MetricCountComputations   = "leaderboard_count_computations_total"
	MetricCountComputeSeconds = "leaderboard_count_compute_seconds"
)

// Metrics holds the server's Prometheus collectors. The collectors are not
// registered until Register is called.
type Metrics struct {
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	sessions         prometheus.Gauge
	sessionActions   *prometheus.CounterVec
	entries          prometheus.Gauge
	refreshes        *prometheus.CounterVec
	countComputes    prometheus.Counter
	countComputeTime prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRequestsTotal,
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRequestDuration,
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricSessionsActive,
			Help: "Open websocket sessions",
		}),
		sessionActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSessionActions,
				Help: "Actions received over websocket sessions by type and outcome",
			},
			[]string{"type", "status"},
		),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricDatasetEntries,
			Help: "Entries in the loaded dataset",
		}),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricDatasetRefreshes,
				Help: "Dataset refresh outcomes",
			},
			[]string{"status"},
		),
		countComputes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCountComputations,
			Help: "Count table computations",
		}),
		countComputeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCountComputeSeconds,
			Help:    "Time spent computing count tables",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.requests,
		m.duration,
		m.sessions,
		m.sessionActions,
		m.entries,
		m.refreshes,
		m.countComputes,
		m.countComputeTime,
	}
}

// ObserveRefresh records the outcome of a dataset refresh.
func (m *Metrics) ObserveRefresh(err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.refreshes.WithLabelValues(status).Inc()
}
