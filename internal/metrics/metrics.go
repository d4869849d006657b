package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spotiflac"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	FetchOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_outcomes_total",
		Help:      "Terminal fetch outcomes by kind.",
	}, []string{"outcome"})

	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Wall time of a single fetch from claim to terminal state.",
		Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	})

	HistoryWriteWarnings = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_write_warnings_total",
		Help:      "History appends that failed after a terminal transition.",
	})

	EventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events discarded because a subscriber mailbox was full.",
	})

	EventSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_subscribers",
		Help:      "Number of live event stream subscribers.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		FetchOutcomesTotal,
		FetchDuration,
		HistoryWriteWarnings,
		EventsDropped,
		EventSubscribers,
	)
}
