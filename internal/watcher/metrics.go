package watcher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports watcher activity. A nil *Metrics records nothing.
type Metrics struct {
	cycles        *prometheus.CounterVec
	autoCloses    *prometheus.CounterVec
	tracked       prometheus.Gauge
	cycleDuration prometheus.Histogram
}

// NewMetrics registers the watcher metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fastservices",
			Subsystem: "watcher",
			Name:      "cycles_total",
			Help:      "Polling cycles by result (success, failure).",
		}, []string{"result"}),
		autoCloses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fastservices",
			Subsystem: "watcher",
			Name:      "auto_closes_total",
			Help:      "Automatic bidding closes by result (closed, failed).",
		}, []string{"result"}),
		tracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "fastservices",
			Subsystem: "watcher",
			Name:      "tracked_requests",
			Help:      "Bidding requests with a running countdown.",
		}),
		cycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fastservices",
			Subsystem: "watcher",
			Name:      "cycle_duration_seconds",
			Help:      "Polling cycle latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) cycle(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.cycles.WithLabelValues(result).Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) autoClose(outcome Outcome) {
	if m == nil {
		return
	}
	m.autoCloses.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) setTracked(n int) {
	if m == nil {
		return
	}
	m.tracked.Set(float64(n))
}
