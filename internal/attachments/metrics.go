package attachments

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts upload outcomes. A nil *Metrics records nothing.
type Metrics struct {
	uploadsTotal   *prometheus.CounterVec
	uploadDuration prometheus.Histogram
}

// NewMetrics registers the attachment metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		uploadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fastservices",
			Subsystem: "attachments",
			Name:      "uploads_total",
			Help:      "Attachment uploads by result (success, failure, orphaned).",
		}, []string{"result"}),
		uploadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fastservices",
			Subsystem: "attachments",
			Name:      "upload_duration_seconds",
			Help:      "Attachment upload latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(result string, started time.Time) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(result).Inc()
	m.uploadDuration.Observe(time.Since(started).Seconds())
}
