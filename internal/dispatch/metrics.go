package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	conversions   *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
}

// newMetrics creates the dispatcher metrics. A nil registerer leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		conversions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "toolcat_conversions_total",
			Help: "Total number of format conversions by direction and result source.",
		}, []string{"direction", "source"}),
		remoteLatency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toolcat_remote_conversion_duration_seconds",
			Help:    "Time spent waiting on the conversion service.",
			Buckets: prometheus.DefBuckets,
		}, []string{"direction"}),
	}
}
