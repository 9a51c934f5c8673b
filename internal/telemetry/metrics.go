// Package telemetry exposes delivery counters on the daemon's /metrics
// endpoint.
package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	EnqueuedCounter  = prometheus.NewCounter(prometheus.CounterOpts{Name: "linkq_enqueued_total", Help: "Save requests accepted into the queue"})
	DeliveredCounter = prometheus.NewCounter(prometheus.CounterOpts{Name: "linkq_delivered_total", Help: "Save requests delivered to the endpoint"})
	FailedCounter    = prometheus.NewCounter(prometheus.CounterOpts{Name: "linkq_failed_total", Help: "Delivery attempts that failed and will retry"})
	PassCounter      = prometheus.NewCounter(prometheus.CounterOpts{Name: "linkq_passes_total", Help: "Sync passes executed"})
	PassSkipCounter  = prometheus.NewCounter(prometheus.CounterOpts{Name: "linkq_passes_skipped_total", Help: "Sync requests skipped because a pass was already running"})
	ReclaimedCounter = prometheus.NewCounter(prometheus.CounterOpts{Name: "linkq_reclaimed_total", Help: "Stale sending leases reclaimed"})
	QueueDepthGauge  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "linkq_queue_depth", Help: "Undelivered items: queued plus errored plus sending"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			EnqueuedCounter,
			DeliveredCounter,
			FailedCounter,
			PassCounter,
			PassSkipCounter,
			ReclaimedCounter,
			QueueDepthGauge,
		)
	})
	return promhttp.Handler()
}
