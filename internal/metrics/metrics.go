// Package metrics exposes Prometheus counters for report runs and the small
// HTTP surface (health, metrics, manual trigger) used by `timereport serve`.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	runsTotal           *prometheus.CounterVec
	runDuration         *prometheus.HistogramVec
	recordsRead         *prometheus.CounterVec
	commentaryFallbacks prometheus.Counter
	deliveryFailures    *prometheus.CounterVec
	lastSuccess         *prometheus.GaugeVec
}

// NewMetrics registers the report metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timereport_runs_total",
			Help: "Report runs by kind and final status.",
		}, []string{"kind", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "timereport_run_duration_seconds",
			Help:    "Wall time of report runs by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		recordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timereport_records_read_total",
			Help: "Records read from all sources, by report kind.",
		}, []string{"kind"}),
		commentaryFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timereport_commentary_fallbacks_total",
			Help: "Reports that went out with the fallback commentary.",
		}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timereport_delivery_failures_total",
			Help: "Failed deliveries by channel.",
		}, []string{"channel"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "timereport_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.recordsRead,
		m.commentaryFallbacks,
		m.deliveryFailures,
		m.lastSuccess,
	)
	return m
}

// ObserveRun is safe on a nil *Metrics.
func (m *Metrics) ObserveRun(kind, status string, elapsed time.Duration, records int, finished time.Time) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(kind, status).Inc()
	m.runDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	m.recordsRead.WithLabelValues(kind).Add(float64(records))
	if status == "succeeded" {
		m.lastSuccess.WithLabelValues(kind).Set(float64(finished.Unix()))
	}
}

func (m *Metrics) CommentaryFallback() {
	if m == nil {
		return
	}
	m.commentaryFallbacks.Inc()
}

func (m *Metrics) DeliveryFailed(channel string) {
	if m == nil {
		return
	}
	m.deliveryFailures.WithLabelValues(channel).Inc()
}
