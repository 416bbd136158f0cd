package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "neighborhood_watch"

// Metrics holds the Prometheus counters, histograms, and gauges for the watch cycle.
type Metrics struct {
	CyclesTotal   *prometheus.CounterVec // labels: outcome={success,failure,skipped,aborted}
	CycleDuration prometheus.Histogram

	// Fetch metrics.
	FetchErrors   *prometheus.CounterVec   // labels: section={weather,incidents,ov_updates}
	FetchDuration *prometheus.HistogramVec // labels: section

	// Store metrics.
	StoreAppends   *prometheus.CounterVec // labels: outcome={success,io,corrupt,serialization}
	StoreTrimmed   prometheus.Counter
	StoreRecords   prometheus.Gauge
	MirrorFailures prometheus.Counter
}

// NewMetrics creates and registers all watch metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.FetchErrors,
		m.FetchDuration,
		m.StoreAppends,
		m.StoreTrimmed,
		m.StoreRecords,
		m.MirrorFailures,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Perceive-then-publish cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete perceive-then-publish cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed upstream fetches by package section.",
		}, []string{"section"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration by package section.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"section"}),
		StoreAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_appends_total",
			Help:      "Record store appends by outcome.",
		}, []string{"outcome"}),
		StoreTrimmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_trimmed_records_total",
			Help:      "Records dropped by drop-oldest bounding.",
		}),
		StoreRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_records",
			Help:      "Records held by the store after the last write.",
		}),
		MirrorFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_failures_total",
			Help:      "Stored records that could not be mirrored to Kafka.",
		}),
	}
}
