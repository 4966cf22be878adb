package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ctc"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Report feed metrics.
	ReportFetches       *prometheus.CounterVec // labels: outcome={success,error}
	ReportFetchDuration prometheus.Histogram
	StationsReporting   prometheus.Gauge
	StationsUnknown     prometheus.Gauge
	RefresherRunning    prometheus.Gauge

	// Table metrics.
	TablesBuilt prometheus.Counter
	TableCache  *prometheus.CounterVec // labels: result={hit,miss}

	// Publishing metrics.
	ViewsPublished prometheus.Counter
	PublishErrors  prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_fetches_total",
			Help:      "Report feed fetches by outcome.",
		}, []string{"outcome"}),
		ReportFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_fetch_duration_seconds",
			Help:      "Duration of a report feed request.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		StationsReporting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_reporting",
			Help:      "Stations present in the latest report feed.",
		}),
		StationsUnknown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_unknown_temperature",
			Help:      "Reference airports without a known temperature in the latest refresh.",
		}),
		RefresherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresher_running",
			Help:      "1 when the report refresher is active, 0 when shut down.",
		}),
		TablesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tables_built_total",
			Help:      "Correction tables computed.",
		}),
		TableCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_cache_total",
			Help:      "Ad-hoc table cache lookups by result.",
		}, []string{"result"}),
		ViewsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_published_total",
			Help:      "Airport views written to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed airport view publish attempts.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportFetches,
		m.ReportFetchDuration,
		m.StationsReporting,
		m.StationsUnknown,
		m.RefresherRunning,
		m.TablesBuilt,
		m.TableCache,
		m.ViewsPublished,
		m.PublishErrors,
	}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
