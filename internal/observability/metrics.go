package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the choropleth service.
type Metrics struct {
	// Dataset fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: dataset={topology,education}, outcome={success,error}
	FetchDuration *prometheus.HistogramVec // labels: dataset={topology,education}

	// Render metrics.
	CountiesRendered    prometheus.Gauge
	CountiesWithoutData prometheus.Gauge
	RenderDuration      prometheus.Histogram
	RenderCache         *prometheus.CounterVec // labels: result={hit,miss}
	PipelineReady       prometheus.Gauge

	// Export metrics.
	CountiesExported prometheus.Counter
	ExportErrors     prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.CountiesRendered,
		m.CountiesWithoutData,
		m.RenderDuration,
		m.RenderCache,
		m.PipelineReady,
		m.CountiesExported,
		m.ExportErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "choropleth",
			Name:      "fetch_requests_total",
			Help:      "Dataset fetches by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "choropleth",
			Name:      "fetch_duration_seconds",
			Help:      "Dataset fetch duration in seconds, including decoding.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"dataset"}),
		CountiesRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "choropleth",
			Name:      "counties_rendered",
			Help:      "Number of county shapes drawn by the last load.",
		}),
		CountiesWithoutData: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "choropleth",
			Name:      "counties_without_data",
			Help:      "Number of county shapes with no matching education record.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "choropleth",
			Name:      "render_duration_seconds",
			Help:      "Duration of rendering one page.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		RenderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "choropleth",
			Name:      "render_cache_total",
			Help:      "Rendered page cache lookups by result.",
		}, []string{"result"}),
		PipelineReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "choropleth",
			Name:      "pipeline_ready",
			Help:      "1 once both datasets are loaded and the first page rendered.",
		}),
		CountiesExported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "choropleth",
			Name:      "counties_exported_total",
			Help:      "Joined county records published to the export topic.",
		}),
		ExportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "choropleth",
			Name:      "export_errors_total",
			Help:      "Failed export batches.",
		}),
	}
}
