package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all prometheus metrics for tidemark.
// uses a custom registry to avoid polluting the global namespace.
type Metrics struct {
	Registry *prometheus.Registry

	// http_request_duration_seconds - histogram for api latency
	HTTPRequestDuration *prometheus.HistogramVec

	// tidemark_events_accepted_total - counter for normalized events
	EventsAcceptedTotal prometheus.Counter

	// tidemark_events_skipped_total - counter for rejected raw records
	EventsSkippedTotal *prometheus.CounterVec

	// tidemark_ingest_buffer_size - gauge for current event buffer size
	IngestBufferSize prometheus.Gauge

	// tidemark_pipeline_duration_seconds - histogram per recompute stage
	PipelineDuration *prometheus.HistogramVec
}

// New creates and registers all prometheus metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	// add standard go runtime and process collectors
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,

		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		EventsAcceptedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tidemark_events_accepted_total",
			Help: "Total number of raw records normalized into events",
		}),

		EventsSkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tidemark_events_skipped_total",
				Help: "Total number of raw records skipped during normalization",
			},
			[]string{"reason"},
		),

		IngestBufferSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tidemark_ingest_buffer_size",
			Help: "Current number of events waiting in the ingestion buffer",
		}),

		PipelineDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tidemark_pipeline_duration_seconds",
				Help:    "Duration of batch recompute stages in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"stage"},
		),
	}

	// register all custom metrics
	reg.MustRegister(
		m.HTTPRequestDuration,
		m.EventsAcceptedTotal,
		m.EventsSkippedTotal,
		m.IngestBufferSize,
		m.PipelineDuration,
	)

	return m
}

// RecordHTTPRequest records the duration of an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, durationSeconds float64) {
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
}

// RecordEventsAccepted adds to the accepted events counter.
func (m *Metrics) RecordEventsAccepted(n int) {
	m.EventsAcceptedTotal.Add(float64(n))
}

// RecordEventSkipped increments the skip counter for a rejection reason.
func (m *Metrics) RecordEventSkipped(reason string) {
	m.EventsSkippedTotal.WithLabelValues(reason).Inc()
}

// SetBufferSize sets the current ingestion buffer gauge.
func (m *Metrics) SetBufferSize(size int) {
	m.IngestBufferSize.Set(float64(size))
}

// ObservePipelineStage records the duration of one recompute stage.
func (m *Metrics) ObservePipelineStage(stage string, duration time.Duration) {
	m.PipelineDuration.WithLabelValues(stage).Observe(duration.Seconds())
}
