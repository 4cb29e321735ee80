package prometheus

import (
	"fmt"
	"strconv"
	"time"

	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Extraction pipeline
	ExtractionsTotal    CounterVec
	ExtractionDuration  HistogramVec
	ExtractionSpanCount HistogramVec
	ExtractionRetries   HistogramVec
	CacheHitsTotal      CounterVec
	ChunksDroppedTotal  CounterVec
	TaggingDuration     HistogramVec
	TaggingTokenCount   HistogramVec

	// System health
	ErrorsTotal CounterVec
}

// Default buckets
var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultLLMDurationBuckets  = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
	DefaultCountBuckets        = []float64{0, 1, 2, 5, 10, 25, 50, 100, 250}
	DefaultTokenCountBuckets   = []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000}
)

// NewAppMetrics registers all metrics and returns the AppMetrics struct.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method", "path")

	// Extraction pipeline
	m.ExtractionsTotal = collector.RegisterCounter("extractions_total", "Chunk extractions total", "mode", "status")
	m.ExtractionDuration = collector.RegisterHistogram("extraction_duration_seconds", "Chunk extraction duration", DefaultLLMDurationBuckets, "mode")
	m.ExtractionSpanCount = collector.RegisterHistogram("extraction_span_count", "Spans produced per chunk", DefaultCountBuckets, "mode")
	m.ExtractionRetries = collector.RegisterHistogram("extraction_retries", "Refinement retries per chunk", []float64{0, 1, 2, 3, 5, 8}, "mode")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Chunk-result cache hits", "mode")
	m.ChunksDroppedTotal = collector.RegisterCounter("chunks_dropped_total", "Chunks dropped because their offset could not be recovered")
	m.TaggingDuration = collector.RegisterHistogram("tagging_duration_seconds", "Token tagging duration", DefaultHTTPDurationBuckets)
	m.TaggingTokenCount = collector.RegisterHistogram("tagging_token_count", "Tokens per tagged document", DefaultTokenCountBuckets)

	// System health
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "code")

	return m
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	status := fmt.Sprintf("%d", statusCode)
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError records one classified error.
func RecordError(metrics *AppMetrics, component, code string) {
	metrics.ErrorsTotal.WithLabelValues(component, code).Inc()
}

// PipelineMetrics adapts AppMetrics to the extraction.Metrics interface
// consumed by the engine and chunker.
type PipelineMetrics struct {
	app *AppMetrics
}

// NewPipelineMetrics wraps app for the extraction pipeline.
func NewPipelineMetrics(app *AppMetrics) *PipelineMetrics {
	return &PipelineMetrics{app: app}
}

// RecordExtraction implements extraction.Metrics.
func (p *PipelineMetrics) RecordExtraction(m *extraction.ExtractionMetric) {
	if m == nil {
		return
	}
	p.app.ExtractionsTotal.WithLabelValues(m.Mode, strconv.FormatBool(m.Success)).Inc()
	p.app.ExtractionDuration.WithLabelValues(m.Mode).Observe(m.DurationMs / 1000)
	if m.CacheHit {
		p.app.CacheHitsTotal.WithLabelValues(m.Mode).Inc()
		return
	}
	p.app.ExtractionSpanCount.WithLabelValues(m.Mode).Observe(float64(m.SpanCount))
	p.app.ExtractionRetries.WithLabelValues(m.Mode).Observe(float64(m.Retries))
}

// RecordChunkDropped implements extraction.Metrics.
func (p *PipelineMetrics) RecordChunkDropped() {
	p.app.ChunksDroppedTotal.WithLabelValues().Inc()
}

// RecordTagging implements extraction.Metrics.
func (p *PipelineMetrics) RecordTagging(tokenCount int, durationMs float64) {
	p.app.TaggingDuration.WithLabelValues().Observe(durationMs / 1000)
	p.app.TaggingTokenCount.WithLabelValues().Observe(float64(tokenCount))
}
