package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.ExtractionsTotal)
	assert.NotNil(t, m.ExtractionRetries)
	assert.NotNil(t, m.CacheHitsTotal)
	assert.NotNil(t, m.ChunksDroppedTotal)
	assert.NotNil(t, m.TaggingDuration)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordHTTPRequest(m, "POST", "/api/v1/extract", 200, 100*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",path="/api/v1/extract",status_code="200"} 1`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="POST",path="/api/v1/extract"} 1`)
}

func TestPipelineMetrics_RecordExtraction(t *testing.T) {
	m, c := newTestAppMetrics(t)
	p := NewPipelineMetrics(m)

	p.RecordExtraction(&extraction.ExtractionMetric{
		Mode:       "agentic",
		DurationMs: 1500,
		SpanCount:  7,
		Retries:    1,
		Success:    true,
	})

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_extractions_total{mode="agentic",status="true"} 1`)
	assert.Contains(t, output, `test_unit_extraction_span_count_count{mode="agentic"} 1`)
	assert.Contains(t, output, `test_unit_extraction_retries_count{mode="agentic"} 1`)
}

func TestPipelineMetrics_RecordExtraction_CacheHit(t *testing.T) {
	m, c := newTestAppMetrics(t)
	p := NewPipelineMetrics(m)

	p.RecordExtraction(&extraction.ExtractionMetric{
		Mode:     "single-pass",
		CacheHit: true,
		Success:  true,
	})

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_cache_hits_total{mode="single-pass"} 1`)
	// Cache hits carry no span or retry observations.
	assert.NotContains(t, output, `test_unit_extraction_span_count_count{mode="single-pass"} 1`)
}

func TestPipelineMetrics_RecordExtraction_NilIsNoop(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	p := NewPipelineMetrics(m)
	assert.NotPanics(t, func() { p.RecordExtraction(nil) })
}

func TestPipelineMetrics_RecordChunkDropped(t *testing.T) {
	m, c := newTestAppMetrics(t)
	p := NewPipelineMetrics(m)

	p.RecordChunkDropped()
	p.RecordChunkDropped()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_chunks_dropped_total 2")
}

func TestPipelineMetrics_RecordTagging(t *testing.T) {
	m, c := newTestAppMetrics(t)
	p := NewPipelineMetrics(m)

	p.RecordTagging(120, 3.5)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_tagging_duration_seconds_count 1")
	assert.Contains(t, output, "test_unit_tagging_token_count_count 1")
}

func TestRecordError(t *testing.T) {
	m, c := newTestAppMetrics(t)

	RecordError(m, "engine", "NER_002")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_errors_total{code="NER_002",component="engine"} 1`)
}
