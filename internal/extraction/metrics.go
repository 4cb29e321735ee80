package extraction

// ---------------------------------------------------------------------------
// Metrics — operational telemetry contract
// ---------------------------------------------------------------------------

// ExtractionMetric carries the telemetry of one per-chunk extraction run.
type ExtractionMetric struct {
	Mode       string
	DurationMs float64
	SpanCount  int
	Retries    int
	CacheHit   bool
	Success    bool
}

// Metrics records pipeline telemetry. Implementations must be safe for
// concurrent use; the prometheus-backed implementation lives in
// internal/infrastructure/monitoring/prometheus.
type Metrics interface {
	RecordExtraction(m *ExtractionMetric)
	RecordChunkDropped()
	RecordTagging(tokenCount int, durationMs float64)
}

type noopMetrics struct{}

func (noopMetrics) RecordExtraction(*ExtractionMetric) {}
func (noopMetrics) RecordChunkDropped()                {}
func (noopMetrics) RecordTagging(int, float64)         {}

// NewNoopMetrics returns a Metrics implementation that discards everything.
func NewNoopMetrics() Metrics { return noopMetrics{} }
