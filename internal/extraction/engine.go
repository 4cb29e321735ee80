package extraction

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// Engine — document-level pipeline orchestration
// ---------------------------------------------------------------------------

// Extraction modes.
const (
	// ModeSinglePass runs one extract+validate per chunk; validation
	// failures are hard failures.
	ModeSinglePass = "single-pass"
	// ModeAgentic runs the bounded extract/validate/refine loop per chunk;
	// validation failures degrade to zero entities after the retry budget.
	ModeAgentic = "agentic"
)

// ValidateMode rejects unknown extraction modes before any model work.
func ValidateMode(mode string) error {
	switch mode {
	case ModeSinglePass, ModeAgentic:
		return nil
	default:
		return errors.New(errors.ErrCodeUnsupportedInput, "unsupported extraction mode: "+mode)
	}
}

// EngineConfig carries the pipeline tuning knobs.
type EngineConfig struct {
	// ChunkSize is the target chunk length in bytes of UTF-8 text.
	ChunkSize int `json:"chunk_size" mapstructure:"chunk_size"`
	// ChunkOverlap is the target shared-context length between neighbours.
	ChunkOverlap int `json:"chunk_overlap" mapstructure:"chunk_overlap"`
	// MaxRetries bounds refinement rounds per chunk; the extractor is
	// called at most MaxRetries+1 times per chunk.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
	// Concurrency bounds the number of chunks extracted in parallel.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

// DefaultEngineConfig returns the default pipeline configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ChunkSize:    2000,
		ChunkOverlap: 200,
		MaxRetries:   2,
		Concurrency:  4,
	}
}

// Validate checks the configuration for consistency.
func (c EngineConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return errors.New(errors.CodeInvalidParam, "chunk_size must be positive")
	}
	if c.ChunkOverlap < 0 {
		return errors.New(errors.CodeInvalidParam, "chunk_overlap must not be negative")
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return errors.New(errors.CodeInvalidParam, "chunk_overlap must be smaller than chunk_size")
	}
	if c.MaxRetries < 0 {
		return errors.New(errors.CodeInvalidParam, "max_retries must not be negative")
	}
	if c.Concurrency <= 0 {
		return errors.New(errors.CodeInvalidParam, "concurrency must be positive")
	}
	return nil
}

// Dependencies bundles the engine's optional collaborators. Nil fields
// select no-op or default implementations.
type Dependencies struct {
	Tokenizer Tokenizer
	Cache     ResultCache
	Metrics   Metrics
	Logger    logging.Logger
}

// Engine runs the full pipeline for one schema: chunk, extract per chunk
// (optionally refined, optionally cached), merge, tag. An Engine is
// immutable after construction and safe for concurrent use.
type Engine struct {
	extractor Extractor
	schema    Schema
	cfg       EngineConfig

	chunker *Chunker
	merger  *Merger
	tagger  *Tagger
	refiner *RefineController

	cache   ResultCache
	metrics Metrics
	logger  logging.Logger
}

// NewEngine validates the schema and configuration and assembles the
// pipeline. extractor must not be nil.
func NewEngine(extractor Extractor, schema Schema, cfg EngineConfig, deps Dependencies) (*Engine, error) {
	if extractor == nil {
		return nil, errors.New(errors.CodeInvalidParam, "extractor must not be nil")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewNoopMetrics()
	}
	cache := deps.Cache
	if cache == nil {
		cache = NewNoopCache()
	}

	return &Engine{
		extractor: extractor,
		schema:    schema,
		cfg:       cfg,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap, logger, metrics),
		merger:    NewMerger(logger),
		tagger:    NewTagger(deps.Tokenizer, logger),
		refiner:   NewRefineController(extractor, schema, cfg.MaxRetries, logger),
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Run extracts entities from text and returns the token-level tag sequence
// for the whole document. Empty or whitespace-only input returns nil
// without invoking the extractor. Content-grounding failures never fail the
// run; configuration, shape, and backend failures do.
func (e *Engine) Run(ctx context.Context, text, mode string) ([]TaggedToken, error) {
	if err := ValidateMode(mode); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	chunks := e.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, nil
	}

	var entities []ResolvedEntity
	if len(chunks) == 1 {
		// Degenerate path: a single chunk needs no merging, every span is
		// taken at face value.
		spans, err := e.runChunk(ctx, chunks[0], mode)
		if err != nil {
			return nil, err
		}
		for _, span := range spans {
			entities = append(entities, ResolvedEntity{Type: span.Type, Text: span.Text, Confidence: 1.0})
		}
	} else {
		results, err := e.fanOut(ctx, chunks, mode)
		if err != nil {
			return nil, err
		}
		entities = e.merger.Merge(text, results)
	}

	start := time.Now()
	tagged := e.tagger.Tag(text, entities)
	e.metrics.RecordTagging(len(tagged), float64(time.Since(start).Microseconds())/1000.0)
	return tagged, nil
}

// fanOut extracts all chunks concurrently under the configured semaphore.
// Results are stored by chunk index, so completion order never influences
// the merge. The first error cancels in-flight work and discards partial
// results.
func (e *Engine) fanOut(ctx context.Context, chunks []ChunkOffset, mode string) ([]ChunkResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]ChunkResult, len(chunks))
	sem := make(chan struct{}, e.cfg.Concurrency)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk ChunkOffset) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-runCtx.Done():
				return
			}
			defer func() { <-sem }()

			spans, err := e.runChunk(runCtx, chunk, mode)
			if err != nil {
				fail(err)
				return
			}
			results[i] = ChunkResult{Spans: spans, Start: chunk.Start, End: chunk.End()}
		}(i, chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// runChunk extracts one chunk, consulting the result cache first. Cache
// errors are logged and treated as misses; the cache is only written after
// a successful extraction.
func (e *Engine) runChunk(ctx context.Context, chunk ChunkOffset, mode string) ([]Span, error) {
	key := ChunkKey(chunk.Text, e.schema, mode)

	spans, hit, err := e.cache.GetChunk(ctx, key)
	if err != nil {
		e.logger.Warn("chunk cache lookup failed, treating as miss", logging.Err(err))
	} else if hit {
		e.metrics.RecordExtraction(&ExtractionMetric{Mode: mode, SpanCount: len(spans), CacheHit: true, Success: true})
		return spans, nil
	}

	start := time.Now()
	var retries int
	switch mode {
	case ModeAgentic:
		spans, retries, err = e.refiner.Run(ctx, chunk.Text)
	default:
		spans, err = e.extractOnce(ctx, chunk.Text)
	}
	metric := &ExtractionMetric{
		Mode:       mode,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		SpanCount:  len(spans),
		Retries:    retries,
		Success:    err == nil,
	}
	e.metrics.RecordExtraction(metric)
	if err != nil {
		return nil, err
	}

	if cacheErr := e.cache.SetChunk(ctx, key, spans); cacheErr != nil {
		e.logger.Warn("chunk cache store failed", logging.Err(cacheErr))
	}
	return spans, nil
}

// extractOnce is the single-pass mode body: one extractor call, one
// validation, no refinement. Validation failure is a hard failure here.
func (e *Engine) extractOnce(ctx context.Context, text string) ([]Span, error) {
	out, err := e.extractor.Extract(ctx, text, e.schema, "")
	if err != nil {
		return nil, err
	}
	spans, verrs := ValidateOutput(text, out)
	if len(verrs) > 0 {
		return nil, errors.New(errors.ErrCodeValidation, strings.Join(verrs, "; "))
	}
	return spans, nil
}

// RunBatch runs the pipeline over each text in order. The first failure
// aborts the batch.
func (e *Engine) RunBatch(ctx context.Context, texts []string, mode string) ([][]TaggedToken, error) {
	out := make([][]TaggedToken, 0, len(texts))
	for _, text := range texts {
		tagged, err := e.Run(ctx, text, mode)
		if err != nil {
			return nil, err
		}
		out = append(out, tagged)
	}
	return out, nil
}

// RunRecords runs the pipeline over the textColumn field of each record.
// A missing column in any record is an unsupported-input error, detected
// before any extractor call is made.
func (e *Engine) RunRecords(ctx context.Context, records []map[string]string, textColumn, mode string) ([][]TaggedToken, error) {
	if strings.TrimSpace(textColumn) == "" {
		return nil, errors.New(errors.ErrCodeUnsupportedInput, "text column name must not be empty")
	}
	if err := ValidateMode(mode); err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(records))
	for i, rec := range records {
		text, ok := rec[textColumn]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeUnsupportedInput,
				"record %d does not contain text column %q", i, textColumn)
		}
		texts = append(texts, text)
	}
	return e.RunBatch(ctx, texts, mode)
}
