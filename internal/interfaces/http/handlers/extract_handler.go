package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntiTag-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// ExtractHandler serves entity extraction requests.  The extractor backend
// and pipeline dependencies are shared across requests; an Engine is built
// per request because the schema arrives with the request body.
type ExtractHandler struct {
	extractor extraction.Extractor
	cfg       extraction.EngineConfig
	deps      extraction.Dependencies
	logger    logging.Logger
}

// NewExtractHandler constructs the handler.
func NewExtractHandler(extractor extraction.Extractor, cfg extraction.EngineConfig, deps extraction.Dependencies, logger logging.Logger) *ExtractHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExtractHandler{extractor: extractor, cfg: cfg, deps: deps, logger: logger}
}

// ExtractRequest is the body of POST /api/v1/extract.  Exactly one of Text
// and Texts must be set.
type ExtractRequest struct {
	Text     string            `json:"text"`
	Texts    []string          `json:"texts"`
	Schema   extraction.Schema `json:"schema"`
	Mode     string            `json:"mode"`
	Encoding string            `json:"encoding"`
}

// DocumentResult holds the output for one input document in the requested
// encoding.
type DocumentResult struct {
	Tokens   []extraction.TaggedToken `json:"tokens,omitempty"`
	Entities []extraction.Span        `json:"entities,omitempty"`
}

// ExtractResponse is the body of a successful extraction.
type ExtractResponse struct {
	RequestID string           `json:"request_id,omitempty"`
	Mode      string           `json:"mode"`
	Encoding  string           `json:"encoding"`
	Results   []DocumentResult `json:"results"`
}

// Extract handles POST /api/v1/extract.
func (h *ExtractHandler) Extract(c *gin.Context) {
	var req ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if req.Mode == "" {
		req.Mode = extraction.ModeAgentic
	}
	if req.Encoding == "" {
		req.Encoding = extraction.EncodingCoNLL
	}
	if err := extraction.ValidateEncoding(req.Encoding); err != nil {
		respondError(c, err)
		return
	}

	texts := req.Texts
	if len(texts) == 0 {
		if req.Text == "" {
			respondError(c, errors.New(errors.ErrCodeUnsupportedInput, "either text or texts must be provided"))
			return
		}
		texts = []string{req.Text}
	} else if req.Text != "" {
		respondError(c, errors.New(errors.ErrCodeUnsupportedInput, "text and texts are mutually exclusive"))
		return
	}

	// Offsets are computed against the normalized form, so normalization
	// must happen before chunking.
	for i, t := range texts {
		texts[i] = norm.NFC.String(t)
	}

	engine, err := extraction.NewEngine(h.extractor, req.Schema, h.cfg, h.deps)
	if err != nil {
		respondError(c, err)
		return
	}

	tagged, err := engine.RunBatch(c.Request.Context(), texts, req.Mode)
	if err != nil {
		h.logger.Warn("extraction failed",
			logging.String("request_id", middleware.GetRequestID(c)),
			logging.String("mode", req.Mode),
			logging.Err(err))
		respondError(c, err)
		return
	}

	results := make([]DocumentResult, len(tagged))
	for i, tokens := range tagged {
		switch req.Encoding {
		case extraction.EncodingEntities:
			results[i] = DocumentResult{Entities: extraction.EntitiesFromTags(tokens)}
		default:
			results[i] = DocumentResult{Tokens: tokens}
		}
	}

	c.JSON(http.StatusOK, ExtractResponse{
		RequestID: middleware.GetRequestID(c),
		Mode:      req.Mode,
		Encoding:  req.Encoding,
		Results:   results,
	})
}
