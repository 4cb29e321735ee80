package extraction

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
)

// ---------------------------------------------------------------------------
// Extractor — the external LLM adapter contract
// ---------------------------------------------------------------------------

// Extractor is the boundary to the LLM. Extract runs one structured
// extraction over text for the given schema; instruction, when non-empty,
// is a corrective preamble produced by the refinement controller. The
// implementation raises a shape error (errors.ErrCodeShape) when the model
// output does not conform to the schema — shape errors are fatal and are
// never retried here, since refinement only corrects content grounding.
type Extractor interface {
	Extract(ctx context.Context, text string, schema Schema, instruction string) (StructuredOutput, error)
}

// ---------------------------------------------------------------------------
// Refinement controller — bounded validate-and-retry state machine
// ---------------------------------------------------------------------------

// refineState enumerates the controller's states. The original control flow
// was a directed graph of named steps; the topology is fixed and linear with
// a single back edge, so an explicit enumeration with a pure transition
// function is all that is needed.
type refineState int

const (
	stateExtract refineState = iota
	stateValidate
	stateRefine
	stateDone
)

// refineRun is the mutable state threaded through one chunk's refinement
// loop. It belongs exclusively to that chunk and is never shared.
type refineRun struct {
	text    string
	output  StructuredOutput
	spans   []Span
	errs    []string
	retries int
}

// transition is the pure state-transition function: given the current state
// and run data it returns the next state without side effects.
func transition(cur refineState, run *refineRun, maxRetries int) refineState {
	switch cur {
	case stateExtract, stateRefine:
		return stateValidate
	case stateValidate:
		if len(run.errs) == 0 {
			return stateDone
		}
		if run.retries < maxRetries {
			return stateRefine
		}
		return stateDone
	default:
		return stateDone
	}
}

// RefineController drives the EXTRACT → VALIDATE → {REFINE → VALIDATE}* →
// DONE loop for a single chunk. MaxRetries bounds the number of REFINE
// transitions, so the extractor is invoked at most MaxRetries+1 times per
// chunk. Validation failure after exhaustion degrades to zero spans
// (fail-soft); extractor errors, including shape errors, are fatal and
// propagate.
type RefineController struct {
	extractor  Extractor
	schema     Schema
	maxRetries int
	logger     logging.Logger
}

// NewRefineController constructs a controller. maxRetries below zero is
// treated as zero.
func NewRefineController(extractor Extractor, schema Schema, maxRetries int, logger logging.Logger) *RefineController {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RefineController{
		extractor:  extractor,
		schema:     schema,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Run executes the refinement loop over text and returns the validated
// spans. A nil span slice with a nil error means the retry budget was
// exhausted without producing grounded output. Retries reports how many
// REFINE transitions were taken.
func (r *RefineController) Run(ctx context.Context, text string) (spans []Span, retries int, err error) {
	run := &refineRun{text: text}
	state := stateExtract

	for state != stateDone {
		if err := ctx.Err(); err != nil {
			return nil, run.retries, err
		}

		switch state {
		case stateExtract:
			out, err := r.extractor.Extract(ctx, text, r.schema, "")
			if err != nil {
				return nil, run.retries, err
			}
			run.output = out

		case stateValidate:
			run.spans, run.errs = ValidateOutput(text, run.output)
			if len(run.errs) > 0 {
				r.logger.Debug("extraction output failed validation",
					logging.Int("errors", len(run.errs)),
					logging.Int("retry", run.retries))
			}

		case stateRefine:
			instruction := refineInstruction(run.output, run.errs)
			out, err := r.extractor.Extract(ctx, text, r.schema, instruction)
			if err != nil {
				return nil, run.retries, err
			}
			run.output = out
			run.retries++
		}

		state = transition(state, run, r.maxRetries)
	}

	if len(run.errs) > 0 {
		r.logger.Warn("refinement budget exhausted, degrading to zero entities",
			logging.Int("max_retries", r.maxRetries),
			logging.Int("errors", len(run.errs)))
		return nil, run.retries, nil
	}
	return run.spans, run.retries, nil
}

// refineInstruction builds the corrective preamble sent back to the
// extractor: the previous output serialized as indented JSON plus the
// concatenated validation error messages.
func refineInstruction(prev StructuredOutput, errs []string) string {
	prevJSON := "{}"
	if prev != nil {
		if b, err := json.MarshalIndent(prev, "", "  "); err == nil {
			prevJSON = string(b)
		}
	}

	var b strings.Builder
	b.WriteString("You are an extraction AI. You previously tried to extract entities but made mistakes. ")
	b.WriteString("Review your previous output and the specific validation errors below, then try again. ")
	b.WriteString("It is critical that you only extract text that is a verbatim substring of the source text.\n\n")
	b.WriteString("## Previous (Erroneous) Output:\n```json\n")
	b.WriteString(prevJSON)
	b.WriteString("\n```\n\n## Validation Errors:\n- ")
	b.WriteString(strings.Join(errs, "\n- "))
	b.WriteString("\n\nPlease correct these errors and provide a new, valid JSON object.")
	return b.String()
}
