// Package llm adapts chat-completion style LLM backends to the extraction
// pipeline's Extractor contract: prompt construction from the extraction
// schema, response decoding, and shape checking live here so that backends
// only have to move bytes.
package llm

import (
	"encoding/json"
	"strings"

	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// Prompt construction
// ---------------------------------------------------------------------------

// buildSystemPrompt renders the zero-shot system prompt for a schema. Field
// order is the schema's sorted order so identical schemas always produce
// identical prompts, which keeps chunk-result cache keys meaningful.
func buildSystemPrompt(schema extraction.Schema) string {
	var b strings.Builder
	b.WriteString("You are an expert entity extraction system. ")
	b.WriteString("Extract the requested entities from the text provided by the user.\n\n")
	b.WriteString("Entities to extract:\n")
	for _, name := range schema.FieldNames() {
		spec := schema[name]
		b.WriteString("- ")
		b.WriteString(name)
		switch spec.Multiplicity {
		case extraction.One:
			b.WriteString(" (a single value)")
		default:
			b.WriteString(" (a list of values)")
		}
		if spec.Description != "" {
			b.WriteString(": ")
			b.WriteString(spec.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nRules:\n")
	b.WriteString("1. Respond with a single JSON object whose keys are exactly the entity names above.\n")
	b.WriteString("2. Every extracted value must be a verbatim substring of the source text. Never paraphrase, normalise, or invent text.\n")
	b.WriteString("3. Use null for entities that do not occur in the text.\n")
	b.WriteString("4. Output nothing besides the JSON object.")
	return b.String()
}

// buildUserPrompt assembles the user message: the optional corrective
// instruction from the refinement controller, then the source text.
func buildUserPrompt(text, instruction string) string {
	if instruction == "" {
		return "## Source Text:\n" + text
	}
	return instruction + "\n\n## Source Text:\n" + text
}

// ---------------------------------------------------------------------------
// Response decoding
// ---------------------------------------------------------------------------

// decodeOutput parses the model's message content into a StructuredOutput
// and shape-checks it against the schema. Models frequently wrap JSON in
// markdown fences despite instructions, so fences are stripped first.
// Anything that is not a schema-conforming JSON object is a shape error.
func decodeOutput(content string, schema extraction.Schema) (extraction.StructuredOutput, error) {
	trimmed := stripFences(content)
	if trimmed == "" {
		return nil, errors.New(errors.ErrCodeShape, "model returned empty content")
	}

	var out extraction.StructuredOutput
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeShape, "model content is not a JSON object")
	}
	if err := extraction.CheckShape(schema, out); err != nil {
		return nil, err
	}
	return out, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop a language tag such as "json" on the fence line.
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ---------------------------------------------------------------------------
// Shared message shapes (OpenAI-compatible wire format)
// ---------------------------------------------------------------------------

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (r *chatResponse) content() (string, error) {
	if r.Error != nil {
		return "", errors.Newf(errors.ErrCodeLLMBackend, "backend error: %s (%s)", r.Error.Message, r.Error.Type)
	}
	if len(r.Choices) == 0 {
		return "", errors.New(errors.ErrCodeLLMDecode, "response contains no choices")
	}
	return r.Choices[0].Message.Content, nil
}

// messagesFor builds the chat message list for one extraction call.
func messagesFor(text string, schema extraction.Schema, instruction string) []chatMessage {
	return []chatMessage{
		{Role: "system", Content: buildSystemPrompt(schema)},
		{Role: "user", Content: buildUserPrompt(text, instruction)},
	}
}
