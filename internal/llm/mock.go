package llm

import (
	"context"
	"sync"

	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
)

// MockExtractor is a scripted extraction.Extractor for tests and offline
// development. Scripted responses are consumed in order; when the script is
// exhausted the optional Fallback produces the response, and with neither a
// script nor a fallback the mock returns an empty output.
type MockExtractor struct {
	mu        sync.Mutex
	responses []extraction.StructuredOutput
	errs      []error
	calls     int

	// Fallback, when set, handles calls beyond the scripted responses.
	Fallback func(text string, schema extraction.Schema, instruction string) (extraction.StructuredOutput, error)
}

// NewMockExtractor constructs an empty mock.
func NewMockExtractor() *MockExtractor { return &MockExtractor{} }

// Enqueue appends a scripted response.
func (m *MockExtractor) Enqueue(out extraction.StructuredOutput) *MockExtractor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, out)
	m.errs = append(m.errs, nil)
	return m
}

// EnqueueError appends a scripted error.
func (m *MockExtractor) EnqueueError(err error) *MockExtractor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, nil)
	m.errs = append(m.errs, err)
	return m
}

// Calls reports how many times Extract was invoked.
func (m *MockExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Extract implements extraction.Extractor.
func (m *MockExtractor) Extract(_ context.Context, text string, schema extraction.Schema, instruction string) (extraction.StructuredOutput, error) {
	m.mu.Lock()
	i := m.calls
	m.calls++
	var (
		scripted bool
		out      extraction.StructuredOutput
		err      error
	)
	if i < len(m.responses) {
		scripted = true
		out = m.responses[i]
		err = m.errs[i]
	}
	fallback := m.Fallback
	m.mu.Unlock()

	if scripted {
		return out, err
	}
	if fallback != nil {
		return fallback(text, schema, instruction)
	}
	return extraction.StructuredOutput{}, nil
}
