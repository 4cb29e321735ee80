package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

// ---------------------------------------------------------------------------
// OpenAI-compatible chat-completions backend
// ---------------------------------------------------------------------------

// RetryConfig holds retry settings for the backend.
type RetryConfig struct {
	MaxRetries        int     `json:"max_retries" mapstructure:"max_retries"`
	InitialBackoffMs  int     `json:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `json:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	BackoffMultiplier float64 `json:"backoff_multiplier" mapstructure:"backoff_multiplier"`
}

// Config holds the backend connection and sampling parameters. Any endpoint
// implementing the OpenAI chat-completions wire format works: OpenAI itself,
// vLLM, Ollama, or a local gateway.
type Config struct {
	BaseURL     string      `json:"base_url" mapstructure:"base_url"`
	APIKey      string      `json:"api_key" mapstructure:"api_key"`
	Model       string      `json:"model" mapstructure:"model"`
	Temperature float64     `json:"temperature" mapstructure:"temperature"`
	MaxTokens   int         `json:"max_tokens" mapstructure:"max_tokens"`
	TimeoutMs   int         `json:"timeout_ms" mapstructure:"timeout_ms"`
	Retry       RetryConfig `json:"retry" mapstructure:"retry"`
}

// DefaultConfig returns production defaults. The API key has no default.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.0,
		MaxTokens:   4096,
		TimeoutMs:   60000,
		Retry: RetryConfig{
			MaxRetries:        3,
			InitialBackoffMs:  500,
			MaxBackoffMs:      10000,
			BackoffMultiplier: 2.0,
		},
	}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New(errors.CodeInvalidParam, "llm base_url must not be empty")
	}
	if c.Model == "" {
		return errors.New(errors.CodeInvalidParam, "llm model must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2.0 {
		return errors.New(errors.CodeInvalidParam, "llm temperature must be between 0 and 2.0")
	}
	if c.TimeoutMs <= 0 {
		return errors.New(errors.CodeInvalidParam, "llm timeout_ms must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		return errors.New(errors.CodeInvalidParam, "llm retry max_retries must not be negative")
	}
	return nil
}

// OpenAIExtractor implements extraction.Extractor against an
// OpenAI-compatible /chat/completions endpoint. Transient failures (network
// errors, 5xx, 429) are retried with exponential backoff and jitter; 4xx
// responses and schema shape violations are not.
type OpenAIExtractor struct {
	cfg    Config
	client *http.Client
	logger logging.Logger
}

// NewOpenAIExtractor constructs a backend from cfg.
func NewOpenAIExtractor(cfg Config, logger logging.Logger) (*OpenAIExtractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &OpenAIExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
		logger: logger,
	}, nil
}

// Extract implements extraction.Extractor.
func (o *OpenAIExtractor) Extract(ctx context.Context, text string, schema extraction.Schema, instruction string) (extraction.StructuredOutput, error) {
	reqBody := chatRequest{
		Model:          o.cfg.Model,
		Messages:       messagesFor(text, schema, instruction),
		Temperature:    o.cfg.Temperature,
		MaxTokens:      o.cfg.MaxTokens,
		ResponseFormat: &respFormat{Type: "json_object"},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal chat request")
	}

	content, err := o.complete(ctx, payload)
	if err != nil {
		return nil, err
	}
	return decodeOutput(content, schema)
}

// complete performs the HTTP call with retries and returns the first
// choice's message content.
func (o *OpenAIExtractor) complete(ctx context.Context, payload []byte) (string, error) {
	url := strings.TrimSuffix(o.cfg.BaseURL, "/") + "/chat/completions"

	var lastErr error
	for attempt := 0; attempt <= o.cfg.Retry.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := o.backoff(attempt)
			o.logger.Debug("retrying llm request",
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeLLMBackend, "failed to create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", uuid.New().String())
		if o.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
		}

		resp, err := o.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = errors.Wrap(err, errors.ErrCodeLLMBackend, "chat completion request failed")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = errors.Wrap(readErr, errors.ErrCodeLLMBackend, "failed to read response body")
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = errors.New(errors.ErrCodeLLMRateLimited, "backend rate limited the request")
			if wait := retryAfter(resp); wait > 0 && attempt < o.cfg.Retry.MaxRetries {
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
			continue
		case resp.StatusCode >= 500:
			lastErr = errors.Newf(errors.ErrCodeLLMBackend, "backend returned HTTP %d", resp.StatusCode)
			continue
		case resp.StatusCode >= 400:
			return "", errors.Newf(errors.ErrCodeLLMBackend,
				"backend rejected the request with HTTP %d", resp.StatusCode).
				WithDetail(truncateBody(body))
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", errors.Wrap(err, errors.ErrCodeLLMDecode, "failed to decode chat response")
		}
		return parsed.content()
	}
	return "", lastErr
}

func (o *OpenAIExtractor) backoff(attempt int) time.Duration {
	initial := time.Duration(o.cfg.Retry.InitialBackoffMs) * time.Millisecond
	max := time.Duration(o.cfg.Retry.MaxBackoffMs) * time.Millisecond
	mult := o.cfg.Retry.BackoffMultiplier
	if mult < 1 {
		mult = 2.0
	}

	d := float64(initial)
	for i := 1; i < attempt; i++ {
		d *= mult
	}
	backoff := time.Duration(d)
	if max > 0 && backoff > max {
		backoff = max
	}
	if backoff <= 0 {
		backoff = initial
	}
	// Jitter up to 25% of the backoff.
	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int63n(quarter))
	}
	return backoff
}

func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
