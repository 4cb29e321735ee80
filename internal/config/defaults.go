package config

import (
	"time"

	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
	"github.com/turtacn/EntiTag-Intelligence/internal/llm"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost = "0.0.0.0"
	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisTTL  = 24 * time.Hour

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "entitag"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// Fields that have already been set by the caller are left unchanged so that
// explicit configuration always wins.  It must be called after unmarshalling
// and before Validate so that optional-but-defaulted fields are never seen as
// missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 120 * time.Second
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 8 << 20
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// ── LLM ───────────────────────────────────────────────────────────────────
	llmDefaults := llm.DefaultConfig()
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = llmDefaults.BaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = llmDefaults.Model
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = llmDefaults.MaxTokens
	}
	if cfg.LLM.TimeoutMs == 0 {
		cfg.LLM.TimeoutMs = llmDefaults.TimeoutMs
	}
	if cfg.LLM.Retry.InitialBackoffMs == 0 {
		cfg.LLM.Retry = llmDefaults.Retry
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	pipeDefaults := extraction.DefaultEngineConfig()
	if cfg.Pipeline.ChunkSize == 0 {
		cfg.Pipeline.ChunkSize = pipeDefaults.ChunkSize
		if cfg.Pipeline.ChunkOverlap == 0 {
			cfg.Pipeline.ChunkOverlap = pipeDefaults.ChunkOverlap
		}
	}
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = pipeDefaults.Concurrency
	}
	if cfg.Pipeline.MaxRetries == 0 {
		cfg.Pipeline.MaxRetries = pipeDefaults.MaxRetries
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = DefaultRedisTTL
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
