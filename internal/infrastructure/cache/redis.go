// Package cache provides the Redis-backed chunk-result cache.  Extraction
// results are keyed by chunk content, schema fingerprint, and mode, so a
// repeated document section costs one LLM call instead of many.
package cache

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Options holds Redis connection parameters for the chunk cache.
type Options struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewClient builds a standalone Redis client from opts and verifies the
// connection with a ping.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis connection failed")
	}
	return rdb, nil
}

// ChunkCache implements extraction.ResultCache on top of Redis.  Concurrent
// reads of the same key are collapsed through singleflight so a batch full of
// identical chunks issues a single round-trip.
type ChunkCache struct {
	rdb    redis.UniversalClient
	logger logging.Logger
	ttl    time.Duration
	sf     singleflight.Group
}

// ChunkCacheOption customises a ChunkCache.
type ChunkCacheOption func(*ChunkCache)

// WithTTL sets the expiry for cached chunk results.  A zero TTL stores
// entries without expiry.
func WithTTL(ttl time.Duration) ChunkCacheOption {
	return func(c *ChunkCache) { c.ttl = ttl }
}

// NewChunkCache wraps an existing Redis client.
func NewChunkCache(rdb redis.UniversalClient, logger logging.Logger, opts ...ChunkCacheOption) *ChunkCache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &ChunkCache{
		rdb:    rdb,
		logger: logger,
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type lookup struct {
	spans []extraction.Span
	hit   bool
}

// GetChunk implements extraction.ResultCache.  A missing key is a miss, not
// an error; an unreadable stored value is an error so the caller can degrade
// to recomputation.
func (c *ChunkCache) GetChunk(ctx context.Context, key string) ([]extraction.Span, bool, error) {
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		data, err := c.rdb.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return lookup{}, nil
		}
		if err != nil {
			return lookup{}, errors.Wrap(err, errors.ErrCodeCacheError, "failed to read chunk result")
		}
		var spans []extraction.Span
		if err := json.Unmarshal(data, &spans); err != nil {
			return lookup{}, errors.Wrap(err, errors.ErrCodeSerialization, "stored chunk result is unreadable")
		}
		return lookup{spans: spans, hit: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	res := v.(lookup)
	return res.spans, res.hit, nil
}

// SetChunk implements extraction.ResultCache.
func (c *ChunkCache) SetChunk(ctx context.Context, key string, spans []extraction.Span) error {
	data, err := json.Marshal(spans)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to serialize chunk result")
	}
	if err := c.rdb.Set(ctx, key, data, jitterTTL(c.ttl)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to write chunk result")
	}
	return nil
}

// Ping reports cache health.
func (c *ChunkCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// jitterTTL spreads expiries by ±10% so a batch of entries written together
// does not expire together.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}
