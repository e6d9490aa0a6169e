// internal/content/cache.go
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portfolio/internal/observability/logging"
	"portfolio/internal/observability/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "portfolio:content:"
	defaultCacheTTL  = 5 * time.Minute
	sourceCache      = "cache"
)

// CachedStore is a read-through redis cache in front of a Store. Cache
// failures are logged and the request is served by the store.
type CachedStore struct {
	logger    *logging.Logger
	metrics   *metrics.Collector
	store     Store
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisClient connects to the redis server at redisURL
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// NewCachedStore wraps store with a redis cache
func NewCachedStore(store Store, client redis.UniversalClient, ttl time.Duration, logger *logging.Logger, metrics *metrics.Collector) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedStore{
		logger:    logger.WithModule("content.cache"),
		metrics:   metrics,
		store:     store,
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
	}
}

// ListPosts implements Store
func (c *CachedStore) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if c.lookup(ctx, "posts", &posts) {
		return posts, nil
	}

	posts, err := c.store.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	c.save(ctx, "posts", posts)
	return posts, nil
}

// GetPost implements Store. Missing posts are not cached.
func (c *CachedStore) GetPost(ctx context.Context, slug string) (*Post, error) {
	if !ValidSlug(slug) {
		return nil, ErrNotFound
	}

	key := "post:" + slug
	var post Post
	if c.lookup(ctx, key, &post) {
		return &post, nil
	}

	fetched, err := c.store.GetPost(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, fetched)
	return fetched, nil
}

// Invalidate drops every cached entry
func (c *CachedStore) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// lookup decodes the cached value for key into v and reports a hit
func (c *CachedStore) lookup(ctx context.Context, key string, v any) bool {
	start := time.Now()
	logger := logging.FromContext(ctx, c.logger)

	data, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.metrics.RecordContentFetch(sourceCache, "miss", time.Since(start))
		return false
	case err != nil:
		logger.Warn("Content cache read failed", "key", key, logging.Err(err))
		c.metrics.RecordContentFetch(sourceCache, "error", time.Since(start))
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("Discarding undecodable cache entry", "key", key, logging.Err(err))
		c.metrics.RecordContentFetch(sourceCache, "error", time.Since(start))
		return false
	}

	c.metrics.RecordContentFetch(sourceCache, "hit", time.Since(start))
	return true
}

// save stores v under key; failures only cost a future cache miss
func (c *CachedStore) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", "key", key, logging.Err(err))
		return
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, data, c.ttl).Err(); err != nil {
		logging.FromContext(ctx, c.logger).Warn("Content cache write failed", "key", key, logging.Err(err))
	}
}
