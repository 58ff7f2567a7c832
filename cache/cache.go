// Package cache stores stitched extraction results in Redis, keyed by a
// hash of the document bytes and the extraction parameters. A repeated
// upload of the same document skips the analysis service entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docstitch/config"
	"docstitch/layout"
	"docstitch/pkg/logger"
)

const keyPrefix = "extract_cache:"

// ResultCache is a Redis-backed cache for assembled layout documents.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewResultCache connects to Redis and verifies the connection.
func NewResultCache(cfg *config.RedisConfig, ttl time.Duration) (*ResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ResultCache{
		client: client,
		ttl:    ttl,
		log:    logger.Get(),
	}, nil
}

// Key derives the cache key for one extraction run. Identical documents
// extracted with different parameters cache separately.
func Key(document []byte, totalPages, batchSize int, addIDs bool) string {
	h := sha256.New()
	h.Write(document)
	fmt.Fprintf(h, "|%d|%d|%t", totalPages, batchSize, addIDs)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get returns the cached document for a key, or false on a miss. Decode
// failures count as misses.
func (c *ResultCache) Get(ctx context.Context, key string) (*layout.Document, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var doc layout.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		c.log.Warn().Str("key", key).Err(err).Msg("Discarding undecodable cache entry")
		c.client.Del(ctx, keyPrefix+key)
		return nil, false
	}
	return &doc, true
}

// Set stores an assembled document under the key with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, key string, doc *layout.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
}

// Invalidate removes a cached result.
func (c *ResultCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}

// Stats reports the number of cached results and the configured TTL.
func (c *ResultCache) Stats(ctx context.Context) (map[string]any, error) {
	var count int64
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return map[string]any{
		"entries": count,
		"ttl":     c.ttl.String(),
	}, nil
}

// Close releases the Redis connection.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
