package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstitch/config"
	"docstitch/layout"
)

func testCache(t *testing.T) *ResultCache {
	t.Helper()
	cfg := &config.RedisConfig{Host: "localhost", Port: "6379", DB: 15}
	rc, err := NewResultCache(cfg, time.Minute)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { rc.Close() })
	return rc
}

// Test key derivation is deterministic and parameter-sensitive
func TestKey(t *testing.T) {
	document := []byte("%PDF-1.7 sample")

	assert.Equal(t, Key(document, 10, 2, false), Key(document, 10, 2, false))
	assert.NotEqual(t, Key(document, 10, 2, false), Key(document, 10, 3, false))
	assert.NotEqual(t, Key(document, 10, 2, false), Key(document, 10, 2, true))
	assert.NotEqual(t, Key(document, 10, 2, false), Key([]byte("other bytes"), 10, 2, false))
	assert.Len(t, Key(document, 10, 2, false), 64)
}

// Test round trip through Redis
func TestCacheRoundTrip(t *testing.T) {
	rc := testCache(t)
	ctx := context.Background()

	doc := &layout.Document{
		Content: "page 1 text.",
		Pages:   []layout.Page{{PageNumber: 1}},
		Paragraphs: []layout.Element{
			{Content: "page 1 text.", Spans: []layout.Span{{Offset: 0, Length: 12}}},
		},
	}

	key := Key([]byte("doc bytes"), 1, 1, false)
	t.Cleanup(func() { rc.Invalidate(ctx, key) })

	_, ok := rc.Get(ctx, key)
	assert.False(t, ok)

	require.NoError(t, rc.Set(ctx, key, doc))

	cached, ok := rc.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, doc.Content, cached.Content)
	assert.Equal(t, doc.Paragraphs, cached.Paragraphs)

	require.NoError(t, rc.Invalidate(ctx, key))
	_, ok = rc.Get(ctx, key)
	assert.False(t, ok)
}

// Test stats report cached entries
func TestCacheStats(t *testing.T) {
	rc := testCache(t)
	ctx := context.Background()

	key := Key([]byte("stats doc"), 1, 1, false)
	require.NoError(t, rc.Set(ctx, key, &layout.Document{Content: "x"}))
	t.Cleanup(func() { rc.Invalidate(ctx, key) })

	stats, err := rc.Stats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats["entries"].(int64), int64(1))
	assert.Equal(t, "1m0s", stats["ttl"])
}
