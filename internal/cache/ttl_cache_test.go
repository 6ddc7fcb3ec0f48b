package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type facetFixture struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func newTestCache(ttls TTLTable) (*TTLCache, *MemoryStore) {
	store := NewMemoryStore()
	return NewTTLCache(store, ttls, "dir"), store
}

func TestGetMissOnEmptyStore(t *testing.T) {
	c, _ := newTestCache(nil)

	var out facetFixture
	assert.False(t, c.Get(context.Background(), "facets", "all", &out))
}

func TestSetThenGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(nil)
	ctx := context.Background()

	c.Set(ctx, "facets", "all", facetFixture{Name: "Books", Count: 7})

	var out facetFixture
	require.True(t, c.Get(ctx, "facets", "all", &out))
	assert.Equal(t, "Books", out.Name)
	assert.Equal(t, 7, out.Count)
}

func TestTTLBoundary(t *testing.T) {
	c, _ := newTestCache(TTLTable{"facets": 24 * time.Hour})
	ctx := context.Background()

	writtenAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return writtenAt }
	c.Set(ctx, "facets", "all", facetFixture{Name: "Books"})

	// Just inside the TTL: still valid.
	c.now = func() time.Time { return writtenAt.Add(23*time.Hour + 59*time.Minute) }
	var out facetFixture
	assert.True(t, c.Get(ctx, "facets", "all", &out))

	// Just past the TTL: miss, and the entry is gone for good even if
	// the clock rolls back.
	c.now = func() time.Time { return writtenAt.Add(24*time.Hour + time.Minute) }
	assert.False(t, c.Get(ctx, "facets", "all", &out))

	c.now = func() time.Time { return writtenAt }
	assert.False(t, c.Get(ctx, "facets", "all", &out), "expired entry must have been evicted")
}

func TestPerNameTTLs(t *testing.T) {
	c, _ := newTestCache(TTLTable{"short": time.Minute, "long": 48 * time.Hour})
	ctx := context.Background()

	writtenAt := time.Now()
	c.now = func() time.Time { return writtenAt }
	c.Set(ctx, "short", "k", facetFixture{})
	c.Set(ctx, "long", "k", facetFixture{})

	c.now = func() time.Time { return writtenAt.Add(2 * time.Hour) }
	var out facetFixture
	assert.False(t, c.Get(ctx, "short", "k", &out))
	assert.True(t, c.Get(ctx, "long", "k", &out))
}

func TestCorruptedEntryEvicted(t *testing.T) {
	c, store := newTestCache(nil)
	ctx := context.Background()

	key := c.key("facets", "all")
	require.NoError(t, store.Set(ctx, key, []byte("not json at all {{{")))

	var out facetFixture
	assert.False(t, c.Get(ctx, "facets", "all", &out))
	assert.False(t, c.Get(ctx, "facets", "all", &out))

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound, "corrupted entry must be evicted")
}

func TestCorruptedPayloadEvicted(t *testing.T) {
	c, store := newTestCache(nil)
	ctx := context.Background()

	// Valid wrapper, payload of the wrong shape for the caller's type.
	key := c.key("facets", "all")
	require.NoError(t, store.Set(ctx, key, []byte(`{"payload":"just a string","timestamp":1}`)))

	c.now = func() time.Time { return time.UnixMilli(1) }
	var out facetFixture
	assert.False(t, c.Get(ctx, "facets", "all", &out))

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetOverwrites(t *testing.T) {
	c, _ := newTestCache(nil)
	ctx := context.Background()

	c.Set(ctx, "facets", "all", facetFixture{Name: "old"})
	c.Set(ctx, "facets", "all", facetFixture{Name: "new"})

	var out facetFixture
	require.True(t, c.Get(ctx, "facets", "all", &out))
	assert.Equal(t, "new", out.Name)
}

func TestDefaultTTLForUnknownName(t *testing.T) {
	c, _ := newTestCache(TTLTable{})
	assert.Equal(t, DefaultTTL, c.ttl("never-configured"))
}
