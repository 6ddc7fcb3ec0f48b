package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shoplocal/directory-service/internal/log"
)

// DefaultTTL applies to logical caches with no explicit entry in the
// TTL table. Facet metadata is slow-changing, so a day is fine.
const DefaultTTL = 24 * time.Hour

// TTLTable maps a logical cache name (not a storage key) to its TTL, so
// distinct caches get independent, centrally defined lifetimes.
type TTLTable map[string]time.Duration

// TTLCache is a read-through cache of JSON payloads wrapped with a write
// timestamp. An entry is valid iff now-timestamp <= ttl; expired or
// corrupted entries are evicted eagerly on read and reported as a miss.
// A miss never affects correctness, only latency: every consumer must
// work with a permanently cold cache.
type TTLCache struct {
	store  Store
	ttls   TTLTable
	prefix string
	now    func() time.Time
}

type entry struct {
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
}

// NewTTLCache wraps store with timestamp-validated expiry.
func NewTTLCache(store Store, ttls TTLTable, prefix string) *TTLCache {
	return &TTLCache{
		store:  store,
		ttls:   ttls,
		prefix: prefix,
		now:    time.Now,
	}
}

func (c *TTLCache) key(name, key string) string {
	return fmt.Sprintf("%s:cache:%s:%s", c.prefix, name, key)
}

func (c *TTLCache) ttl(name string) time.Duration {
	if d, ok := c.ttls[name]; ok {
		return d
	}
	return DefaultTTL
}

// Get unmarshals the cached payload for (name, key) into out and
// returns true on a hit. Stale and unparseable entries are deleted and
// reported as a miss; storage errors are logged, never propagated.
func (c *TTLCache) Get(ctx context.Context, name, key string, out any) bool {
	l := log.Ctx(ctx)
	k := c.key(name, key)

	data, err := c.store.Get(ctx, k)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			l.Warn().Err(err).Str("key", k).Msg("cache read error")
		}
		return false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		l.Debug().Str("key", k).Msg("evicting corrupted cache entry")
		c.evict(ctx, k)
		return false
	}

	age := c.now().Sub(time.UnixMilli(e.Timestamp))
	if age > c.ttl(name) {
		c.evict(ctx, k)
		return false
	}

	if err := json.Unmarshal(e.Payload, out); err != nil {
		l.Debug().Str("key", k).Msg("evicting undecodable cache payload")
		c.evict(ctx, k)
		return false
	}

	return true
}

// Set stores payload under (name, key) with the current timestamp,
// overwriting any prior entry. Failures are logged, not returned: the
// cache being unwritable must never fail the request it was serving.
func (c *TTLCache) Set(ctx context.Context, name, key string, payload any) {
	l := log.Ctx(ctx)
	k := c.key(name, key)

	raw, err := json.Marshal(payload)
	if err != nil {
		l.Warn().Err(err).Str("key", k).Msg("cache marshal error")
		return
	}

	data, err := json.Marshal(entry{Payload: raw, Timestamp: c.now().UnixMilli()})
	if err != nil {
		l.Warn().Err(err).Str("key", k).Msg("cache marshal error")
		return
	}

	if err := c.store.Set(ctx, k, data); err != nil {
		l.Warn().Err(err).Str("key", k).Msg("cache write error")
	}
}

func (c *TTLCache) evict(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("cache evict error")
	}
}
