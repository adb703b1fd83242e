// Package cache is the hot screenshot tier, a TTL-bound key/value layer
// over Redis. Every backend failure degrades to a miss or a no-op: the
// hot tier is an optimization, never a correctness dependency.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is a cached screenshot. Image is base64-encoded by encoding/json;
// UpdateDate holds the upstream freshness stamp the image corresponds to,
// as a second-resolution ISO-8601 string without a timezone.
type Entry struct {
	Image      []byte `json:"image"`
	UpdateDate string `json:"update_date"`
}

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New builds a Cache over rdb with the given default TTL. A nil client
// yields a disabled cache whose reads miss and whose writes do nothing.
func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Get returns the cached entry for key, or false on a miss or any
// backend error.
func (c *Cache) Get(key string) (*Entry, bool) {
	var entry Entry
	if !c.GetJSON(key, &entry) {
		return nil, false
	}
	return &entry, true
}

// Set stores entry under key. A non-positive ttl means the default TTL.
func (c *Cache) Set(key string, entry *Entry, ttl time.Duration) {
	c.SetJSON(key, entry, ttl)
}

// GetJSON reads key and unmarshals it into out, reporting whether a
// usable value was found.
func (c *Cache) GetJSON(key string, out any) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.rdb.Get(context.Background(), key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: error fetching %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		log.Printf("cache: error decoding %s: %v", key, err)
		return false
	}
	return true
}

// SetJSON stores val under key with the given TTL (default when <= 0).
func (c *Cache) SetJSON(key string, val any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	raw, err := json.Marshal(val)
	if err != nil {
		log.Printf("cache: error encoding %s: %v", key, err)
		return
	}
	if err := c.rdb.Set(context.Background(), key, raw, ttl).Err(); err != nil {
		log.Printf("cache: error setting %s: %v", key, err)
	}
}
