package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const displayKeyPrefix = "payment_display:"

// MemoryDedupCache is a process local set of recently logged keys. Entries
// are dropped once their TTL passes.
type MemoryDedupCache struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  Clock
}

func NewMemoryDedupCache(clock Clock) *MemoryDedupCache {
	if clock == nil {
		clock = systemClock
	}
	return &MemoryDedupCache{keys: make(map[string]time.Time), now: clock}
}

func (c *MemoryDedupCache) Seen(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.keys[key]
	if !ok {
		return false, nil
	}
	if !c.now().Before(until) {
		delete(c.keys, key)
		return false, nil
	}
	return true, nil
}

func (c *MemoryDedupCache) Mark(ctx context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, until := range c.keys {
		if !now.Before(until) {
			delete(c.keys, k)
		}
	}
	c.keys[key] = now.Add(ttl)
	return nil
}

// Len is the number of unexpired keys held.
func (c *MemoryDedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

// RedisDedupCache shares the fast path between replicas.
type RedisDedupCache struct {
	client *redis.Client
}

func NewRedisDedupCache(client *redis.Client) *RedisDedupCache {
	return &RedisDedupCache{client: client}
}

func (c *RedisDedupCache) Seen(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, displayKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark sets the key only if absent, so a replay never extends its TTL.
func (c *RedisDedupCache) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.SetNX(ctx, displayKeyPrefix+key, "1", ttl).Err()
}
