package source

import (
	"context"
	"encoding/json"
	"sync"

	"lyricpip/internal/lyrics"
	"lyricpip/pkg/redis"
)

const redisKeyPrefix = "lyricpip:lyrics:"

// Cache keeps one resolved lyric result per track key. The in-memory map
// covers the process lifetime; when a redis client is provided, results
// survive restarts too.
type Cache struct {
	mu  sync.Mutex
	mem map[string]*lyrics.Data
	rdb *redis.Client
}

// NewCache builds a cache. rdb may be nil to run memory-only.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{
		mem: make(map[string]*lyrics.Data),
		rdb: rdb,
	}
}

// Get returns the cached result for key, or nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) *lyrics.Data {
	c.mu.Lock()
	if d, ok := c.mem[key]; ok {
		c.mu.Unlock()
		return d
	}
	c.mu.Unlock()

	if c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key)
	if err != nil || raw == "" {
		return nil
	}
	var d lyrics.Data
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("corrupt cached lyrics entry, ignoring")
		return nil
	}
	c.mu.Lock()
	c.mem[key] = &d
	c.mu.Unlock()
	return &d
}

// Put stores a result for key in memory and, when available, in redis.
func (c *Cache) Put(ctx context.Context, key string, d *lyrics.Data) {
	c.mu.Lock()
	c.mem[key] = d
	c.mu.Unlock()

	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, string(raw)); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to write lyrics to redis")
	}
}

// Forget drops any cached result for key so the next fetch hits providers.
func (c *Cache) Forget(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.mem, key)
	c.mu.Unlock()

	if c.rdb == nil {
		return
	}
	if _, err := c.rdb.Del(ctx, redisKeyPrefix+key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to delete lyrics from redis")
	}
}
