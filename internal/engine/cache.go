package engine

import (
	"container/list"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// toolCache holds serve-mode tool outputs: a bounded in-process LRU backed
// by redis when REDIS_URL is set. The download pipeline never reads it.
var toolCache *outputCache

var (
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
)

type outputCache struct {
	mu    sync.Mutex
	items map[string]*list.Element
	lru   *list.List // front is most recently used

	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
	stop       chan struct{}
}

type cachedOutput struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// InitCache replaces the process cache. An empty redisURL keeps it in memory
// only; an unreachable redis is logged and skipped.
func InitCache(redisURL string, ttl time.Duration, maxEntries int, sweepInterval time.Duration) {
	c := &outputCache{
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		rdb:        dialRedis(redisURL),
		ttl:        ttl,
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	if toolCache != nil {
		toolCache.close()
	}
	toolCache = c
	slog.Info("cache: ready",
		slog.Duration("ttl", ttl),
		slog.Bool("redis", c.rdb != nil),
		slog.Int("max_entries", maxEntries))

	go c.sweep(sweepInterval)
}

func dialRedis(redisURL string) *redis.Client {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("cache: bad redis url, using memory only", slog.Any("error", err))
		return nil
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("cache: redis unreachable, using memory only", slog.String("addr", opts.Addr), slog.Any("error", err))
		_ = rdb.Close()
		return nil
	}
	slog.Info("cache: redis connected", slog.String("addr", opts.Addr))
	return rdb
}

// CacheKey hashes parts into a short "yt:" key.
func CacheKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("yt:%x", sum[:12])
}

// CacheGet looks in memory first, then redis. A redis hit is copied into memory.
func CacheGet(ctx context.Context, key string) ([]byte, bool) {
	c := toolCache
	if c == nil {
		cacheMisses.Add(1)
		return nil, false
	}
	if data, ok := c.load(key, time.Now()); ok {
		cacheHits.Add(1)
		return data, true
	}
	if c.rdb != nil {
		if data, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
			slog.Debug("cache: redis hit", slog.String("key", key))
			c.store(key, data, time.Now())
			cacheHits.Add(1)
			return data, true
		}
	}
	cacheMisses.Add(1)
	return nil, false
}

// CacheSet writes data to memory and, when configured, to redis.
func CacheSet(ctx context.Context, key string, data []byte) {
	c := toolCache
	if c == nil {
		return
	}
	c.store(key, data, time.Now())
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("cache: redis set failed", slog.String("key", key), slog.Any("error", err))
		}
	}
}

// CacheStats returns hit and miss counts since start.
func CacheStats() (hits, misses int64) {
	return cacheHits.Load(), cacheMisses.Load()
}

func (c *outputCache) load(key string, now time.Time) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cachedOutput)
	if !now.Before(e.expiresAt) {
		c.remove(el)
		return nil, false
	}
	c.lru.MoveToFront(el)
	return e.data, true
}

func (c *outputCache) store(key string, data []byte, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := now.Add(c.ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*cachedOutput)
		e.data, e.expiresAt = data, exp
		c.lru.MoveToFront(el)
		return
	}
	c.items[key] = c.lru.PushFront(&cachedOutput{key: key, data: data, expiresAt: exp})
	for c.maxEntries > 0 && c.lru.Len() > c.maxEntries {
		c.remove(c.lru.Back())
	}
}

func (c *outputCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// remove must be called with mu held.
func (c *outputCache) remove(el *list.Element) {
	c.lru.Remove(el)
	delete(c.items, el.Value.(*cachedOutput).key)
}

func (c *outputCache) purgeExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for el := c.lru.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*cachedOutput).expiresAt) {
			c.remove(el)
			n++
		}
		el = prev
	}
	return n
}

func (c *outputCache) sweep(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			if n := c.purgeExpired(now); n > 0 {
				slog.Debug("cache: expired entries dropped", slog.Int("count", n))
			}
		}
	}
}

func (c *outputCache) close() {
	close(c.stop)
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
}
