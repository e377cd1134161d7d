package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/terpworks/campusevents/config"
	"github.com/terpworks/campusevents/database"
)

// PrefixedCache wraps a cache.Cache and adds a prefix to all keys.
type PrefixedCache[T any] struct {
	cache  *cache.Cache[[]byte]
	prefix string
	ttl    time.Duration
}

// NewPrefixedCache creates a new prefixed cache wrapper.
func NewPrefixedCache[T any](cache *cache.Cache[[]byte], prefix string, ttl time.Duration) *PrefixedCache[T] {
	return &PrefixedCache[T]{
		cache:  cache,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get retrieves a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Get(ctx context.Context, key string) (T, error) {
	data, err := p.cache.Get(ctx, p.prefix+key)
	if err != nil {
		return *new(T), err
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return *new(T), err
	}
	return result, nil
}

// Set stores a value in the cache with the prefixed key.
func (p *PrefixedCache[T]) Set(ctx context.Context, key string, object T) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	return p.cache.Set(ctx, p.prefix+key, data, store.WithExpiration(p.ttl))
}

// Delete removes a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Delete(ctx context.Context, key string) error {
	return p.cache.Delete(ctx, p.prefix+key)
}

// Clear removes all values from the cache.
func (p *PrefixedCache[T]) Clear(ctx context.Context) error {
	return p.cache.Clear(ctx)
}

// Caches bundles the typed caches used by the handlers. Only event listings
// and the tag cloud are cached; user records are re-read from the database on
// every authorization check and are deliberately never cached here.
type Caches struct {
	Events *PrefixedCache[[]database.Event]
	Tags   *PrefixedCache[[]string]
}

// New creates the cache layer for the configured backend.
func New(cfg *config.CacheConfig) (*Caches, error) {
	if cfg == nil {
		cfg = &config.CacheConfig{Type: config.CacheTypeMemory, TTL: 300}
	}
	ttl := time.Duration(cfg.TTL) * time.Second

	var backing *cache.Cache[[]byte]
	switch cfg.Type {
	case config.CacheTypeMemory:
		backing = newMemoryCache[[]byte](ttl)
	case config.CacheTypeRedis:
		backing = newRedisCache[[]byte](cfg)
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}

	return &Caches{
		Events: NewPrefixedCache[[]database.Event](backing, "events:", ttl),
		Tags:   NewPrefixedCache[[]string](backing, "tags:", ttl),
	}, nil
}

// Invalidate drops all cached event data. Called after any event mutation.
func (c *Caches) Invalidate(ctx context.Context) {
	_ = c.Events.Clear(ctx)
	_ = c.Tags.Clear(ctx)
}

func newMemoryCache[T any](ttl time.Duration) *cache.Cache[T] {
	gocacheClient := gocache.New(ttl, 2*ttl)
	gocacheStore := go_store.NewGoCache(gocacheClient)
	return cache.New[T](gocacheStore)
}

func newRedisCache[T any](cfg *config.CacheConfig) *cache.Cache[T] {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})
	redisStore := redis_store.NewRedis(redisClient)
	return cache.New[T](redisStore)
}
