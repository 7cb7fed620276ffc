package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by backends for absent keys.
var ErrMiss = errors.New("cache: miss")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Cache fronts a Backend and collapses concurrent loads of the same key
// into one call. A nil backend still coalesces but stores nothing.
type Cache struct {
	backend Backend
	sf      singleflight.Group
}

func New(b Backend) *Cache { return &Cache{backend: b} }

// GetOrLoad returns the cached value for key or loads it. The shared load
// runs detached from any single caller's cancellation, so a caller that
// gives up only abandons its own wait. load must bound itself.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c.backend != nil {
		if b, err := c.backend.Get(ctx, key); err == nil {
			return b, nil
		}
	}
	detached := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		b, e := load(detached)
		if e != nil {
			return nil, e
		}
		if c.backend != nil {
			_ = c.backend.Set(detached, key, b, ttl)
		}
		return b, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

type RedisBackend struct {
	RDB *redis.Client
}

func NewRedis(addr, pass string, db int) *RedisBackend {
	return &RedisBackend{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
	}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.RDB.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *RedisBackend) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.RDB.Set(ctx, key, val, ttl).Err()
}

func (r *RedisBackend) Ping(ctx context.Context) error { return r.RDB.Ping(ctx).Err() }

func (r *RedisBackend) Close() error { return r.RDB.Close() }
