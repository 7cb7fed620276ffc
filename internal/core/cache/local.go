package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// LocalBackend keeps entries in process memory, one cost unit per entry.
type LocalBackend struct {
	c *ristretto.Cache[string, []byte]
}

func NewLocal(maxEntries int64) (*LocalBackend, error) {
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LocalBackend{c: c}, nil
}

func (l *LocalBackend) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := l.c.Get(key); ok {
		return v, nil
	}
	return nil, ErrMiss
}

func (l *LocalBackend) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	l.c.SetWithTTL(key, val, 1, ttl)
	l.c.Wait()
	return nil
}

func (l *LocalBackend) Close() error {
	l.c.Close()
	return nil
}
