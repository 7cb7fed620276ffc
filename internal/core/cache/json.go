package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// GetOrLoadJSON caches load's result as JSON under key. A stored value
// that no longer decodes into T is replaced by a fresh load.
func GetOrLoadJSON[T any](ctx context.Context, c *Cache, key string, ttl time.Duration,
	load func(ctx context.Context) (*T, error)) (*T, error) {
	encode := func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, fmt.Errorf("cache: loader for %q returned nothing", key)
		}
		return json.Marshal(v)
	}

	b, err := c.GetOrLoad(ctx, key, ttl, encode)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err == nil {
		return &out, nil
	}

	b, err = encode(ctx)
	if err != nil {
		return nil, err
	}
	if c.backend != nil {
		_ = c.backend.Set(ctx, key, b, ttl)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
