package utils

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Cache is a size-bounded TTL cache. Concurrent misses on the same key share
// one computation, so there is a single writer per key.
type Cache[T any] struct {
	lru   *expirable.LRU[string, T]
	group singleflight.Group
}

// NewCache creates a Cache holding at most size entries for ttl each.
func NewCache[T any](size int, ttl time.Duration) *Cache[T] {
	if size <= 0 {
		size = 1024
	}
	return &Cache[T]{lru: expirable.NewLRU[string, T](size, nil, ttl)}
}

// Get returns the cached value for key, if present and not expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	return c.lru.Get(key)
}

// Set stores value under key.
func (c *Cache[T]) Set(key string, value T) {
	c.lru.Add(key, value)
}

// GetOrCompute returns the cached value or runs compute and caches its
// result. Errors are returned to every waiter and never cached.
func (c *Cache[T]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return v, err
		}
		c.lru.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Len returns the number of live entries.
func (c *Cache[T]) Len() int {
	return c.lru.Len()
}

// CacheKey builds a deterministic key from a prefix and query parameters.
// Parameter order does not matter.
func CacheKey(prefix string, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(prefix)
	for _, k := range keys {
		fmt.Fprintf(&b, "|%s=%v", k, params[k])
	}
	return b.String()
}
