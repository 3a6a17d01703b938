package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://WWW.Example.com/Auctions/", "https://www.example.com/Auctions"},
		{"https://example.com/a?utm_source=x&id=4&fbclid=abc", "https://example.com/a?id=4"},
		{"http://example.com/#top", "http://example.com"},
		{"  https://example.com/land/123#photos ", "https://example.com/land/123"},
		{"mailto:someone@example.com", ""},
		{"/relative/path", ""},
		{"", ""},
	}

	for _, tt := range tests {
		got := NormalizeURL(tt.raw)
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSameSite(t *testing.T) {
	require.True(t, SameSite("https://www.farmland.com/a", "https://farmland.com/b"))
	require.False(t, SameSite("https://farmland.com/a", "https://other.com/a"))
	require.Equal(t, "farmland.com", Hostname("https://WWW.Farmland.com/x"))
}

func TestCacheKeyIsOrderIndependent(t *testing.T) {
	a := CacheKey("boundaries", map[string]any{"lat": 42.1, "lon": -93.4, "radius": 5})
	b := CacheKey("boundaries", map[string]any{"radius": 5, "lon": -93.4, "lat": 42.1})
	require.Equal(t, a, b)
	require.Equal(t, "boundaries|lat=42.1|lon=-93.4|radius=5", a)
}

func TestCacheGetOrComputeSingleWriter(t *testing.T) {
	c := NewCache[int](16, time.Minute)
	var calls int64

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (int, error) {
				atomic.AddInt64(&calls, 1)
				time.Sleep(20 * time.Millisecond)
				return 7, nil
			})
			require.NoError(t, err)
			require.Equal(t, 7, v)
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, atomic.LoadInt64(&calls))
	v, ok := c.Get("k")
	require.True(t, ok)
	require.Equal(t, 7, v)
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	c := NewCache[string](16, time.Minute)
	_, err := c.GetOrCompute(context.Background(), "k", func(context.Context) (string, error) {
		return "", errors.New("boom")
	})
	require.Error(t, err)
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestCacheExpires(t *testing.T) {
	c := NewCache[string](16, 20*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(60 * time.Millisecond)
	_, ok := c.Get("k")
	require.False(t, ok)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	fatal := errors.New("unauthorized")
	attempts := 0
	r := &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Logger:      NewNopLogger(),
		Retryable:   func(err error) bool { return !errors.Is(err, fatal) },
	}

	err := r.Do(context.Background(), "op", func() error {
		attempts++
		return fatal
	})
	require.ErrorIs(t, err, fatal)
	require.Equal(t, 1, attempts)
}

func TestRetrySucceedsEventually(t *testing.T) {
	attempts := 0
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewNopLogger()}

	err := r.Do(context.Background(), "op", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("503")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}
