package ratelimit

import (
	"context"
	"fmt"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// MemoryWindow is a per-process fixed window limiter used when Redis is not
// configured.
type MemoryWindow struct {
	store limiter.Store
}

// NewMemoryWindow returns a limiter backed by the ulule in-memory store.
func NewMemoryWindow(prefix string) *MemoryWindow {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &MemoryWindow{store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})}
}

// Allow records an event for key and reports whether it is within max per window.
func (m *MemoryWindow) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if m == nil || m.store == nil || max <= 0 || window <= 0 {
		return true, max, time.Now().Add(window), nil
	}
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	lctx, err := limiter.New(m.store, rate).Get(ctx, fmt.Sprintf("%s:%d:%d", key, window.Milliseconds(), max))
	if err != nil {
		return false, 0, time.Now().Add(window), fmt.Errorf("rate limit %s: %w", key, err)
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
