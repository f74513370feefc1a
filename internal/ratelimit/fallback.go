package ratelimit

import (
	"context"
	"time"

	"github.com/noah-isme/storecart/internal/resilience"
)

// Fallback consults Primary while its breaker is closed and Secondary
// otherwise. A Primary error is reported to the breaker and answered by
// Secondary.
type Fallback struct {
	Primary   Allower
	Secondary Allower
	Breaker   *resilience.Breaker
}

// Allow implements Allower.
func (f Fallback) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	if f.Breaker == nil || f.Breaker.Allow(ctx) {
		allowed, remaining, reset, err := f.Primary.Allow(ctx, key, window, max)
		if f.Breaker != nil {
			f.Breaker.Report(ctx, err == nil)
		}
		if err == nil || f.Secondary == nil {
			return allowed, remaining, reset, err
		}
	}
	if f.Secondary == nil {
		return true, max, time.Now().Add(window), nil
	}
	return f.Secondary.Allow(ctx, key, window, max)
}
