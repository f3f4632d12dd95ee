package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rugged-weave-auth/logger"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited marks every limiter rejection so callers can map it to a
// 429 without string matching.
var ErrRateLimited = errors.New("rate limited")

// Limiter throttles OTP requests per identity and purpose: a cooldown
// between consecutive requests, a cap per window, and an extended block
// once the cap is hit. Redis being down degrades open with a warning;
// availability of sign-in beats strictness of throttling.
type Limiter struct {
	rdb         *redis.Client
	window      time.Duration
	maxInWindow int
	cooldown    time.Duration
}

func NewLimiter(rdb *redis.Client, window time.Duration, max int, cooldown time.Duration) *Limiter {
	return &Limiter{rdb: rdb, window: window, maxInWindow: max, cooldown: cooldown}
}

func (l *Limiter) CanRequest(ctx context.Context, email, purpose string) error {
	blockKey := fmt.Sprintf("otp:block:%s:%s", email, purpose)
	lastKey := fmt.Sprintf("otp:last:%s:%s", email, purpose)
	countKey := fmt.Sprintf("otp:count:%s:%s", email, purpose)

	// Check block (too many requests in window)
	ttl, err := l.rdb.TTL(ctx, blockKey).Result()
	if err != nil {
		logger.Warning("Rate limiter unavailable, allowing request: " + err.Error())
		return nil
	}
	if ttl > 0 {
		return fmt.Errorf("too many OTP requests; please try again after %d seconds: %w", int(ttl.Seconds()), ErrRateLimited)
	}

	// Check last request cooldown
	if ttl, err := l.rdb.TTL(ctx, lastKey).Result(); err == nil && ttl > 0 {
		return fmt.Errorf("please wait %d seconds before requesting another OTP: %w", int(ttl.Seconds()), ErrRateLimited)
	}

	// Increment count within window
	cnt, err := l.rdb.Incr(ctx, countKey).Result()
	if err != nil {
		logger.Warning("Rate limiter unavailable, allowing request: " + err.Error())
		return nil
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, countKey, l.window)
	}

	if int(cnt) > l.maxInWindow {
		// too many requests in window, block for extended time
		l.rdb.Set(ctx, blockKey, "1", l.window*3)
		return fmt.Errorf("too many OTP requests; please try again after %d seconds: %w", int((l.window * 3).Seconds()), ErrRateLimited)
	}

	// Set cooldown for last request
	l.rdb.Set(ctx, lastKey, "1", l.cooldown)

	return nil
}
