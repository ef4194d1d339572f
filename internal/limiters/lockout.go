package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable indicates the Redis backend could not be reached.
var ErrUnavailable = errors.New("limiter backend unavailable")

// LockoutConfig holds the lockout policy.
type LockoutConfig struct {
	Prefix    string
	Threshold int
	Window    time.Duration // 0 = counter never expires
}

// Lockout tracks failed attempts per username.
type Lockout struct {
	redis  redis.UniversalClient
	config LockoutConfig
}

// NewLockout creates a lockout counter. An empty prefix becomes "lock:".
func NewLockout(redisClient redis.UniversalClient, cfg LockoutConfig) *Lockout {
	if cfg.Prefix == "" {
		cfg.Prefix = "lock:"
	}
	return &Lockout{redis: redisClient, config: cfg}
}

func (l *Lockout) key(username string) string {
	return l.config.Prefix + username
}

// Locked reports whether username has reached the threshold.
func (l *Lockout) Locked(ctx context.Context, username string) (bool, error) {
	n, err := l.Failures(ctx, username)
	if err != nil {
		return false, err
	}
	return l.config.Threshold > 0 && n >= l.config.Threshold, nil
}

// RecordFailure increments the counter and reports whether the threshold has
// now been reached.
func (l *Lockout) RecordFailure(ctx context.Context, username string) (bool, error) {
	if username == "" {
		return false, nil
	}

	count, err := l.redis.Incr(ctx, l.key(username)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 && l.config.Window > 0 {
		// The window starts at the first failure.
		if err := l.redis.Expire(ctx, l.key(username), l.config.Window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return l.config.Threshold > 0 && count >= int64(l.config.Threshold), nil
}

// Reset clears the counter for username.
func (l *Lockout) Reset(ctx context.Context, username string) error {
	if username == "" {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Failures returns the current count. Missing keys count as zero.
func (l *Lockout) Failures(ctx context.Context, username string) (int, error) {
	if username == "" {
		return 0, nil
	}
	count, err := l.redis.Get(ctx, l.key(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}
