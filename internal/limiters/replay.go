package limiters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReplayGuard records consumed one-time code steps.
type ReplayGuard struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewReplayGuard creates a guard whose marks expire after ttl. The ttl should
// cover the whole accepted clock window.
func NewReplayGuard(redisClient redis.UniversalClient, prefix string, ttl time.Duration) *ReplayGuard {
	if prefix == "" {
		prefix = "otp:used:"
	}
	return &ReplayGuard{redis: redisClient, prefix: prefix, ttl: ttl}
}

// Claim marks step as used for username. It returns false if the step was
// already claimed. A nil guard claims everything.
func (g *ReplayGuard) Claim(ctx context.Context, username string, step int64) (bool, error) {
	if g == nil {
		return true, nil
	}
	key := g.prefix + username + ":" + strconv.FormatInt(step, 10)
	ok, err := g.redis.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, nil
}
