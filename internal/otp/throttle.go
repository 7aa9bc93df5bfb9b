package otp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Throttle limits OTP emails per address
type Throttle interface {
	// Allow records one send for key and reports whether it is within the limit
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisThrottle is a fixed window counter shared by every API instance
type RedisThrottle struct {
	Redis  *redis.Client
	Prefix string
	Limit  int
	Window time.Duration
}

// NewRedisThrottle allows limit sends per window for each key
func NewRedisThrottle(r *redis.Client, limit int, window time.Duration) *RedisThrottle {
	return &RedisThrottle{Redis: r, Prefix: "otp-send", Limit: limit, Window: window}
}

// Allow implements Throttle
func (t *RedisThrottle) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", t.Prefix, normalize(key))

	// one MULTI: the counter never exists without a TTL. EXPIRE NX keeps the window of the first send.
	var incr *redis.IntCmd
	_, err := t.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, t.Window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("otp throttle: %w", err)
	}
	return incr.Val() <= int64(t.Limit), nil
}

// MemoryThrottle keeps a token bucket per key in process
type MemoryThrottle struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	window   time.Duration
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryThrottle allows a burst of limit sends, refilled evenly over window
func NewMemoryThrottle(limit int, window time.Duration) *MemoryThrottle {
	if limit < 1 {
		limit = 1
	}
	return &MemoryThrottle{
		limit:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		window:   window,
		visitors: map[string]*visitor{},
		now:      time.Now,
	}
}

// Allow implements Throttle
func (t *MemoryThrottle) Allow(ctx context.Context, key string) (bool, error) {
	now := t.now()
	key = normalize(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.sweep(now)
	v, ok := t.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

// sweep drops keys idle for longer than a full window, their bucket is full again anyway
func (t *MemoryThrottle) sweep(now time.Time) {
	cutoff := now.Add(-t.window)
	for k, v := range t.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(t.visitors, k)
		}
	}
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
