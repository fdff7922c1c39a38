package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindowLimiter counts requests per key in Redis, one counter per
// window slot.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration
	prefix string
	client *redis.Client
	now    func() time.Time

	trusted *TrustedProxies
}

// NewFixedWindowLimiter connects a limiter to the Redis server at addr.
func NewFixedWindowLimiter(addr, password, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "library:ratelimit"
	}
	return &FixedWindowLimiter{
		limit:  limit,
		window: window,
		prefix: prefix,
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		now:    time.Now,
	}, nil
}

// Allow reports whether key is within quota. Redis failures deny.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil {
		return false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	if windowMs <= 0 {
		return true
	}
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	n, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false
	}
	return n <= int64(l.limit)
}

// TrustProxies sets the peers allowed to report the client address in
// forwarded headers. Call before Middleware.
func (l *FixedWindowLimiter) TrustProxies(t *TrustedProxies) {
	l.trusted = t
}

// Ping checks the Redis connection for readiness checks.
func (l *FixedWindowLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *FixedWindowLimiter) Close() error {
	return l.client.Close()
}

// Middleware throttles next per path and client IP.
func (l *FixedWindowLimiter) Middleware(next http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(l.window.Seconds()))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.Context(), r.URL.Path+"|"+ClientIP(r, l.trusted)) {
			w.Header().Set("Retry-After", retryAfter)
			response.Error(w, http.StatusTooManyRequests, "Request was throttled.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
