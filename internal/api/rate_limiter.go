package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ignite/health-surveillance/internal/pkg/httputil"
	"github.com/ignite/health-surveillance/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const keyRateCounter = "health:ratelimit:%s:%s"

// RateLimiter is a fixed-window per-client request limiter backed by Redis.
// When Redis is unreachable requests are let through.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter allows limit requests per client per minute.
func NewRateLimiter(client *redis.Client, limit int) *RateLimiter {
	return &RateLimiter{
		redis:  client,
		limit:  limit,
		window: time.Minute,
		now:    time.Now,
	}
}

// Allow counts one request for client and reports whether it is within the
// limit, plus the seconds left in the current window.
func (l *RateLimiter) Allow(ctx context.Context, client string) (bool, int, error) {
	now := l.now()
	bucket := now.Truncate(l.window)
	key := fmt.Sprintf(keyRateCounter, client, bucket.Format("200601021504"))

	pipe := l.redis.Pipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window+5*time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, 0, fmt.Errorf("rate counter %s: %w", key, err)
	}

	retryAfter := int(bucket.Add(l.window).Sub(now).Seconds()) + 1
	return count.Val() <= int64(l.limit), retryAfter, nil
}

// Middleware rejects clients over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, retryAfter, err := l.Allow(r.Context(), clientKey(r))
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", "error", err.Error())
		}
		if !ok {
			httputil.TooManyRequests(w, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the caller. middleware.RealIP has already replaced
// RemoteAddr with the forwarded address when one is present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
