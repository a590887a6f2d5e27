package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"authgate/pkg/errors"
	"authgate/pkg/logger"
	"authgate/pkg/redis"
)

// RateLimiter is a fixed-window limiter backed by Redis. Each scope keeps an
// independent counter per client address; the counter's TTL marks the window
// boundary. INCR serializes concurrent requests for the same key, so counts
// are never lost.
type RateLimiter struct {
	redis   *redis.Client
	log     *logger.Logger
	scope   string
	limit   int
	window  time.Duration
	message string
}

// NewRateLimiter creates a limiter for one scope (global, auth, admin)
func NewRateLimiter(rdb *redis.Client, log *logger.Logger, scope string, limit int, window time.Duration, message string) *RateLimiter {
	return &RateLimiter{
		redis:   rdb,
		log:     log,
		scope:   scope,
		limit:   limit,
		window:  window,
		message: message,
	}
}

// Middleware enforces the limit and emits standard rate-limit headers
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := fmt.Sprintf("ratelimit:%s:%s", rl.scope, clientAddr(r))

			count, err := rl.redis.Incr(r.Context(), key)
			if err != nil {
				// A counter outage must not take the gateway down with it.
				rl.log.WithError(err).Warn("Rate limit counter unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if count == 1 {
				if err := rl.redis.Expire(r.Context(), key, rl.window); err != nil {
					rl.log.WithError(err).Warn("Failed to set rate limit window")
				}
			}

			remaining := int64(rl.limit) - count
			if remaining < 0 {
				remaining = 0
			}

			reset := rl.window
			if ttl, err := rl.redis.TTL(r.Context(), key); err == nil && ttl > 0 {
				reset = ttl
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(reset).Unix(), 10))

			if count > int64(rl.limit) {
				rl.log.WithFields(map[string]interface{}{
					"scope": rl.scope,
					"addr":  clientAddr(r),
				}).Warn("Rate limit exceeded")
				w.Header().Set("Retry-After", strconv.Itoa(int(reset.Seconds())+1))
				errors.WriteJSON(w, errors.NewRateLimitError(rl.message))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr extracts the client host for use as the limiter key. chi's RealIP
// middleware has already rewritten RemoteAddr from proxy headers.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
