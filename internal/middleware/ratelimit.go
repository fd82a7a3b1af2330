package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/pkg/response"
)

// RateLimiter is a fixed window counter kept in Redis
type RateLimiter struct {
	redis  *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit hits per window for each key
func NewRateLimiter(redisClient *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow counts a hit for key and reports whether it is within the limit
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.redis == nil {
		return true
	}

	k := fmt.Sprintf("ratelimit:%s:%s", rl.prefix, key)

	count, err := rl.redis.Incr(ctx, k).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", k).Msg("Rate limiter unavailable, allowing request")
		return true
	}

	if count == 1 {
		rl.redis.Expire(ctx, k, rl.window)
	}

	return count <= int64(rl.limit)
}

// RateLimit limits requests per client IP, or per user once authenticated
func RateLimit(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if id := GetUserID(r.Context()); id != uuid.Nil {
				key = id.String()
			}
			if !rl.Allow(r.Context(), key) {
				response.TooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the remote host; chi's RealIP has already applied proxy headers
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
