package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewBackend returns a RedisLimiter when rdb is set, otherwise an in-process
// Limiter.
func NewBackend(p Policy, rdb redis.Cmdable, logger *zap.Logger) Backend {
	if rdb != nil {
		return NewRedis(rdb, p, logger)
	}
	return New(p.Limit, p.Window)
}

// Middleware rejects requests over the limit with 429, keyed by client IP.
// Backend failures let the request through.
func Middleware(b Backend, p Policy, logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	retryAfter := strconv.Itoa(int(p.Window.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			ok, err := b.Allow(r.Context(), ip)
			if err != nil {
				logger.Warn("rate limiter unavailable; allowing request",
					zap.String("policy", p.Name), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				logger.Info("rate limited",
					zap.String("policy", p.Name), zap.String("ip", ip))
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
