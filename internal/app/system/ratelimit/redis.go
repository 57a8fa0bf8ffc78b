package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLimiter is a fixed-window Backend shared by every replica. Each
// window is its own key, "<prefix>:<key>:<window start unix>", incremented
// and given a TTL in one pipeline.
type RedisLimiter struct {
	rdb    redis.Cmdable
	prefix string
	limit  int
	window time.Duration
	log    *zap.Logger
	now    func() time.Time
}

// NewRedis returns a RedisLimiter for p. Keys are namespaced by p.Name.
func NewRedis(rdb redis.Cmdable, p Policy, logger *zap.Logger) *RedisLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLimiter{
		rdb:    rdb,
		prefix: "reelhub:ratelimit:" + p.Name,
		limit:  p.Limit,
		window: p.Window,
		log:    logger,
		now:    time.Now,
	}
}

func (l *RedisLimiter) bucketKey(key string, at time.Time) string {
	start := at.Truncate(l.window).Unix()
	return l.prefix + ":" + key + ":" + strconv.FormatInt(start, 10)
}

// Allow implements Backend.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.bucketKey(key, l.now())

	pipe := l.rdb.Pipeline()
	incr := pipe.Incr(ctx, bucket)
	pipe.Expire(ctx, bucket, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check %s: %w", bucket, err)
	}

	if incr.Val() > int64(l.limit) {
		l.log.Debug("rate limit exceeded",
			zap.String("key", bucket),
			zap.Int64("count", incr.Val()),
			zap.Int("limit", l.limit))
		return false, nil
	}
	return true, nil
}
