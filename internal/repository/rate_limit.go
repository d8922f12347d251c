package repository

import (
	"context"
	"fmt"
	"time"

	"social_chat/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const RateLimitKeyPrefix = "ratelimit:%s"

type RateLimitRepository interface {
	// Allow увеличивает счетчик ключа в окне и сообщает, не превышен ли лимит
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error)
}

type rateLimitRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewRateLimitRepository(redis *redis.Client, log logger.Logger) RateLimitRepository {
	return &rateLimitRepository{redis: redis, log: log}
}

func (r *rateLimitRepository) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, error) {
	fullKey := fmt.Sprintf(RateLimitKeyPrefix, key)

	count, err := r.redis.Incr(ctx, fullKey).Result()
	if err != nil {
		r.log.Error("Failed to increment rate limit", "error", err)
		return false, 0, err
	}

	if count == 1 {
		if err := r.redis.Expire(ctx, fullKey, window).Err(); err != nil {
			r.log.Warn("Failed to set rate limit TTL", "error", err, "key", fullKey)
		}
	}

	return count <= int64(limit), count, nil
}
