package repository

import (
	"context"
	"fmt"
	"time"

	"social_chat/internal/domain"
	"social_chat/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	// Ключ на каждый день UTC, живет двое суток
	TrendingKeyPrefix = "stats:hashtags:%s"
	TrendingTTL       = 48 * time.Hour
)

type TrendingRepository interface {
	Increment(ctx context.Context, day time.Time, hashtags []string) error
	Top(ctx context.Context, day time.Time, n int) ([]*domain.TrendingHashtag, error)
}

type trendingRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewTrendingRepository(rdb *redis.Client, log logger.Logger) TrendingRepository {
	return &trendingRepository{rdb: rdb, log: log}
}

func trendingKey(day time.Time) string {
	return fmt.Sprintf(TrendingKeyPrefix, day.UTC().Format("2006-01-02"))
}

func (r *trendingRepository) Increment(ctx context.Context, day time.Time, hashtags []string) error {
	if len(hashtags) == 0 {
		return nil
	}

	key := trendingKey(day)
	pipe := r.rdb.TxPipeline()
	for _, tag := range hashtags {
		pipe.ZIncrBy(ctx, key, 1, tag)
	}
	pipe.Expire(ctx, key, TrendingTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		r.log.Error("Failed to increment hashtags", "error", err, "key", key)
		return fmt.Errorf("failed to increment hashtags: %w", err)
	}
	return nil
}

func (r *trendingRepository) Top(ctx context.Context, day time.Time, n int) ([]*domain.TrendingHashtag, error) {
	items, err := r.rdb.ZRevRangeWithScores(ctx, trendingKey(day), 0, int64(n-1)).Result()
	if err != nil && err != redis.Nil {
		r.log.Error("Failed to get trending hashtags", "error", err)
		return nil, fmt.Errorf("failed to get trending hashtags: %w", err)
	}

	top := make([]*domain.TrendingHashtag, 0, len(items))
	for _, z := range items {
		tag, ok := z.Member.(string)
		if !ok {
			continue
		}
		top = append(top, &domain.TrendingHashtag{Hashtag: tag, Count: int64(z.Score)})
	}
	return top, nil
}
