package service

import (
	"context"
	"time"

	"social_chat/internal/repository"
	"social_chat/pkg/logger"
)

type RateLimitService interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		log:           log,
	}
}

func (s *rateLimitService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	allowed, count, err := s.rateLimitRepo.Allow(ctx, key, limit, window)
	if err != nil {
		return false, err
	}
	if !allowed {
		s.log.Warn("Rate limit exceeded", "key", key, "count", count, "limit", limit)
	}
	return allowed, nil
}
