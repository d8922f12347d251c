package service

import (
	"context"
	"time"

	"social_chat/internal/domain"
	"social_chat/internal/repository"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/samber/lo"
)

// StatsDays - глубина дневной статистики
const StatsDays = 7

type StatsService interface {
	Daily(ctx context.Context, metric string) ([]*domain.DailyCount, error)
	UserMessages(ctx context.Context, userID int64) ([]*domain.UserDailyCount, error)
	MessageStats(ctx context.Context, messageID int64) (*domain.MessageStats, error)
	Trending(ctx context.Context, limit int) ([]*domain.TrendingHashtag, error)
}

type statsService struct {
	statsRepo     repository.StatsRepository
	userRepo      repository.UserRepository
	trendingRepo  repository.TrendingRepository
	trendingLimit int
	log           logger.Logger
	now           func() time.Time
}

func NewStatsService(
	statsRepo repository.StatsRepository,
	userRepo repository.UserRepository,
	trendingRepo repository.TrendingRepository,
	trendingLimit int,
	log logger.Logger,
) StatsService {
	return &statsService{
		statsRepo:     statsRepo,
		userRepo:      userRepo,
		trendingRepo:  trendingRepo,
		trendingLimit: trendingLimit,
		log:           log,
		now:           time.Now,
	}
}

func (s *statsService) Daily(ctx context.Context, metric string) ([]*domain.DailyCount, error) {
	switch metric {
	case domain.StatsPosts, domain.StatsLikes, domain.StatsDislikes, domain.StatsReplies, domain.StatsActive:
	default:
		return nil, apperrors.NewFieldError(apperrors.ErrValidation, "unknown metric "+metric, "metric")
	}
	return s.statsRepo.DailyCounts(ctx, metric, s.now(), StatsDays)
}

func (s *statsService) UserMessages(ctx context.Context, userID int64) ([]*domain.UserDailyCount, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	counts, err := s.statsRepo.UserDailyMessages(ctx, userID, s.now(), StatsDays)
	if err != nil {
		return nil, err
	}

	return lo.Map(counts, func(c *domain.DailyCount, _ int) *domain.UserDailyCount {
		return &domain.UserDailyCount{
			UserID:   user.ID,
			Username: user.Username,
			Day:      c.Day,
			Total:    c.Total,
		}
	}), nil
}

func (s *statsService) MessageStats(ctx context.Context, messageID int64) (*domain.MessageStats, error) {
	return s.statsRepo.MessageStats(ctx, messageID)
}

func (s *statsService) Trending(ctx context.Context, limit int) ([]*domain.TrendingHashtag, error) {
	if limit <= 0 {
		limit = s.trendingLimit
	}
	if limit > 100 {
		limit = 100
	}
	return s.trendingRepo.Top(ctx, s.now(), limit)
}
