package repository

import (
	"social_chat/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

//go:generate mockgen -destination=../mocks/repository_mock.go -package=mocks social_chat/internal/repository UserRepository,ContactRepository,ChatRepository,MessageRepository,StatsRepository,AuditRepository,RateLimitRepository,TrendingRepository,FeedRepository,Subscription

type Repositories struct {
	User      UserRepository
	Contact   ContactRepository
	Chat      ChatRepository
	Message   MessageRepository
	Stats     StatsRepository
	Audit     AuditRepository
	RateLimit RateLimitRepository
	Trending  TrendingRepository
	Feed      FeedRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:      NewUserRepository(db, log),
		Contact:   NewContactRepository(db, log),
		Chat:      NewChatRepository(db, log),
		Message:   NewMessageRepository(db, log),
		Stats:     NewStatsRepository(db, log),
		Audit:     NewAuditRepository(db, log),
		RateLimit: NewRateLimitRepository(redis, log),
		Trending:  NewTrendingRepository(redis, log),
		Feed:      NewFeedRepository(redis, log),
	}
}
