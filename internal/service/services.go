package service

import (
	"social_chat/internal/config"
	"social_chat/internal/repository"
	"social_chat/internal/storage"
	"social_chat/pkg/logger"
)

//go:generate mockgen -destination=../mocks/service_mock.go -package=mocks social_chat/internal/service AuthService,UserService,ChatService,StatsService,AuditService,RateLimitService,FeedService

type Services struct {
	Auth      AuthService
	User      UserService
	Chat      ChatService
	Stats     StatsService
	Audit     AuditService
	RateLimit RateLimitService
	Feed      FeedService
}

func NewServices(repos *repository.Repositories, blobs storage.BlobStore, cfg *config.Config, log logger.Logger) *Services {
	audit := NewAuditService(repos.Audit, log)
	feed := NewFeedService(repos.Feed, repos.Chat, log)

	return &Services{
		Auth:      NewAuthService(repos.User, cfg.JWT, log),
		User:      NewUserService(repos.User, repos.Contact, audit, log),
		Chat:      NewChatService(repos.Chat, repos.Message, repos.Trending, blobs, audit, feed, cfg.Chat, log),
		Stats:     NewStatsService(repos.Stats, repos.User, repos.Trending, cfg.Chat.TrendingLimit, log),
		Audit:     audit,
		RateLimit: NewRateLimitService(repos.RateLimit, log),
		Feed:      feed,
	}
}
