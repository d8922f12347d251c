package handler

import (
	"social_chat/internal/config"
	"social_chat/internal/service"
	"social_chat/pkg/logger"
)

type Handlers struct {
	Health  *HealthHandler
	Auth    *AuthHandler
	User    *UserHandler
	Chat    *ChatHandler
	Message *MessageHandler
	Stats   *StatsHandler
	Feed    *FeedHandler
}

func NewHandlers(services *service.Services, cfg *config.Config, checks map[string]Pinger, log logger.Logger) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(cfg.Telemetry.ServiceName, checks),
		Auth:    NewAuthHandler(services.Auth, log),
		User:    NewUserHandler(services.User, log),
		Chat:    NewChatHandler(services.Chat, log),
		Message: NewMessageHandler(services.Chat, cfg.Storage.MaxImageBytes, log),
		Stats:   NewStatsHandler(services.Stats, log),
		Feed:    NewFeedHandler(services.Feed, log),
	}
}
