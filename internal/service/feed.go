package service

import (
	"context"

	"social_chat/internal/domain"
	"social_chat/internal/repository"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"
)

// FeedService рассылает события чата подписчикам через redis pub/sub
type FeedService interface {
	Publish(ctx context.Context, event *domain.FeedEvent)
	Subscribe(ctx context.Context, chatID, userID int64) (repository.Subscription, error)
}

type feedService struct {
	feedRepo repository.FeedRepository
	chatRepo repository.ChatRepository
	log      logger.Logger
}

func NewFeedService(feedRepo repository.FeedRepository, chatRepo repository.ChatRepository, log logger.Logger) FeedService {
	return &feedService{
		feedRepo: feedRepo,
		chatRepo: chatRepo,
		log:      log,
	}
}

// Publish не возвращает ошибку: запись уже сохранена, лента вторична
func (s *feedService) Publish(ctx context.Context, event *domain.FeedEvent) {
	if err := s.feedRepo.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish feed event", "error", err, "chat_id", event.ChatID, "type", event.Type)
	}
}

// Subscribe доступен только участникам чата
func (s *feedService) Subscribe(ctx context.Context, chatID, userID int64) (repository.Subscription, error) {
	ok, err := s.chatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrForbidden
	}
	return s.feedRepo.Subscribe(ctx, chatID)
}
