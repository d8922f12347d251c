package service

import (
	"context"
	"time"

	"social_chat/internal/domain"
	"social_chat/internal/repository"
	"social_chat/pkg/logger"
)

type AuditService interface {
	LogEvent(ctx context.Context, actorUserID int64, chatID *int64, eventType string, payload map[string]interface{}) error
	ChatEvents(ctx context.Context, chatID int64, limit int) ([]*domain.AuditLog, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       logger.Logger
}

func NewAuditService(auditRepo repository.AuditRepository, log logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log,
	}
}

func (s *auditService) LogEvent(ctx context.Context, actorUserID int64, chatID *int64, eventType string, payload map[string]interface{}) error {
	if payload == nil {
		payload = make(map[string]interface{})
	}

	auditLog := &domain.AuditLog{
		EventTime:   time.Now().UTC(),
		ActorUserID: &actorUserID,
		ChatID:      chatID,
		EventType:   eventType,
		Payload:     payload,
	}

	return s.auditRepo.CreateLog(ctx, auditLog)
}

func (s *auditService) ChatEvents(ctx context.Context, chatID int64, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.auditRepo.ListByChat(ctx, chatID, limit)
}
