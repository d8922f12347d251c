package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"social_chat/internal/config"
	"social_chat/internal/domain"
	"social_chat/internal/repository"
	"social_chat/internal/storage"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/samber/lo"
)

type ChatService interface {
	// Чтение
	GetChatMessages(ctx context.Context, chatID int64) ([]*domain.MessageView, error)
	GetChat(ctx context.Context, chatID int64) (*domain.Chat, error)
	ListUserChats(ctx context.Context, userID int64) ([]*domain.Chat, error)
	GetMembers(ctx context.Context, chatID int64) ([]*domain.Member, error)
	GetOwner(ctx context.Context, chatID int64) (*domain.Owner, error)
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)
	GetAuditLog(ctx context.Context, actorID, chatID int64) ([]*domain.AuditLog, error)

	// Команды
	CreateChat(ctx context.Context, name string, ownerID int64, memberIDs []int64) (*domain.Chat, error)
	AddMember(ctx context.Context, actorID, chatID, userID int64) error
	RemoveMember(ctx context.Context, actorID, chatID, userID int64) error
	DeleteChat(ctx context.Context, actorID, chatID int64) error
	PostMessage(ctx context.Context, chatID, authorID int64, text string, image *domain.Image) (*domain.Message, error)
	PostReply(ctx context.Context, text string, authorID, parentID, chatID int64, image *domain.Image) (*domain.Message, error)
	Vote(ctx context.Context, chatID, messageID, voterID int64, upvote bool) (*domain.Vote, error)
}

type chatService struct {
	chatRepo     repository.ChatRepository
	messageRepo  repository.MessageRepository
	trendingRepo repository.TrendingRepository
	blobs        storage.BlobStore
	audit        AuditService
	feed         FeedService
	cfg          config.ChatConfig
	log          logger.Logger
}

func NewChatService(
	chatRepo repository.ChatRepository,
	messageRepo repository.MessageRepository,
	trendingRepo repository.TrendingRepository,
	blobs storage.BlobStore,
	audit AuditService,
	feed FeedService,
	cfg config.ChatConfig,
	log logger.Logger,
) ChatService {
	return &chatService{
		chatRepo:     chatRepo,
		messageRepo:  messageRepo,
		trendingRepo: trendingRepo,
		blobs:        blobs,
		audit:        audit,
		feed:         feed,
		cfg:          cfg,
		log:          log,
	}
}

// GetChatMessages возвращает сообщения чата от новых к старым.
// Пустой или несуществующий чат дает пустой список без ошибки.
func (s *chatService) GetChatMessages(ctx context.Context, chatID int64) ([]*domain.MessageView, error) {
	views, err := s.messageRepo.GetChatMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	if views == nil {
		return []*domain.MessageView{}, nil
	}

	for _, v := range views {
		if v.ReplyRefs == nil {
			v.ReplyRefs = []int64{}
		}
	}
	return views, nil
}

func (s *chatService) GetChat(ctx context.Context, chatID int64) (*domain.Chat, error) {
	return s.chatRepo.GetChat(ctx, chatID)
}

func (s *chatService) ListUserChats(ctx context.Context, userID int64) ([]*domain.Chat, error) {
	return s.chatRepo.ListUserChats(ctx, userID)
}

// GetMembers - участники чата, владелец всегда в списке
func (s *chatService) GetMembers(ctx context.Context, chatID int64) ([]*domain.Member, error) {
	members, err := s.chatRepo.GetMembers(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	return lo.UniqBy(members, func(m *domain.Member) int64 {
		return m.UserID
	}), nil
}

func (s *chatService) GetOwner(ctx context.Context, chatID int64) (*domain.Owner, error) {
	return s.chatRepo.GetOwner(ctx, chatID)
}

func (s *chatService) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	return s.chatRepo.IsMember(ctx, chatID, userID)
}

func (s *chatService) GetAuditLog(ctx context.Context, actorID, chatID int64) ([]*domain.AuditLog, error) {
	if err := s.requireOwner(ctx, actorID, chatID); err != nil {
		return nil, err
	}
	return s.audit.ChatEvents(ctx, chatID, 100)
}

// requireOwner пропускает только владельца. Несуществующий чат тоже ErrForbidden.
func (s *chatService) requireOwner(ctx context.Context, actorID, chatID int64) error {
	owner, err := s.chatRepo.GetOwner(ctx, chatID)
	if err != nil {
		if errors.Is(err, apperrors.ErrChatNotFound) {
			return apperrors.ErrForbidden
		}
		return fmt.Errorf("failed to get owner: %w", err)
	}
	if owner.UserID != actorID {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *chatService) requireMember(ctx context.Context, chatID, userID int64) error {
	ok, err := s.chatRepo.IsMember(ctx, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *chatService) CreateChat(ctx context.Context, name string, ownerID int64, memberIDs []int64) (*domain.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation, "missing or invalid fields: name", "name")
	}
	if utf8.RuneCountInString(name) > 100 {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation, "chat name is too long", "name")
	}

	// владелец участник неявно
	members := lo.Uniq(lo.Filter(memberIDs, func(id int64, _ int) bool {
		return id != ownerID
	}))

	chat := &domain.Chat{Name: name, OwnerID: ownerID}
	if err := s.chatRepo.CreateChat(ctx, chat, members); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewFieldError(apperrors.ErrUserNotFound, "one of the members does not exist", "members")
		}
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	s.auditEvent(ctx, ownerID, chat.ID, domain.EventTypeChatCreated, map[string]interface{}{
		"name":    chat.Name,
		"members": members,
	})

	return chat, nil
}

func (s *chatService) AddMember(ctx context.Context, actorID, chatID, userID int64) error {
	if err := s.requireOwner(ctx, actorID, chatID); err != nil {
		return err
	}
	if userID == actorID {
		return nil
	}

	if err := s.chatRepo.AddMember(ctx, chatID, userID); err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to add member: %w", err)
	}

	s.auditEvent(ctx, actorID, chatID, domain.EventTypeMemberAdded, map[string]interface{}{"user_id": userID})
	return nil
}

func (s *chatService) RemoveMember(ctx context.Context, actorID, chatID, userID int64) error {
	if err := s.requireOwner(ctx, actorID, chatID); err != nil {
		return err
	}

	if err := s.chatRepo.RemoveMember(ctx, chatID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.auditEvent(ctx, actorID, chatID, domain.EventTypeMemberRemoved, map[string]interface{}{"user_id": userID})
	s.feed.Publish(ctx, &domain.FeedEvent{
		Type:      domain.FeedEventMemberRemoved,
		ChatID:    chatID,
		UserID:    userID,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *chatService) DeleteChat(ctx context.Context, actorID, chatID int64) error {
	if err := s.requireOwner(ctx, actorID, chatID); err != nil {
		return err
	}

	if err := s.chatRepo.DeleteChat(ctx, chatID); err != nil {
		if errors.Is(err, apperrors.ErrChatNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	s.auditEvent(ctx, actorID, chatID, domain.EventTypeChatDeleted, nil)
	s.feed.Publish(ctx, &domain.FeedEvent{
		Type:      domain.FeedEventChatDeleted,
		ChatID:    chatID,
		CreatedAt: time.Now(),
	})
	return nil
}

func (s *chatService) PostMessage(ctx context.Context, chatID, authorID int64, text string, image *domain.Image) (*domain.Message, error) {
	if err := s.requireMember(ctx, chatID, authorID); err != nil {
		return nil, err
	}

	msg, err := s.prepareMessage(ctx, chatID, authorID, text, image)
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		s.discardImage(ctx, msg)
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	s.afterPost(ctx, msg, domain.FeedEventMessage)
	return msg, nil
}

func (s *chatService) PostReply(ctx context.Context, text string, authorID, parentID, chatID int64, image *domain.Image) (*domain.Message, error) {
	if err := s.requireMember(ctx, chatID, authorID); err != nil {
		return nil, err
	}

	parent, err := s.messageRepo.GetMessage(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.ChatID != chatID {
		return nil, apperrors.ErrMessageNotFound
	}

	msg, err := s.prepareMessage(ctx, chatID, authorID, text, image)
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.CreateReply(ctx, msg, parentID); err != nil {
		s.discardImage(ctx, msg)
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	s.afterPost(ctx, msg, domain.FeedEventReply)
	return msg, nil
}

// prepareMessage проверяет текст и загружает вложение
func (s *chatService) prepareMessage(ctx context.Context, chatID, authorID int64, text string, image *domain.Image) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	hasImage := image != nil && len(image.Data) > 0
	if text == "" && !hasImage {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation, "missing or invalid fields: message", "message")
	}
	if s.cfg.MaxMessageSize > 0 && utf8.RuneCountInString(text) > s.cfg.MaxMessageSize {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation,
			fmt.Sprintf("message exceeds %d characters", s.cfg.MaxMessageSize), "message")
	}

	msg := &domain.Message{ChatID: chatID, AuthorID: authorID, Text: text}
	if hasImage {
		ref, err := s.blobs.Put(ctx, image)
		if err != nil {
			return nil, err
		}
		msg.ImageRef = &ref
	}
	return msg, nil
}

// discardImage убирает вложение, если сообщение не записалось
func (s *chatService) discardImage(ctx context.Context, msg *domain.Message) {
	if msg.ImageRef == nil {
		return
	}
	if err := s.blobs.Delete(context.WithoutCancel(ctx), *msg.ImageRef); err != nil {
		s.log.Warn("Orphaned image left in storage", "error", err, "image", *msg.ImageRef)
	}
}

// afterPost - хэштеги и лента не влияют на результат записи
func (s *chatService) afterPost(ctx context.Context, msg *domain.Message, eventType string) {
	if tags := extractHashtags(msg.Text); len(tags) > 0 {
		if err := s.trendingRepo.Increment(ctx, msg.CreatedAt, tags); err != nil {
			s.log.Warn("Failed to count hashtags", "error", err, "message_id", msg.ID)
		}
	}

	s.feed.Publish(ctx, &domain.FeedEvent{
		Type:      eventType,
		ChatID:    msg.ChatID,
		Message:   msg,
		CreatedAt: msg.CreatedAt,
	})
}

func (s *chatService) Vote(ctx context.Context, chatID, messageID, voterID int64, upvote bool) (*domain.Vote, error) {
	if err := s.requireMember(ctx, chatID, voterID); err != nil {
		return nil, err
	}

	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ChatID != chatID {
		return nil, apperrors.ErrMessageNotFound
	}

	vote := &domain.Vote{MessageID: messageID, UserID: voterID, Upvote: upvote}
	replace := s.cfg.VotePolicy != config.VotePolicyMultiple
	if err := s.messageRepo.Vote(ctx, vote, replace); err != nil {
		return nil, fmt.Errorf("failed to vote: %w", err)
	}

	s.feed.Publish(ctx, &domain.FeedEvent{
		Type:      domain.FeedEventVote,
		ChatID:    chatID,
		Vote:      vote,
		CreatedAt: vote.CreatedAt,
	})
	return vote, nil
}

// auditEvent пишет событие аудита, ошибка только логируется
func (s *chatService) auditEvent(ctx context.Context, actorID, chatID int64, eventType string, payload map[string]interface{}) {
	if err := s.audit.LogEvent(ctx, actorID, &chatID, eventType, payload); err != nil {
		s.log.Warn("Failed to write audit event", "error", err, "event", eventType, "chat_id", chatID)
	}
}
