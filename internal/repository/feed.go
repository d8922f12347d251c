package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"social_chat/internal/domain"
	"social_chat/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const FeedChannelPrefix = "chat:%d:feed"

// Subscription - подписка на события одного чата
type Subscription interface {
	Events() <-chan *domain.FeedEvent
	Close() error
}

type FeedRepository interface {
	Publish(ctx context.Context, event *domain.FeedEvent) error
	Subscribe(ctx context.Context, chatID int64) (Subscription, error)
}

type feedRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewFeedRepository(rdb *redis.Client, log logger.Logger) FeedRepository {
	return &feedRepository{rdb: rdb, log: log}
}

func feedChannel(chatID int64) string {
	return fmt.Sprintf(FeedChannelPrefix, chatID)
}

func (r *feedRepository) Publish(ctx context.Context, event *domain.FeedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feed event: %w", err)
	}

	if err := r.rdb.Publish(ctx, feedChannel(event.ChatID), payload).Err(); err != nil {
		r.log.Error("Failed to publish feed event", "error", err, "chat_id", event.ChatID)
		return fmt.Errorf("failed to publish feed event: %w", err)
	}
	return nil
}

func (r *feedRepository) Subscribe(ctx context.Context, chatID int64) (Subscription, error) {
	ps := r.rdb.Subscribe(ctx, feedChannel(chatID))
	// дожидаемся подтверждения подписки, чтобы не потерять первые события
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		r.log.Error("Failed to subscribe to feed", "error", err, "chat_id", chatID)
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &feedSubscription{ps: ps, events: make(chan *domain.FeedEvent, 16)}
	go sub.run(ctx, r.log)
	return sub, nil
}

type feedSubscription struct {
	ps     *redis.PubSub
	events chan *domain.FeedEvent
}

func (s *feedSubscription) run(ctx context.Context, log logger.Logger) {
	defer close(s.events)

	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event domain.FeedEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn("Failed to unmarshal feed event", "error", err)
				continue
			}
			select {
			case s.events <- &event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *feedSubscription) Events() <-chan *domain.FeedEvent {
	return s.events
}

func (s *feedSubscription) Close() error {
	return s.ps.Close()
}
