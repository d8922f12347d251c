package service_test

import (
	"context"
	"errors"
	"testing"

	"social_chat/internal/domain"
	"social_chat/internal/mocks"
	"social_chat/internal/service"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestFeedService(t *testing.T) {
	ctx := context.Background()

	t.Run("should only let members subscribe", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		feed := mocks.NewMockFeedRepository(ctrl)
		chats := mocks.NewMockChatRepository(ctrl)
		chats.EXPECT().IsMember(ctx, int64(1), int64(9)).Return(false, nil)

		_, err := service.NewFeedService(feed, chats, logger.Nop()).Subscribe(ctx, 1, 9)
		require.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("should subscribe members to the chat channel", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		feed := mocks.NewMockFeedRepository(ctrl)
		chats := mocks.NewMockChatRepository(ctrl)
		sub := mocks.NewMockSubscription(ctrl)
		chats.EXPECT().IsMember(ctx, int64(1), int64(3)).Return(true, nil)
		feed.EXPECT().Subscribe(ctx, int64(1)).Return(sub, nil)

		got, err := service.NewFeedService(feed, chats, logger.Nop()).Subscribe(ctx, 1, 3)
		require.NoError(t, err)
		require.Equal(t, sub, got)
	})

	t.Run("should swallow publish failures", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		feed := mocks.NewMockFeedRepository(ctrl)
		event := &domain.FeedEvent{Type: domain.FeedEventMessage, ChatID: 1}
		feed.EXPECT().Publish(ctx, event).Return(errors.New("redis down"))

		service.NewFeedService(feed, mocks.NewMockChatRepository(ctrl), logger.Nop()).Publish(ctx, event)
	})
}
