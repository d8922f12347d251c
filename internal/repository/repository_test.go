package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"social_chat/internal/config"
	"social_chat/internal/domain"
	"social_chat/internal/repository"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Интеграционные тесты идут только при заданном TEST_DATABASE_DSN, таблицы очищаются
func setupDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	db, err := repository.NewPool(ctx, config.DatabaseConfig{
		DSN:             dsn,
		MaxConnections:  4,
		MaxIdleTime:     time.Minute,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, repository.Migrate(ctx, db, logger.Nop()))
	_, err = db.Exec(ctx, `TRUNCATE users, chat_groups, messages, votes, replies, contacts, audit_log RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func createUser(t *testing.T, users repository.UserRepository, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		PasswordHash: "hash",
		FirstName:    username,
		LastName:     "Test",
		Email:        username + "@example.com",
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestUserRepository_Conflicts(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db, logger.Nop())

	createUser(t, users, "alice")

	err := users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "x", FirstName: "a", LastName: "b", Email: "other@example.com"})
	require.ErrorIs(t, err, apperrors.ErrConflict)
	require.Equal(t, []string{"username"}, apperrors.Fields(err))

	_, err = users.GetByUsername(ctx, "nobody")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestChatRepository_Membership(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db, logger.Nop())
	chats := repository.NewChatRepository(db, logger.Nop())

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	carol := createUser(t, users, "carol")

	chat := &domain.Chat{Name: "general", OwnerID: alice.ID}
	require.NoError(t, chats.CreateChat(ctx, chat, []int64{bob.ID}))
	require.NotZero(t, chat.ID)

	t.Run("should count the owner as a member", func(t *testing.T) {
		members, err := chats.GetMembers(ctx, chat.ID)
		require.NoError(t, err)
		ids := make([]int64, 0, len(members))
		for _, m := range members {
			ids = append(ids, m.UserID)
		}
		require.ElementsMatch(t, []int64{alice.ID, bob.ID}, ids)

		ok, err := chats.IsMember(ctx, chat.ID, alice.ID)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("should ignore a repeated add", func(t *testing.T) {
		require.NoError(t, chats.AddMember(ctx, chat.ID, carol.ID))
		require.NoError(t, chats.AddMember(ctx, chat.ID, carol.ID))

		members, err := chats.GetMembers(ctx, chat.ID)
		require.NoError(t, err)
		require.Len(t, members, 3)
	})

	t.Run("should map an unknown user to not found", func(t *testing.T) {
		err := chats.AddMember(ctx, chat.ID, 999999)
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("should roll back a chat whose members do not exist", func(t *testing.T) {
		broken := &domain.Chat{Name: "broken", OwnerID: alice.ID}
		err := chats.CreateChat(ctx, broken, []int64{bob.ID, 999999})
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)

		list, err := chats.ListUserChats(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("should resolve the owner", func(t *testing.T) {
		owner, err := chats.GetOwner(ctx, chat.ID)
		require.NoError(t, err)
		require.Equal(t, alice.ID, owner.UserID)

		_, err = chats.GetOwner(ctx, 999999)
		require.ErrorIs(t, err, apperrors.ErrChatNotFound)
	})
}

func TestMessageRepository_Aggregation(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	users := repository.NewUserRepository(db, logger.Nop())
	chats := repository.NewChatRepository(db, logger.Nop())
	messages := repository.NewMessageRepository(db, logger.Nop())
	stats := repository.NewStatsRepository(db, logger.Nop())

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")

	chat := &domain.Chat{Name: "general", OwnerID: alice.ID}
	require.NoError(t, chats.CreateChat(ctx, chat, []int64{bob.ID}))

	t.Run("should return an empty list for a chat without messages", func(t *testing.T) {
		views, err := messages.GetChatMessages(ctx, chat.ID)
		require.NoError(t, err)
		require.NotNil(t, views)
		require.Empty(t, views)
	})

	m1 := &domain.Message{ChatID: chat.ID, AuthorID: alice.ID, Text: "hi"}
	require.NoError(t, messages.CreateMessage(ctx, m1))
	m2 := &domain.Message{ChatID: chat.ID, AuthorID: bob.ID, Text: "hey"}
	require.NoError(t, messages.CreateReply(ctx, m2, m1.ID))

	require.NoError(t, messages.Vote(ctx, &domain.Vote{MessageID: m1.ID, UserID: alice.ID, Upvote: true}, true))
	require.NoError(t, messages.Vote(ctx, &domain.Vote{MessageID: m1.ID, UserID: bob.ID, Upvote: false}, true))

	t.Run("should aggregate votes and replies", func(t *testing.T) {
		views, err := messages.GetChatMessages(ctx, chat.ID)
		require.NoError(t, err)
		require.Len(t, views, 2)

		byID := make(map[int64]*domain.MessageView, len(views))
		for _, v := range views {
			byID[v.MessageID] = v
		}

		require.Equal(t, int64(1), byID[m1.ID].LikeCount)
		require.Equal(t, int64(1), byID[m1.ID].DislikeCount)
		require.Equal(t, []int64{m2.ID}, byID[m1.ID].ReplyRefs)
		require.Equal(t, "alice", byID[m1.ID].AuthorUsername)

		require.Zero(t, byID[m2.ID].LikeCount)
		require.Equal(t, []int64{}, byID[m2.ID].ReplyRefs)
	})

	t.Run("should replace a vote under the single policy", func(t *testing.T) {
		require.NoError(t, messages.Vote(ctx, &domain.Vote{MessageID: m1.ID, UserID: bob.ID, Upvote: true}, true))

		s, err := stats.MessageStats(ctx, m1.ID)
		require.NoError(t, err)
		require.Equal(t, int64(2), s.Likes)
		require.Zero(t, s.Dislikes)
		require.Equal(t, int64(1), s.Replies)
	})

	t.Run("should keep every vote under the multiple policy", func(t *testing.T) {
		require.NoError(t, messages.Vote(ctx, &domain.Vote{MessageID: m2.ID, UserID: alice.ID, Upvote: true}, false))
		require.NoError(t, messages.Vote(ctx, &domain.Vote{MessageID: m2.ID, UserID: alice.ID, Upvote: true}, false))

		s, err := stats.MessageStats(ctx, m2.ID)
		require.NoError(t, err)
		require.Equal(t, int64(2), s.Likes)
	})

	t.Run("should expose the parent of a reply", func(t *testing.T) {
		got, err := messages.GetMessage(ctx, m2.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ParentID)
		require.Equal(t, m1.ID, *got.ParentID)
	})

	t.Run("should fill a seven day window, today first", func(t *testing.T) {
		counts, err := stats.DailyCounts(ctx, domain.StatsPosts, time.Now(), 7)
		require.NoError(t, err)
		require.Len(t, counts, 7)
		require.Equal(t, int64(2), counts[0].Total, fmt.Sprintf("today is %s", counts[0].Day))
		for _, c := range counts[1:] {
			require.Zero(t, c.Total)
		}

		active, err := stats.DailyCounts(ctx, domain.StatsActive, time.Now(), 7)
		require.NoError(t, err)
		require.Equal(t, int64(2), active[0].Total)
	})

	t.Run("should keep one vote when the same user votes twice at once", func(t *testing.T) {
		req := require.New(t)
		m3 := &domain.Message{ChatID: chat.ID, AuthorID: alice.ID, Text: "double click"}
		req.NoError(messages.CreateMessage(ctx, m3))

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- messages.Vote(ctx, &domain.Vote{MessageID: m3.ID, UserID: bob.ID, Upvote: true}, true)
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			req.NoError(err)
		}

		s, err := stats.MessageStats(ctx, m3.ID)
		req.NoError(err)
		req.Equal(int64(1), s.Likes)
	})

	t.Run("should hide messages whose author is gone", func(t *testing.T) {
		req := require.New(t)
		ghost := createUser(t, users, "ghost")
		req.NoError(chats.AddMember(ctx, chat.ID, ghost.ID))
		orphan := &domain.Message{ChatID: chat.ID, AuthorID: ghost.ID, Text: "soon without author"}
		req.NoError(messages.CreateMessage(ctx, orphan))

		_, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, ghost.ID)
		req.NoError(err)

		views, err := messages.GetChatMessages(ctx, chat.ID)
		req.NoError(err)
		ids := make([]int64, 0, len(views))
		for _, v := range views {
			ids = append(ids, v.MessageID)
		}
		req.NotContains(ids, orphan.ID)
		req.Contains(ids, m1.ID)
		req.Contains(ids, m2.ID)
	})

	t.Run("should cascade a chat deletion", func(t *testing.T) {
		require.NoError(t, chats.DeleteChat(ctx, chat.ID))

		_, err := messages.GetMessage(ctx, m1.ID)
		require.ErrorIs(t, err, apperrors.ErrMessageNotFound)
		require.ErrorIs(t, chats.DeleteChat(ctx, chat.ID), apperrors.ErrChatNotFound)
	})
}
