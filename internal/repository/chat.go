package repository

import (
	"context"
	"fmt"

	"social_chat/internal/domain"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository interface {
	CreateChat(ctx context.Context, chat *domain.Chat, memberIDs []int64) error
	GetChat(ctx context.Context, chatID int64) (*domain.Chat, error)
	ListUserChats(ctx context.Context, userID int64) ([]*domain.Chat, error)
	DeleteChat(ctx context.Context, chatID int64) error
	GetMembers(ctx context.Context, chatID int64) ([]*domain.Member, error)
	GetOwner(ctx context.Context, chatID int64) (*domain.Owner, error)
	IsMember(ctx context.Context, chatID, userID int64) (bool, error)
	AddMember(ctx context.Context, chatID, userID int64) error
	RemoveMember(ctx context.Context, chatID, userID int64) error
}

type chatRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewChatRepository(db *pgxpool.Pool, log logger.Logger) ChatRepository {
	return &chatRepository{db: db, log: log}
}

// CreateChat пишет чат и всех участников одной транзакцией
func (r *chatRepository) CreateChat(ctx context.Context, chat *domain.Chat, memberIDs []int64) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO chat_groups (name, owner_id) VALUES ($1, $2) RETURNING id, created_at`,
			chat.Name, chat.OwnerID,
		).Scan(&chat.ID, &chat.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert chat: %w", err)
		}

		if len(memberIDs) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, userID := range memberIDs {
			batch.Queue(
				`INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				chat.ID, userID,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert members: %w", err)
		}
		return nil
	})
	if err != nil {
		if mapped := mapPgError(err); mapped != err {
			return mapped
		}
		r.log.Error("Failed to create chat", "error", err, "owner_id", chat.OwnerID)
		return err
	}

	return nil
}

func (r *chatRepository) GetChat(ctx context.Context, chatID int64) (*domain.Chat, error) {
	chat := &domain.Chat{}
	err := r.db.QueryRow(ctx,
		`SELECT id, name, owner_id, created_at FROM chat_groups WHERE id = $1`, chatID,
	).Scan(&chat.ID, &chat.Name, &chat.OwnerID, &chat.CreatedAt)
	if err != nil {
		err = notFound(err, apperrors.ErrChatNotFound)
		if err != apperrors.ErrChatNotFound {
			r.log.Error("Failed to get chat", "error", err, "chat_id", chatID)
		}
		return nil, err
	}

	return chat, nil
}

func (r *chatRepository) ListUserChats(ctx context.Context, userID int64) ([]*domain.Chat, error) {
	query := `
		SELECT c.id, c.name, c.owner_id, c.created_at
		FROM chat_groups c
		WHERE c.owner_id = $1
		   OR EXISTS (SELECT 1 FROM chat_members cm WHERE cm.chat_id = c.id AND cm.user_id = $1)
		ORDER BY c.created_at DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list chats", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	chats := make([]*domain.Chat, 0)
	for rows.Next() {
		chat := &domain.Chat{}
		if err := rows.Scan(&chat.ID, &chat.Name, &chat.OwnerID, &chat.CreatedAt); err != nil {
			r.log.Error("Failed to scan chat", "error", err)
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// DeleteChat удаляет чат, участники, сообщения, ответы и голоса уходят каскадом
func (r *chatRepository) DeleteChat(ctx context.Context, chatID int64) error {
	var tag int64
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `DELETE FROM chat_groups WHERE id = $1`, chatID)
		if err != nil {
			return err
		}
		tag = res.RowsAffected()
		return nil
	})
	if err != nil {
		r.log.Error("Failed to delete chat", "error", err, "chat_id", chatID)
		return err
	}
	if tag == 0 {
		return apperrors.ErrChatNotFound
	}

	return nil
}

// GetMembers - явные участники плюс владелец
func (r *chatRepository) GetMembers(ctx context.Context, chatID int64) ([]*domain.Member, error) {
	query := `
		SELECT u.id, u.username
		FROM chat_members cm
		INNER JOIN users u ON u.id = cm.user_id
		WHERE cm.chat_id = $1
		UNION
		SELECT u.id, u.username
		FROM chat_groups c
		INNER JOIN users u ON u.id = c.owner_id
		WHERE c.id = $1
		ORDER BY 1
	`

	rows, err := r.db.Query(ctx, query, chatID)
	if err != nil {
		r.log.Error("Failed to get members", "error", err, "chat_id", chatID)
		return nil, err
	}
	defer rows.Close()

	members := make([]*domain.Member, 0)
	for rows.Next() {
		member := &domain.Member{}
		if err := rows.Scan(&member.UserID, &member.Username); err != nil {
			r.log.Error("Failed to scan member", "error", err)
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *chatRepository) GetOwner(ctx context.Context, chatID int64) (*domain.Owner, error) {
	query := `
		SELECT u.id, u.username, u.first_name, u.last_name, u.email, u.phone_number
		FROM chat_groups c
		INNER JOIN users u ON u.id = c.owner_id
		WHERE c.id = $1
	`

	owner := &domain.Owner{}
	err := r.db.QueryRow(ctx, query, chatID).Scan(
		&owner.UserID, &owner.Username, &owner.FirstName, &owner.LastName, &owner.Email, &owner.Phone,
	)
	if err != nil {
		err = notFound(err, apperrors.ErrChatNotFound)
		if err != apperrors.ErrChatNotFound {
			r.log.Error("Failed to get owner", "error", err, "chat_id", chatID)
		}
		return nil, err
	}

	return owner, nil
}

func (r *chatRepository) IsMember(ctx context.Context, chatID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM chat_members WHERE chat_id = $1 AND user_id = $2)
		    OR EXISTS (SELECT 1 FROM chat_groups WHERE id = $1 AND owner_id = $2)
	`

	var ok bool
	if err := r.db.QueryRow(ctx, query, chatID, userID).Scan(&ok); err != nil {
		r.log.Error("Failed to check membership", "error", err, "chat_id", chatID)
		return false, err
	}
	return ok, nil
}

// AddMember - повторное добавление не ошибка
func (r *chatRepository) AddMember(ctx context.Context, chatID, userID int64) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			chatID, userID,
		)
		return err
	})
	if err != nil {
		if mapped := mapPgError(err); mapped != err {
			return mapped
		}
		r.log.Error("Failed to add member", "error", err, "chat_id", chatID, "user_id", userID)
		return err
	}
	return nil
}

func (r *chatRepository) RemoveMember(ctx context.Context, chatID, userID int64) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `DELETE FROM chat_members WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
		return err
	})
	if err != nil {
		r.log.Error("Failed to remove member", "error", err, "chat_id", chatID, "user_id", userID)
		return err
	}
	return nil
}
