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

type MessageRepository interface {
	GetChatMessages(ctx context.Context, chatID int64) ([]*domain.MessageView, error)
	GetMessage(ctx context.Context, messageID int64) (*domain.Message, error)
	CreateMessage(ctx context.Context, msg *domain.Message) error
	CreateReply(ctx context.Context, msg *domain.Message, parentID int64) error
	Vote(ctx context.Context, vote *domain.Vote, replace bool) error
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

// Сообщения чата с голосами, ответами и автором одним запросом.
// Сообщения без автора в users не попадают в выдачу.
const chatMessagesQuery = `
	WITH vote_counts AS (
		SELECT v.message_id,
		       COUNT(*) FILTER (WHERE v.upvote)     AS likes,
		       COUNT(*) FILTER (WHERE NOT v.upvote) AS dislikes
		FROM votes v
		INNER JOIN messages vm ON vm.id = v.message_id
		WHERE vm.chat_id = $1
		GROUP BY v.message_id
	),
	replies_query AS (
		SELECT r.parent_id, array_agg(r.reply_id ORDER BY r.reply_id) AS replies_list
		FROM replies r
		INNER JOIN messages rm ON rm.id = r.reply_id
		WHERE rm.chat_id = $1
		GROUP BY r.parent_id
	)
	SELECT m.id, u.id, m.chat_id, m.text, m.image_ref,
	       COALESCE(vc.likes, 0), COALESCE(vc.dislikes, 0),
	       u.username,
	       COALESCE(rq.replies_list, '{}'::bigint[]),
	       m.created_at
	FROM messages m
	INNER JOIN users u ON u.id = m.author_id
	LEFT OUTER JOIN vote_counts vc ON vc.message_id = m.id
	LEFT OUTER JOIN replies_query rq ON rq.parent_id = m.id
	WHERE m.chat_id = $1
	ORDER BY m.created_at DESC, m.id DESC
`

func (r *messageRepository) GetChatMessages(ctx context.Context, chatID int64) ([]*domain.MessageView, error) {
	rows, err := r.db.Query(ctx, chatMessagesQuery, chatID)
	if err != nil {
		r.log.Error("Failed to get chat messages", "error", err, "chat_id", chatID)
		return nil, err
	}
	defer rows.Close()

	views := make([]*domain.MessageView, 0)
	for rows.Next() {
		v := &domain.MessageView{}
		err := rows.Scan(
			&v.MessageID, &v.AuthorID, &v.ChatID, &v.Text, &v.ImageRef,
			&v.LikeCount, &v.DislikeCount, &v.AuthorUsername, &v.ReplyRefs, &v.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate messages", "error", err)
		return nil, err
	}

	return views, nil
}

func (r *messageRepository) GetMessage(ctx context.Context, messageID int64) (*domain.Message, error) {
	query := `
		SELECT m.id, m.chat_id, COALESCE(m.author_id, 0), m.text, m.image_ref, r.parent_id, m.created_at
		FROM messages m
		LEFT OUTER JOIN replies r ON r.reply_id = m.id
		WHERE m.id = $1
	`

	msg := &domain.Message{}
	err := r.db.QueryRow(ctx, query, messageID).Scan(
		&msg.ID, &msg.ChatID, &msg.AuthorID, &msg.Text, &msg.ImageRef, &msg.ParentID, &msg.CreatedAt,
	)
	if err != nil {
		err = notFound(err, apperrors.ErrMessageNotFound)
		if err != apperrors.ErrMessageNotFound {
			r.log.Error("Failed to get message", "error", err, "message_id", messageID)
		}
		return nil, err
	}

	return msg, nil
}

func insertMessage(ctx context.Context, tx pgx.Tx, msg *domain.Message) error {
	return tx.QueryRow(ctx,
		`INSERT INTO messages (chat_id, author_id, text, image_ref) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		msg.ChatID, msg.AuthorID, msg.Text, msg.ImageRef,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		return insertMessage(ctx, tx, msg)
	})
	if err != nil {
		r.log.Error("Failed to create message", "error", err, "chat_id", msg.ChatID)
		return err
	}
	return nil
}

// CreateReply пишет сообщение и связь с родителем в одной транзакции
func (r *messageRepository) CreateReply(ctx context.Context, msg *domain.Message, parentID int64) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertMessage(ctx, tx, msg); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO replies (reply_id, parent_id) VALUES ($1, $2)`, msg.ID, parentID,
		); err != nil {
			return fmt.Errorf("insert reply: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to create reply", "error", err, "parent_id", parentID)
		return err
	}

	msg.ParentID = &parentID
	return nil
}

// Vote добавляет голос. При replace предыдущие голоса пользователя за сообщение удаляются.
func (r *messageRepository) Vote(ctx context.Context, vote *domain.Vote, replace bool) error {
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if replace {
			// строка сообщения сериализует одновременные голоса, иначе оба DELETE не видят чужой INSERT
			if _, err := tx.Exec(ctx,
				`SELECT 1 FROM messages WHERE id = $1 FOR NO KEY UPDATE`, vote.MessageID,
			); err != nil {
				return fmt.Errorf("lock message: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`DELETE FROM votes WHERE message_id = $1 AND user_id = $2`, vote.MessageID, vote.UserID,
			); err != nil {
				return fmt.Errorf("delete previous vote: %w", err)
			}
		}
		return tx.QueryRow(ctx,
			`INSERT INTO votes (message_id, user_id, upvote) VALUES ($1, $2, $3) RETURNING created_at`,
			vote.MessageID, vote.UserID, vote.Upvote,
		).Scan(&vote.CreatedAt)
	})
	if err != nil {
		r.log.Error("Failed to vote", "error", err, "message_id", vote.MessageID)
		return err
	}
	return nil
}
