package repository

import (
	"context"

	"social_chat/internal/domain"
	"social_chat/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository interface {
	CreateLog(ctx context.Context, log *domain.AuditLog) error
	ListByChat(ctx context.Context, chatID int64, limit int) ([]*domain.AuditLog, error)
}

type auditRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewAuditRepository(db *pgxpool.Pool, log logger.Logger) AuditRepository {
	return &auditRepository{db: db, log: log}
}

func (r *auditRepository) CreateLog(ctx context.Context, auditLog *domain.AuditLog) error {
	query := `
		INSERT INTO audit_log (event_time, actor_user_id, chat_id, event_type, payload)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		auditLog.EventTime, auditLog.ActorUserID, auditLog.ChatID, auditLog.EventType, auditLog.Payload,
	).Scan(&auditLog.ID)
	if err != nil {
		r.log.Error("Failed to create audit log", "error", err)
		return err
	}

	return nil
}

func (r *auditRepository) ListByChat(ctx context.Context, chatID int64, limit int) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, event_time, actor_user_id, chat_id, event_type, payload
		FROM audit_log
		WHERE chat_id = $1
		ORDER BY event_time DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, chatID, limit)
	if err != nil {
		r.log.Error("Failed to list audit log", "error", err, "chat_id", chatID)
		return nil, err
	}
	defer rows.Close()

	logs := make([]*domain.AuditLog, 0)
	for rows.Next() {
		l := &domain.AuditLog{}
		if err := rows.Scan(&l.ID, &l.EventTime, &l.ActorUserID, &l.ChatID, &l.EventType, &l.Payload); err != nil {
			r.log.Error("Failed to scan audit log", "error", err)
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
