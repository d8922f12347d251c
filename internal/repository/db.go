package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social_chat/internal/config"
	apperrors "social_chat/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Коды PostgreSQL
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// NewPool создает пул соединений с настройками из конфига и проверяет подключение
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database DSN: %w", err)
	}

	if cfg.MaxConnections > 0 {
		pc.MaxConns = int32(cfg.MaxConnections)
	}
	if cfg.MaxIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxIdleTime
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Каждая запись выполняется в своей локальной транзакции, READ COMMITTED задан явно
var writeTxOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

func withTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, writeTxOptions)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// constraintFields сопоставляет уникальные ограничения схемы с полями запроса
var constraintFields = map[string]string{
	"users_username_key":     "username",
	"users_email_key":        "email",
	"users_phone_number_key": "phone_number",
	"contacts_pkey":          "contact_id",
}

// Внешние ключи на пользователей: ссылка на несуществующего пользователя
var userForeignKeys = map[string]bool{
	"chat_members_user_id_fkey": true,
	"contacts_contact_id_fkey":  true,
	"chat_groups_owner_id_fkey": true,
	"votes_user_id_fkey":        true,
}

// mapPgError переводит нарушение уникальности в ErrConflict с именем поля,
// а нарушение внешнего ключа в not found
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case uniqueViolation:
		field, ok := constraintFields[pgErr.ConstraintName]
		if !ok {
			field = pgErr.ConstraintName
		}
		return apperrors.NewFieldError(apperrors.ErrConflict, field+" already exists", field)
	case foreignKeyViolation:
		if userForeignKeys[pgErr.ConstraintName] {
			return apperrors.ErrUserNotFound
		}
		return apperrors.ErrNotFound
	}
	return err
}

// notFound заменяет pgx.ErrNoRows на доменную ошибку
func notFound(err error, target error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return target
	}
	return err
}
