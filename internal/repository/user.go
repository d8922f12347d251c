package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"social_chat/internal/domain"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, userID int64, upd domain.UserUpdate) (*domain.User, error)
	CreateSession(ctx context.Context, session *domain.UserSession) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.UserSession, error)
	RevokeSession(ctx context.Context, sessionID int64, reason string) error
}

type userRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewUserRepository(db *pgxpool.Pool, log logger.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

const userColumns = `id, username, password_hash, first_name, last_name, email, phone_number, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.PasswordHash, &user.FirstName,
		&user.LastName, &user.Email, &user.Phone, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (username, password_hash, first_name, last_name, email, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Email, user.Phone,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		mapped := mapPgError(err)
		if mapped != err {
			r.log.Warn("User already exists (unique violation)", "username", user.Username, "fields", apperrors.Fields(mapped))
			return mapped
		}
		r.log.Error("Failed to create user", "error", err, "username", user.Username)
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		err = notFound(err, apperrors.ErrUserNotFound)
		if err != apperrors.ErrUserNotFound {
			r.log.Error("Failed to get user", "error", err)
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getOne(ctx, "phone_number = $1", phone)
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		r.log.Error("Failed to list users", "error", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.log.Error("Failed to scan user", "error", err)
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update меняет только переданные поля и возвращает профиль после изменения
func (r *userRepository) Update(ctx context.Context, userID int64, upd domain.UserUpdate) (*domain.User, error) {
	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 6)
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("username", upd.Username)
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("email", upd.Email)
	add("phone_number", upd.Phone)

	if len(sets) == 0 {
		return r.GetByID(ctx, userID)
	}

	args = append(args, userID)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if mapped := mapPgError(err); mapped != err {
			return nil, mapped
		}
		err = notFound(err, apperrors.ErrUserNotFound)
		if err != apperrors.ErrUserNotFound {
			r.log.Error("Failed to update user", "error", err, "user_id", userID)
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) CreateSession(ctx context.Context, session *domain.UserSession) error {
	query := `
		INSERT INTO user_sessions (user_id, refresh_token_hash, expires_at, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		session.UserID, session.RefreshTokenHash, session.ExpiresAt, session.IPAddress, session.UserAgent,
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		r.log.Error("Failed to create session", "error", err)
		return err
	}

	return nil
}

func (r *userRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*domain.UserSession, error) {
	query := `
		SELECT id, user_id, refresh_token_hash, created_at, expires_at, revoked_at, revoked_reason, ip_address, user_agent
		FROM user_sessions
		WHERE refresh_token_hash = $1 AND revoked_at IS NULL AND expires_at > $2
	`

	session := &domain.UserSession{}
	err := r.db.QueryRow(ctx, query, tokenHash, time.Now()).Scan(
		&session.ID, &session.UserID, &session.RefreshTokenHash, &session.CreatedAt, &session.ExpiresAt,
		&session.RevokedAt, &session.RevokedReason, &session.IPAddress, &session.UserAgent,
	)
	if err != nil {
		err = notFound(err, apperrors.ErrSessionNotFound)
		if err != apperrors.ErrSessionNotFound {
			r.log.Error("Failed to get session", "error", err)
		}
		return nil, err
	}

	return session, nil
}

func (r *userRepository) RevokeSession(ctx context.Context, sessionID int64, reason string) error {
	query := `UPDATE user_sessions SET revoked_at = NOW(), revoked_reason = $2 WHERE id = $1 AND revoked_at IS NULL`

	tag, err := r.db.Exec(ctx, query, sessionID, reason)
	if err != nil {
		r.log.Error("Failed to revoke session", "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}

	return nil
}
