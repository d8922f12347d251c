package domain

import (
	"time"
)

type User struct {
	ID           int64     `json:"uid"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        *string   `json:"phone_number,omitempty"`
	CreatedAt    time.Time `json:"created_on"`
}

type UserSession struct {
	ID               int64      `json:"id"`
	UserID           int64      `json:"uid"`
	RefreshTokenHash string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty"`
	RevokedReason    *string    `json:"revoked_reason,omitempty"`
	IPAddress        *string    `json:"ip_address,omitempty"`
	UserAgent        *string    `json:"user_agent,omitempty"`
}

// Contact - запись в адресной книге пользователя
type Contact struct {
	OwnerID   int64     `json:"owner_id"`
	ContactID int64     `json:"uid"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone_number,omitempty"`
	CreatedAt time.Time `json:"created_on"`
}

// UserUpdate - изменяемые поля профиля, nil означает "не менять"
type UserUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
}
