package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"social_chat/internal/config"
	"social_chat/internal/domain"
	"social_chat/internal/repository"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/jwt"
	"social_chat/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string, meta SessionMeta) (*LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string, meta SessionMeta) (*TokenResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*domain.User, error)
	Logout(ctx context.Context, refreshToken string) error
}

type RegisterInput struct {
	Username  string  `json:"username" validate:"required,max=50"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	Phone     *string `json:"phone_number" validate:"omitempty,max=32"`
}

// SessionMeta - данные клиента, сохраняемые вместе с refresh-сессией
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

type LoginResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type authService struct {
	userRepo repository.UserRepository
	jwtCfg   config.JWTConfig
	log      logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtCfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtCfg:   jwtCfg,
		log:      log,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = normalizePhone(input.Phone)

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:     input.Username,
		PasswordHash: string(passwordHash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Phone:        input.Phone,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// конфликт уже содержит имя поля
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string, meta SessionMeta) (*LoginResponse, error) {
	username = strings.TrimSpace(username)

	var missing []string
	if username == "" {
		missing = append(missing, "username")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewFieldError(apperrors.ErrValidation,
			"missing or invalid fields: "+strings.Join(missing, ", "), missing...)
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// не раскрываем, существует ли пользователь
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string, meta SessionMeta) (*TokenResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.jwtCfg.RefreshSecret)
	if err != nil {
		return nil, mapTokenError(err)
	}

	session, err := s.userRepo.GetSessionByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, apperrors.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}

	// старая сессия отзывается до выдачи новой, повторное использование токена не пройдет
	if err := s.userRepo.RevokeSession(ctx, session.ID, "refreshed"); err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to revoke session: %w", err)
	}

	return s.issueTokens(ctx, user, meta)
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User, meta SessionMeta) (*TokenResponse, error) {
	accessToken, err := jwt.GenerateAccessToken(user.ID, user.Username, s.jwtCfg.AccessSecret, s.jwtCfg.Issuer, s.jwtCfg.AccessTTL)
	if err != nil {
		s.log.Error("Failed to generate access token", "error", err)
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, s.jwtCfg.RefreshSecret, s.jwtCfg.Issuer, s.jwtCfg.RefreshTTL)
	if err != nil {
		s.log.Error("Failed to generate refresh token", "error", err)
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	session := &domain.UserSession{
		UserID:           user.ID,
		RefreshTokenHash: hashToken(refreshToken),
		ExpiresAt:        time.Now().Add(s.jwtCfg.RefreshTTL),
		IPAddress:        optional(meta.IPAddress),
		UserAgent:        optional(meta.UserAgent),
	}
	if err := s.userRepo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := jwt.ValidateToken(tokenString, s.jwtCfg.AccessSecret)
	if err != nil {
		return nil, mapTokenError(err)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.userRepo.GetSessionByTokenHash(ctx, hashToken(refreshToken))
	if err != nil {
		return err
	}

	return s.userRepo.RevokeSession(ctx, session.ID, "logout")
}

func mapTokenError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.ErrTokenExpired
	}
	return apperrors.ErrInvalidToken
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
