package service_test

import (
	"context"
	"testing"
	"time"

	"social_chat/internal/config"
	"social_chat/internal/domain"
	"social_chat/internal/mocks"
	"social_chat/internal/service"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/jwt"
	"social_chat/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
)

var jwtCfg = config.JWTConfig{
	AccessSecret:  "access",
	RefreshSecret: "refresh",
	AccessTTL:     time.Minute,
	RefreshTTL:    time.Hour,
	Issuer:        "social-chat-test",
}

func newAuthService(t *testing.T) (service.AuthService, *mocks.MockUserRepository) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	return service.NewAuthService(users, jwtCfg, logger.Nop()), users
}

func validRegistration() service.RegisterInput {
	return service.RegisterInput{
		Username:  "alice",
		Password:  "correct horse",
		FirstName: "Alice",
		LastName:  "Liddell",
		Email:     "Alice@Example.com",
	}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("should hash the password and normalize input", func(t *testing.T) {
		req := require.New(t)
		svc, users := newAuthService(t)
		users.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *domain.User) error {
			u.ID = 1
			return nil
		})

		user, err := svc.Register(ctx, validRegistration())
		req.NoError(err)
		req.Equal(int64(1), user.ID)
		req.Equal("alice@example.com", user.Email)
		req.Nil(user.Phone)
		req.NotEqual("correct horse", user.PasswordHash)
		req.NoError(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
	})

	t.Run("should list every blank field", func(t *testing.T) {
		req := require.New(t)
		svc, _ := newAuthService(t)
		input := validRegistration()
		input.Username = "   "
		input.LastName = ""

		_, err := svc.Register(ctx, input)
		req.ErrorIs(err, apperrors.ErrValidation)
		req.ElementsMatch([]string{"username", "last_name"}, apperrors.Fields(err))
	})

	t.Run("should reject a malformed email", func(t *testing.T) {
		req := require.New(t)
		svc, _ := newAuthService(t)
		input := validRegistration()
		input.Email = "not-an-email"

		_, err := svc.Register(ctx, input)
		req.ErrorIs(err, apperrors.ErrValidation)
		req.Equal([]string{"email"}, apperrors.Fields(err))
	})

	t.Run("should report a taken username as a conflict", func(t *testing.T) {
		req := require.New(t)
		svc, users := newAuthService(t)
		users.EXPECT().Create(ctx, gomock.Any()).
			Return(apperrors.NewFieldError(apperrors.ErrConflict, "username already exists", "username"))

		_, err := svc.Register(ctx, validRegistration())
		req.ErrorIs(err, apperrors.ErrConflict)
		req.Equal([]string{"username"}, apperrors.Fields(err))
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	alice := &domain.User{ID: 1, Username: "alice", PasswordHash: string(hash)}

	t.Run("should issue tokens and store a session", func(t *testing.T) {
		req := require.New(t)
		svc, users := newAuthService(t)
		users.EXPECT().GetByUsername(ctx, "alice").Return(alice, nil)
		users.EXPECT().CreateSession(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, s *domain.UserSession) error {
			req.Equal(int64(1), s.UserID)
			req.NotEmpty(s.RefreshTokenHash)
			req.Equal("10.0.0.1", *s.IPAddress)
			return nil
		})

		resp, err := svc.Login(ctx, "alice", "correct horse", service.SessionMeta{IPAddress: "10.0.0.1"})
		req.NoError(err)
		req.Equal(alice, resp.User)

		claims, err := jwt.ValidateToken(resp.AccessToken, jwtCfg.AccessSecret)
		req.NoError(err)
		req.Equal(int64(1), claims.UserID)
		req.Equal("alice", claims.Username)
	})

	t.Run("should not reveal unknown users", func(t *testing.T) {
		svc, users := newAuthService(t)
		users.EXPECT().GetByUsername(ctx, "mallory").Return(nil, apperrors.ErrUserNotFound)

		_, err := svc.Login(ctx, "mallory", "whatever", service.SessionMeta{})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("should reject a wrong password", func(t *testing.T) {
		svc, users := newAuthService(t)
		users.EXPECT().GetByUsername(ctx, "alice").Return(alice, nil)

		_, err := svc.Login(ctx, "alice", "wrong", service.SessionMeta{})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("should require both fields", func(t *testing.T) {
		svc, _ := newAuthService(t)

		_, err := svc.Login(ctx, " ", "", service.SessionMeta{})
		require.ErrorIs(t, err, apperrors.ErrValidation)
		require.Equal(t, []string{"username", "password"}, apperrors.Fields(err))
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	alice := &domain.User{ID: 1, Username: "alice"}

	t.Run("should rotate the session", func(t *testing.T) {
		req := require.New(t)
		svc, users := newAuthService(t)
		token, err := jwt.GenerateRefreshToken(1, jwtCfg.RefreshSecret, jwtCfg.Issuer, time.Hour)
		req.NoError(err)

		users.EXPECT().GetSessionByTokenHash(ctx, gomock.Any()).Return(&domain.UserSession{ID: 5, UserID: 1}, nil)
		users.EXPECT().GetByID(ctx, int64(1)).Return(alice, nil)
		users.EXPECT().RevokeSession(ctx, int64(5), "refreshed").Return(nil)
		users.EXPECT().CreateSession(ctx, gomock.Any()).Return(nil)

		resp, err := svc.RefreshToken(ctx, token, service.SessionMeta{})
		req.NoError(err)
		req.NotEqual(token, resp.RefreshToken)
		req.NotEmpty(resp.AccessToken)
	})

	t.Run("should reject an access token", func(t *testing.T) {
		svc, _ := newAuthService(t)
		token, err := jwt.GenerateAccessToken(1, "alice", jwtCfg.AccessSecret, jwtCfg.Issuer, time.Hour)
		require.NoError(t, err)

		_, err = svc.RefreshToken(ctx, token, service.SessionMeta{})
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("should reject a revoked session", func(t *testing.T) {
		svc, users := newAuthService(t)
		token, err := jwt.GenerateRefreshToken(1, jwtCfg.RefreshSecret, jwtCfg.Issuer, time.Hour)
		require.NoError(t, err)
		users.EXPECT().GetSessionByTokenHash(ctx, gomock.Any()).Return(nil, apperrors.ErrSessionNotFound)

		_, err = svc.RefreshToken(ctx, token, service.SessionMeta{})
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()

	t.Run("should resolve the caller", func(t *testing.T) {
		req := require.New(t)
		svc, users := newAuthService(t)
		token, err := jwt.GenerateAccessToken(3, "carol", jwtCfg.AccessSecret, jwtCfg.Issuer, time.Minute)
		req.NoError(err)
		users.EXPECT().GetByID(ctx, int64(3)).Return(&domain.User{ID: 3, Username: "carol"}, nil)

		user, err := svc.ValidateToken(ctx, token)
		req.NoError(err)
		req.Equal("carol", user.Username)
	})

	t.Run("should map expiry", func(t *testing.T) {
		svc, _ := newAuthService(t)
		token, err := jwt.GenerateAccessToken(3, "carol", jwtCfg.AccessSecret, jwtCfg.Issuer, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(ctx, token)
		require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("should reject tokens of deleted users", func(t *testing.T) {
		svc, users := newAuthService(t)
		token, err := jwt.GenerateAccessToken(3, "carol", jwtCfg.AccessSecret, jwtCfg.Issuer, time.Minute)
		require.NoError(t, err)
		users.EXPECT().GetByID(ctx, int64(3)).Return(nil, apperrors.ErrUserNotFound)

		_, err = svc.ValidateToken(ctx, token)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}
