package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social_chat/internal/config"
	"social_chat/internal/domain"
	"social_chat/internal/middleware"
	"social_chat/internal/mocks"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func whoami(c *gin.Context) {
	id, _ := middleware.UserID(c)
	c.JSON(http.StatusOK, gin.H{"uid": id, "username": c.GetString(middleware.ContextUsername)})
}

func TestAuthMiddleware(t *testing.T) {
	newRouter := func(t *testing.T) (*gin.Engine, *mocks.MockAuthService) {
		auth := mocks.NewMockAuthService(gomock.NewController(t))
		m := middleware.NewAuthMiddleware(auth, logger.Nop())
		r := gin.New()
		r.GET("/me", m.RequireAuth(), whoami)
		r.GET("/feed", m.RequireAuthOrQuery(), whoami)
		return r, auth
	}

	t.Run("should put the caller into the context", func(t *testing.T) {
		req := require.New(t)
		r, auth := newRouter(t)
		auth.EXPECT().ValidateToken(gomock.Any(), "good").Return(&domain.User{ID: 7, Username: "alice"}, nil)

		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest(http.MethodGet, "/me", nil)
		httpReq.Header.Set("Authorization", "Bearer good")
		r.ServeHTTP(w, httpReq)

		req.Equal(http.StatusOK, w.Code)
		req.JSONEq(`{"uid":7,"username":"alice"}`, w.Body.String())
	})

	t.Run("should reject a missing header", func(t *testing.T) {
		r, _ := newRouter(t)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token=good", nil))
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("should accept a query token where allowed", func(t *testing.T) {
		r, auth := newRouter(t)
		auth.EXPECT().ValidateToken(gomock.Any(), "good").Return(&domain.User{ID: 7, Username: "alice"}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed?token=good", nil))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("should map an expired token to 401", func(t *testing.T) {
		req := require.New(t)
		r, auth := newRouter(t)
		auth.EXPECT().ValidateToken(gomock.Any(), "old").Return(nil, apperrors.ErrTokenExpired)

		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest(http.MethodGet, "/me", nil)
		httpReq.Header.Set("Authorization", "Bearer old")
		r.ServeHTTP(w, httpReq)

		req.Equal(http.StatusUnauthorized, w.Code)
		var body apperrors.APIError
		req.NoError(json.Unmarshal(w.Body.Bytes(), &body))
		req.Equal("token expired", body.Message)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.RateLimitConfig{Requests: 2, Window: time.Minute}

	newRouter := func(t *testing.T) (*gin.Engine, *mocks.MockRateLimitService) {
		limiter := mocks.NewMockRateLimitService(gomock.NewController(t))
		r := gin.New()
		r.POST("/login", middleware.NewRateLimitMiddleware(limiter, cfg, logger.Nop()).Limit("auth"), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return r, limiter
	}

	t.Run("should reject when over the limit", func(t *testing.T) {
		r, limiter := newRouter(t)
		limiter.EXPECT().Allow(gomock.Any(), "auth:192.0.2.1", 2, time.Minute).Return(false, nil)

		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest(http.MethodPost, "/login", nil)
		httpReq.RemoteAddr = "192.0.2.1:1234"
		r.ServeHTTP(w, httpReq)

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		require.Equal(t, "60", w.Header().Get("Retry-After"))
	})

	t.Run("should let requests through when redis fails", func(t *testing.T) {
		r, limiter := newRouter(t)
		limiter.EXPECT().Allow(gomock.Any(), gomock.Any(), 2, time.Minute).Return(false, errors.New("redis down"))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestErrorHandler(t *testing.T) {
	req := require.New(t)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(apperrors.NewFieldError(apperrors.ErrConflict, "username already exists", "username"))
	})
	r.GET("/secret", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: password authentication failed"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil).WithContext(context.Background()))
	req.Equal(http.StatusBadRequest, w.Code)
	req.JSONEq(`{"error":"username already exists","code":400,"fields":["username"]}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secret", nil))
	req.Equal(http.StatusInternalServerError, w.Code)
	req.NotContains(w.Body.String(), "password")
}
