package middleware

import (
	"strings"

	"social_chat/internal/service"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

type AuthMiddleware struct {
	authService service.AuthService
	log         logger.Logger
}

func NewAuthMiddleware(authService service.AuthService, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		log:         log,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.authenticate(false)
}

// RequireAuthOrQuery дополнительно принимает ?token= (браузерный websocket не ставит заголовки)
func (m *AuthMiddleware) RequireAuthOrQuery() gin.HandlerFunc {
	return m.authenticate(true)
}

func (m *AuthMiddleware) authenticate(allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok && allowQuery {
			token = c.Query("token")
			ok = token != ""
		}
		if !ok {
			abortWithError(c, apperrors.NewFieldError(apperrors.ErrUnauthorized, "authorization required", "Authorization"))
			return
		}

		user, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			m.log.Debug("Token rejected", "error", err, "path", c.FullPath())
			abortWithError(c, err)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// UserID возвращает id пользователя, установленный RequireAuth
func UserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
