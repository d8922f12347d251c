package handler

import (
	"net/http"

	"social_chat/internal/service"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	log         logger.Logger
}

func NewAuthHandler(authService service.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log,
	}
}

// LoginRequest - пустые поля проверяет сервис, чтобы вернуть их список
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func sessionMeta(c *gin.Context) service.SessionMeta {
	return service.SessionMeta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.log.Warn("Registration failed", "error", err, "username", req.Username)
		respondError(c, h.log, err)
		return
	}

	h.log.Info("User registered successfully", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Username, req.Password, sessionMeta(c))
	if err != nil {
		h.log.Warn("Login failed", "error", err, "username", req.Username)
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	resp, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken, sessionMeta(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req RefreshTokenRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
