package handler

import (
	"net/http"

	"social_chat/internal/service"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	log         logger.Logger
}

func NewUserHandler(userService service.UserService, log logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.UpdateProfileInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetByID(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) ListContacts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	contacts, err := h.userService.ListContacts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

func (h *UserHandler) AddContact(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.ContactInput
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	contact, err := h.userService.AddContact(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

func (h *UserHandler) RemoveContact(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	contactID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.userService.RemoveContact(c.Request.Context(), userID, contactID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Contact removed"})
}
