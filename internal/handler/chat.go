package handler

import (
	"net/http"

	"social_chat/internal/service"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
	log         logger.Logger
}

func NewChatHandler(chatService service.ChatService, log logger.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		log:         log,
	}
}

// CreateChatRequest - пустое имя проверяет сервис
type CreateChatRequest struct {
	Name    string  `json:"name"`
	Members []int64 `json:"members"`
}

type AddMemberRequest struct {
	UserID int64 `json:"contact_id" binding:"required,gt=0"`
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chats, err := h.chatService.ListUserChats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (h *ChatHandler) CreateChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateChatRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	chat, err := h.chatService.CreateChat(c.Request.Context(), req.Name, userID, req.Members)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Chat created", "chat_id", chat.ID, "owner_id", userID)
	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	chat, err := h.chatService.GetChat(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, chat)
}

func (h *ChatHandler) DeleteChat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.chatService.DeleteChat(c.Request.Context(), userID, chatID); err != nil {
		respondError(c, h.log, err)
		return
	}

	h.log.Info("Chat deleted", "chat_id", chatID, "owner_id", userID)
	c.JSON(http.StatusOK, gin.H{"message": "Chat deleted"})
}

func (h *ChatHandler) GetMembers(c *gin.Context) {
	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	members, err := h.chatService.GetMembers(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (h *ChatHandler) GetOwner(c *gin.Context) {
	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	owner, err := h.chatService.GetOwner(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, owner)
}

func (h *ChatHandler) AddMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var req AddMemberRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.chatService.AddMember(c.Request.Context(), userID, chatID, req.UserID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member added"})
}

func (h *ChatHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	memberID, err := pathID(c, "userId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.chatService.RemoveMember(c.Request.Context(), userID, chatID, memberID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

func (h *ChatHandler) GetAuditLog(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	events, err := h.chatService.GetAuditLog(c.Request.Context(), userID, chatID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
