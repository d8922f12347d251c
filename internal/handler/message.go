package handler

import (
	"errors"
	"io"
	"net/http"

	"social_chat/internal/domain"
	"social_chat/internal/service"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type MessageHandler struct {
	chatService   service.ChatService
	maxImageBytes int64
	log           logger.Logger
}

func NewMessageHandler(chatService service.ChatService, maxImageBytes int64, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		chatService:   chatService,
		maxImageBytes: maxImageBytes,
		log:           log,
	}
}

// PostMessageRequest - json-вариант тела, изображение передается только через multipart
type PostMessageRequest struct {
	Message string `json:"message"`
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	messages, err := h.chatService.GetChatMessages(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *MessageHandler) PostMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	text, image, err := h.readMessage(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	msg, err := h.chatService.PostMessage(c.Request.Context(), chatID, userID, text, image)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *MessageHandler) PostReply(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	parentID, err := pathID(c, "messageId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	text, image, err := h.readMessage(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	reply, err := h.chatService.PostReply(c.Request.Context(), text, userID, parentID, chatID, image)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, reply)
}

func (h *MessageHandler) Like(c *gin.Context) {
	h.vote(c, true)
}

func (h *MessageHandler) Dislike(c *gin.Context) {
	h.vote(c, false)
}

func (h *MessageHandler) vote(c *gin.Context, upvote bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	vote, err := h.chatService.Vote(c.Request.Context(), chatID, messageID, userID, upvote)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, vote)
}

const (
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

// readMessage принимает json {"message"} или multipart с полями message и image
func (h *MessageHandler) readMessage(c *gin.Context) (string, *domain.Image, error) {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		var req PostMessageRequest
		if err := bindJSON(c, &req); err != nil {
			return "", nil, err
		}
		return req.Message, nil, nil
	}

	// запас сверху лимита на поле message и служебные заголовки multipart
	if h.maxImageBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImageBytes+multipartOverhead)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, apperrors.NewFieldError(apperrors.ErrValidation, "image is too large", "image")
		}
		return "", nil, apperrors.NewFieldError(apperrors.ErrBadRequest, "invalid image upload", "image")
	}

	text := c.PostForm("message")
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return text, nil, nil
	}
	if err != nil {
		return "", nil, apperrors.NewFieldError(apperrors.ErrBadRequest, "invalid image upload", "image")
	}
	if h.maxImageBytes > 0 && header.Size > h.maxImageBytes {
		return "", nil, apperrors.NewFieldError(apperrors.ErrValidation, "image is too large", "image")
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}

	return text, &domain.Image{Filename: header.Filename, Data: data}, nil
}
