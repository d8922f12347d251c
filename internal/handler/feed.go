package handler

import (
	"context"
	"net/http"
	"time"

	"social_chat/internal/service"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	feedWriteWait    = 10 * time.Second
	feedPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // В продакшене нужно проверять origin
	},
}

// FeedHandler транслирует события чата в websocket
type FeedHandler struct {
	feedService service.FeedService
	log         logger.Logger
}

func NewFeedHandler(feedService service.FeedService, log logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		log:         log,
	}
}

func (h *FeedHandler) Stream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	chatID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// подписка до upgrade, чтобы отказ ушел обычным http-ответом
	sub, err := h.feedService.Subscribe(ctx, chatID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	h.log.Debug("Feed connected", "chat_id", chatID, "user_id", userID)

	// клиент ничего не шлет, чтение нужно только чтобы заметить закрытие
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(feedPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(feedWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				h.log.Warn("Failed to write feed event", "error", err, "chat_id", chatID)
				return
			}
			// доступ проверялся при подписке, после исключения лента закрывается
			if event.Revokes(userID) {
				h.log.Debug("Feed access revoked", "chat_id", chatID, "user_id", userID, "event", event.Type)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "access revoked"), time.Now().Add(feedWriteWait))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return
			}
		}
	}
}
