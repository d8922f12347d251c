package handler

import (
	"net/http"
	"strconv"

	"social_chat/internal/service"
	apperrors "social_chat/pkg/errors"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService service.StatsService
	log          logger.Logger
}

func NewStatsHandler(statsService service.StatsService, log logger.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		log:          log,
	}
}

// Daily отдает счетчик metric за последние дни, сегодня первым
func (h *StatsHandler) Daily(metric string) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := h.statsService.Daily(c.Request.Context(), metric)
		if err != nil {
			respondError(c, h.log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{metric: counts})
	}
}

func (h *StatsHandler) Trending(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, h.log, apperrors.NewFieldError(apperrors.ErrBadRequest, "invalid limit", "limit"))
			return
		}
		limit = n
	}

	hashtags, err := h.statsService.Trending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trending": hashtags})
}

func (h *StatsHandler) UserMessages(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	counts, err := h.statsService.UserMessages(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": counts})
}

func (h *StatsHandler) MessageStats(c *gin.Context) {
	messageID, err := pathID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	stats, err := h.statsService.MessageStats(c.Request.Context(), messageID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
