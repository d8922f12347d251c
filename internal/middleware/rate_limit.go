package middleware

import (
	"net/http"
	"strconv"

	"social_chat/internal/config"
	"social_chat/internal/service"
	"social_chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

type RateLimitMiddleware struct {
	rateLimitService service.RateLimitService
	cfg              config.RateLimitConfig
	log              logger.Logger
}

func NewRateLimitMiddleware(rateLimitService service.RateLimitService, cfg config.RateLimitConfig, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		cfg:              cfg,
		log:              log,
	}
}

// Limit ограничивает запросы с одного IP в пределах scope
func (m *RateLimitMiddleware) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		allowed, err := m.rateLimitService.Allow(c.Request.Context(), key, m.cfg.Requests, m.cfg.Window)
		if err != nil {
			// redis недоступен - запрос пропускаем
			m.log.Error("Rate limit check failed", "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(m.cfg.Requests))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(m.cfg.Window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded", "code": http.StatusTooManyRequests})
			return
		}

		c.Next()
	}
}
