package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger - зависимость, доступность которой проверяет /health
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	service string
	checks  map[string]Pinger
}

func NewHealthHandler(service string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{
		service: service,
		checks:  checks,
	}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"service":      h.service,
		"dependencies": deps,
	})
}
