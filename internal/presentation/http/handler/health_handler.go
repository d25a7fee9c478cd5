package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports service and database reachability
type HealthHandler struct {
	name string
	ping func(ctx context.Context) error
}

// NewHealthHandler creates a health handler. ping checks the database.
func NewHealthHandler(name string, ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{name: name, ping: ping}
}

// Check returns 200 when the database answers and 503 otherwise
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code, db := "ok", http.StatusOK, "up"
	if err := h.ping(ctx); err != nil {
		status, code, db = "degraded", http.StatusServiceUnavailable, "down"
	}

	c.JSON(code, gin.H{
		"status":   status,
		"service":  h.name,
		"database": db,
	})
}
