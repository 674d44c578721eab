package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"voltscan/internal/port"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db      *sqlx.DB
	engines []port.OCREngine
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB, engines []port.OCREngine) *HealthHandler {
	return &HealthHandler{db: db, engines: engines}
}

// Liveness handles GET /healthz
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz
func (h *HealthHandler) Readiness(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database not reachable"})
		return
	}

	names := make([]string, 0, len(h.engines))
	for _, e := range h.engines {
		names = append(names, e.Name())
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "ocr_engines": names})
}
