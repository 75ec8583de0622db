package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// StoreProbe is what the health checks ask of the database
type StoreProbe interface {
	Ping(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store StoreProbe
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store StoreProbe) *HealthHandler {
	return &HealthHandler{
		store: store,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database struct {
		Reachable     bool   `json:"reachable"`
		SchemaVersion int    `json:"schema_version"`
		Error         string `json:"error,omitempty"`
	} `json:"database"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	if err := h.store.Ping(ctx); err != nil {
		response.Status = "degraded"
		response.Database.Error = err.Error()
	} else {
		response.Database.Reachable = true
		response.Database.SchemaVersion, _ = h.store.SchemaVersion(ctx)
	}

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
