package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/yt-history-go/internal/app"
	"github.com/yourusername/yt-history-go/internal/domain"
)

// SettingsHandler handles user preference requests
type SettingsHandler struct {
	settings *app.SettingsManager
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *app.SettingsManager) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// SetSettingRequest is the body of PUT /api/v1/settings/:key
type SetSettingRequest struct {
	Value *string `json:"value" binding:"required"`
}

// List handles GET /api/v1/settings
func (h *SettingsHandler) List(c *gin.Context) {
	settings, err := h.settings.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// Get handles GET /api/v1/settings/:key
func (h *SettingsHandler) Get(c *gin.Context) {
	setting, err := h.settings.Lookup(c.Request.Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "setting not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, setting)
}

// Set handles PUT /api/v1/settings/:key
func (h *SettingsHandler) Set(c *gin.Context) {
	var req SetSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	key := c.Param("key")
	if err := h.settings.Set(c.Request.Context(), key, *req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": *req.Value})
}

// Reset handles POST /api/v1/settings/reset
func (h *SettingsHandler) Reset(c *gin.Context) {
	if err := h.settings.ResetDefaults(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "settings reset"})
}
