package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/yt-history-go/internal/app"
	"github.com/yourusername/yt-history-go/internal/domain"
)

// AnalyticsHandler serves the cached aggregate views
type AnalyticsHandler struct {
	analytics *app.AnalyticsManager
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics *app.AnalyticsManager) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func period(c *gin.Context) domain.Period {
	return domain.Period(c.DefaultQuery("period", string(domain.PeriodAll)))
}

// Summary handles GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context(), period(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Resolutions handles GET /api/v1/analytics/resolutions
func (h *AnalyticsHandler) Resolutions(c *gin.Context) {
	counts, err := h.analytics.Resolutions(c.Request.Context(), period(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolutions": counts})
}

// Daily handles GET /api/v1/analytics/daily
func (h *AnalyticsHandler) Daily(c *gin.Context) {
	days, err := queryInt(c, "days", 30)
	if err != nil {
		badRequest(c, err)
		return
	}
	counts, err := h.analytics.Daily(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": counts})
}

// Channels handles GET /api/v1/analytics/channels
func (h *AnalyticsHandler) Channels(c *gin.Context) {
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		badRequest(c, err)
		return
	}
	channels, err := h.analytics.TopChannels(c.Request.Context(), period(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}
