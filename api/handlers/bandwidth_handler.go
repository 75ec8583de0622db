package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/yt-history-go/internal/app"
	"go.uber.org/zap"
)

// BandwidthHandler handles bandwidth statistics and live session requests
type BandwidthHandler struct {
	tracker        *app.BandwidthTracker
	logger         *zap.Logger
	streamInterval time.Duration
}

// NewBandwidthHandler creates a new bandwidth handler
func NewBandwidthHandler(tracker *app.BandwidthTracker, logger *zap.Logger) *BandwidthHandler {
	return &BandwidthHandler{
		tracker:        tracker,
		logger:         logger,
		streamInterval: time.Second,
	}
}

// Stats handles GET /api/v1/bandwidth/stats
func (h *BandwidthHandler) Stats(c *gin.Context) {
	days, err := queryInt(c, "days", 30)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.tracker.Statistics(c.Request.Context(), days))
}

// Trend handles GET /api/v1/bandwidth/trend
func (h *BandwidthHandler) Trend(c *gin.Context) {
	days, err := queryInt(c, "days", 30)
	if err != nil {
		badRequest(c, err)
		return
	}
	points := h.tracker.Trend(c.Request.Context(), days)
	c.JSON(http.StatusOK, gin.H{
		"days":   days,
		"points": points,
	})
}

// Sessions handles GET /api/v1/bandwidth/sessions
func (h *BandwidthHandler) Sessions(c *gin.Context) {
	sessions := h.tracker.Active()
	c.JSON(http.StatusOK, gin.H{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// Stream handles GET /api/v1/bandwidth/stream, pushing the live sessions
// to a WebSocket client once per interval
func (h *BandwidthHandler) Stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("Bandwidth stream client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	// Read messages from client so close frames are noticed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.streamInterval)
	defer ticker.Stop()
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteJSON(h.tracker.Active()); err != nil {
				h.logger.Debug("Bandwidth stream closed", zap.Error(err))
				return
			}

		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
