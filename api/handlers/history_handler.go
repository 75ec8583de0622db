package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/yt-history-go/internal/app"
	"github.com/yourusername/yt-history-go/internal/domain"
	"go.uber.org/zap"
)

// Backuper copies the history database into a directory
type Backuper interface {
	Backup(ctx context.Context, dir string) (string, error)
}

// HistoryHandler handles download history requests
type HistoryHandler struct {
	history   *app.HistoryManager
	backuper  Backuper
	backupDir string
	logger    *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(history *app.HistoryManager, backuper Backuper, backupDir string, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		history:   history,
		backuper:  backuper,
		backupDir: backupDir,
		logger:    logger,
	}
}

// parseFilter reads the shared filter query parameters
func parseFilter(c *gin.Context) (domain.FilterSpec, domain.Period, error) {
	filter := domain.FilterSpec{
		Search:     c.Query("q"),
		Resolution: c.Query("resolution"),
		Status:     domain.DownloadStatus(c.Query("status")),
	}
	if filter.Status != "" && !domain.ValidateStatus(filter.Status) {
		return filter, "", fmt.Errorf("invalid status: %s", filter.Status)
	}

	var err error
	if filter.DateFrom, err = queryDate(c, "date_from", false); err != nil {
		return filter, "", err
	}
	if filter.DateTo, err = queryDate(c, "date_to", true); err != nil {
		return filter, "", err
	}
	return filter, domain.Period(c.Query("period")), nil
}

// List handles GET /api/v1/history
func (h *HistoryHandler) List(c *gin.Context) {
	filter, period, err := parseFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		badRequest(c, err)
		return
	}
	perPage, err := queryInt(c, "per_page", h.history.DefaultPerPage())
	if err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.history.ListPage(c.Request.Context(), app.ListRequest{
		Page:    page,
		PerPage: perPage,
		Filter:  filter,
		Period:  period,
	})
	if err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export handles GET /api/v1/history/export
func (h *HistoryHandler) Export(c *gin.Context) {
	filter, period, err := parseFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	records := h.history.Export(c.Request.Context(), filter, period)
	c.Header("Content-Disposition", "attachment; filename=history.json")
	c.JSON(http.StatusOK, gin.H{
		"count":     len(records),
		"downloads": records,
	})
}

// Stats handles GET /api/v1/history/stats
func (h *HistoryHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.history.Stats(c.Request.Context()))
}

// Get handles GET /api/v1/history/:id
func (h *HistoryHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	record, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
			return
		}
		h.logger.Error("Failed to get download", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

// Delete handles DELETE /api/v1/history/:id
func (h *HistoryHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.history.Remove(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download deleted"})
}

// Clear handles DELETE /api/v1/history
func (h *HistoryHandler) Clear(c *gin.Context) {
	n, err := h.history.Clear(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "history cleared", "removed": n})
}

// Backup handles POST /api/v1/history/backup
func (h *HistoryHandler) Backup(c *gin.Context) {
	if h.backuper == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "backup not available"})
		return
	}

	path, err := h.backuper.Backup(c.Request.Context(), h.backupDir)
	if err != nil {
		h.logger.Error("Failed to back up history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"path": path})
}
