package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/yt-history-go/internal/app"
	"github.com/yourusername/yt-history-go/internal/domain"
	"go.uber.org/zap"
)

// DownloadHandler handles download submission and job requests
type DownloadHandler struct {
	downloadMgr *app.DownloadManager
	logger      *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(downloadMgr *app.DownloadManager, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{
		downloadMgr: downloadMgr,
		logger:      logger,
	}
}

// AddDownloadRequest represents a request to add a download
type AddDownloadRequest struct {
	URL        string `json:"url" binding:"required"`
	Resolution string `json:"resolution,omitempty"`
	Directory  string `json:"directory,omitempty"`
}

// AddDownload handles POST /api/v1/downloads
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var req AddDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	// Jobs run on the manager's context, not the request's
	jobs, err := h.downloadMgr.Submit(c.Request.Context(), app.SubmitRequest{
		URL:        req.URL,
		Resolution: req.Resolution,
		Directory:  req.Directory,
	})
	if err != nil {
		if domain.IsValidation(err) {
			badRequest(c, err)
			return
		}
		h.logger.Error("Failed to add download", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"jobs": jobs})
}

// Info handles GET /api/v1/downloads/info?url=
func (h *DownloadHandler) Info(c *gin.Context) {
	info, err := h.downloadMgr.Info(c.Request.Context(), c.Query("url"))
	if err != nil {
		if domain.IsValidation(err) {
			badRequest(c, err)
			return
		}
		h.logger.Warn("Failed to extract info", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"info":        info,
		"resolutions": info.Resolutions(),
	})
}

// ListJobs handles GET /api/v1/downloads
func (h *DownloadHandler) ListJobs(c *gin.Context) {
	jobs := h.downloadMgr.Jobs()
	c.JSON(http.StatusOK, gin.H{"count": len(jobs), "jobs": jobs})
}

// GetJob handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetJob(c *gin.Context) {
	job, ok := h.downloadMgr.Job(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// CancelJob handles POST /api/v1/downloads/:id/cancel
func (h *DownloadHandler) CancelJob(c *gin.Context) {
	id := c.Param("id")

	if err := h.downloadMgr.CancelJob(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download cancelled"})
}

// RetryJob handles POST /api/v1/downloads/:id/retry
func (h *DownloadHandler) RetryJob(c *gin.Context) {
	id := c.Param("id")

	job, err := h.downloadMgr.RetryJob(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		h.logger.Error("Failed to retry download", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, job)
}
