package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/yt-history-go/api/handlers"
	"github.com/yourusername/yt-history-go/api/middleware"
	"github.com/yourusername/yt-history-go/internal/app"
	"github.com/yourusername/yt-history-go/internal/infrastructure"
	"github.com/yourusername/yt-history-go/pkg/logger"
	"go.uber.org/zap"
)

// Services bundles everything the HTTP layer serves
type Services struct {
	Store       *infrastructure.SQLiteStore
	History     *app.HistoryManager
	Tracker     *app.BandwidthTracker
	Analytics   *app.AnalyticsManager
	Settings    *app.SettingsManager
	Downloads   *app.DownloadManager
	Logger      *zap.Logger
	EventLogger *logger.MultiLogger
	LogsDir     string
	BackupDir   string
}

// SetupRouter sets up the HTTP router
func SetupRouter(s Services) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(s.Logger, s.EventLogger))
	router.Use(middleware.Recovery(s.Logger, s.EventLogger))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(s.Store)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		historyHandler := handlers.NewHistoryHandler(s.History, s.Store, s.BackupDir, s.Logger)
		history := v1.Group("/history")
		{
			history.GET("", historyHandler.List)
			history.DELETE("", historyHandler.Clear)
			history.GET("/export", historyHandler.Export)
			history.GET("/stats", historyHandler.Stats)
			history.POST("/backup", historyHandler.Backup)
			history.GET("/:id", historyHandler.Get)
			history.DELETE("/:id", historyHandler.Delete)
		}

		bandwidthHandler := handlers.NewBandwidthHandler(s.Tracker, s.Logger)
		bandwidth := v1.Group("/bandwidth")
		{
			bandwidth.GET("/stats", bandwidthHandler.Stats)
			bandwidth.GET("/trend", bandwidthHandler.Trend)
			bandwidth.GET("/sessions", bandwidthHandler.Sessions)
			bandwidth.GET("/stream", bandwidthHandler.Stream)
		}

		analyticsHandler := handlers.NewAnalyticsHandler(s.Analytics)
		analytics := v1.Group("/analytics")
		{
			analytics.GET("/summary", analyticsHandler.Summary)
			analytics.GET("/resolutions", analyticsHandler.Resolutions)
			analytics.GET("/daily", analyticsHandler.Daily)
			analytics.GET("/channels", analyticsHandler.Channels)
		}

		settingsHandler := handlers.NewSettingsHandler(s.Settings)
		settings := v1.Group("/settings")
		{
			settings.GET("", settingsHandler.List)
			settings.POST("/reset", settingsHandler.Reset)
			settings.GET("/:key", settingsHandler.Get)
			settings.PUT("/:key", settingsHandler.Set)
		}

		if s.Downloads != nil {
			downloadHandler := handlers.NewDownloadHandler(s.Downloads, s.Logger)
			downloads := v1.Group("/downloads")
			{
				downloads.POST("", downloadHandler.AddDownload)
				downloads.GET("", downloadHandler.ListJobs)
				downloads.GET("/info", downloadHandler.Info)
				downloads.GET("/:id", downloadHandler.GetJob)
				downloads.POST("/:id/cancel", downloadHandler.CancelJob)
				downloads.POST("/:id/retry", downloadHandler.RetryJob)
			}
		}

		// Log endpoints
		logHandler := handlers.NewLogHandler(s.LogsDir)
		logWSHandler := handlers.NewLogWebSocketHandler(s.LogsDir, s.Logger)
		logs := v1.Group("/logs")
		{
			logs.GET("/categories", logHandler.GetCategories)
			logs.GET("/stream", logWSHandler.HandleWebSocket)
			logs.GET("/:category", logHandler.GetLogs)
			logs.GET("/:category/search", logHandler.SearchLogs)
			logs.GET("/:category/export", logHandler.ExportLogs)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
