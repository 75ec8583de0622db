package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/yt-history-go/api"
	"github.com/yourusername/yt-history-go/internal/app"
	"github.com/yourusername/yt-history-go/internal/domain"
	"github.com/yourusername/yt-history-go/internal/infrastructure"
	"github.com/yourusername/yt-history-go/pkg/logger"
)

var (
	serverMode = flag.Bool("server-mode", false, "Internal flag: run in server mode (called by daemon)")
	foreground = flag.Bool("foreground", false, "Run in the foreground instead of detaching")
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// If not in server mode, run as daemon
	if !*serverMode && !*foreground {
		startAsDaemon()
		return
	}

	runServer()
}

// startAsDaemon re-executes the binary in server mode, detached from the terminal
func startAsDaemon() {
	execPath, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get executable path: %v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	args := []string{"-server-mode"}
	if *configPath != "" {
		args = append(args, "-config", *configPath)
	}
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cwd
	cmd.Env = os.Environ()
	detach(cmd)

	// Redirect output to /dev/null
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open /dev/null: %v\n", err)
		os.Exit(1)
	}
	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start daemon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server started as daemon (PID: %d)\n", cmd.Process.Pid)
	os.Exit(0)
}

func runServer() {
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		// The configured logger depends on the config; report on the console logger instead.
		logger.NewDefault().Fatal("Failed to load config", zap.String("path", *configPath), zap.Error(err))
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
		MaxSizeMB:  config.Logging.MaxSizeMB,
		MaxBackups: config.Logging.MaxBackups,
		MaxAgeDays: config.Logging.MaxAgeDays,
		Compress:   config.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Categorised event logs: download, bandwidth, error
	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Download.LogsDir,
	})
	if err != nil {
		log.Fatal("Failed to initialize event logger", zap.Error(err))
	}
	defer multiLog.Close()

	log.Info("Starting yt-history server",
		zap.String("version", "1.0.0"),
		zap.String("host", config.Server.Host),
		zap.Int("port", config.Server.Port),
		zap.String("database", config.Database.Path))

	if err := createDirectories(config); err != nil {
		log.Fatal("Failed to create directories", zap.Error(err))
	}

	store, err := infrastructure.NewSQLiteStore(config.Database.Path, log)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	notifier := infrastructure.NewNotificationService(&config.Notification, log)
	engine := infrastructure.NewYTDLPEngine(config.Download.YTDLPBinary, config.Download.LogsDir, multiLog)

	history := app.NewHistoryManager(store, &config.History, log, multiLog)
	tracker := app.NewBandwidthTracker(store, log, multiLog)
	analytics := app.NewAnalyticsManager(store, &config.Analytics, log)
	settings := app.NewSettingsManager(store, log)
	history.OnChange(analytics.Invalidate)

	downloadMgr := app.NewDownloadManager(engine, history, tracker, settings, notifier, &config.Download, log)

	router := api.SetupRouter(api.Services{
		Store:       store,
		History:     history,
		Tracker:     tracker,
		Analytics:   analytics,
		Settings:    settings,
		Downloads:   downloadMgr,
		Logger:      log,
		EventLogger: multiLog,
		LogsDir:     config.Download.LogsDir,
		BackupDir:   filepath.Join(filepath.Dir(config.Database.Path), "backups"),
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// In-flight downloads are cancelled and recorded as failed attempts
	downloadMgr.Shutdown()

	log.Info("Server exited")
}

func createDirectories(config *domain.Config) error {
	dirs := []string{
		config.Download.Dir,
		config.Download.LogsDir,
		filepath.Dir(config.Database.Path),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
