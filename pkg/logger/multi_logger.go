package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryDownload  LogCategory = "download"  // Download lifecycle events (JSON)
	CategoryBandwidth LogCategory = "bandwidth" // Bandwidth session summaries (JSON)
	CategoryError     LogCategory = "error"     // Application errors (JSON)
	CategoryEngine    LogCategory = "ytdlp"     // Raw engine output, written by the engine itself
)

// Categories lists the categories a LogReader can serve
var Categories = []LogCategory{CategoryDownload, CategoryBandwidth, CategoryError, CategoryEngine}

// ParseCategory validates a category name
func ParseCategory(name string) (LogCategory, error) {
	for _, c := range Categories {
		if string(c) == name {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown log category: %s", name)
}

// MultiLogger writes categorised JSON logs to one file per category and day.
// Files switch to a new date on the first write after midnight.
type MultiLogger struct {
	config      MultiLoggerConfig
	level       zapcore.Level
	mu          sync.RWMutex
	loggers     map[LogCategory]*zap.Logger
	files       map[LogCategory]*os.File
	currentDate string
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		config: config,
		level:  level,
		now:    time.Now,
	}
	if err := ml.open(ml.now().Format("20060102")); err != nil {
		return nil, err
	}
	return ml, nil
}

// open creates the category loggers for date. Caller holds mu or owns ml.
func (ml *MultiLogger) open(date string) error {
	loggers := make(map[LogCategory]*zap.Logger)
	files := make(map[LogCategory]*os.File)

	levels := map[LogCategory]zapcore.Level{
		CategoryDownload:  ml.level,
		CategoryBandwidth: ml.level,
		CategoryError:     zapcore.ErrorLevel,
	}
	for category, level := range levels {
		path := CategoryLogPath(ml.config.LogsDir, category, date)
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			for _, f := range files {
				f.Close()
			}
			return fmt.Errorf("failed to open %s log: %w", category, err)
		}
		files[category] = file
		loggers[category] = zap.New(zapcore.NewCore(jsonEncoder(), zapcore.AddSync(file), level))
	}

	ml.loggers = loggers
	ml.files = files
	ml.currentDate = date
	return nil
}

func jsonEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""
	return zapcore.NewJSONEncoder(encoderConfig)
}

// CategoryLogPath returns the file a category writes to on date (YYYYMMDD)
func CategoryLogPath(logsDir string, category LogCategory, date string) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", category, date))
}

// rotate reopens the files when the date has changed since they were opened
func (ml *MultiLogger) rotate() {
	date := ml.now().Format("20060102")

	ml.mu.RLock()
	current := ml.currentDate
	ml.mu.RUnlock()
	if date == current {
		return
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if date == ml.currentDate {
		return
	}
	old := ml.files
	if err := ml.open(date); err != nil {
		return
	}
	for _, f := range old {
		f.Close()
	}
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.rotate()

	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

// LogDownloadEvent logs a download lifecycle event. Safe on a nil receiver.
func (ml *MultiLogger) LogDownloadEvent(event string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.GetLogger(CategoryDownload).Info(event, fields...)
}

// LogBandwidthEvent logs a bandwidth session event
func (ml *MultiLogger) LogBandwidthEvent(event string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.GetLogger(CategoryBandwidth).Info(event, fields...)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	if ml == nil {
		return
	}
	ml.GetLogger(CategoryError).Error(msg, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, logger := range ml.loggers {
		if err := logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes and closes every category file
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for category, logger := range ml.loggers {
		logger.Sync()
		if err := ml.files[category].Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
