package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Database     DatabaseConfig     `mapstructure:"database" yaml:"database"`
	Download     DownloadConfig     `mapstructure:"download" yaml:"download"`
	History      HistoryConfig      `mapstructure:"history" yaml:"history"`
	Analytics    AnalyticsConfig    `mapstructure:"analytics" yaml:"analytics"`
	Notification NotificationConfig `mapstructure:"notification" yaml:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// DatabaseConfig contains the history store location
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	Dir               string        `mapstructure:"dir" yaml:"dir"`
	LogsDir           string        `mapstructure:"logs_dir" yaml:"logs_dir"`
	YTDLPBinary       string        `mapstructure:"ytdlp_binary" yaml:"ytdlp_binary"`
	DefaultResolution string        `mapstructure:"default_resolution" yaml:"default_resolution"`
	MaxRetries        int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	ConcurrentLimit   int           `mapstructure:"concurrent_limit" yaml:"concurrent_limit"`
}

// HistoryConfig contains history query defaults
type HistoryConfig struct {
	DefaultPerPage int `mapstructure:"default_per_page" yaml:"default_per_page"`
	MaxPerPage     int `mapstructure:"max_per_page" yaml:"max_per_page"`
}

// AnalyticsConfig contains analytics cache settings
type AnalyticsConfig struct {
	CacheTTL  time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size" yaml:"cache_size"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Sound   bool   `mapstructure:"sound" yaml:"sound"`
	Method  string `mapstructure:"method" yaml:"method"` // osascript, notify-send, etc.
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"`           // json, console
	OutputPath string `mapstructure:"output_path" yaml:"output_path"` // stdout, stderr, or file path
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8091,
		},
		Database: DatabaseConfig{
			Path: "$HOME/.yt-history/downloads.db",
		},
		Download: DownloadConfig{
			Dir:               "$HOME/Downloads/yt-history",
			LogsDir:           "$HOME/.yt-history/logs",
			YTDLPBinary:       "yt-dlp",
			DefaultResolution: "1080p",
			MaxRetries:        3,
			RetryDelay:        10 * time.Second,
			ConcurrentLimit:   2,
		},
		History: HistoryConfig{
			DefaultPerPage: 20,
			MaxPerPage:     200,
		},
		Analytics: AnalyticsConfig{
			CacheTTL:  5 * time.Minute,
			CacheSize: 64,
		},
		Notification: NotificationConfig{
			Enabled: true,
			Sound:   false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			MaxSizeMB:  250,
			MaxBackups: 3,
			MaxAgeDays: 30,
			Compress:   false,
		},
	}
}
