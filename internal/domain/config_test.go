package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8091, config.Server.Port)
	assert.Equal(t, "$HOME/.yt-history/downloads.db", config.Database.Path)
	assert.Equal(t, 3, config.Download.MaxRetries)
	assert.Equal(t, 10*time.Second, config.Download.RetryDelay)
	assert.Equal(t, 2, config.Download.ConcurrentLimit)
	assert.Equal(t, "yt-dlp", config.Download.YTDLPBinary)
	assert.Equal(t, 20, config.History.DefaultPerPage)
	assert.Equal(t, 5*time.Minute, config.Analytics.CacheTTL)
	assert.True(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, 250, config.Logging.MaxSizeMB)
}
