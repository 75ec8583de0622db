package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/yourusername/yt-history-go/internal/domain"
	"go.uber.org/zap"
)

// SettingsManager reads and writes user preferences
type SettingsManager struct {
	repo   domain.SettingsRepository
	logger *zap.Logger
}

// NewSettingsManager creates a new settings manager
func NewSettingsManager(repo domain.SettingsRepository, log *zap.Logger) *SettingsManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &SettingsManager{repo: repo, logger: log}
}

// Get returns the value stored under key, or def when the key is absent
// or the store cannot be read
func (m *SettingsManager) Get(ctx context.Context, key, def string) string {
	setting, err := m.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			m.logger.Error("Failed to read setting", zap.String("key", key), zap.Error(err))
		}
		return def
	}
	return setting.Value
}

// GetBool reads a boolean setting
func (m *SettingsManager) GetBool(ctx context.Context, key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(m.Get(ctx, key, strconv.FormatBool(def))))
	if err != nil {
		return def
	}
	return v
}

// Lookup returns the stored setting or domain.ErrNotFound
func (m *SettingsManager) Lookup(ctx context.Context, key string) (*domain.Setting, error) {
	return m.repo.Get(ctx, key)
}

// Set upserts a setting
func (m *SettingsManager) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("setting key is required")
	}
	if err := m.repo.Set(ctx, key, value); err != nil {
		m.logger.Error("Failed to save setting", zap.String("key", key), zap.Error(err))
		return err
	}
	m.logger.Debug("Setting saved", zap.String("key", key))
	return nil
}

// All returns every setting
func (m *SettingsManager) All(ctx context.Context) ([]*domain.Setting, error) {
	return m.repo.All(ctx)
}

// ResetDefaults restores the seeded settings
func (m *SettingsManager) ResetDefaults(ctx context.Context) error {
	if err := m.repo.Reset(ctx); err != nil {
		m.logger.Error("Failed to reset settings", zap.Error(err))
		return err
	}
	m.logger.Info("Settings reset to defaults")
	return nil
}
