package app

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/yourusername/yt-history-go/internal/domain"
	"go.uber.org/zap"
)

// AnalyticsStore is the persistence the analytics manager reads from
type AnalyticsStore interface {
	Summary(ctx context.Context, since *time.Time) (*domain.AnalyticsSummary, error)
	ResolutionDistribution(ctx context.Context, since *time.Time) ([]domain.ResolutionCount, error)
	DailyCounts(ctx context.Context, since time.Time) ([]domain.DailyCount, error)
	TopChannels(ctx context.Context, since *time.Time, limit int) ([]domain.ChannelCount, error)
}

// AnalyticsManager serves aggregate views of the history through a TTL cache
type AnalyticsManager struct {
	store  AnalyticsStore
	cache  *expirable.LRU[string, any]
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyticsManager creates a new analytics manager
func NewAnalyticsManager(store AnalyticsStore, config *domain.AnalyticsConfig, log *zap.Logger) *AnalyticsManager {
	if log == nil {
		log = zap.NewNop()
	}
	if config == nil {
		config = &domain.DefaultConfig().Analytics
	}
	return &AnalyticsManager{
		store:  store,
		cache:  expirable.NewLRU[string, any](config.CacheSize, nil, config.CacheTTL),
		logger: log,
		now:    time.Now,
	}
}

// cached returns the value under key, computing and storing it on a miss.
// Errors are not cached.
func cached[T any](m *AnalyticsManager, key string, load func() (T, error)) (T, error) {
	if v, ok := m.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		m.logger.Error("Analytics query failed", zap.String("key", key), zap.Error(err))
		return zero, err
	}
	m.cache.Add(key, v)
	return v, nil
}

// Summary returns headline figures for a period
func (m *AnalyticsManager) Summary(ctx context.Context, period domain.Period) (*domain.AnalyticsSummary, error) {
	return cached(m, "summary:"+string(period), func() (*domain.AnalyticsSummary, error) {
		return m.store.Summary(ctx, period.Since(m.now()))
	})
}

// Resolutions returns the resolution distribution for a period
func (m *AnalyticsManager) Resolutions(ctx context.Context, period domain.Period) ([]domain.ResolutionCount, error) {
	return cached(m, "resolutions:"+string(period), func() ([]domain.ResolutionCount, error) {
		return m.store.ResolutionDistribution(ctx, period.Since(m.now()))
	})
}

// Daily returns per-day download counts over the last days
func (m *AnalyticsManager) Daily(ctx context.Context, days int) ([]domain.DailyCount, error) {
	if days < 1 {
		days = 30
	}
	return cached(m, fmt.Sprintf("daily:%d", days), func() ([]domain.DailyCount, error) {
		return m.store.DailyCounts(ctx, m.now().AddDate(0, 0, -days))
	})
}

// TopChannels returns the most downloaded uploaders for a period
func (m *AnalyticsManager) TopChannels(ctx context.Context, period domain.Period, limit int) ([]domain.ChannelCount, error) {
	if limit < 1 {
		limit = 10
	}
	return cached(m, fmt.Sprintf("channels:%s:%d", period, limit), func() ([]domain.ChannelCount, error) {
		return m.store.TopChannels(ctx, period.Since(m.now()), limit)
	})
}

// Invalidate drops every cached view; called after the history changes
func (m *AnalyticsManager) Invalidate() {
	m.cache.Purge()
}
