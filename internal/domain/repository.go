package domain

import (
	"context"
	"time"
)

// DownloadRepository defines the interface for download history persistence
type DownloadRepository interface {
	// Create inserts a record; the store assigns ID and DownloadDate
	Create(ctx context.Context, record *DownloadRecord) error

	// FindByID finds a record by ID
	FindByID(ctx context.Context, id int64) (*DownloadRecord, error)

	// Delete deletes a record by ID
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every record and returns how many were deleted
	DeleteAll(ctx context.Context) (int64, error)

	// FindPage returns one page of records matching the filter, newest first,
	// together with the filtered count ignoring pagination
	FindPage(ctx context.Context, filter FilterSpec, page, perPage int) ([]*DownloadRecord, int64, error)

	// FindAll returns every record matching the filter, newest first
	FindAll(ctx context.Context, filter FilterSpec) ([]*DownloadRecord, error)

	// UpdateBandwidth writes the bandwidth summary against an existing row
	UpdateBandwidth(ctx context.Context, id int64, summary BandwidthSummary) error

	// GetStats returns whole-history statistics
	GetStats(ctx context.Context) (*HistoryStats, error)

	// BandwidthStatistics aggregates bandwidth figures recorded since the given time
	BandwidthStatistics(ctx context.Context, since time.Time) (*BandwidthStatistics, error)

	// SpeedTrend returns per-day bandwidth figures recorded since the given time
	SpeedTrend(ctx context.Context, since time.Time) ([]SpeedTrendPoint, error)

	// Summary returns analytics totals for rows recorded since the given time;
	// a nil since covers the whole history
	Summary(ctx context.Context, since *time.Time) (*AnalyticsSummary, error)

	// ResolutionDistribution counts rows per resolution label
	ResolutionDistribution(ctx context.Context, since *time.Time) ([]ResolutionCount, error)

	// DailyCounts counts rows per day since the given time
	DailyCounts(ctx context.Context, since time.Time) ([]DailyCount, error)

	// TopChannels returns the uploaders with the most rows
	TopChannels(ctx context.Context, since *time.Time, limit int) ([]ChannelCount, error)
}

// SettingsRepository defines the interface for key-value settings persistence
type SettingsRepository interface {
	// Get returns the setting or ErrNotFound
	Get(ctx context.Context, key string) (*Setting, error)

	// Set upserts a setting by key
	Set(ctx context.Context, key, value string) error

	// All returns every setting ordered by key
	All(ctx context.Context) ([]*Setting, error)

	// Reset restores the seeded defaults, overwriting existing values
	Reset(ctx context.Context) error
}

// MigrationRepository exposes the applied schema version
type MigrationRepository interface {
	SchemaVersion(ctx context.Context) (int, error)
}
