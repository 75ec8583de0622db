package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/yt-history-go/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SQLiteStore implements DownloadRepository and SettingsRepository using SQLite
type SQLiteStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSQLiteStore opens the history database and brings its schema up to date
func NewSQLiteStore(dbPath string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := Migrate(db, log); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db, logger: log}, nil
}

// Create inserts a record and stamps its download date
func (s *SQLiteStore) Create(ctx context.Context, record *domain.DownloadRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record.ID = 0
	record.DownloadDate = time.Now().UTC()
	return s.db.WithContext(ctx).Create(record).Error
}

// FindByID finds a record by ID
func (s *SQLiteStore) FindByID(ctx context.Context, id int64) (*domain.DownloadRecord, error) {
	var record domain.DownloadRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Delete deletes a record by ID
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&domain.DownloadRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteAll removes every record
func (s *SQLiteStore) DeleteAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&domain.DownloadRecord{})
	return result.RowsAffected, result.Error
}

// filterScope turns a FilterSpec into gorm conditions. It is the single
// predicate builder behind the page, count and export queries.
func filterScope(filter domain.FilterSpec) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.Search != "" {
			db = db.Where(`title LIKE ? ESCAPE '\'`, "%"+escapeLike(filter.Search)+"%")
		}
		if filter.Resolution != "" {
			db = db.Where("resolution = ?", filter.Resolution)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if filter.DateFrom != nil {
			db = db.Where("download_date >= ?", filter.DateFrom.UTC())
		}
		if filter.DateTo != nil {
			db = db.Where("download_date <= ?", filter.DateTo.UTC())
		}
		return db
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("download_date DESC").Order("id DESC")
}

// FindPage returns one page of matching records and the filtered total
func (s *SQLiteStore) FindPage(ctx context.Context, filter domain.FilterSpec, page, perPage int) ([]*domain.DownloadRecord, int64, error) {
	if err := domain.ValidatePage(page, perPage); err != nil {
		return nil, 0, err
	}

	base := s.db.WithContext(ctx).Model(&domain.DownloadRecord{}).Scopes(filterScope(filter))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count downloads: %w", err)
	}

	records := make([]*domain.DownloadRecord, 0, perPage)
	err := base.Session(&gorm.Session{}).
		Scopes(newestFirst).
		Limit(perPage).
		Offset(domain.Offset(page, perPage)).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("query downloads page: %w", err)
	}

	return records, total, nil
}

// FindAll returns every matching record, newest first
func (s *SQLiteStore) FindAll(ctx context.Context, filter domain.FilterSpec) ([]*domain.DownloadRecord, error) {
	records := []*domain.DownloadRecord{}
	err := s.db.WithContext(ctx).
		Scopes(filterScope(filter), newestFirst).
		Find(&records).Error
	return records, err
}

// UpdateBandwidth writes the bandwidth summary against row id. The legacy
// download_speed_mbps column receives the same value as avg_speed_mbps.
func (s *SQLiteStore) UpdateBandwidth(ctx context.Context, id int64, summary domain.BandwidthSummary) error {
	result := s.db.WithContext(ctx).
		Model(&domain.DownloadRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"avg_speed_mbps":            summary.AvgSpeedMbps,
			"peak_speed_mbps":           summary.PeakSpeedMbps,
			"download_duration_seconds": summary.DurationSeconds,
			"download_speed_mbps":       summary.AvgSpeedMbps,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetStats returns whole-history statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*domain.HistoryStats, error) {
	db := s.db.WithContext(ctx)
	stats := &domain.HistoryStats{ByResolution: map[string]int64{}}

	if err := db.Model(&domain.DownloadRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	statusCounts := []struct {
		Status domain.DownloadStatus
		Count  int64
	}{}
	if err := db.Model(&domain.DownloadRecord{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&statusCounts).Error; err != nil {
		return nil, err
	}
	for _, sc := range statusCounts {
		switch sc.Status {
		case domain.StatusCompleted:
			stats.Completed = sc.Count
		case domain.StatusError:
			stats.Failed = sc.Count
		case domain.StatusDownloading:
			stats.Downloading = sc.Count
		}
	}

	resolutions, err := s.ResolutionDistribution(ctx, nil)
	if err != nil {
		return nil, err
	}
	for i, rc := range resolutions {
		stats.ByResolution[rc.Resolution] = rc.Count
		if i == 0 {
			stats.MostUsedResolution = rc.Resolution
		}
	}

	if err := db.Model(&domain.DownloadRecord{}).
		Select("COALESCE(SUM(file_size), 0)").
		Scan(&stats.TotalSizeBytes).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

// BandwidthStatistics aggregates rows with recorded bandwidth since the given time
func (s *SQLiteStore) BandwidthStatistics(ctx context.Context, since time.Time) (*domain.BandwidthStatistics, error) {
	row := struct {
		AvgSpeed       float64 `gorm:"column:avg_speed"`
		MaxSpeed       float64 `gorm:"column:max_speed"`
		MinSpeed       float64 `gorm:"column:min_speed"`
		TotalDownloads int64   `gorm:"column:total_downloads"`
		AvgDuration    float64 `gorm:"column:avg_duration"`
	}{}

	err := s.db.WithContext(ctx).
		Model(&domain.DownloadRecord{}).
		Select(`COALESCE(AVG(avg_speed_mbps), 0) AS avg_speed,
			COALESCE(MAX(peak_speed_mbps), 0) AS max_speed,
			COALESCE(MIN(avg_speed_mbps), 0) AS min_speed,
			COUNT(*) AS total_downloads,
			COALESCE(AVG(download_duration_seconds), 0) AS avg_duration`).
		Where("avg_speed_mbps IS NOT NULL").
		Where("download_date >= ?", since.UTC()).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &domain.BandwidthStatistics{
		AvgSpeedMbps:    row.AvgSpeed,
		MaxSpeedMbps:    row.MaxSpeed,
		MinSpeedMbps:    row.MinSpeed,
		TotalDownloads:  row.TotalDownloads,
		AvgDurationSecs: row.AvgDuration,
	}, nil
}

// dayColumn extracts the UTC calendar day from the stored timestamp text
const dayColumn = "substr(download_date, 1, 10)"

// SpeedTrend returns per-day bandwidth figures since the given time
func (s *SQLiteStore) SpeedTrend(ctx context.Context, since time.Time) ([]domain.SpeedTrendPoint, error) {
	points := []domain.SpeedTrendPoint{}
	err := s.db.WithContext(ctx).
		Model(&domain.DownloadRecord{}).
		Select(dayColumn+` AS date,
			AVG(avg_speed_mbps) AS avg_speed_mbps,
			MAX(peak_speed_mbps) AS max_speed_mbps,
			COUNT(*) AS download_count`).
		Where("avg_speed_mbps IS NOT NULL").
		Where("download_date >= ?", since.UTC()).
		Group(dayColumn).
		Order("date").
		Scan(&points).Error
	return points, err
}

func sinceScope(since *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if since == nil {
			return db
		}
		return db.Where("download_date >= ?", since.UTC())
	}
}

// Summary returns analytics totals since the given time
func (s *SQLiteStore) Summary(ctx context.Context, since *time.Time) (*domain.AnalyticsSummary, error) {
	row := struct {
		Total     int64   `gorm:"column:total"`
		Completed int64   `gorm:"column:completed"`
		Failed    int64   `gorm:"column:failed"`
		TotalSize int64   `gorm:"column:total_size"`
		AvgSize   float64 `gorm:"column:avg_size"`
		Channels  int64   `gorm:"column:channels"`
		Audio     int64   `gorm:"column:audio"`
		Duration  float64 `gorm:"column:duration"`
	}{}

	err := s.db.WithContext(ctx).
		Model(&domain.DownloadRecord{}).
		Scopes(sinceScope(since)).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS failed,
			COALESCE(SUM(file_size), 0) AS total_size,
			COALESCE(AVG(file_size), 0) AS avg_size,
			COUNT(DISTINCT CASE WHEN uploader <> ? THEN uploader END) AS channels,
			COALESCE(SUM(CASE WHEN resolution = ? THEN 1 ELSE 0 END), 0) AS audio,
			COALESCE(SUM(duration), 0) AS duration`,
			string(domain.StatusCompleted), string(domain.StatusError),
			domain.NotAvailable, domain.AudioResolution).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	summary := &domain.AnalyticsSummary{
		TotalDownloads:   row.Total,
		Completed:        row.Completed,
		Failed:           row.Failed,
		TotalSizeBytes:   row.TotalSize,
		AvgSizeBytes:     row.AvgSize,
		UniqueChannels:   row.Channels,
		AudioDownloads:   row.Audio,
		VideoDownloads:   row.Total - row.Audio,
		TotalDurationSec: row.Duration,
	}
	summary.ComputeSuccessRate()
	return summary, nil
}

// ResolutionDistribution counts rows per resolution, most common first
func (s *SQLiteStore) ResolutionDistribution(ctx context.Context, since *time.Time) ([]domain.ResolutionCount, error) {
	counts := []domain.ResolutionCount{}
	err := s.db.WithContext(ctx).
		Model(&domain.DownloadRecord{}).
		Scopes(sinceScope(since)).
		Select("COALESCE(resolution, ?) AS resolution, COUNT(*) AS count", domain.NotAvailable).
		Group("resolution").
		Order("count DESC").
		Order("resolution").
		Scan(&counts).Error
	return counts, err
}

// DailyCounts counts rows per UTC day since the given time
func (s *SQLiteStore) DailyCounts(ctx context.Context, since time.Time) ([]domain.DailyCount, error) {
	counts := []domain.DailyCount{}
	err := s.db.WithContext(ctx).
		Model(&domain.DownloadRecord{}).
		Select(dayColumn+` AS date,
			COUNT(*) AS count,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS failed`,
			string(domain.StatusCompleted), string(domain.StatusError)).
		Where("download_date >= ?", since.UTC()).
		Group(dayColumn).
		Order("date").
		Scan(&counts).Error
	return counts, err
}

// TopChannels returns the uploaders with the most rows
func (s *SQLiteStore) TopChannels(ctx context.Context, since *time.Time, limit int) ([]domain.ChannelCount, error) {
	counts := []domain.ChannelCount{}
	err := s.db.WithContext(ctx).
		Model(&domain.DownloadRecord{}).
		Scopes(sinceScope(since)).
		Select("uploader, COUNT(*) AS count").
		Where("uploader IS NOT NULL AND uploader <> '' AND uploader <> ?", domain.NotAvailable).
		Group("uploader").
		Order("count DESC").
		Order("uploader").
		Limit(limit).
		Scan(&counts).Error
	return counts, err
}

// ============================================================================
// SettingsRepository implementation
// ============================================================================

// Get returns a setting by key
func (s *SQLiteStore) Get(ctx context.Context, key string) (*domain.Setting, error) {
	var setting domain.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &setting, nil
}

// Set upserts a setting by key
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	setting := &domain.Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(setting).Error
}

// All returns every setting ordered by key
func (s *SQLiteStore) All(ctx context.Context) ([]*domain.Setting, error) {
	settings := []*domain.Setting{}
	err := s.db.WithContext(ctx).Order("key").Find(&settings).Error
	return settings, err
}

// Reset overwrites the seeded settings with their default values
func (s *SQLiteStore) Reset(ctx context.Context) error {
	defaults := domain.DefaultSettings()
	now := time.Now().UTC()
	for i := range defaults {
		defaults[i].UpdatedAt = now
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
	}).Create(&defaults).Error
}

// SchemaVersion returns the latest applied migration version
func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	return currentVersion(s.db.WithContext(ctx))
}

// Backup writes a consistent copy of the database into dir
func (s *SQLiteStore) Backup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	dest := filepath.Join(dir, fmt.Sprintf("backup_%s.db", time.Now().Format("20060102_150405")))
	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", dest).Error; err != nil {
		return "", fmt.Errorf("backup database: %w", err)
	}
	s.logger.Info("Database backup created", zap.String("path", dest))
	return dest, nil
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
