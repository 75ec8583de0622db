package infrastructure

import (
	"fmt"
	"time"

	"github.com/yourusername/yt-history-go/internal/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CurrentSchemaVersion is the schema version Migrate brings a database to
const CurrentSchemaVersion = 4

type migration struct {
	version     int
	description string
	apply       func(tx *gorm.DB) error
}

var migrations = []migration{
	{1, "Create downloads table", migrateDownloads},
	{2, "Create settings table with defaults", migrateSettings},
	{3, "Add indexes and error tracking columns", migrateIndexesAndErrors},
	{4, "Add bandwidth columns and normalise numeric fields", migrateBandwidth},
}

// Migrate applies every pending migration in order. Each migration runs in
// its own transaction and is recorded in schema_version; running Migrate on
// an up-to-date database changes nothing.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	if err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version INTEGER NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		description TEXT
	)`).Error; err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return err
	}
	log.Info("Checking database schema",
		zap.Int("current_version", current),
		zap.Int("target_version", CurrentSchemaVersion))

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.apply(tx); err != nil {
				return err
			}
			return tx.Create(&domain.SchemaVersion{
				Version:     m.version,
				AppliedAt:   time.Now().UTC(),
				Description: m.description,
			}).Error
		})
		if err != nil {
			log.Error("Migration failed", zap.Int("version", m.version), zap.Error(err))
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		log.Info("Migration applied",
			zap.Int("version", m.version),
			zap.String("description", m.description))
	}

	return nil
}

func currentVersion(db *gorm.DB) (int, error) {
	var version int
	err := db.Raw("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version).Error
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func migrateDownloads(tx *gorm.DB) error {
	return tx.Exec(`CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		title TEXT,
		duration REAL,
		resolution TEXT,
		file_size INTEGER,
		download_path TEXT,
		status TEXT DEFAULT 'completed',
		download_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		thumbnail_url TEXT,
		uploader TEXT,
		view_count INTEGER,
		like_count INTEGER,
		description TEXT
	)`).Error
}

func migrateSettings(tx *gorm.DB) error {
	if err := tx.Exec(`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT UNIQUE NOT NULL,
		value TEXT,
		description TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`).Error; err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, s := range domain.DefaultSettings() {
		err := tx.Exec(
			"INSERT OR IGNORE INTO settings (key, value, description, updated_at) VALUES (?, ?, ?, ?)",
			s.Key, s.Value, s.Description, now,
		).Error
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", s.Key, err)
		}
	}
	return nil
}

func migrateIndexesAndErrors(tx *gorm.DB) error {
	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_downloads_date ON downloads(download_date)",
		"CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status)",
		"CREATE INDEX IF NOT EXISTS idx_downloads_url ON downloads(url)",
	} {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return addColumns(tx, map[string]string{
		"error_message": "TEXT DEFAULT NULL",
		"retry_count":   "INTEGER DEFAULT 0",
	}, "error_message", "retry_count")
}

func migrateBandwidth(tx *gorm.DB) error {
	err := addColumns(tx, map[string]string{
		"avg_speed_mbps":            "REAL",
		"peak_speed_mbps":           "REAL",
		"download_duration_seconds": "INTEGER",
		"download_speed_mbps":       "REAL",
	}, "avg_speed_mbps", "peak_speed_mbps", "download_duration_seconds", "download_speed_mbps")
	if err != nil {
		return err
	}

	// Older databases stored duration and file_size as free text ("N/A",
	// "12.5 MB"). Keep plain numbers and null out everything else.
	for _, stmt := range []string{
		`UPDATE downloads SET duration = CASE
			WHEN trim(duration) <> '' AND trim(duration) NOT GLOB '*[^0-9.]*' THEN CAST(trim(duration) AS REAL)
			ELSE NULL END
		WHERE typeof(duration) = 'text'`,
		`UPDATE downloads SET file_size = CASE
			WHEN trim(file_size) <> '' AND trim(file_size) NOT GLOB '*[^0-9]*' THEN CAST(trim(file_size) AS INTEGER)
			ELSE NULL END
		WHERE typeof(file_size) = 'text'`,
	} {
		if err := tx.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// addColumns adds the named columns to downloads unless they already exist
func addColumns(tx *gorm.DB, defs map[string]string, order ...string) error {
	for _, name := range order {
		if tx.Migrator().HasColumn(&domain.DownloadRecord{}, name) {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE downloads ADD COLUMN %s %s", name, defs[name])
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add column %s: %w", name, err)
		}
	}
	return nil
}
