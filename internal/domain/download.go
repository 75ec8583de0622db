package domain

import (
	"strings"
	"time"
)

// DownloadStatus represents the outcome recorded for a download attempt
type DownloadStatus string

const (
	StatusCompleted   DownloadStatus = "completed"
	StatusError       DownloadStatus = "error"
	StatusDownloading DownloadStatus = "downloading"
)

const (
	// NotAvailable is the caller-side placeholder for unknown text fields
	NotAvailable = "N/A"

	// AudioResolution is the stored resolution label of audio-only downloads
	AudioResolution = "music"

	// audioFilterAlias is the label users pick in filters for audio-only rows
	audioFilterAlias = "audio"
)

// DownloadRecord is one persisted download attempt (table "downloads").
//
// The store assigns ID and DownloadDate. After insert only the bandwidth
// columns are ever updated.
type DownloadRecord struct {
	ID           int64          `json:"id" gorm:"column:id;primaryKey;autoIncrement"`
	URL          string         `json:"url" gorm:"column:url;not null;index:idx_downloads_url"`
	Title        string         `json:"title" gorm:"column:title"`
	Duration     *float64       `json:"duration,omitempty" gorm:"column:duration"` // seconds, nil when unknown
	Resolution   string         `json:"resolution" gorm:"column:resolution"`
	FileSize     *int64         `json:"file_size,omitempty" gorm:"column:file_size"` // bytes, nil when unknown
	DownloadPath string         `json:"download_path" gorm:"column:download_path"`
	Status       DownloadStatus `json:"status" gorm:"column:status;default:completed;index:idx_downloads_status"`
	ThumbnailURL string         `json:"thumbnail_url" gorm:"column:thumbnail_url"`
	Uploader     string         `json:"uploader" gorm:"column:uploader"`
	ViewCount    int64          `json:"view_count" gorm:"column:view_count"`
	LikeCount    int64          `json:"like_count" gorm:"column:like_count"`
	Description  string         `json:"description" gorm:"column:description;type:text"`
	ErrorMessage string         `json:"error_message,omitempty" gorm:"column:error_message"`
	RetryCount   int            `json:"retry_count" gorm:"column:retry_count;default:0"`
	DownloadDate time.Time      `json:"download_date" gorm:"column:download_date;index:idx_downloads_date"`

	AvgSpeedMbps            *float64 `json:"avg_speed_mbps,omitempty" gorm:"column:avg_speed_mbps"`
	PeakSpeedMbps           *float64 `json:"peak_speed_mbps,omitempty" gorm:"column:peak_speed_mbps"`
	DownloadDurationSeconds *int64   `json:"download_duration_seconds,omitempty" gorm:"column:download_duration_seconds"`
	// DownloadSpeedMbps mirrors AvgSpeedMbps for readers of the older column
	DownloadSpeedMbps *float64 `json:"download_speed_mbps,omitempty" gorm:"column:download_speed_mbps"`
}

// TableName specifies the table name for GORM
func (DownloadRecord) TableName() string {
	return "downloads"
}

// Validate checks the fields a caller must supply
func (r *DownloadRecord) Validate() error {
	if r == nil || strings.TrimSpace(r.URL) == "" {
		return ErrURLRequired
	}
	return nil
}

// ApplyDefaults fills absent fields with caller-side placeholders
func (r *DownloadRecord) ApplyDefaults() {
	if r.Title == "" {
		r.Title = NotAvailable
	}
	if r.Resolution == "" {
		r.Resolution = NotAvailable
	}
	if r.Uploader == "" {
		r.Uploader = NotAvailable
	}
	if r.Status == "" {
		r.Status = StatusCompleted
	}
}

// IsAudio reports whether the record is an audio-only download
func (r *DownloadRecord) IsAudio() bool {
	return r.Resolution == AudioResolution
}

// HasBandwidth reports whether bandwidth figures were attached to the record
func (r *DownloadRecord) HasBandwidth() bool {
	return r.AvgSpeedMbps != nil
}

// NormalizeResolution maps the user-facing audio label onto the stored sentinel
func NormalizeResolution(resolution string) string {
	if strings.EqualFold(strings.TrimSpace(resolution), audioFilterAlias) {
		return AudioResolution
	}
	return resolution
}

// ValidateStatus checks if a status is one of the known values
func ValidateStatus(status DownloadStatus) bool {
	return status == StatusCompleted || status == StatusError || status == StatusDownloading
}
