package domain

import "time"

// BandwidthSummary is the reduction of one session's samples.
// AvgSpeedMbps is an unweighted mean over accepted samples, so periods
// with denser sampling weigh more.
type BandwidthSummary struct {
	AvgSpeedMbps    float64 `json:"avg_speed_mbps"`
	PeakSpeedMbps   float64 `json:"peak_speed_mbps"`
	DurationSeconds int64   `json:"duration_seconds"`
	Samples         int     `json:"samples"`
}

// SessionSnapshot is a point-in-time copy of an in-flight bandwidth session
type SessionSnapshot struct {
	Token           string    `json:"token"`
	StartedAt       time.Time `json:"started_at"`
	Samples         int       `json:"samples"`
	AvgSpeedMbps    float64   `json:"avg_speed_mbps"`
	PeakSpeedMbps   float64   `json:"peak_speed_mbps"`
	LastSpeedMbps   float64   `json:"last_speed_mbps"`
	DownloadedBytes int64     `json:"downloaded_bytes"`
	TotalBytes      int64     `json:"total_bytes"`
}

// BandwidthStatistics aggregates persisted bandwidth figures over a period
type BandwidthStatistics struct {
	AvgSpeedMbps    float64 `json:"avg_speed"`
	MaxSpeedMbps    float64 `json:"max_speed"`
	MinSpeedMbps    float64 `json:"min_speed"`
	TotalDownloads  int64   `json:"total_downloads"`
	AvgDurationSecs float64 `json:"avg_duration"`
}

// SpeedTrendPoint is one day of persisted bandwidth figures
type SpeedTrendPoint struct {
	Date          string  `json:"date"`
	AvgSpeedMbps  float64 `json:"avg_speed"`
	MaxSpeedMbps  float64 `json:"max_speed"`
	DownloadCount int64   `json:"count"`
}
