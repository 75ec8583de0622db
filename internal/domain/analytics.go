package domain

// HistoryStats summarises the whole download history
type HistoryStats struct {
	Total              int64            `json:"total"`
	Completed          int64            `json:"completed"`
	Failed             int64            `json:"failed"`
	Downloading        int64            `json:"downloading"`
	TotalSizeBytes     int64            `json:"total_size_bytes"`
	ByResolution       map[string]int64 `json:"by_resolution"`
	MostUsedResolution string           `json:"most_used_resolution"`
}

// AnalyticsSummary is the headline figures for a period
type AnalyticsSummary struct {
	TotalDownloads   int64   `json:"total_downloads"`
	Completed        int64   `json:"completed"`
	Failed           int64   `json:"failed"`
	SuccessRate      float64 `json:"success_rate"`
	TotalSizeBytes   int64   `json:"total_size_bytes"`
	AvgSizeBytes     float64 `json:"avg_size_bytes"`
	UniqueChannels   int64   `json:"unique_channels"`
	AudioDownloads   int64   `json:"audio_downloads"`
	VideoDownloads   int64   `json:"video_downloads"`
	TotalDurationSec float64 `json:"total_duration_seconds"`
}

// ResolutionCount is one bucket of the resolution distribution
type ResolutionCount struct {
	Resolution string `json:"resolution"`
	Count      int64  `json:"count"`
}

// DailyCount is the number of downloads recorded on one day
type DailyCount struct {
	Date      string `json:"date"`
	Count     int64  `json:"count"`
	Completed int64  `json:"completed"`
	Failed    int64  `json:"failed"`
}

// ChannelCount is one uploader with its download count
type ChannelCount struct {
	Uploader string `json:"uploader"`
	Count    int64  `json:"count"`
}

// ComputeSuccessRate returns completed/total as a percentage
func (s *AnalyticsSummary) ComputeSuccessRate() {
	if s.TotalDownloads == 0 {
		s.SuccessRate = 0
		return
	}
	s.SuccessRate = float64(s.Completed) / float64(s.TotalDownloads) * 100
}
