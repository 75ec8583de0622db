package domain

import (
	"context"
	"fmt"
	"sort"
)

// MediaInfo is the metadata an engine extracts for a URL
type MediaInfo struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Duration     *float64 `json:"duration,omitempty"`
	Uploader     string   `json:"uploader"`
	ThumbnailURL string   `json:"thumbnail"`
	ViewCount    int64    `json:"view_count"`
	LikeCount    int64    `json:"like_count"`
	Description  string   `json:"description"`
	FileSize     *int64   `json:"filesize,omitempty"`
	Heights      []int    `json:"heights,omitempty"`
	IsPlaylist   bool     `json:"is_playlist"`
	EntryURLs    []string `json:"entry_urls,omitempty"`
}

// DownloadRequest describes one transfer to hand to an engine
type DownloadRequest struct {
	URL        string
	Resolution string // e.g. "720p", or AudioResolution for audio-only
	Directory  string
}

// DownloadResult is what an engine reports after a successful transfer
type DownloadResult struct {
	FilePath string
	FileSize *int64
}

// ProgressFunc receives progress events from the engine's worker goroutine
type ProgressFunc func(ProgressEvent)

// PostprocessFunc is called once per finished file with its final path
type PostprocessFunc func(path string)

// Engine is the external extraction/download collaborator
type Engine interface {
	// Extract fetches metadata without downloading
	Extract(ctx context.Context, url string) (*MediaInfo, error)

	// Download transfers the request's URL, reporting progress as it goes
	Download(ctx context.Context, req DownloadRequest, onProgress ProgressFunc, onPostprocess PostprocessFunc) (*DownloadResult, error)
}

// Resolutions lists the selectable resolution labels, highest first,
// followed by the audio-only label
func (m *MediaInfo) Resolutions() []string {
	heights := append([]int(nil), m.Heights...)
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	labels := make([]string, 0, len(heights)+1)
	for _, h := range heights {
		labels = append(labels, fmt.Sprintf("%dp", h))
	}
	return append(labels, AudioResolution)
}
