package domain

import (
	"encoding/json"
	"strconv"
)

// ProgressStatus is the status tag of an engine progress event
type ProgressStatus string

const (
	ProgressDownloading ProgressStatus = "downloading"
	ProgressFinished    ProgressStatus = "finished"
	ProgressError       ProgressStatus = "error"
	ProgressUnknown     ProgressStatus = ""
)

// ProgressEvent is the typed form of one progress callback from the engine
type ProgressEvent struct {
	Status          ProgressStatus `json:"status"`
	DownloadedBytes int64          `json:"downloaded_bytes"`
	TotalBytes      int64          `json:"total_bytes"`
	Speed           Speed          `json:"-"`
	Filename        string         `json:"filename,omitempty"`
	ETASeconds      int64          `json:"eta,omitempty"`
}

// Percent returns completion in [0, 100], or -1 when the total is unknown
func (e ProgressEvent) Percent() float64 {
	if e.TotalBytes <= 0 {
		return -1
	}
	p := float64(e.DownloadedBytes) / float64(e.TotalBytes) * 100
	if p > 100 {
		return 100
	}
	return p
}

// ProgressFromMap translates a loosely typed engine payload into a
// ProgressEvent. A numeric "speed" wins over the formatted "_speed_str".
func ProgressFromMap(payload map[string]interface{}) ProgressEvent {
	event := ProgressEvent{
		Status:          ProgressStatus(stringValue(payload, "status")),
		DownloadedBytes: int64Value(payload, "downloaded_bytes"),
		TotalBytes:      int64Value(payload, "total_bytes"),
		Filename:        stringValue(payload, "filename"),
		ETASeconds:      int64Value(payload, "eta"),
	}
	if event.TotalBytes == 0 {
		event.TotalBytes = int64Value(payload, "total_bytes_estimate")
	}

	if bps, ok := floatValue(payload, "speed"); ok {
		event.Speed = SpeedFromBytesPerSecond(bps)
	} else if text := stringValue(payload, "_speed_str"); text != "" {
		event.Speed = SpeedFromText(text)
	} else if text := stringValue(payload, "speed"); text != "" {
		event.Speed = SpeedFromText(text)
	} else {
		event.Speed = SpeedFromText(NotAvailable)
	}

	return event
}

func stringValue(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func floatValue(payload map[string]interface{}, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func int64Value(payload map[string]interface{}, key string) int64 {
	if f, ok := floatValue(payload, key); ok {
		return int64(f)
	}
	if s := stringValue(payload, key); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
	}
	return 0
}
