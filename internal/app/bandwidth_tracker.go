package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/yt-history-go/internal/domain"
	"github.com/yourusername/yt-history-go/pkg/logger"
	"go.uber.org/zap"
)

// BandwidthStore is the persistence the tracker needs
type BandwidthStore interface {
	UpdateBandwidth(ctx context.Context, id int64, summary domain.BandwidthSummary) error
	BandwidthStatistics(ctx context.Context, since time.Time) (*domain.BandwidthStatistics, error)
	SpeedTrend(ctx context.Context, since time.Time) ([]domain.SpeedTrendPoint, error)
}

// bandwidthSession accumulates accepted samples for one transfer
type bandwidthSession struct {
	startedAt       time.Time
	samples         []float64 // Mbps, all > 0
	sum             float64
	peak            float64
	downloadedBytes int64
	totalBytes      int64
}

func (s *bandwidthSession) summary(now time.Time) domain.BandwidthSummary {
	summary := domain.BandwidthSummary{
		PeakSpeedMbps:   s.peak,
		DurationSeconds: int64(now.Sub(s.startedAt).Seconds()),
		Samples:         len(s.samples),
	}
	if len(s.samples) > 0 {
		summary.AvgSpeedMbps = s.sum / float64(len(s.samples))
	}
	if summary.DurationSeconds < 0 {
		summary.DurationSeconds = 0
	}
	return summary
}

func (s *bandwidthSession) snapshot(token string) domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		Token:           token,
		StartedAt:       s.startedAt,
		Samples:         len(s.samples),
		PeakSpeedMbps:   s.peak,
		DownloadedBytes: s.downloadedBytes,
		TotalBytes:      s.totalBytes,
	}
	if n := len(s.samples); n > 0 {
		snap.AvgSpeedMbps = s.sum / float64(n)
		snap.LastSpeedMbps = s.samples[n-1]
	}
	return snap
}

// BandwidthTracker reduces speed samples per session token into
// {average, peak, duration} and persists them against a history row.
// A session lives from Start until Finish or Abort. All methods are safe
// for concurrent use from engine worker goroutines.
type BandwidthTracker struct {
	mu          sync.Mutex
	sessions    map[string]*bandwidthSession
	store       BandwidthStore
	logger      *zap.Logger
	eventLogger *logger.MultiLogger
	now         func() time.Time
}

// NewBandwidthTracker creates a new tracker
func NewBandwidthTracker(store BandwidthStore, log *zap.Logger, eventLogger *logger.MultiLogger) *BandwidthTracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &BandwidthTracker{
		sessions:    make(map[string]*bandwidthSession),
		store:       store,
		logger:      log,
		eventLogger: eventLogger,
		now:         time.Now,
	}
}

// Start opens a session for token. Starting a token that is already
// tracked discards the earlier session and starts over.
func (t *BandwidthTracker) Start(token string) {
	t.mu.Lock()
	_, restarted := t.sessions[token]
	t.sessions[token] = &bandwidthSession{startedAt: t.now()}
	t.mu.Unlock()

	if restarted {
		t.logger.Warn("Bandwidth session restarted", zap.String("token", token))
	}
	t.eventLogger.LogBandwidthEvent("Session started", zap.String("token", token), zap.Bool("restarted", restarted))
}

// Update records one speed observation with the latest byte counters.
// Samples that parse to zero or less are dropped; the byte counters are
// kept regardless. Unknown tokens return domain.ErrSessionNotFound.
func (t *BandwidthTracker) Update(token string, speed domain.Speed, downloadedBytes, totalBytes int64) error {
	mbps := speed.Mbps()

	t.mu.Lock()
	session, ok := t.sessions[token]
	if ok {
		session.downloadedBytes = downloadedBytes
		session.totalBytes = totalBytes
		if mbps > 0 {
			session.samples = append(session.samples, mbps)
			session.sum += mbps
			if mbps > session.peak {
				session.peak = mbps
			}
		}
	}
	t.mu.Unlock()

	if !ok {
		t.logger.Warn("Speed update for unknown bandwidth session", zap.String("token", token))
		return domain.ErrSessionNotFound
	}
	return nil
}

// UpdateProgress feeds an engine progress event into the session
func (t *BandwidthTracker) UpdateProgress(token string, event domain.ProgressEvent) error {
	return t.Update(token, event.Speed, event.DownloadedBytes, event.TotalBytes)
}

// Finish closes the session, computes its summary and writes it against
// row id. The session is removed even when the write fails; the write
// error is logged and returned. Unknown tokens are a logged no-op that
// returns domain.ErrSessionNotFound.
func (t *BandwidthTracker) Finish(ctx context.Context, token string, id int64) (domain.BandwidthSummary, error) {
	t.mu.Lock()
	session, ok := t.sessions[token]
	if ok {
		delete(t.sessions, token)
	}
	now := t.now()
	t.mu.Unlock()

	if !ok {
		t.logger.Warn("Finish for unknown bandwidth session", zap.String("token", token), zap.Int64("id", id))
		return domain.BandwidthSummary{}, domain.ErrSessionNotFound
	}

	summary := session.summary(now)
	fields := []zap.Field{
		zap.String("token", token),
		zap.Int64("id", id),
		zap.Float64("avg_speed_mbps", summary.AvgSpeedMbps),
		zap.Float64("peak_speed_mbps", summary.PeakSpeedMbps),
		zap.Int64("duration_seconds", summary.DurationSeconds),
		zap.Int("samples", summary.Samples),
	}

	if err := t.store.UpdateBandwidth(ctx, id, summary); err != nil {
		t.logger.Error("Failed to persist bandwidth summary", append(fields, zap.Error(err))...)
		t.eventLogger.LogAppError("Failed to persist bandwidth summary", append(fields, zap.Error(err))...)
		return summary, fmt.Errorf("persist bandwidth for download %d: %w", id, err)
	}

	t.logger.Debug("Bandwidth session finished", fields...)
	t.eventLogger.LogBandwidthEvent("Session finished", fields...)
	return summary, nil
}

// Abort drops a session without persisting anything. It reports whether
// a session existed.
func (t *BandwidthTracker) Abort(token string) bool {
	t.mu.Lock()
	_, ok := t.sessions[token]
	delete(t.sessions, token)
	t.mu.Unlock()

	if ok {
		t.eventLogger.LogBandwidthEvent("Session aborted", zap.String("token", token))
	}
	return ok
}

// Snapshot returns the live figures of one session
func (t *BandwidthTracker) Snapshot(token string) (domain.SessionSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.sessions[token]
	if !ok {
		return domain.SessionSnapshot{}, false
	}
	return session.snapshot(token), true
}

// Active returns snapshots of all live sessions, oldest first
func (t *BandwidthTracker) Active() []domain.SessionSnapshot {
	t.mu.Lock()
	snapshots := make([]domain.SessionSnapshot, 0, len(t.sessions))
	for token, session := range t.sessions {
		snapshots = append(snapshots, session.snapshot(token))
	}
	t.mu.Unlock()

	sort.Slice(snapshots, func(i, j int) bool {
		if snapshots[i].StartedAt.Equal(snapshots[j].StartedAt) {
			return snapshots[i].Token < snapshots[j].Token
		}
		return snapshots[i].StartedAt.Before(snapshots[j].StartedAt)
	})
	return snapshots
}

// Statistics aggregates persisted bandwidth figures over the last days.
// A failing store yields zeroed statistics.
func (t *BandwidthTracker) Statistics(ctx context.Context, days int) *domain.BandwidthStatistics {
	stats, err := t.store.BandwidthStatistics(ctx, t.since(days))
	if err != nil {
		t.logger.Error("Failed to load bandwidth statistics", zap.Int("days", days), zap.Error(err))
		return &domain.BandwidthStatistics{}
	}
	return stats
}

// Trend returns per-day persisted bandwidth figures over the last days
func (t *BandwidthTracker) Trend(ctx context.Context, days int) []domain.SpeedTrendPoint {
	points, err := t.store.SpeedTrend(ctx, t.since(days))
	if err != nil {
		t.logger.Error("Failed to load speed trend", zap.Int("days", days), zap.Error(err))
		return []domain.SpeedTrendPoint{}
	}
	if points == nil {
		points = []domain.SpeedTrendPoint{}
	}
	return points
}

func (t *BandwidthTracker) since(days int) time.Time {
	if days < 1 {
		days = 30
	}
	return t.now().AddDate(0, 0, -days)
}
