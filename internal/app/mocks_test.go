package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/yt-history-go/internal/domain"
)

var errStoreDown = errors.New("database is locked")

// mockDownloadRepo implements domain.DownloadRepository in memory
type mockDownloadRepo struct {
	mu        sync.Mutex
	records   map[int64]*domain.DownloadRecord
	nextID    int64
	err       error // returned by every query when set
	lastQuery domain.FilterSpec
	bandwidth map[int64]domain.BandwidthSummary
	since     []time.Time
	calls     map[string]int
}

func newMockDownloadRepo() *mockDownloadRepo {
	return &mockDownloadRepo{
		records:   make(map[int64]*domain.DownloadRecord),
		bandwidth: make(map[int64]domain.BandwidthSummary),
		calls:     make(map[string]int),
	}
}

func (m *mockDownloadRepo) called(op string) {
	m.calls[op]++
}

func (m *mockDownloadRepo) Create(ctx context.Context, record *domain.DownloadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("create")
	if m.err != nil {
		return m.err
	}
	m.nextID++
	record.ID = m.nextID
	if record.DownloadDate.IsZero() {
		record.DownloadDate = time.Now().UTC()
	}
	m.records[record.ID] = record
	return nil
}

func (m *mockDownloadRepo) FindByID(ctx context.Context, id int64) (*domain.DownloadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockDownloadRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *mockDownloadRepo) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := int64(len(m.records))
	m.records = make(map[int64]*domain.DownloadRecord)
	return n, nil
}

func (m *mockDownloadRepo) matching(filter domain.FilterSpec) []*domain.DownloadRecord {
	var out []*domain.DownloadRecord
	for _, r := range m.records {
		if filter.Search != "" && !strings.Contains(strings.ToLower(r.Title), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.Resolution != "" && r.Resolution != filter.Resolution {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.DateFrom != nil && r.DownloadDate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && r.DownloadDate.After(*filter.DateTo) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DownloadDate.Equal(out[j].DownloadDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].DownloadDate.After(out[j].DownloadDate)
	})
	return out
}

func (m *mockDownloadRepo) FindPage(ctx context.Context, filter domain.FilterSpec, page, perPage int) ([]*domain.DownloadRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("find_page")
	m.lastQuery = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	all := m.matching(filter)
	start := domain.Offset(page, perPage)
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *mockDownloadRepo) FindAll(ctx context.Context, filter domain.FilterSpec) ([]*domain.DownloadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.matching(filter), nil
}

func (m *mockDownloadRepo) UpdateBandwidth(ctx context.Context, id int64, summary domain.BandwidthSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("update_bandwidth")
	if m.err != nil {
		return m.err
	}
	m.bandwidth[id] = summary
	return nil
}

func (m *mockDownloadRepo) GetStats(ctx context.Context) (*domain.HistoryStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	stats := &domain.HistoryStats{ByResolution: map[string]int64{}}
	for _, r := range m.records {
		stats.Total++
		stats.ByResolution[r.Resolution]++
		switch r.Status {
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusError:
			stats.Failed++
		}
	}
	return stats, nil
}

func (m *mockDownloadRepo) BandwidthStatistics(ctx context.Context, since time.Time) (*domain.BandwidthStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = append(m.since, since)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.BandwidthStatistics{TotalDownloads: int64(len(m.bandwidth))}, nil
}

func (m *mockDownloadRepo) SpeedTrend(ctx context.Context, since time.Time) ([]domain.SpeedTrendPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.since = append(m.since, since)
	if m.err != nil {
		return nil, m.err
	}
	return nil, nil
}

func (m *mockDownloadRepo) Summary(ctx context.Context, since *time.Time) (*domain.AnalyticsSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("summary")
	if m.err != nil {
		return nil, m.err
	}
	summary := &domain.AnalyticsSummary{TotalDownloads: int64(len(m.records))}
	for _, r := range m.records {
		if r.Status == domain.StatusCompleted {
			summary.Completed++
		}
	}
	summary.ComputeSuccessRate()
	return summary, nil
}

func (m *mockDownloadRepo) ResolutionDistribution(ctx context.Context, since *time.Time) ([]domain.ResolutionCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("resolutions")
	if m.err != nil {
		return nil, m.err
	}
	return []domain.ResolutionCount{}, nil
}

func (m *mockDownloadRepo) DailyCounts(ctx context.Context, since time.Time) ([]domain.DailyCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("daily")
	m.since = append(m.since, since)
	if m.err != nil {
		return nil, m.err
	}
	return []domain.DailyCount{}, nil
}

func (m *mockDownloadRepo) TopChannels(ctx context.Context, since *time.Time, limit int) ([]domain.ChannelCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.called("channels")
	if m.err != nil {
		return nil, m.err
	}
	return []domain.ChannelCount{}, nil
}

func (m *mockDownloadRepo) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockDownloadRepo) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *mockDownloadRepo) list() []*domain.DownloadRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matching(domain.FilterSpec{})
}

// mockSettingsRepo implements domain.SettingsRepository in memory
type mockSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMockSettingsRepo() *mockSettingsRepo {
	repo := &mockSettingsRepo{values: make(map[string]string)}
	for _, s := range domain.DefaultSettings() {
		repo.values[s.Key] = s.Value
	}
	return repo
}

func (m *mockSettingsRepo) Get(ctx context.Context, key string) (*domain.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.Setting{Key: key, Value: v}, nil
}

func (m *mockSettingsRepo) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsRepo) All(ctx context.Context) ([]*domain.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*domain.Setting, 0, len(keys))
	for _, k := range keys {
		out = append(out, &domain.Setting{Key: k, Value: m.values[k]})
	}
	return out, nil
}

func (m *mockSettingsRepo) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, s := range domain.DefaultSettings() {
		m.values[s.Key] = s.Value
	}
	return nil
}

// fakeEngine is a scripted domain.Engine
type fakeEngine struct {
	mu        sync.Mutex
	info      *domain.MediaInfo
	infoErr   error
	failures  int // Download fails this many times before succeeding
	events    []domain.ProgressEvent
	requests  []domain.DownloadRequest
	block     chan struct{} // when set, Download waits on it or ctx
	extracted []string
}

func (f *fakeEngine) Extract(ctx context.Context, url string) (*domain.MediaInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracted = append(f.extracted, url)
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if f.info == nil {
		return &domain.MediaInfo{Title: "Video " + url}, nil
	}
	info := *f.info
	return &info, nil
}

func (f *fakeEngine) Download(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc, onPostprocess domain.PostprocessFunc) (*domain.DownloadResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	attempt := len(f.requests)
	events := f.events
	block := f.block
	fail := attempt <= f.failures
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	for _, e := range events {
		if onProgress != nil {
			onProgress(e)
		}
	}
	if fail {
		return nil, errors.New("HTTP Error 403: Forbidden")
	}
	size := int64(1024)
	return &domain.DownloadResult{FilePath: req.Directory + "/video.mp4", FileSize: &size}, nil
}

func (f *fakeEngine) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// recordingNotifier counts notifications
type recordingNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (n *recordingNotifier) NotifyDownloadCompleted(record *domain.DownloadRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, record.Title)
}

func (n *recordingNotifier) NotifyDownloadFailed(url string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, url)
}
