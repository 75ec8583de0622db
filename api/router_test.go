package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/yt-history-go/internal/app"
	"github.com/yourusername/yt-history-go/internal/domain"
	"github.com/yourusername/yt-history-go/internal/infrastructure"
	"go.uber.org/zap"
)

type stubEngine struct{}

func (stubEngine) Extract(ctx context.Context, url string) (*domain.MediaInfo, error) {
	return &domain.MediaInfo{Title: "Stub video", Uploader: "Stub channel", Heights: []int{360, 1080, 720}}, nil
}

func (stubEngine) Download(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc, onPostprocess domain.PostprocessFunc) (*domain.DownloadResult, error) {
	onProgress(domain.ProgressEvent{Status: domain.ProgressDownloading, Speed: domain.SpeedFromMbps(12)})
	return &domain.DownloadResult{FilePath: filepath.Join(req.Directory, "stub.mp4")}, nil
}

type testServer struct {
	*httptest.Server
	services Services
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	log := zap.NewNop()

	store, err := infrastructure.NewSQLiteStore(filepath.Join(dir, "test.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	config := domain.DefaultConfig()
	config.Download.Dir = filepath.Join(dir, "downloads")
	config.Download.ConcurrentLimit = 1

	history := app.NewHistoryManager(store, &config.History, log, nil)
	tracker := app.NewBandwidthTracker(store, log, nil)
	analytics := app.NewAnalyticsManager(store, &config.Analytics, log)
	settings := app.NewSettingsManager(store, log)
	downloads := app.NewDownloadManager(stubEngine{}, history, tracker, settings, nil, &config.Download, log)
	history.OnChange(analytics.Invalidate)
	t.Cleanup(downloads.Shutdown)

	services := Services{
		Store:     store,
		History:   history,
		Tracker:   tracker,
		Analytics: analytics,
		Settings:  settings,
		Downloads: downloads,
		Logger:    log,
		LogsDir:   filepath.Join(dir, "logs"),
		BackupDir: filepath.Join(dir, "backups"),
	}
	server := httptest.NewServer(SetupRouter(services))
	t.Cleanup(server.Close)

	return &testServer{Server: server, services: services}
}

func (s *testServer) record(t *testing.T, title, resolution string, status domain.DownloadStatus) int64 {
	t.Helper()
	id, err := s.services.History.Record(context.Background(), &domain.DownloadRecord{
		URL:        "https://www.youtube.com/watch?v=" + title,
		Title:      title,
		Resolution: resolution,
		Status:     status,
	})
	require.NoError(t, err)
	return id
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_Health(t *testing.T) {
	server := setupTestServer(t)

	var result map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/health", &result))
	assert.Equal(t, "ok", result["status"])

	database := result["database"].(map[string]interface{})
	assert.Equal(t, true, database["reachable"])
	assert.Equal(t, float64(infrastructure.CurrentSchemaVersion), database["schema_version"])
}

func TestAPI_HistoryPagination(t *testing.T) {
	server := setupTestServer(t)
	for i := 0; i < 5; i++ {
		server.record(t, "video"+string(rune('a'+i)), "720p", domain.StatusCompleted)
	}

	var page domain.DownloadPage
	status := getJSON(t, server.URL+"/api/v1/history?page=2&per_page=2", &page)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, page.Downloads, 2)
	assert.Equal(t, int64(5), page.Pagination.TotalCount)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasPrevious)
	assert.True(t, page.Pagination.HasNext)
}

func TestAPI_HistoryFilters(t *testing.T) {
	server := setupTestServer(t)
	server.record(t, "lofi beats", domain.AudioResolution, domain.StatusCompleted)
	server.record(t, "lofi documentary", "1080p", domain.StatusCompleted)
	server.record(t, "broken", "1080p", domain.StatusError)

	var page domain.DownloadPage
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history?resolution=audio", &page))
	require.Len(t, page.Downloads, 1)
	assert.Equal(t, "lofi beats", page.Downloads[0].Title)

	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history?q=lofi&resolution=1080p", &page))
	require.Len(t, page.Downloads, 1)
	assert.Equal(t, "lofi documentary", page.Downloads[0].Title)

	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history?status=error", &page))
	require.Len(t, page.Downloads, 1)
	assert.Equal(t, "broken", page.Downloads[0].Title)

	today := time.Now().Format("2006-01-02")
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history?date_from="+today+"&date_to="+today, &page))
	assert.Len(t, page.Downloads, 3)
}

func TestAPI_HistoryValidation(t *testing.T) {
	server := setupTestServer(t)

	for _, query := range []string{"page=0", "per_page=0", "page=abc", "status=unknown", "date_from=yesterday"} {
		t.Run(query, func(t *testing.T) {
			var result map[string]interface{}
			status := getJSON(t, server.URL+"/api/v1/history?"+query, &result)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.NotEmpty(t, result["error"])
		})
	}
}

func TestAPI_HistoryGetDeleteClear(t *testing.T) {
	server := setupTestServer(t)
	id := server.record(t, "keep", "720p", domain.StatusCompleted)
	server.record(t, "other", "720p", domain.StatusCompleted)

	var record domain.DownloadRecord
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history/1", &record))
	assert.Equal(t, id, record.ID)

	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/v1/history/999", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/api/v1/history/abc", nil))

	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodDelete, server.URL+"/api/v1/history/1", nil, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodDelete, server.URL+"/api/v1/history/1", nil, nil))

	var cleared map[string]interface{}
	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodDelete, server.URL+"/api/v1/history", nil, &cleared))
	assert.Equal(t, float64(1), cleared["removed"])
}

func TestAPI_HistoryStatsAndExport(t *testing.T) {
	server := setupTestServer(t)
	server.record(t, "a", "720p", domain.StatusCompleted)
	server.record(t, "b", "720p", domain.StatusError)

	var stats domain.HistoryStats
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history/stats", &stats))
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.Failed)

	var export struct {
		Count     int                      `json:"count"`
		Downloads []*domain.DownloadRecord `json:"downloads"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history/export?status=completed", &export))
	assert.Equal(t, 1, export.Count)
}

func TestAPI_HistoryBackup(t *testing.T) {
	server := setupTestServer(t)
	server.record(t, "a", "720p", domain.StatusCompleted)

	var result map[string]string
	require.Equal(t, http.StatusCreated, doJSON(t, http.MethodPost, server.URL+"/api/v1/history/backup", nil, &result))
	assert.FileExists(t, result["path"])
}

func TestAPI_Settings(t *testing.T) {
	server := setupTestServer(t)

	var setting domain.Setting
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/settings/default_resolution", &setting))
	assert.Equal(t, "1080p", setting.Value)

	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodPut, server.URL+"/api/v1/settings/theme",
		map[string]string{"value": "dark"}, nil))
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/settings/theme", &setting))
	assert.Equal(t, "dark", setting.Value)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPut, server.URL+"/api/v1/settings/theme",
		map[string]string{}, nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/v1/settings/missing", nil))

	assert.Equal(t, http.StatusOK, doJSON(t, http.MethodPost, server.URL+"/api/v1/settings/reset", nil, nil))
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/settings/theme", &setting))
	assert.Equal(t, "light", setting.Value)
}

func TestAPI_DownloadFlow(t *testing.T) {
	server := setupTestServer(t)

	var info struct {
		Info        domain.MediaInfo `json:"info"`
		Resolutions []string         `json:"resolutions"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/downloads/info?url=https://youtu.be/x", &info))
	assert.Equal(t, []string{"1080p", "720p", "360p", domain.AudioResolution}, info.Resolutions)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/api/v1/downloads/info", nil))

	var submitted struct {
		Jobs []app.Job `json:"jobs"`
	}
	status := doJSON(t, http.MethodPost, server.URL+"/api/v1/downloads",
		map[string]string{"url": "https://youtu.be/x", "resolution": "720p"}, &submitted)
	require.Equal(t, http.StatusAccepted, status)
	require.Len(t, submitted.Jobs, 1)

	server.services.Downloads.Wait()

	var job app.Job
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/downloads/"+submitted.Jobs[0].ID, &job))
	assert.Equal(t, app.JobCompleted, job.Status)

	var record domain.DownloadRecord
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/history/1", &record))
	assert.Equal(t, "Stub video", record.Title)
	require.NotNil(t, record.AvgSpeedMbps)
	assert.InDelta(t, 12.0, *record.AvgSpeedMbps, 1e-9)

	var stats domain.BandwidthStatistics
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/bandwidth/stats?days=7", &stats))
	assert.Equal(t, int64(1), stats.TotalDownloads)
	assert.InDelta(t, 12.0, stats.MaxSpeedMbps, 1e-9)

	var summary domain.AnalyticsSummary
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/analytics/summary", &summary))
	assert.Equal(t, int64(1), summary.TotalDownloads)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, http.MethodPost, server.URL+"/api/v1/downloads",
		map[string]string{}, nil))
	assert.Equal(t, http.StatusNotFound, doJSON(t, http.MethodPost, server.URL+"/api/v1/downloads/missing/cancel", nil, nil))
}

func TestAPI_BandwidthSessionsAndStream(t *testing.T) {
	server := setupTestServer(t)
	server.services.Tracker.Start("live")
	require.NoError(t, server.services.Tracker.Update("live", domain.SpeedFromMbps(5), 10, 100))

	var sessions struct {
		Count    int                      `json:"count"`
		Sessions []domain.SessionSnapshot `json:"sessions"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/bandwidth/sessions", &sessions))
	require.Equal(t, 1, sessions.Count)
	assert.Equal(t, "live", sessions.Sessions[0].Token)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/bandwidth/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var pushed []domain.SessionSnapshot
	require.NoError(t, conn.ReadJSON(&pushed))
	require.Len(t, pushed, 1)
	assert.InDelta(t, 5.0, pushed[0].LastSpeedMbps, 1e-9)
}

func TestAPI_LogCategories(t *testing.T) {
	server := setupTestServer(t)

	var result map[string][]string
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/logs/categories", &result))
	assert.Contains(t, result["categories"], "bandwidth")

	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/api/v1/logs/queue", nil))

	var logs map[string]interface{}
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/v1/logs/download", &logs))
	assert.Equal(t, float64(0), logs["count"])
}

func TestAPI_UnknownRoute(t *testing.T) {
	server := setupTestServer(t)
	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/v1/nope", nil))
}
