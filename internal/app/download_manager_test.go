package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/yt-history-go/internal/domain"
)

type downloadFixture struct {
	repo     *mockDownloadRepo
	engine   *fakeEngine
	notifier *recordingNotifier
	tracker  *BandwidthTracker
	dm       *DownloadManager
}

func newDownloadFixture(t *testing.T, maxRetries int) *downloadFixture {
	t.Helper()
	repo := newMockDownloadRepo()
	engine := &fakeEngine{}
	notifier := &recordingNotifier{}
	history := newTestHistoryManager(repo)
	tracker := NewBandwidthTracker(repo, nil, nil)
	settings := NewSettingsManager(newMockSettingsRepo(), nil)

	dm := NewDownloadManager(engine, history, tracker, settings, notifier, &domain.DownloadConfig{
		Dir:               "/downloads",
		DefaultResolution: "720p",
		MaxRetries:        maxRetries,
		RetryDelay:        time.Hour,
		ConcurrentLimit:   2,
	}, nil)
	dm.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	t.Cleanup(dm.Shutdown)

	return &downloadFixture{repo: repo, engine: engine, notifier: notifier, tracker: tracker, dm: dm}
}

func TestDownloadManager_SubmitRequiresURL(t *testing.T) {
	f := newDownloadFixture(t, 0)
	_, err := f.dm.Submit(context.Background(), SubmitRequest{})
	assert.ErrorIs(t, err, domain.ErrURLRequired)
}

func TestDownloadManager_Success(t *testing.T) {
	f := newDownloadFixture(t, 0)
	duration := 212.0
	f.engine.info = &domain.MediaInfo{Title: "Never Gonna Give You Up", Uploader: "Rick Astley", Duration: &duration}
	f.engine.events = []domain.ProgressEvent{
		{Status: domain.ProgressDownloading, DownloadedBytes: 512, TotalBytes: 1024, Speed: domain.SpeedFromMbps(4)},
		{Status: domain.ProgressDownloading, DownloadedBytes: 1024, TotalBytes: 1024, Speed: domain.SpeedFromMbps(8)},
	}

	jobs, err := f.dm.Submit(context.Background(), SubmitRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	f.dm.Wait()

	job, ok := f.dm.Job(jobs[0].ID)
	require.True(t, ok)
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, 100.0, job.Percent)
	assert.Equal(t, 1, job.Attempts)
	require.NotZero(t, job.RecordID)

	record, err := f.repo.FindByID(context.Background(), job.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "Never Gonna Give You Up", record.Title)
	assert.Equal(t, "Rick Astley", record.Uploader)
	assert.Equal(t, "1080p", record.Resolution)
	assert.Equal(t, domain.StatusCompleted, record.Status)
	assert.Equal(t, "/downloads/video.mp4", record.DownloadPath)

	summary, ok := f.repo.bandwidth[job.RecordID]
	require.True(t, ok)
	assert.InDelta(t, 6.0, summary.AvgSpeedMbps, 1e-9)
	assert.InDelta(t, 8.0, summary.PeakSpeedMbps, 1e-9)
	assert.Empty(t, f.tracker.Active())
	assert.Equal(t, []string{"Never Gonna Give You Up"}, f.notifier.completed)
}

func TestDownloadManager_ResolutionAndDirectoryFromRequest(t *testing.T) {
	f := newDownloadFixture(t, 0)

	jobs, err := f.dm.Submit(context.Background(), SubmitRequest{
		URL:        "https://youtu.be/abc",
		Resolution: "audio",
		Directory:  "/music",
	})
	require.NoError(t, err)
	f.dm.Wait()

	assert.Equal(t, domain.AudioResolution, jobs[0].Resolution)
	require.Equal(t, 1, f.engine.requestCount())
	assert.Equal(t, "/music", f.engine.requests[0].Directory)
	assert.Equal(t, domain.AudioResolution, f.engine.requests[0].Resolution)
}

func TestDownloadManager_RetriesThenSucceeds(t *testing.T) {
	f := newDownloadFixture(t, 3)
	f.engine.failures = 2

	jobs, err := f.dm.Submit(context.Background(), SubmitRequest{URL: "https://youtu.be/retry"})
	require.NoError(t, err)
	f.dm.Wait()

	job, _ := f.dm.Job(jobs[0].ID)
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, 3, job.Attempts)

	record, err := f.repo.FindByID(context.Background(), job.RecordID)
	require.NoError(t, err)
	assert.Equal(t, 2, record.RetryCount)
}

func TestDownloadManager_FailureRecordsErrorRow(t *testing.T) {
	f := newDownloadFixture(t, 2)
	f.engine.failures = 10
	f.engine.events = []domain.ProgressEvent{{Speed: domain.SpeedFromMbps(3)}}

	jobs, err := f.dm.Submit(context.Background(), SubmitRequest{URL: "https://youtu.be/broken"})
	require.NoError(t, err)
	f.dm.Wait()

	job, _ := f.dm.Job(jobs[0].ID)
	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, 3, job.Attempts)
	assert.Contains(t, job.Error, "403")

	records := f.repo.list()
	require.Len(t, records, 1)
	assert.Equal(t, domain.StatusError, records[0].Status)
	assert.Equal(t, 2, records[0].RetryCount)
	assert.Contains(t, records[0].ErrorMessage, "403")

	assert.Empty(t, f.repo.bandwidth)
	assert.Empty(t, f.tracker.Active())
	assert.Equal(t, []string{"https://youtu.be/broken"}, f.notifier.failed)
}

func TestDownloadManager_ExtractFailure(t *testing.T) {
	f := newDownloadFixture(t, 0)
	f.engine.infoErr = assert.AnError

	jobs, err := f.dm.Submit(context.Background(), SubmitRequest{URL: "https://youtu.be/private"})
	require.NoError(t, err)
	f.dm.Wait()

	job, _ := f.dm.Job(jobs[0].ID)
	assert.Equal(t, JobFailed, job.Status)
	assert.Equal(t, 0, f.engine.requestCount())
}

func TestDownloadManager_PlaylistExpansion(t *testing.T) {
	f := newDownloadFixture(t, 0)
	f.engine.info = &domain.MediaInfo{
		Title:      "Mix",
		IsPlaylist: true,
		EntryURLs:  []string{"https://youtu.be/1", "https://youtu.be/2", "https://youtu.be/3"},
	}

	jobs, err := f.dm.Submit(context.Background(), SubmitRequest{URL: "https://youtube.com/playlist?list=PL1"})
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	f.dm.Wait()

	assert.Equal(t, 3, f.engine.requestCount())
	assert.Len(t, f.repo.list(), 3)
	assert.Len(t, f.dm.Jobs(), 3)
}

func TestDownloadManager_CancelJob(t *testing.T) {
	f := newDownloadFixture(t, 0)
	f.engine.block = make(chan struct{})

	jobs, err := f.dm.Submit(context.Background(), SubmitRequest{URL: "https://youtu.be/long"})
	require.NoError(t, err)

	require.NoError(t, f.dm.CancelJob(jobs[0].ID))
	f.dm.Wait()

	job, _ := f.dm.Job(jobs[0].ID)
	assert.Equal(t, JobCancelled, job.Status)
	assert.Empty(t, f.notifier.failed)
	assert.Empty(t, f.tracker.Active())

	assert.Error(t, f.dm.CancelJob(jobs[0].ID))
	assert.ErrorIs(t, f.dm.CancelJob("missing"), domain.ErrNotFound)
}

func TestDownloadManager_RetryJob(t *testing.T) {
	f := newDownloadFixture(t, 0)
	f.engine.failures = 1

	jobs, err := f.dm.Submit(context.Background(), SubmitRequest{URL: "https://youtu.be/flaky"})
	require.NoError(t, err)
	f.dm.Wait()

	failed, _ := f.dm.Job(jobs[0].ID)
	require.Equal(t, JobFailed, failed.Status)

	retried, err := f.dm.RetryJob(failed.ID)
	require.NoError(t, err)
	assert.NotEqual(t, failed.ID, retried.ID)
	f.dm.Wait()

	job, _ := f.dm.Job(retried.ID)
	assert.Equal(t, JobCompleted, job.Status)

	_, err = f.dm.RetryJob(retried.ID)
	assert.Error(t, err)
	_, err = f.dm.RetryJob("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
