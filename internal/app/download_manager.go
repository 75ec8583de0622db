package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/yt-history-go/internal/domain"
	"go.uber.org/zap"
)

// JobStatus is the lifecycle state of a submitted download
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Job is one submitted download. Its ID doubles as the bandwidth session token.
type Job struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	Resolution string     `json:"resolution"`
	Directory  string     `json:"directory"`
	Status     JobStatus  `json:"status"`
	Attempts   int        `json:"attempts"`
	Percent    float64    `json:"percent"`
	RecordID   int64      `json:"record_id,omitempty"`
	FilePath   string     `json:"file_path,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	cancel context.CancelFunc
}

// IsTerminal reports whether the job has stopped
func (j *Job) IsTerminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed || j.Status == JobCancelled
}

// Notifier is told about finished downloads
type Notifier interface {
	NotifyDownloadCompleted(record *domain.DownloadRecord)
	NotifyDownloadFailed(url string, err error)
}

// SubmitRequest asks for one URL to be downloaded
type SubmitRequest struct {
	URL        string `json:"url"`
	Resolution string `json:"resolution"`
	Directory  string `json:"directory"`
}

// DownloadManager runs downloads through the engine, feeding progress into
// the bandwidth tracker and recording every finished attempt in history
type DownloadManager struct {
	engine    domain.Engine
	history   *HistoryManager
	tracker   *BandwidthTracker
	settings  *SettingsManager
	notifier  Notifier
	config    *domain.DownloadConfig
	logger    *zap.Logger
	semaphore chan struct{}

	ctx   context.Context
	stop  context.CancelFunc
	wg    sync.WaitGroup
	mu    sync.RWMutex
	jobs  map[string]*Job
	newID func() string
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDownloadManager creates a new download manager
func NewDownloadManager(
	engine domain.Engine,
	history *HistoryManager,
	tracker *BandwidthTracker,
	settings *SettingsManager,
	notifier Notifier,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *DownloadManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := config.ConcurrentLimit
	if limit < 1 {
		limit = 1
	}
	ctx, stop := context.WithCancel(context.Background())
	return &DownloadManager{
		engine:    engine,
		history:   history,
		tracker:   tracker,
		settings:  settings,
		notifier:  notifier,
		config:    config,
		logger:    logger,
		semaphore: make(chan struct{}, limit),
		ctx:       ctx,
		stop:      stop,
		jobs:      make(map[string]*Job),
		newID:     uuid.NewString,
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Info extracts metadata for url without downloading
func (dm *DownloadManager) Info(ctx context.Context, url string) (*domain.MediaInfo, error) {
	if strings.TrimSpace(url) == "" {
		return nil, domain.ErrURLRequired
	}
	return dm.engine.Extract(ctx, url)
}

// Submit queues a download and returns immediately. Playlist URLs are
// expanded into one job per entry.
func (dm *DownloadManager) Submit(ctx context.Context, req SubmitRequest) ([]Job, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, domain.ErrURLRequired
	}

	if req.Resolution == "" && dm.settings != nil {
		req.Resolution = dm.settings.Get(ctx, domain.SettingDefaultResolution, "")
	}
	if req.Resolution == "" {
		req.Resolution = dm.config.DefaultResolution
	}
	req.Resolution = domain.NormalizeResolution(req.Resolution)

	if req.Directory == "" && dm.settings != nil {
		req.Directory = dm.settings.Get(ctx, domain.SettingDefaultDownloadPath, "")
	}
	if req.Directory == "" {
		req.Directory = dm.config.Dir
	}

	urls := []string{req.URL}
	if info, err := dm.engine.Extract(ctx, req.URL); err == nil && info.IsPlaylist && len(info.EntryURLs) > 0 {
		urls = info.EntryURLs
		dm.logger.Info("Expanding playlist", zap.String("url", req.URL), zap.Int("entries", len(urls)))
	}

	jobs := make([]Job, 0, len(urls))
	for _, url := range urls {
		jobs = append(jobs, dm.enqueue(url, req.Resolution, req.Directory))
	}
	return jobs, nil
}

// enqueue registers a job and starts its worker, returning a copy taken
// before the worker can touch it
func (dm *DownloadManager) enqueue(url, resolution, directory string) Job {
	jobCtx, cancel := context.WithCancel(dm.ctx)
	job := &Job{
		ID:         dm.newID(),
		URL:        url,
		Resolution: resolution,
		Directory:  directory,
		Status:     JobQueued,
		CreatedAt:  time.Now(),
		cancel:     cancel,
	}

	dm.mu.Lock()
	dm.jobs[job.ID] = job
	snapshot := *job
	dm.mu.Unlock()

	dm.logger.Info("Download queued",
		zap.String("job", job.ID),
		zap.String("url", url),
		zap.String("resolution", resolution))

	dm.wg.Add(1)
	go func() {
		defer dm.wg.Done()
		defer cancel()
		dm.process(jobCtx, job)
	}()

	return snapshot
}

// process runs one job to completion under the concurrency limit
func (dm *DownloadManager) process(ctx context.Context, job *Job) {
	select {
	case dm.semaphore <- struct{}{}:
		defer func() { <-dm.semaphore }()
	case <-ctx.Done():
		dm.finishJob(job, JobCancelled, ctx.Err())
		return
	}

	dm.updateJob(job, func(j *Job) { j.Status = JobRunning })
	dm.tracker.Start(job.ID)

	record := &domain.DownloadRecord{
		URL:          job.URL,
		Resolution:   job.Resolution,
		DownloadPath: job.Directory,
	}

	info, err := dm.engine.Extract(ctx, job.URL)
	if err != nil {
		dm.fail(ctx, job, record, fmt.Errorf("extract metadata: %w", err))
		return
	}
	applyMediaInfo(record, info)

	result, attempts, err := dm.downloadWithRetries(ctx, job)
	record.RetryCount = attempts - 1
	if err != nil {
		dm.fail(ctx, job, record, err)
		return
	}

	record.Status = domain.StatusCompleted
	record.DownloadPath = result.FilePath
	if result.FileSize != nil {
		record.FileSize = result.FileSize
	}

	id, err := dm.history.Record(context.WithoutCancel(ctx), record)
	if err != nil {
		dm.tracker.Abort(job.ID)
		dm.finishJob(job, JobFailed, fmt.Errorf("record download: %w", err))
		return
	}

	// The history row exists now, so the session can be reduced onto it
	if _, err := dm.tracker.Finish(context.WithoutCancel(ctx), job.ID, id); err != nil {
		dm.logger.Warn("Bandwidth summary not stored", zap.String("job", job.ID), zap.Error(err))
	}

	dm.updateJob(job, func(j *Job) {
		j.RecordID = id
		j.FilePath = result.FilePath
		j.Percent = 100
	})
	dm.finishJob(job, JobCompleted, nil)

	dm.logger.Info("Download completed",
		zap.String("job", job.ID),
		zap.Int64("id", id),
		zap.String("file", result.FilePath))
	if dm.notifier != nil {
		dm.notifier.NotifyDownloadCompleted(record)
	}
}

func (dm *DownloadManager) downloadWithRetries(ctx context.Context, job *Job) (*domain.DownloadResult, int, error) {
	onProgress := func(event domain.ProgressEvent) {
		dm.tracker.UpdateProgress(job.ID, event)
		if p := event.Percent(); p >= 0 {
			dm.updateJob(job, func(j *Job) { j.Percent = p })
		}
	}

	req := domain.DownloadRequest{URL: job.URL, Resolution: job.Resolution, Directory: job.Directory}

	var lastErr error
	attempt := 0
	for attempt <= dm.config.MaxRetries {
		if attempt > 0 {
			dm.logger.Info("Retrying download",
				zap.String("job", job.ID),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", dm.config.MaxRetries))
			if err := dm.sleep(ctx, dm.config.RetryDelay); err != nil {
				return nil, attempt, err
			}
		}
		attempt++
		dm.updateJob(job, func(j *Job) { j.Attempts = attempt })

		result, err := dm.engine.Download(ctx, req, onProgress, nil)
		if err == nil {
			return result, attempt, nil
		}
		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}

		lastErr = err
		dm.logger.Warn("Download attempt failed",
			zap.String("job", job.ID),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return nil, attempt, lastErr
}

// fail records a failed attempt. The bandwidth session is aborted rather
// than persisted, since partial transfers would skew the statistics.
func (dm *DownloadManager) fail(ctx context.Context, job *Job, record *domain.DownloadRecord, cause error) {
	dm.tracker.Abort(job.ID)

	status := JobFailed
	if errors.Is(cause, context.Canceled) {
		status = JobCancelled
	}

	record.Status = domain.StatusError
	record.ErrorMessage = cause.Error()
	if id, err := dm.history.Record(context.WithoutCancel(ctx), record); err == nil {
		dm.updateJob(job, func(j *Job) { j.RecordID = id })
	}

	dm.finishJob(job, status, cause)
	dm.logger.Error("Download failed",
		zap.String("job", job.ID),
		zap.String("url", job.URL),
		zap.Error(cause))
	if dm.notifier != nil && status == JobFailed {
		dm.notifier.NotifyDownloadFailed(job.URL, cause)
	}
}

func applyMediaInfo(record *domain.DownloadRecord, info *domain.MediaInfo) {
	if info == nil {
		return
	}
	record.Title = info.Title
	record.Duration = info.Duration
	record.Uploader = info.Uploader
	record.ThumbnailURL = info.ThumbnailURL
	record.ViewCount = info.ViewCount
	record.LikeCount = info.LikeCount
	record.Description = info.Description
	record.FileSize = info.FileSize
}

func (dm *DownloadManager) updateJob(job *Job, update func(*Job)) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	update(job)
}

func (dm *DownloadManager) finishJob(job *Job, status JobStatus, err error) {
	now := time.Now()
	dm.updateJob(job, func(j *Job) {
		j.Status = status
		j.FinishedAt = &now
		if err != nil {
			j.Error = err.Error()
		}
	})
}

// Job returns a copy of one job
func (dm *DownloadManager) Job(id string) (Job, bool) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	job, ok := dm.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Jobs returns copies of all jobs, newest first
func (dm *DownloadManager) Jobs() []Job {
	dm.mu.RLock()
	jobs := make([]Job, 0, len(dm.jobs))
	for _, job := range dm.jobs {
		jobs = append(jobs, *job)
	}
	dm.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs
}

// CancelJob stops a queued or running job
func (dm *DownloadManager) CancelJob(id string) error {
	dm.mu.RLock()
	job, ok := dm.jobs[id]
	var status JobStatus
	if ok {
		status = job.Status
	}
	dm.mu.RUnlock()

	if !ok {
		return domain.ErrNotFound
	}
	if status == JobCompleted || status == JobFailed || status == JobCancelled {
		return fmt.Errorf("job already in terminal state: %s", status)
	}

	job.cancel()
	dm.logger.Info("Download cancelled", zap.String("job", id))
	return nil
}

// RetryJob resubmits a failed or cancelled job as a new job
func (dm *DownloadManager) RetryJob(id string) (Job, error) {
	dm.mu.RLock()
	job, ok := dm.jobs[id]
	var snapshot Job
	if ok {
		snapshot = *job
	}
	dm.mu.RUnlock()

	if !ok {
		return Job{}, domain.ErrNotFound
	}
	if snapshot.Status != JobFailed && snapshot.Status != JobCancelled {
		return Job{}, fmt.Errorf("job is not in failed state: %s", snapshot.Status)
	}

	dm.logger.Info("Download queued for retry", zap.String("job", id))
	return dm.enqueue(snapshot.URL, snapshot.Resolution, snapshot.Directory), nil
}

// Wait blocks until every submitted job has finished
func (dm *DownloadManager) Wait() {
	dm.wg.Wait()
}

// Shutdown cancels running jobs and waits for them to stop
func (dm *DownloadManager) Shutdown() {
	dm.stop()
	dm.wg.Wait()
}
