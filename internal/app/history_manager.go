package app

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/yt-history-go/internal/domain"
	"github.com/yourusername/yt-history-go/pkg/logger"
	"go.uber.org/zap"
)

// ListRequest is a history query as received from a caller
type ListRequest struct {
	Page    int
	PerPage int
	Filter  domain.FilterSpec
	// Period is translated into Filter.DateFrom when DateFrom is unset
	Period domain.Period
}

// HistoryManager is the query/filter layer over the download history
type HistoryManager struct {
	repo        domain.DownloadRepository
	config      *domain.HistoryConfig
	logger      *zap.Logger
	eventLogger *logger.MultiLogger
	now         func() time.Time
	onChange    []func()
}

// NewHistoryManager creates a new history manager
func NewHistoryManager(repo domain.DownloadRepository, config *domain.HistoryConfig, log *zap.Logger, eventLogger *logger.MultiLogger) *HistoryManager {
	if log == nil {
		log = zap.NewNop()
	}
	if config == nil {
		config = &domain.DefaultConfig().History
	}
	return &HistoryManager{
		repo:        repo,
		config:      config,
		logger:      log,
		eventLogger: eventLogger,
		now:         time.Now,
	}
}

// OnChange registers fn to run after the history is modified
func (h *HistoryManager) OnChange(fn func()) {
	h.onChange = append(h.onChange, fn)
}

func (h *HistoryManager) changed() {
	for _, fn := range h.onChange {
		fn()
	}
}

// Record stores a finished download attempt, filling absent fields with
// placeholders, and returns the new row id
func (h *HistoryManager) Record(ctx context.Context, record *domain.DownloadRecord) (int64, error) {
	if err := record.Validate(); err != nil {
		return 0, err
	}
	record.ApplyDefaults()

	if err := h.repo.Create(ctx, record); err != nil {
		h.logger.Error("Failed to record download",
			zap.String("status", string(record.Status)),
			zap.Error(err))
		h.eventLogger.LogAppError("Failed to record download", zap.Error(err))
		return 0, err
	}

	h.eventLogger.LogDownloadEvent("Download recorded",
		zap.Int64("id", record.ID),
		zap.String("url", record.URL),
		zap.String("status", string(record.Status)),
		zap.String("resolution", record.Resolution))
	h.changed()
	return record.ID, nil
}

// resolveFilter applies the resolution alias and period shorthand
func (h *HistoryManager) resolveFilter(filter domain.FilterSpec, period domain.Period) domain.FilterSpec {
	filter.Resolution = domain.NormalizeResolution(filter.Resolution)
	if filter.DateFrom == nil && period != "" {
		filter.DateFrom = period.Since(h.now())
	}
	return filter
}

// DefaultPerPage is the page size callers should use when none was requested
func (h *HistoryManager) DefaultPerPage() int {
	return h.config.DefaultPerPage
}

// ListPage returns one page of history. Invalid page arguments are
// returned as errors; a failing store yields an empty page with zeroed
// pagination and a logged cause.
func (h *HistoryManager) ListPage(ctx context.Context, req ListRequest) (*domain.DownloadPage, error) {
	if err := domain.ValidatePage(req.Page, req.PerPage); err != nil {
		return nil, err
	}
	if h.config.MaxPerPage > 0 && req.PerPage > h.config.MaxPerPage {
		req.PerPage = h.config.MaxPerPage
	}

	filter := h.resolveFilter(req.Filter, req.Period)

	records, total, err := h.repo.FindPage(ctx, filter, req.Page, req.PerPage)
	if err != nil {
		if domain.IsValidation(err) {
			return nil, err
		}
		h.logQueryFailure("list", filter, err,
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage))
		return domain.EmptyPage(), nil
	}

	if records == nil {
		records = []*domain.DownloadRecord{}
	}
	return &domain.DownloadPage{
		Downloads:  records,
		Pagination: domain.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

// Export returns every row matching the filter, newest first. A failing
// store yields an empty result.
func (h *HistoryManager) Export(ctx context.Context, filter domain.FilterSpec, period domain.Period) []*domain.DownloadRecord {
	filter = h.resolveFilter(filter, period)

	records, err := h.repo.FindAll(ctx, filter)
	if err != nil {
		h.logQueryFailure("export", filter, err)
		return []*domain.DownloadRecord{}
	}
	if records == nil {
		records = []*domain.DownloadRecord{}
	}
	return records
}

// Recent returns the newest limit downloads
func (h *HistoryManager) Recent(ctx context.Context, limit int) []*domain.DownloadRecord {
	if limit < 1 {
		limit = h.config.DefaultPerPage
	}
	page, err := h.ListPage(ctx, ListRequest{Page: 1, PerPage: limit})
	if err != nil {
		return []*domain.DownloadRecord{}
	}
	return page.Downloads
}

// Get returns one record or domain.ErrNotFound
func (h *HistoryManager) Get(ctx context.Context, id int64) (*domain.DownloadRecord, error) {
	return h.repo.FindByID(ctx, id)
}

// Remove deletes one record
func (h *HistoryManager) Remove(ctx context.Context, id int64) error {
	if err := h.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			h.logger.Error("Failed to delete download", zap.Int64("id", id), zap.Error(err))
		}
		return err
	}
	h.eventLogger.LogDownloadEvent("Download removed", zap.Int64("id", id))
	h.changed()
	return nil
}

// Clear deletes the whole history and returns the number of removed rows
func (h *HistoryManager) Clear(ctx context.Context) (int64, error) {
	n, err := h.repo.DeleteAll(ctx)
	if err != nil {
		h.logger.Error("Failed to clear history", zap.Error(err))
		return 0, err
	}
	h.logger.Info("History cleared", zap.Int64("removed", n))
	h.eventLogger.LogDownloadEvent("History cleared", zap.Int64("removed", n))
	h.changed()
	return n, nil
}

// Stats returns whole-history statistics, or zeroed stats if the store fails
func (h *HistoryManager) Stats(ctx context.Context) *domain.HistoryStats {
	stats, err := h.repo.GetStats(ctx)
	if err != nil {
		h.logger.Error("Failed to load history stats", zap.Error(err))
		h.eventLogger.LogAppError("Failed to load history stats", zap.Error(err))
		return &domain.HistoryStats{ByResolution: map[string]int64{}}
	}
	return stats
}

// logQueryFailure records which criteria were present, never their values
func (h *HistoryManager) logQueryFailure(op string, filter domain.FilterSpec, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("op", op),
		zap.Strings("filters", filter.Shape()),
		zap.Error(err))
	h.logger.Error("History query failed", fields...)
	h.eventLogger.LogAppError("History query failed", fields...)
}
