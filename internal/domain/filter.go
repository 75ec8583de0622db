package domain

import (
	"strings"
	"time"
)

// FilterSpec is a sparse set of criteria for querying download history.
// Every non-empty field contributes exactly one AND-ed predicate.
type FilterSpec struct {
	Search     string         `json:"search,omitempty"`     // substring of title
	Resolution string         `json:"resolution,omitempty"` // exact match
	Status     DownloadStatus `json:"status,omitempty"`     // exact match
	DateFrom   *time.Time     `json:"date_from,omitempty"`  // inclusive
	DateTo     *time.Time     `json:"date_to,omitempty"`    // inclusive
}

// IsEmpty reports whether the filter matches everything
func (f FilterSpec) IsEmpty() bool {
	return f.Search == "" && f.Resolution == "" && f.Status == "" && f.DateFrom == nil && f.DateTo == nil
}

// Shape lists which criteria are present, without their values
func (f FilterSpec) Shape() []string {
	shape := make([]string, 0, 5)
	if f.Search != "" {
		shape = append(shape, "search")
	}
	if f.Resolution != "" {
		shape = append(shape, "resolution")
	}
	if f.Status != "" {
		shape = append(shape, "status")
	}
	if f.DateFrom != nil {
		shape = append(shape, "date_from")
	}
	if f.DateTo != nil {
		shape = append(shape, "date_to")
	}
	return shape
}

// Period is a relative date-range shorthand understood by the history manager
type Period string

const (
	PeriodAll     Period = "all"
	PeriodToday   Period = "today"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "3months"
	PeriodYear    Period = "year"
)

// Since returns the lower date bound for the period relative to now.
// PeriodAll and unknown periods return nil.
func (p Period) Since(now time.Time) *time.Time {
	var from time.Time
	switch Period(strings.ToLower(string(p))) {
	case PeriodToday:
		y, m, d := now.Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case PeriodWeek:
		from = now.AddDate(0, 0, -7)
	case PeriodMonth:
		from = now.AddDate(0, 0, -30)
	case PeriodQuarter:
		from = now.AddDate(0, 0, -90)
	case PeriodYear:
		from = now.AddDate(0, 0, -365)
	default:
		return nil
	}
	return &from
}

// Pagination describes where a page sits in a filtered result set
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalCount  int64 `json:"total_count"`
	TotalPages  int   `json:"total_pages"`
	HasPrevious bool  `json:"has_previous"`
	HasNext     bool  `json:"has_next"`
}

// NewPagination derives page metadata from the request and the filtered row count
func NewPagination(page, perPage int, totalCount int64) Pagination {
	totalPages := 0
	if perPage > 0 {
		totalPages = int((totalCount + int64(perPage) - 1) / int64(perPage))
	}
	return Pagination{
		CurrentPage: page,
		PerPage:     perPage,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}

// ValidatePage checks 1-based page arguments
func ValidatePage(page, perPage int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if perPage < 1 {
		return ErrInvalidPerPage
	}
	return nil
}

// Offset returns the row offset of a 1-based page
func Offset(page, perPage int) int {
	return (page - 1) * perPage
}

// DownloadPage is one page of history plus its pagination metadata
type DownloadPage struct {
	Downloads  []*DownloadRecord `json:"downloads"`
	Pagination Pagination        `json:"pagination"`
}

// EmptyPage is the degraded result returned when the store cannot answer
func EmptyPage() *DownloadPage {
	return &DownloadPage{Downloads: []*DownloadRecord{}}
}
