package domain

import "errors"

var (
	ErrURLRequired     = errors.New("url is required")
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPerPage  = errors.New("per_page must be at least 1")
	ErrNotFound        = errors.New("record not found")
	ErrSessionNotFound = errors.New("bandwidth session not found")
)

// IsValidation reports whether err was caused by caller input
func IsValidation(err error) bool {
	return errors.Is(err, ErrURLRequired) ||
		errors.Is(err, ErrInvalidPage) ||
		errors.Is(err, ErrInvalidPerPage)
}
