package domain

import "errors"

var (
	// ErrDataUnavailable means no fact data has been loaded yet.
	ErrDataUnavailable = errors.New("fact data is not loaded yet, please retry once the data refresh completes")

	// ErrNoMatchingRows means the filters and date range selected nothing.
	// It is an empty result, not a failure; callers must not emit a document.
	ErrNoMatchingRows = errors.New("no data found for the selected filters and period")

	ErrUnknownReport  = errors.New("unknown report kind")
	ErrInvalidRequest = errors.New("invalid report request")
	ErrRunNotFound    = errors.New("report run not found")
)
