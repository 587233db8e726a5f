package pipeline

import (
	"errors"

	"github.com/rickgao/casualty-monitor/internal/api"
)

var (
	// ErrDataUnavailable means a dataset could not be fetched or was not a JSON array.
	// No partial result accompanies it.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrMalformedRecord marks a single element that was skipped during decoding.
	ErrMalformedRecord = api.ErrMalformedRecord

	// ErrInvalidRange is returned when a date range starts after it ends.
	ErrInvalidRange = errors.New("invalid date range")

	// ErrInvalidWindow is returned for a moving-average window outside [MinWindow, MaxWindow].
	ErrInvalidWindow = errors.New("invalid moving average window")

	// ErrEmptySeries is returned when a derivation needs at least one report.
	ErrEmptySeries = errors.New("empty report series")
)
