package export

import "errors"

var (
	// ErrEmptyTimeline is returned when an export is requested with zero
	// scenes. No progress is ever emitted for such a request.
	ErrEmptyTimeline = errors.New("cannot export an empty timeline")

	// ErrExportInFlight is returned when an export is requested while one is
	// already running. Exports are single-flight, never queued.
	ErrExportInFlight = errors.New("an export is already in progress")
)
