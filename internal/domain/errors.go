package domain

import "errors"

var (
	// ErrMissingInput means the rainfall table for a requested day does not exist.
	ErrMissingInput = errors.New("missing rainfall input")

	// ErrDataSource means the tide table is missing its columns, cannot be
	// parsed, or yields no readings. Fatal for the whole run.
	ErrDataSource = errors.New("tide data source error")

	// ErrHistoryNotFound means no historical dataset exists yet. Callers
	// continue with an empty history.
	ErrHistoryNotFound = errors.New("history not found")

	// ErrHistoryUnavailable means a historical dataset exists but could not be
	// retrieved or decoded. Proceeding would silently discard prior data.
	ErrHistoryUnavailable = errors.New("history unavailable")

	// ErrRowProcessing means a day's rainfall table failed to parse or aggregate.
	ErrRowProcessing = errors.New("rainfall processing error")
)
