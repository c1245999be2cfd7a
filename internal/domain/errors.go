package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrDefaultDatasetMissing is returned when no upload is given and the bundled file cannot be read
	ErrDefaultDatasetMissing = errors.New("default dataset not found")

	// ErrInvalidDataset is returned when a CSV cannot be parsed into a dataset
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrSessionNotFound is returned when an upload session is unknown or expired
	ErrSessionNotFound = errors.New("upload session not found")

	// ErrUploadTooLarge is returned when an upload exceeds the configured limit
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// ErrNotEnoughNumericData is returned when fewer than two numeric columns exist
	ErrNotEnoughNumericData = errors.New("dataset must contain at least two numeric columns for clustering")

	// ErrMissingValues is returned when a numeric feature contains empty cells
	ErrMissingValues = errors.New("numeric columns contain missing values")

	// ErrTooFewRows is returned when there are fewer rows than requested clusters
	ErrTooFewRows = errors.New("number of rows is less than the number of clusters")

	// ErrMissingColumns is returned when a dataset lacks columns an operation requires
	ErrMissingColumns = errors.New("dataset is missing required columns")

	// ErrNoChartData is returned when a chart would have nothing to plot
	ErrNoChartData = errors.New("no data to chart")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)

// IsWarning reports whether err is a non-fatal segmentation condition that
// should be shown inline instead of failing the request.
func IsWarning(err error) bool {
	return errors.Is(err, ErrNotEnoughNumericData) ||
		errors.Is(err, ErrMissingValues) ||
		errors.Is(err, ErrTooFewRows)
}
