package recommend

import "errors"

var (
	// ErrProfileNotFound means the user has not stored preferences yet.
	ErrProfileNotFound = errors.New("preference profile not found")
	// ErrCatalogUnavailable means the recipe catalog could not be read.
	ErrCatalogUnavailable = errors.New("recipe catalog unavailable")
)
