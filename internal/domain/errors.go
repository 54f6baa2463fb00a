package domain

import "errors"

var (
	// ErrProductNotFound is returned when a barcode is not present in the catalog
	ErrProductNotFound = errors.New("product not found in catalog")

	// ErrCatalogUnavailable is returned when the remote catalog cannot be reached
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrCacheMiss is returned when a barcode is not found in the product cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidEvent is returned when an event is not accepted in the current workflow state
	ErrInvalidEvent = errors.New("event not valid in current state")

	// ErrScannerBusy is returned when another workflow instance holds the scanner
	ErrScannerBusy = errors.New("scanner already in use")

	// ErrPersistenceFailed is returned when committing a purchase result fails
	ErrPersistenceFailed = errors.New("failed to persist purchase result")

	// ErrSessionNotFound is returned when no workflow session exists for an ID
	ErrSessionNotFound = errors.New("workflow session not found")
)
