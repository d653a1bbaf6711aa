package domain

import "errors"

var (
	// ErrNotFound means the requested article or note id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable wraps backing-store I/O failures. Never retried.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrFetchFailed means the source page could not be retrieved. Ingestion
	// stops before touching the store.
	ErrFetchFailed = errors.New("fetch failed")
)
