package domain

import "errors"

// Sentinel errors of the recommendation core. Callers match with errors.Is;
// everything else wraps one of these or is an internal failure.
var (
	// ErrProfileUnavailable is a retryable user-signal store failure,
	// HTTP 503. A missing preference record is not this error; the
	// aggregator substitutes a default profile for first-time users.
	ErrProfileUnavailable = errors.New("profile unavailable")

	// ErrUnknownAlgorithm is a caller error and maps to HTTP 400.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")

	// ErrMovieNotFound means the referenced movie is not in the catalog,
	// HTTP 404.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrInsufficientData is signalled by a scorer that lacks the
	// interactions it needs. The orchestrator substitutes content-based
	// output and never surfaces this to the caller.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrCatalogUnavailable is a retryable backend failure, HTTP 503.
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// ErrInteractionStoreUnavailable is a retryable backend failure, HTTP 503.
	ErrInteractionStoreUnavailable = errors.New("interaction store unavailable")

	// ErrCacheUnavailable means an explicit invalidation could not reach
	// the cache store, HTTP 503. Read and write failures on the serving
	// path never surface it; those degrade to compute-only.
	ErrCacheUnavailable = errors.New("cache unavailable")
)
