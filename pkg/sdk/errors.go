package booksearch

import "github.com/kailas-cloud/booksearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidRequest      = domain.ErrInvalidRequest
	ErrUnknownAction       = domain.ErrUnknownAction
	ErrBookNotFound        = domain.ErrBookNotFound
	ErrUpstream            = domain.ErrUpstream
	ErrUpstreamUnavailable = domain.ErrUpstreamUnavailable
)
