package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a malformed action payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownAction signals an action tag outside the supported set.
	ErrUnknownAction = errors.New("unknown action")
	// ErrBookNotFound signals a missing book document.
	ErrBookNotFound = errors.New("book not found")
	// ErrUpstream signals a failure of the search engine.
	ErrUpstream = errors.New("search engine error")
	// ErrUpstreamUnavailable signals that engine calls are being short-circuited.
	ErrUpstreamUnavailable = errors.New("search engine unavailable")
	// ErrUnsupportedFormat signals an export format other than json or csv.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// ParamError wraps ErrInvalidRequest with the offending payload key.
type ParamError struct {
	Param  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidRequest.Error(), e.Param, e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidRequest }

// MissingParam reports a required payload key that was not supplied.
func MissingParam(name string) error {
	return &ParamError{Param: name, Reason: "is required"}
}

// InvalidParam reports a payload key with an unusable value.
func InvalidParam(name, reason string) error {
	return &ParamError{Param: name, Reason: reason}
}
