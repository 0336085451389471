package db

import (
	"errors"
	"strconv"
)

// Sentinel errors for engine operations.
var (
	ErrDocumentNotFound = errors.New("db: document not found")
	ErrIndexNotFound    = errors.New("db: index not found")
	ErrIndexExists      = errors.New("db: index already exists")
	ErrUnavailable      = errors.New("db: engine unavailable")
)

// Op constants name engine API calls for error context and metrics.
const (
	OpPing          = "ping"
	OpClusterHealth = "cluster.health"
	OpCreateIndex   = "indices.create"
	OpDropIndex     = "indices.delete"
	OpIndexExists   = "indices.exists"
	OpIndex         = "index"
	OpGet           = "get"
	OpDelete        = "delete"
	OpBulk          = "bulk"
	OpSearch        = "search"
	OpDeleteByQuery = "delete_by_query"
	OpUpdateByQuery = "update_by_query"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// StatusError is an error response returned by the engine.
type StatusError struct {
	Status int
	Type   string
	Reason string
}

func (e *StatusError) Error() string {
	msg := "status " + strconv.Itoa(e.Status)
	if e.Type != "" {
		msg += " " + e.Type
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Unwrap maps well-known engine error types to sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Type {
	case "index_not_found_exception":
		return ErrIndexNotFound
	case "resource_already_exists_exception":
		return ErrIndexExists
	}
	return nil
}
