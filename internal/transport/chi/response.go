package chi

import (
	"encoding/json"
	"net/http"
)

// ErrorCode is a machine-readable error class.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeUnknownAction       ErrorCode = "unknown_action"
	CodeBookNotFound        ErrorCode = "book_not_found"
	CodeUpstreamError       ErrorCode = "upstream_error"
	CodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// StorageResponse is the body of a successful POST /ask/storage/.
type StorageResponse struct {
	Status     string            `json:"status"`
	Action     string            `json:"action"`
	Results    []json.RawMessage `json:"results"`
	Count      int               `json:"count"`
	ID         string            `json:"id,omitempty"`
	IDs        []string          `json:"ids,omitempty"`
	Affected   *int64            `json:"affected,omitempty"`
	ExportedTo string            `json:"exported_to,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Cluster *ClusterInfo      `json:"cluster,omitempty"`
}

// ClusterInfo summarizes engine cluster health.
type ClusterInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
