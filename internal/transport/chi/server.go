package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/booksearch/internal/domain"
	"github.com/kailas-cloud/booksearch/internal/domain/action"
	"github.com/kailas-cloud/booksearch/internal/logger"
	healthuc "github.com/kailas-cloud/booksearch/internal/usecase/health"
	storageuc "github.com/kailas-cloud/booksearch/internal/usecase/storage"
)

// maxBodyBytes caps the request body of POST /ask/storage/.
const maxBodyBytes = 8 << 20

// Reserved top-level request keys. Everything else is an action parameter.
const (
	keyAction   = "action"
	keyFileType = "file_type"
)

// Executor runs a parsed action.
type Executor interface {
	Execute(ctx context.Context, a action.Action) (storageuc.Result, error)
}

// Exporter writes action results to a file and returns its path.
type Exporter interface {
	Export(records []json.RawMessage, name, format string) (string, error)
}

// HealthChecker reports engine health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the booksearch HTTP API.
type Server struct {
	storage       Executor
	exporter      Exporter
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. exporter can be nil to disable exports.
func NewServer(storage Executor, exporter Exporter, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		storage:  storage,
		exporter: exporter,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		paramErrorHandler,
		sentinelHandler(domain.ErrUnknownAction, http.StatusBadRequest, CodeUnknownAction),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrBookNotFound, http.StatusNotFound, CodeBookNotFound),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusServiceUnavailable, CodeUpstreamUnavailable),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, CodeUpstreamError),
	}
	return s
}

// AskStorage handles POST /ask/storage/.
func (s *Server) AskStorage(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	rawAction, ok := body[keyAction]
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "action not in request body")
		return
	}
	var tag string
	if err := json.Unmarshal(rawAction, &tag); err != nil || tag == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "action must be a non-empty string")
		return
	}

	var fileType string
	if raw, ok := body[keyFileType]; ok {
		if err := json.Unmarshal(raw, &fileType); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "file_type must be a string")
			return
		}
	}

	params := make(action.Params, len(body))
	for k, v := range body {
		if k != keyAction && k != keyFileType {
			params[k] = v
		}
	}

	ctx := r.Context()

	a, err := action.Parse(tag, params)
	if err != nil {
		s.handleDomainError(logger.With(ctx, zap.String("action", tag)), w, err)
		return
	}

	res, err := s.storage.Execute(ctx, a)
	if err != nil {
		s.handleDomainError(ctx, w, err)
		return
	}

	records := res.Records
	if records == nil {
		records = []json.RawMessage{}
	}
	resp := StorageResponse{
		Status:   "ok",
		Action:   string(a.Kind()),
		Results:  records,
		Count:    len(records),
		ID:       res.ID,
		IDs:      res.IDs,
		Affected: res.Affected,
	}
	if fileType != "" {
		resp.ExportedTo = s.export(ctx, records, tag, fileType)
	}

	writeJSON(w, http.StatusOK, resp)
}

// export writes records and returns the path. Failures are logged and never reach the caller.
func (s *Server) export(ctx context.Context, records []json.RawMessage, name, fileType string) string {
	log := logger.FromContext(ctx).With(zap.String("action", name))
	if s.exporter == nil {
		log.Warn("export requested but disabled", zap.String("file_type", fileType))
		return ""
	}
	path, err := s.exporter.Export(records, name, fileType)
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		log.Warn("unsupported export format ignored", zap.String("file_type", fileType))
		return ""
	case err != nil:
		log.Error("export failed", zap.String("file_type", fileType), zap.Error(err))
		return ""
	}
	log.Info("results exported", zap.String("path", path), zap.Int("records", len(records)))
	return path
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	resp := HealthResponse{Status: string(report.Status), Checks: checks}
	if report.ClusterStatus != "" {
		resp.Cluster = &ClusterInfo{Name: report.ClusterName, Status: report.ClusterStatus}
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrUnknownAction,
		domain.ErrInvalidRequest,
		domain.ErrBookNotFound,
		domain.ErrUpstreamUnavailable,
		domain.ErrUpstream,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, safeDomainMessage(err))
		return true
	}
}

// paramErrorHandler reports which parameter was rejected.
func paramErrorHandler(w http.ResponseWriter, err error) bool {
	var pe *domain.ParamError
	if !errors.As(err, &pe) {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeValidationFailed, pe.Error())
	return true
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)
	log.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
