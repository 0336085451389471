package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/booksearch/internal/domain"
	"github.com/kailas-cloud/booksearch/internal/domain/action"
	healthuc "github.com/kailas-cloud/booksearch/internal/usecase/health"
	storageuc "github.com/kailas-cloud/booksearch/internal/usecase/storage"
)

func newTestRouter(exec Executor, exp Exporter, health HealthChecker) http.Handler {
	s := NewServer(exec, exp, health, zap.NewNop())
	return NewRouter(s, RouterConfig{CORSOrigins: []string{"https://app.example"}})
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestAskStorage_Success(t *testing.T) {
	exec := &mockExecutor{
		fn: func(_ context.Context, a action.Action) (storageuc.Result, error) {
			m, ok := a.(action.Match)
			require.True(t, ok, "expected Match, got %T", a)
			assert.Equal(t, "publisher", m.Field)
			assert.Equal(t, "manning", m.Value)
			return storageuc.Result{Records: []json.RawMessage{
				json.RawMessage(`{"id":"1","score":1.5,"title":"a"}`),
				json.RawMessage(`{"id":"2","score":0.5,"title":"b"}`),
			}}, nil
		},
	}
	h := newTestRouter(exec, nil, &mockHealth{})

	rr := post(t, h, "/ask/storage/", `{"action":"match_query","field":"publisher","value":"manning"}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	var resp StorageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "match_query", resp.Action)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Results, 2)
	assert.JSONEq(t, `{"id":"1","score":1.5,"title":"a"}`, string(resp.Results[0]))
	assert.Empty(t, resp.ExportedTo)
}

func TestAskStorage_PathWithoutTrailingSlash(t *testing.T) {
	h := newTestRouter(&mockExecutor{}, nil, &mockHealth{})

	rr := post(t, h, "/ask/storage", `{"action":"retrieve_book_by_id","book_id":"b1"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAskStorage_EmptyResultsAreList(t *testing.T) {
	h := newTestRouter(&mockExecutor{}, nil, &mockHealth{})

	rr := post(t, h, "/ask/storage/", `{"action":"wildcard_query","field":"title","value":"zz*"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"results":[]`)
	assert.Contains(t, rr.Body.String(), `"count":0`)
}

func TestAskStorage_ReservedKeysNotPassedAsParams(t *testing.T) {
	var got action.Action
	exec := &mockExecutor{fn: func(_ context.Context, a action.Action) (storageuc.Result, error) {
		got = a
		return storageuc.Result{}, nil
	}}
	h := newTestRouter(exec, &mockExporter{}, &mockHealth{})

	rr := post(t, h, "/ask/storage/",
		`{"action":"fuzzy_queries","query":"elasticsaerch","fields":["title"],"file_type":"json"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	f, ok := got.(action.Fuzzy)
	require.True(t, ok)
	assert.Equal(t, "elasticsaerch", f.Query)
}

func TestAskStorage_BadRequests(t *testing.T) {
	called := false
	exec := &mockExecutor{fn: func(context.Context, action.Action) (storageuc.Result, error) {
		called = true
		return storageuc.Result{}, nil
	}}
	h := newTestRouter(exec, nil, &mockHealth{})

	tests := []struct {
		name    string
		body    string
		code    ErrorCode
		message string
	}{
		{"malformed json", `{"action":`, CodeBadRequest, "invalid request body"},
		{"not an object", `["match_query"]`, CodeBadRequest, "invalid request body"},
		{"missing action", `{"field":"title","value":"x"}`, CodeBadRequest, "action not in request body"},
		{"action not a string", `{"action":7}`, CodeBadRequest, "action must be a non-empty string"},
		{"empty action", `{"action":""}`, CodeBadRequest, "action must be a non-empty string"},
		{"file_type not a string", `{"action":"match_query","file_type":1}`, CodeBadRequest, "file_type"},
		{"unknown action", `{"action":"drop_index"}`, CodeUnknownAction, "unknown action"},
		{"missing parameter", `{"action":"match_query","field":"title"}`, CodeValidationFailed, "value is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := post(t, h, "/ask/storage/", tc.body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, tc.code, resp.Code)
			assert.Contains(t, resp.Message, tc.message)
		})
	}
	assert.False(t, called, "executor must not run for rejected requests")
}

func TestAskStorage_DomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"not found", fmt.Errorf("get b1: %w", domain.ErrBookNotFound), http.StatusNotFound, CodeBookNotFound},
		{"upstream", fmt.Errorf("search: %w", domain.ErrUpstream), http.StatusBadGateway, CodeUpstreamError},
		{"unavailable", fmt.Errorf("search: %w", domain.ErrUpstreamUnavailable), http.StatusServiceUnavailable, CodeUpstreamUnavailable},
		{"invalid", domain.InvalidParam("value", "bad"), http.StatusBadRequest, CodeValidationFailed},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exec := &mockExecutor{fn: func(context.Context, action.Action) (storageuc.Result, error) {
				return storageuc.Result{}, tc.err
			}}
			h := newTestRouter(exec, nil, &mockHealth{})

			rr := post(t, h, "/ask/storage/", `{"action":"retrieve_book_by_id","book_id":"b1"}`)

			require.Equal(t, tc.status, rr.Code)
			resp := decodeError(t, rr)
			assert.Equal(t, tc.code, resp.Code)
		})
	}
}

func TestAskStorage_InternalDetailsNotLeaked(t *testing.T) {
	exec := &mockExecutor{fn: func(context.Context, action.Action) (storageuc.Result, error) {
		return storageuc.Result{}, fmt.Errorf("dial tcp 10.0.0.7:9200: %w", domain.ErrUpstream)
	}}
	h := newTestRouter(exec, nil, &mockHealth{})

	rr := post(t, h, "/ask/storage/", `{"action":"retrieve_book_by_id","book_id":"b1"}`)

	resp := decodeError(t, rr)
	assert.Equal(t, domain.ErrUpstream.Error(), resp.Message)
	assert.NotContains(t, rr.Body.String(), "10.0.0.7")
}

func TestAskStorage_Export(t *testing.T) {
	exp := &mockExporter{path: "exports/match_query.csv"}
	exec := &mockExecutor{fn: func(context.Context, action.Action) (storageuc.Result, error) {
		return storageuc.Result{Records: []json.RawMessage{json.RawMessage(`{"id":"1"}`)}}, nil
	}}
	h := newTestRouter(exec, exp, &mockHealth{})

	rr := post(t, h, "/ask/storage/", `{"action":"match_query","field":"title","value":"x","file_type":"csv"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp StorageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "exports/match_query.csv", resp.ExportedTo)
	assert.Equal(t, "match_query", exp.name)
	assert.Equal(t, "csv", exp.format)
	assert.Len(t, exp.records, 1)
}

func TestAskStorage_ExportFailuresIgnored(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unsupported format", fmt.Errorf("%w: xml", domain.ErrUnsupportedFormat)},
		{"io failure", errors.New("disk full")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			exp := &mockExporter{err: tc.err}
			h := newTestRouter(&mockExecutor{}, exp, &mockHealth{})

			rr := post(t, h, "/ask/storage/", `{"action":"match_query","field":"title","value":"x","file_type":"xml"}`)

			require.Equal(t, http.StatusOK, rr.Code)
			assert.NotContains(t, rr.Body.String(), "exported_to")
		})
	}
}

func TestAskStorage_ExportDisabled(t *testing.T) {
	h := newTestRouter(&mockExecutor{}, nil, &mockHealth{})

	rr := post(t, h, "/ask/storage/", `{"action":"match_query","field":"title","value":"x","file_type":"json"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "exported_to")
}

func TestAskStorage_MutationFields(t *testing.T) {
	affected := int64(3)
	exec := &mockExecutor{fn: func(context.Context, action.Action) (storageuc.Result, error) {
		return storageuc.Result{Affected: &affected}, nil
	}}
	h := newTestRouter(exec, nil, &mockHealth{})

	rr := post(t, h, "/ask/storage/", `{"action":"delete_by_query","query":"solr","fields":["title"]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp StorageResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotNil(t, resp.Affected)
	assert.Equal(t, int64(3), *resp.Affected)
}

func TestAskStorage_MethodNotAllowed(t *testing.T) {
	h := newTestRouter(&mockExecutor{}, nil, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ask/storage/", http.NoBody))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestRouter(&mockExecutor{}, nil, &mockHealth{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestRouter_RecoversPanics(t *testing.T) {
	exec := &mockExecutor{fn: func(context.Context, action.Action) (storageuc.Result, error) {
		panic("unexpected")
	}}
	h := newTestRouter(exec, nil, &mockHealth{})

	rr := post(t, h, "/ask/storage/", `{"action":"retrieve_book_by_id","book_id":"b1"}`)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, CodeInternalError, decodeError(t, rr).Code)
}

func TestRouter_AuthRequired(t *testing.T) {
	s := NewServer(&mockExecutor{}, nil, &mockHealth{}, zap.NewNop())
	h := NewRouter(s, RouterConfig{APIKeys: []string{"secret"}, CORSOrigins: []string{"*"}})

	rr := post(t, h, "/ask/storage/", `{"action":"retrieve_book_by_id","book_id":"b1"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/ask/storage/",
		strings.NewReader(`{"action":"retrieve_book_by_id","book_id":"b1"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	s := NewServer(&mockExecutor{}, nil, &mockHealth{}, zap.NewNop())
	h := NewRouter(s, RouterConfig{APIKeys: []string{"secret"}, CORSOrigins: []string{"https://app.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/ask/storage/", http.NoBody)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Less(t, rr.Code, 300, "preflight must not require auth")
	assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name   string
		report healthuc.Report
		status int
	}{
		{
			name: "healthy",
			report: healthuc.Report{
				Status:        healthuc.Healthy,
				Checks:        map[string]healthuc.CheckResult{healthuc.CheckEngine: healthuc.CheckOK},
				ClusterName:   "books",
				ClusterStatus: "green",
			},
			status: http.StatusOK,
		},
		{
			name: "degraded",
			report: healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{healthuc.CheckBreaker: healthuc.CheckWarn},
			},
			status: http.StatusOK,
		},
		{
			name: "unhealthy",
			report: healthuc.Report{
				Status: healthuc.Unhealthy,
				Checks: map[string]healthuc.CheckResult{healthuc.CheckEngine: healthuc.CheckError},
			},
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestRouter(&mockExecutor{}, nil, &mockHealth{report: tc.report})

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			require.Equal(t, tc.status, rr.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, string(tc.report.Status), resp.Status)
			assert.Len(t, resp.Checks, len(tc.report.Checks))
			if tc.report.ClusterStatus != "" {
				require.NotNil(t, resp.Cluster)
				assert.Equal(t, "books", resp.Cluster.Name)
			} else {
				assert.Nil(t, resp.Cluster)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(&mockExecutor{}, nil, &mockHealth{})
	post(t, h, "/ask/storage/", `{"action":"retrieve_book_by_id","book_id":"b1"}`)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "booksearch_http_requests_total")
}

// --- Mocks ---

type mockExecutor struct {
	fn func(ctx context.Context, a action.Action) (storageuc.Result, error)
}

func (m *mockExecutor) Execute(ctx context.Context, a action.Action) (storageuc.Result, error) {
	if m.fn != nil {
		return m.fn(ctx, a)
	}
	return storageuc.Result{Action: a.Kind()}, nil
}

type mockExporter struct {
	path    string
	err     error
	records []json.RawMessage
	name    string
	format  string
}

func (m *mockExporter) Export(records []json.RawMessage, name, format string) (string, error) {
	m.records, m.name, m.format = records, name, format
	if m.err != nil {
		return "", m.err
	}
	return m.path, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report {
	if m.report.Status == "" {
		return healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}
	}
	return m.report
}
