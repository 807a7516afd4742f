package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/coursesearch"
	"github.com/poiesic/coursesearch/ai/mock"
	"github.com/poiesic/coursesearch/catalog"
	"github.com/poiesic/coursesearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records the arguments of the last search.
type fakeBackend struct {
	query   string
	limit   int
	subject string
	err     error
}

func (f *fakeBackend) Search(_ context.Context, queryText string, limit int, subjectFilter string) (*coursesearch.SearchResponse, error) {
	f.query, f.limit, f.subject = queryText, limit, subjectFilter
	if f.err != nil {
		return nil, f.err
	}
	return &coursesearch.SearchResponse{Results: []coursesearch.CourseResult{}}, nil
}

func (f *fakeBackend) ListSubjects() *coursesearch.SubjectsResponse {
	return &coursesearch.SubjectsResponse{Subjects: []string{"CS"}}
}

func (f *fakeBackend) Stats() *coursesearch.StatsResponse {
	return &coursesearch.StatsResponse{Courses: 1, Dimensions: 2, Subjects: 1}
}

func newTestRouter(t *testing.T, backend Backend, cfg *Config) http.Handler {
	t.Helper()
	h, err := NewHandler(backend, cfg, nil)
	require.NoError(t, err)
	return NewRouter(h)
}

func serve(router http.Handler, method, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// scenarioService is the three-course catalog A, B, C behind a real Service.
func scenarioService(t *testing.T) *coursesearch.Service {
	t.Helper()
	courses := []core.Course{
		{Subject: "CS", Title: "A", Description: "first"},
		{Subject: "CS", Title: "B", Description: "second"},
		{Subject: "MATH", Title: "C", Description: "third"},
	}
	records, err := catalog.Assemble(courses, map[int][]float32{0: {1, 0}, 1: {0, 1}, 2: {-1, 0}})
	require.NoError(t, err)
	store, err := catalog.Build(records)
	require.NoError(t, err)

	embedder := mock.NewMockEmbedderWithDim(2).WithEmbedTextFunc(func(context.Context, string) ([]float32, error) {
		return []float32{1, 0}, nil
	})
	svc, err := coursesearch.NewService(store, embedder)
	require.NoError(t, err)
	return svc
}

func TestNewHandler(t *testing.T) {
	_, err := NewHandler(nil, nil, nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.DefaultLimit = 0
	_, err = NewHandler(&fakeBackend{}, cfg, nil)
	assert.Error(t, err)
}

func TestHandleRoot(t *testing.T) {
	rec := serve(newTestRouter(t, &fakeBackend{}, nil), http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Cornell Course Search API is running", decode[messageResponse](t, rec).Message)
}

func TestHandleSearch_EndToEnd(t *testing.T) {
	router := newTestRouter(t, scenarioService(t), nil)

	rec := serve(router, http.MethodGet, "/api/search?query=anything&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string][]map[string]any](t, rec)
	results := body["results"]
	require.Len(t, results, 2)
	assert.Equal(t, "0", results[0]["id"])
	assert.Equal(t, "CS", results[0]["subject"])
	assert.Equal(t, "A", results[0]["title"])
	assert.Equal(t, "first", results[0]["description"])
	assert.InDelta(t, 1.0, results[0]["relevance_score"], 1e-9)
	assert.Equal(t, "B", results[1]["title"])

	rec = serve(router, http.MethodGet, "/api/search?query=anything&limit=2&subject_filter=MATH")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[coursesearch.SearchResponse](t, rec)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "C", resp.Results[0].Title)
	assert.InDelta(t, -1.0, resp.Results[0].RelevanceScore, 1e-9)

	rec = serve(router, http.MethodGet, "/api/search?query=anything&subject_filter=ART")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"results": []}`, rec.Body.String())
}

func TestHandleSearch_Parameters(t *testing.T) {
	backend := &fakeBackend{}
	router := newTestRouter(t, backend, nil)

	rec := serve(router, http.MethodGet, "/api/search?query=machine+learning&subject_filter=CS")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "machine learning", backend.query)
	assert.Equal(t, 10, backend.limit, "default limit")
	assert.Equal(t, "CS", backend.subject)

	serve(router, http.MethodGet, "/api/search?query=x&limit=100")
	assert.Equal(t, 100, backend.limit)
}

func TestHandleSearch_InvalidLimit(t *testing.T) {
	router := newTestRouter(t, &fakeBackend{}, nil)

	for _, limit := range []string{"0", "-1", "101", "ten", "1.5"} {
		t.Run(limit, func(t *testing.T) {
			rec := serve(router, http.MethodGet, "/api/search?query=x&limit="+limit)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.NotEmpty(t, decode[errorResponse](t, rec).Detail)
		})
	}
}

func TestHandleSearch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"invalid argument", fmt.Errorf("%w: query is required", core.ErrInvalidArgument), http.StatusUnprocessableEntity, "query is required"},
		{"embedder failure", fmt.Errorf("%w: dial tcp: refused", coursesearch.ErrEmbeddingFailed), http.StatusBadGateway, "query embedding failed"},
		{"dimension mismatch", fmt.Errorf("%w: expected 2, got 3", core.ErrDimensionMismatch), http.StatusInternalServerError, "internal server error"},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, "context canceled"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeBackend{err: tt.err}, nil)
			rec := serve(router, http.MethodGet, "/api/search?query=x")

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, decode[errorResponse](t, rec).Detail, tt.detail)
		})
	}
}

func TestHandleSearch_EmptyQuery(t *testing.T) {
	router := newTestRouter(t, scenarioService(t), nil)

	rec := serve(router, http.MethodGet, "/api/search")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleSubjectsAndStats(t *testing.T) {
	router := newTestRouter(t, scenarioService(t), nil)

	rec := serve(router, http.MethodGet, "/api/subjects")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subjects": ["CS", "MATH"]}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"courses": 3, "dimensions": 2, "subjects": 2}`, rec.Body.String())
}

func TestSendJSON_EncodeFailureLogged(t *testing.T) {
	var buf bytes.Buffer
	h, err := NewHandler(&fakeBackend{}, nil, slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.sendJSON(rec, http.StatusOK, make(chan int))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, buf.String(), "failed to encode response")
	assert.Contains(t, buf.String(), "component=api")
}
