package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_NotFoundAndMethod(t *testing.T) {
	router := newTestRouter(t, &fakeBackend{}, nil)

	rec := serve(router, http.MethodGet, "/api/courses")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode[errorResponse](t, rec).Detail)

	rec = serve(router, http.MethodPost, "/api/subjects")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS_Wildcard(t *testing.T) {
	router := newTestRouter(t, &fakeBackend{}, nil)

	rec := serve(router, http.MethodGet, "/api/subjects", "Origin", "http://localhost:5173")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(router, http.MethodOptions, "/api/search", "Origin", "http://localhost:5173")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestCORS_PreflightEveryRoute(t *testing.T) {
	router := newTestRouter(t, &fakeBackend{}, nil)

	for _, path := range []string{"/", "/api/search", "/api/subjects", "/api/stats"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(router, http.MethodOptions, path,
				"Origin", "http://localhost:5173",
				"Access-Control-Request-Method", "GET")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
		})
	}
}

func TestCORS_AllowList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = ParseOrigins("https://bigredsearch.vercel.app, http://localhost:5173")
	router := newTestRouter(t, &fakeBackend{}, cfg)

	rec := serve(router, http.MethodGet, "/api/subjects", "Origin", "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	rec = serve(router, http.MethodGet, "/api/subjects", "Origin", "https://evil.example")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseOrigins(" a, ,b "))
	assert.Nil(t, ParseOrigins(""))
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h, err := NewHandler(&fakeBackend{}, nil, logger)
	require.NoError(t, err)

	serve(NewRouter(h), http.MethodGet, "/api/search?query=x&limit=0")

	out := buf.String()
	assert.Contains(t, out, "msg=request")
	assert.Contains(t, out, "path=/api/search")
	assert.Contains(t, out, "status=422")
	assert.Contains(t, out, "component=api")
}
