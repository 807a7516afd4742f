package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/poiesic/coursesearch"
	"github.com/poiesic/coursesearch/core"
)

// healthMessage is returned by GET /.
const healthMessage = "Cornell Course Search API is running"

// Backend is the search surface the handlers serve.
type Backend interface {
	Search(ctx context.Context, queryText string, limit int, subjectFilter string) (*coursesearch.SearchResponse, error)
	ListSubjects() *coursesearch.SubjectsResponse
	Stats() *coursesearch.StatsResponse
}

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	backend Backend
	config  *Config
	logger  *slog.Logger
}

// NewHandler creates a Handler. A nil config uses DefaultConfig and a nil
// logger uses slog.Default().
func NewHandler(backend Backend, config *Config, logger *slog.Logger) (*Handler, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		backend: backend,
		config:  config,
		logger:  logger.With("component", "api"),
	}, nil
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// HandleRoot handles GET / requests.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, messageResponse{Message: healthMessage})
}

// HandleSearch handles GET /api/search requests.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	limit := h.config.DefaultLimit
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.sendJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "limit must be an integer"})
			return
		}
		limit = n
	}
	if limit < 1 || limit > h.config.MaxLimit {
		h.sendJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Detail: "limit must be between 1 and " + strconv.Itoa(h.config.MaxLimit),
		})
		return
	}

	resp, err := h.backend.Search(r.Context(), params.Get("query"), limit, params.Get("subject_filter"))
	if err != nil {
		h.sendError(w, r, err)
		return
	}
	h.sendJSON(w, http.StatusOK, resp)
}

// HandleSubjects handles GET /api/subjects requests.
func (h *Handler) HandleSubjects(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, h.backend.ListSubjects())
}

// HandleStats handles GET /api/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, h.backend.Stats())
}

// sendError maps a search error to a status code.
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	switch {
	case status >= 500:
		h.logger.Error("search failed", "path", r.URL.Path, "status", status, "err", err)
		if status == http.StatusInternalServerError {
			detail = "internal server error"
		}
	default:
		h.logger.Debug("search rejected", "status", status, "err", err)
	}
	h.sendJSON(w, status, errorResponse{Detail: detail})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, coursesearch.ErrEmbeddingFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sendJSON sends a JSON response with the given status code.
func (h *Handler) sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "status", status, "err", err)
	}
}
