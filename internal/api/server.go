// Package api exposes the recommendation engine over HTTP. Handlers only
// ever read one engine snapshot per request; retrain swaps snapshots
// atomically underneath them.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kamatealif/shelf-sage/internal/catalog"
	"github.com/kamatealif/shelf-sage/internal/engine"
	"github.com/kamatealif/shelf-sage/pkg/models"
)

// Config holds HTTP server configuration.
type Config struct {
	PageSize int // default page size for listings
	MaxTopN  int // upper bound accepted for top_n
}

// RowLoader returns fresh raw rows for a retrain, typically by re-reading
// the source CSV.
type RowLoader func() ([]catalog.RawRow, error)

// Server wires the engine into a chi router.
type Server struct {
	config Config
	engine *engine.Engine
	loader RowLoader
	router chi.Router
}

// New creates a Server. loader may be nil, which disables POST /retrain.
func New(config Config, eng *engine.Engine, loader RowLoader) *Server {
	if config.PageSize <= 0 {
		config.PageSize = 20
	}
	if config.MaxTopN <= 0 {
		config.MaxTopN = 50
	}

	s := &Server{
		config: config,
		engine: eng,
		loader: loader,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/", s.handleListBooks)
	r.Get("/books/{slug}", s.handleBook)
	r.Get("/categories", s.handleCategories)
	r.Get("/search", s.handleSearch)
	r.Post("/retrain", s.handleRetrain)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router = r
	catalogBooks.Set(float64(eng.Snapshot().Catalog().Len()))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// bookDetail extends a summary with the description, returned only for
// the resolved seed book.
type bookDetail struct {
	models.Summary
	Description string `json:"description,omitempty"`
}

// recommendationResponse is the payload of GET /books/{slug}.
type recommendationResponse struct {
	Book            bookDetail       `json:"book"`
	Strategy        string           `json:"strategy"`
	Recommendations []models.Summary `json:"recommendations"`
}

// errorResponse is the payload of every failure.
type errorResponse struct {
	Error   string   `json:"error"`
	Hint    string   `json:"hint,omitempty"`
	Samples []string `json:"samples,omitempty"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", s.config.PageSize)
	if page < 1 || pageSize < 1 || pageSize > 200 {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "page must be >= 1 and page_size in [1,200]"})
		return
	}

	books := s.engine.Snapshot().Catalog().Books()
	start := (page - 1) * pageSize
	if start > len(books) {
		start = len(books)
	}
	end := start + pageSize
	if end > len(books) {
		end = len(books)
	}

	summaries := make([]models.Summary, 0, end-start)
	for _, b := range books[start:end] {
		summaries = append(summaries, b.Summarize())
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	topN := queryInt(r, "top_n", 10)
	if topN < 1 || topN > s.config.MaxTopN {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error: fmt.Sprintf("top_n must be in [1,%d]", s.config.MaxTopN),
		})
		return
	}

	strategy := engine.Strategy(r.URL.Query().Get("strategy"))
	switch strategy {
	case "":
		strategy = engine.StrategyCategory
	case engine.StrategyCategory, engine.StrategyContent:
	default:
		writeError(w, http.StatusBadRequest, errorResponse{Error: "strategy must be 'category' or 'content'"})
		return
	}

	snap := s.engine.Snapshot()

	book, err := snap.Resolve(slug)
	if err != nil {
		writeNotFound(w, err)
		return
	}

	recs, err := snap.Recommend(strategy, book.Title, topN)
	if err != nil {
		writeNotFound(w, err)
		return
	}
	recommendationsTotal.WithLabelValues(string(strategy)).Inc()

	summaries := make([]models.Summary, len(recs))
	for i, b := range recs {
		summaries[i] = b.Summarize()
	}

	writeJSON(w, http.StatusOK, recommendationResponse{
		Book: bookDetail{
			Summary:     book.Summarize(),
			Description: book.Description,
		},
		Strategy:        string(strategy),
		Recommendations: summaries,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Snapshot().Catalog().Categories())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "q is required"})
		return
	}
	limit := queryInt(r, "limit", 20)
	if limit < 1 || limit > 200 {
		writeError(w, http.StatusBadRequest, errorResponse{Error: "limit must be in [1,200]"})
		return
	}

	matched := s.engine.Snapshot().Catalog().Search(q, limit)
	summaries := make([]models.Summary, 0, len(matched))
	for _, b := range matched {
		summaries = append(summaries, b.Summarize())
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeError(w, http.StatusServiceUnavailable, errorResponse{Error: "retrain is not configured"})
		return
	}

	rows, err := s.loader()
	if err != nil {
		slog.Error("retrain: failed to load rows", "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	snap, err := s.engine.Retrain(rows)
	if err != nil {
		slog.Error("retrain failed", "error", err)
		writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	retrainsTotal.Inc()
	catalogBooks.Set(float64(snap.Catalog().Len()))

	writeJSON(w, http.StatusOK, map[string]any{
		"books":    snap.Catalog().Len(),
		"built_at": snap.BuiltAt(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"books":  s.engine.Snapshot().Catalog().Len(),
	})
}

func writeNotFound(w http.ResponseWriter, err error) {
	var nf *catalog.NotFoundError
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, errorResponse{
			Error:   nf.Error(),
			Hint:    nf.Hint(),
			Samples: nf.SampleSlugs,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1 // forces the handler's range validation to reject
	}
	return n
}
