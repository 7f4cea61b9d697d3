// Package server exposes the query API over HTTP along with a small
// embedded web UI, health checking, and Prometheus metrics.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	derrors "github.com/Aman-CERP/docdex/internal/errors"
	"github.com/Aman-CERP/docdex/internal/model"
)

//go:embed assets
var assets embed.FS

// maxQueryBytes bounds the request body read for a search query.
const maxQueryBytes = 1 << 16

// Server handles search requests against a storage backend.
type Server struct {
	backend    model.Model
	analyzer   *model.Analyzer
	maxResults int
	cache      *expirable.LRU[string, []model.Result]
}

// New creates a Server querying backend. maxResults caps the ranked
// results per response. A positive cacheTTL enables an expiring response
// cache of cacheSize entries.
func New(backend model.Model, analyzer *model.Analyzer, maxResults int, cacheSize int, cacheTTL time.Duration) *Server {
	s := &Server{
		backend:    backend,
		analyzer:   analyzer,
		maxResults: maxResults,
	}
	if cacheTTL > 0 && cacheSize > 0 {
		s.cache = expirable.NewLRU[string, []model.Result](cacheSize, nil, cacheTTL)
	}
	return s
}

// Handler builds the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Post("/api/search", s.handleSearch)
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/", s.serveAsset("assets/index.html", "text/html; charset=utf-8"))
	r.Get("/index.html", s.serveAsset("assets/index.html", "text/html; charset=utf-8"))
	r.Get("/index.js", s.serveAsset("assets/index.js", "text/javascript; charset=utf-8"))

	return r
}

// resultTuple renders a result as a [path, score] JSON pair.
type resultTuple model.Result

func (t resultTuple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.Path, t.Score})
}

// handleSearch ranks the corpus against the raw query text in the
// request body and responds with a JSON array of [path, score] tuples,
// highest score first.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxQueryBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "query body exceeds the size limit", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}
	if !utf8.Valid(body) {
		qerr := derrors.QueryError("query body must be valid UTF-8", nil)
		slog.Warn("query_rejected", slog.String("code", derrors.GetCode(qerr)))
		http.Error(w, qerr.Message, http.StatusBadRequest)
		return
	}
	query := string(body)

	results, cached := s.lookupCache(query)
	if cached {
		queryCacheHits.Inc()
	} else {
		results, err = s.backend.SearchQuery(r.Context(), s.analyzer.Terms(query))
		if err != nil {
			slog.Error("search_failed",
				slog.String("query", query), slog.String("error", err.Error()))
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}
		s.storeCache(query, results)
	}

	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}

	tuples := make([]resultTuple, len(results))
	for i, res := range results {
		tuples[i] = resultTuple(res)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tuples); err != nil {
		slog.Warn("response_write_failed", slog.String("error", err.Error()))
	}
}

func (s *Server) lookupCache(query string) ([]model.Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(query)
}

func (s *Server) storeCache(query string, results []model.Result) {
	if s.cache != nil {
		s.cache.Add(query, results)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) serveAsset(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		data, err := assets.ReadFile(name)
		if err != nil {
			http.Error(w, "asset not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(data)
	}
}
