// Package api implements the HTTP boundary: request validation, the
// response envelope, and the operational endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voyant-search/voyant/internal/agent"
	"github.com/voyant-search/voyant/internal/buildinfo"
	"github.com/voyant-search/voyant/internal/events"
	"github.com/voyant-search/voyant/internal/history"
	"github.com/voyant-search/voyant/internal/llm"
)

// Resolver runs one query resolution. Implemented by *agent.Loop;
// tests substitute fakes.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*agent.Resolution, error)
}

// healthProbeTimeout bounds the Ollama reachability check.
const healthProbeTimeout = 10 * time.Second

// Server is the HTTP API server.
type Server struct {
	address   string
	port      int
	resolver  Resolver
	llm       llm.Client
	ollamaURL string
	history   *history.Store
	bus       *events.Bus
	logger    *slog.Logger
	server    *http.Server
}

// NewServer creates the API server. history and bus may be nil; the
// corresponding endpoints then report empty data.
func NewServer(address string, port int, resolver Resolver, client llm.Client, ollamaURL string, hist *history.Store, bus *events.Bus, logger *slog.Logger) *Server {
	return &Server{
		address:   address,
		port:      port,
		resolver:  resolver,
		llm:       client,
		ollamaURL: ollamaURL,
		history:   hist,
		bus:       bus,
		logger:    logger,
	}
}

// Handler builds the route mux. Exposed so tests can drive the server
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.withLogging(mux)
}

// Start begins serving HTTP requests. It blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // resolutions can take minutes on slow models
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]string{"error": message}, s.logger)
}

// searchRequest keeps query raw so validation can distinguish a missing
// field from a non-string value.
type searchRequest struct {
	Query json.RawMessage `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Query is required and must be a string")
		return
	}

	var query string
	if req.Query == nil || json.Unmarshal(req.Query, &query) != nil || query == "" {
		s.errorResponse(w, http.StatusBadRequest, "Query is required and must be a string")
		return
	}

	res, err := s.resolver.Resolve(r.Context(), query)
	if err != nil {
		// Full detail stays server-side; the client gets an opaque envelope.
		s.logger.Error("resolution failed", "query", query, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Failed to perform search")
		return
	}

	if s.history != nil {
		s.history.Add(history.Entry{
			ID:          uuid.New().String(),
			Query:       res.Query,
			Summary:     res.AISummary,
			ResultCount: len(res.SearchResults),
			At:          time.Now().UTC(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, res, s.logger)
}

// ollamaHealth is the backend portion of the health envelope.
type ollamaHealth struct {
	Status string   `json:"status"`
	URL    string   `json:"url,omitempty"`
	Models []string `json:"models,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// healthResponse is the health envelope.
type healthResponse struct {
	Status    string       `json:"status"`
	Ollama    ollamaHealth `json:"ollama"`
	Timestamp string       `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	timestamp := time.Now().UTC().Format(time.RFC3339)
	models, err := s.llm.ListModels(ctx)

	w.Header().Set("Content-Type", "application/json")

	switch {
	case err == nil:
		if models == nil {
			models = []string{}
		}
		writeJSON(w, healthResponse{
			Status:    "healthy",
			Ollama:    ollamaHealth{Status: "connected", URL: s.ollamaURL, Models: models},
			Timestamp: timestamp,
		}, s.logger)

	case errors.Is(err, llm.ErrStatus):
		// Reachable but unhappy: still a healthy service, degraded backend.
		writeJSON(w, healthResponse{
			Status:    "healthy",
			Ollama:    ollamaHealth{Status: "disconnected", URL: s.ollamaURL, Models: []string{}},
			Timestamp: timestamp,
		}, s.logger)

	default:
		s.logger.Warn("health probe failed", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, healthResponse{
			Status:    "unhealthy",
			Ollama:    ollamaHealth{Status: "error", Error: err.Error()},
			Timestamp: timestamp,
		}, s.logger)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "Voyant",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries := []history.Entry{}
	if s.history != nil {
		entries = s.history.Recent(limit)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"entries": entries,
		"count":   len(entries),
	}, s.logger)
}
