// Package api implements the HTTP API: video processing, model
// queries, comparisons, and chat history.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vidsage/vidsage/internal/llm"
	"github.com/vidsage/vidsage/internal/orchestrator"
	"github.com/vidsage/vidsage/internal/pipeline"
	"github.com/vidsage/vidsage/internal/store"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// errorResponse is the envelope for every failed request.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string, logger *slog.Logger) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg}, logger)
}

// Server is the HTTP API server.
type Server struct {
	listen   string
	pipeline *pipeline.Service
	orch     *orchestrator.Orchestrator
	catalog  *llm.Catalog
	store    *store.Store
	limiter  *clientLimiter
	logger   *slog.Logger
	server   *http.Server
}

// NewServer creates a new API server. rateLimit and rateWindow bound
// per-client request rates; a zero rateLimit disables limiting.
func NewServer(listen string, p *pipeline.Service, o *orchestrator.Orchestrator, c *llm.Catalog, st *store.Store, rateLimit int, rateWindow time.Duration, logger *slog.Logger) *Server {
	var limiter *clientLimiter
	if rateLimit > 0 {
		limiter = newClientLimiter(rateLimit, rateWindow)
	}
	return &Server{
		listen:   listen,
		pipeline: p,
		orch:     o,
		catalog:  c,
		store:    st,
		limiter:  limiter,
		logger:   logger,
	}
}

// Routes builds the request router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/video/process", s.handleProcessVideo).Methods(http.MethodPost)
	r.HandleFunc("/api/ai/query", s.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/api/ai/compare", s.handleCompare).Methods(http.MethodPost)
	r.HandleFunc("/api/ai/models", s.handleModels).Methods(http.MethodGet)
	r.HandleFunc("/api/chat/history/{session}", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	var handler http.Handler = r
	if s.limiter != nil {
		handler = s.limiter.middleware(handler, s.logger)
	}
	return s.withLogging(handler)
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.listen,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	s.logger.Info("starting API server", "listen", s.listen)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
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
