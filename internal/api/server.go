// Package api implements the platform's HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/icetonges/mything/internal/agent"
	"github.com/icetonges/mything/internal/buildinfo"
	"github.com/icetonges/mything/internal/store"
	"github.com/icetonges/mything/internal/summarizer"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response,
// which is not actionable but worth tracking for debugging.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address      string
	port         int
	runner       *agent.Runner
	store        *store.Store
	summarizer   *summarizer.Summarizer
	scraperToken string
	logger       *slog.Logger
	server       *http.Server

	// Tech-pulse digest cache. One model call covers the whole digest,
	// so the result is held for pulseTTL rather than regenerated per
	// request.
	pulseMu sync.Mutex
	pulse   *TechPulseResponse
	pulseAt time.Time
}

// NewServer creates a new API server.
func NewServer(address string, port int, runner *agent.Runner, st *store.Store, sum *summarizer.Summarizer, scraperToken string, logger *slog.Logger) *Server {
	return &Server{
		address:      address,
		port:         port,
		runner:       runner,
		store:        st,
		summarizer:   sum,
		scraperToken: scraperToken,
		logger:       logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.withLogging(s.routes()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // model exchanges can be slow
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Agent chat
	mux.HandleFunc("POST /api/chat", s.handleChat)

	// Daily notes
	mux.HandleFunc("POST /api/notes", s.handleNoteCreate)
	mux.HandleFunc("GET /api/notes", s.handleNoteList)
	mux.HandleFunc("GET /api/notes/{id}", s.handleNoteGet)
	mux.HandleFunc("PUT /api/notes/{id}", s.handleNoteUpdate)
	mux.HandleFunc("DELETE /api/notes/{id}", s.handleNoteDelete)

	// Tech news feed
	mux.HandleFunc("GET /api/tech-trends", s.handleTechTrends)
	mux.HandleFunc("POST /api/tech-trends/ingest", s.handleIngest)
	mux.HandleFunc("GET /api/tech-pulse/summary", s.handleTechPulse)

	// Contact form
	mux.HandleFunc("POST /api/contact", s.handleContact)

	// Admin dashboard
	mux.HandleFunc("GET /api/admin/monitor", s.handleMonitor)

	// Health endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return mux
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

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "MyThing",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{"error": message}, s.logger)
}
