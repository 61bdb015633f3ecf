// Package server exposes the administrative HTTP surface over a CE
// store: sentence submission, concept/instance browsing, card listing
// for peer agents, reset, and a WebSocket feed of accepted sentences.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nerica/cen/agent"
	"github.com/nerica/cen/am"
	"github.com/nerica/cen/ce"
	"github.com/nerica/cen/journal"
	"github.com/nerica/cen/logger"
)

// Server serves the admin API for one store.
type Server struct {
	store   *ce.Store
	agent   *agent.Agent     // optional: enables /cards delivery semantics
	journal *journal.Journal // optional: persists accepted sentences
	config  am.ServerConfig
	log     *zap.SugaredLogger

	mu      sync.Mutex
	clients map[*wsClient]bool
}

// Option configures optional server collaborators.
type Option func(*Server)

// WithAgent attaches the card-handling agent.
func WithAgent(a *agent.Agent) Option {
	return func(s *Server) { s.agent = a }
}

// WithJournal attaches a sentence journal; accepted and rejected
// sentences are appended to it.
func WithJournal(j *journal.Journal) Option {
	return func(s *Server) { s.journal = j }
}

// New creates a server over the store.
func New(store *ce.Store, config am.ServerConfig, opts ...Option) *Server {
	s := &Server{
		store:   store,
		config:  config,
		log:     logger.Logger,
		clients: map[*wsClient]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the HTTP mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sentences", s.handleSentences)
	mux.HandleFunc("GET /concepts", s.handleConcepts)
	mux.HandleFunc("GET /concepts/{name}", s.handleConcept)
	mux.HandleFunc("GET /instances", s.handleInstances)
	mux.HandleFunc("GET /cards", s.handleCards)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// ListenAndServe runs the server until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.withCORS(s.Routes()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("admin server listening", "port", s.config.Port, "store", s.store.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// withCORS applies the configured allowed origins: with no configuration
// every origin is allowed, otherwise a matching request origin is echoed
// back and anything else gets no CORS header.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.config.AllowedOrigins) == 0 {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin := r.Header.Get("Origin"); origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		next.ServeHTTP(w, r)
	})
}

// originAllowed checks an Origin header value against the configured
// allow list. An empty list and a "*" entry both allow everything.
func (s *Server) originAllowed(origin string) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
