// Package control exposes the local HTTP surface used by the CLI to drive
// a running agent. It binds to loopback only.
package control

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vegalabs/syncagent/internal/agent"
	"github.com/vegalabs/syncagent/internal/secrets"
)

// Server is the local control API server.
type Server struct {
	router chi.Router
	agent  *agent.Agent
	store  *secrets.FileStore
	log    *slog.Logger
}

// NewServer creates and configures the control server.
func NewServer(a *agent.Agent, store *secrets.FileStore, log *slog.Logger) *Server {
	s := &Server{
		agent: a,
		store: store,
		log:   log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Get("/api/status", s.handleStatus)
	r.Post("/api/connect", s.handleConnect)
	r.Post("/api/disconnect", s.handleDisconnect)
	r.Post("/api/crawl", s.handleCrawl)

	r.Get("/api/sync", s.handleGetSync)
	r.Put("/api/sync", s.handlePutSync)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
