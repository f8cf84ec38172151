package api

import (
	"log/slog"
	"net/http"

	"research-rag/internal/agent"
	"research-rag/internal/config"
	"research-rag/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API surface over the agent
type Server struct {
	router chi.Router
	agent  *agent.Agent
	store  store.Store
	log    *slog.Logger
	cfg    *config.Config
}

// NewServer creates and configures the HTTP server
func NewServer(ag *agent.Agent, st store.Store, log *slog.Logger, cfg *config.Config) *Server {
	s := &Server{
		agent: ag,
		store: st,
		log:   log,
		cfg:   cfg,
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

	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey))
		}

		r.Post("/api/documents", s.handleUpload)
		r.Delete("/api/documents/{filename}", s.handleDeleteDocument)
		r.Post("/api/ask", s.handleAsk)
		r.Get("/api/stats", s.handleStats)
		r.Post("/api/clear", s.handleClear)
	})

	s.router = r
}
