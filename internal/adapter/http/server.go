package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/city-distance-service/internal/geodesy"
	"github.com/couchcryptid/city-distance-service/internal/session"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the session API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	sessions   *session.Manager
	algorithm  geodesy.Algorithm
	logger     *slog.Logger
}

// NewServer creates an HTTP server. algorithm is the default for
// /api/v1/distance when the request does not name one.
func NewServer(addr string, sessions *session.Manager, algorithm geodesy.Algorithm, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sessions:  sessions,
		algorithm: algorithm,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(sessions))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/v1/sessions/{id}", s.handleGetSession)
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PUT /api/v1/sessions/{id}/{endpoint}/input", s.handleInput)
	mux.HandleFunc("POST /api/v1/sessions/{id}/{endpoint}/select", s.handleSelect)
	mux.HandleFunc("POST /api/v1/sessions/{id}/{endpoint}/dismiss", s.handleDismiss)
	mux.HandleFunc("POST /api/v1/sessions/{id}/{endpoint}/focus", s.handleFocus)
	mux.HandleFunc("GET /api/v1/distance", s.handleDistance)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, errorResponse{Error: err.Error()})
}
