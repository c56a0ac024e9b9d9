package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aretw0/tiptoe"
	"github.com/aretw0/tiptoe/internal/logging"
	"github.com/aretw0/tiptoe/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves a read-only admin API over the latest published snapshot.
type Server struct {
	Source   ports.SnapshotSource
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Option configures the admin Server.
type Option func(*Server)

// WithGatherer exposes the given metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithLogger configures the logger for request errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates the admin router.
func NewHandler(source ports.SnapshotSource, opts ...Option) http.Handler {
	s := &Server{
		Source: source,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/state", s.GetState)
	r.Get("/peers", s.GetPeers)
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "tiptoe",
		"version": tiptoe.Version,
	})
}

// GetState handles GET /state with the full snapshot.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	snap := s.Source.Snapshot()
	if snap == nil {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// GetPeers handles GET /peers.
func (s *Server) GetPeers(w http.ResponseWriter, r *http.Request) {
	snap := s.Source.Snapshot()
	if snap == nil {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return
	}
	s.writeJSON(w, http.StatusOK, snap.Peers)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("encode response failed", "err", err)
	}
}
