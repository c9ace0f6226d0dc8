package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunStatus reports on the batch run executed by this process.
type RunStatus interface {
	// CheckReadiness returns nil once a run has completed successfully.
	CheckReadiness(ctx context.Context) error
	// LastReport returns the outcome of the most recent run, or nil before
	// the first run finishes.
	LastReport() any
}

// Server is the ops endpoint of a batch run. It lives only as long as the
// run, so long backfills can be probed and scraped while they work.
type Server struct {
	srv     *http.Server
	status  RunStatus
	started time.Time
	logger  *slog.Logger
}

// NewServer creates the ops server. Routes:
//
//	GET /healthz  process is up
//	GET /readyz   a run has completed successfully
//	GET /status   report of the last run (202 while none has finished)
//	GET /metrics  Prometheus exposition from gatherer
func NewServer(addr string, status RunStatus, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		status:  status,
		started: time.Now(),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /readyz", s.ready)
	mux.HandleFunc("GET /status", s.lastRun)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError)}))

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start listens on the configured address and serves until Shutdown.
// Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("ops server listening", "addr", ln.Addr().String())
	return s.srv.Serve(ln)
}

// Shutdown drains connections within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.srv.Handler.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"uptime": time.Since(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.status.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) lastRun(w http.ResponseWriter, _ *http.Request) {
	report := s.status.LastReport()
	if report == nil {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "running"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may be gone
}
