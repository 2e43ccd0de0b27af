package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lensflow/internal/logging"
	"lensflow/internal/photo"
	"lensflow/internal/pipeline"
)

// Options configures a Server.
type Options struct {
	Bind     string
	Store    *photo.Store
	Pipeline *pipeline.Orchestrator
	Logger   *slog.Logger
	Status   func() StatusResponse
}

// Server exposes the collection and pipeline operations over HTTP.
type Server struct {
	bind     string
	store    *photo.Store
	pipeline *pipeline.Orchestrator
	logger   *slog.Logger
	status   func() StatusResponse

	router   *mux.Router
	listener net.Listener
	server   *http.Server
}

// NewServer builds the HTTP server. Returns nil when no bind address is
// configured, so callers can run without the API surface.
func NewServer(opts Options) *Server {
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		return nil
	}

	s := &Server{
		bind:     bind,
		store:    opts.Store,
		pipeline: opts.Pipeline,
		logger:   opts.Logger,
		status:   opts.Status,
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	r := mux.NewRouter()
	r.Use(s.instrument)
	r.HandleFunc("/api/photos", s.handleListPhotos).Methods(http.MethodGet)
	r.HandleFunc("/api/photos", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/api/photos/{id}", s.handleGetPhoto).Methods(http.MethodGet)
	r.HandleFunc("/api/photos/{id}/animate", s.handleAnimate).Methods(http.MethodPost)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router = r

	s.server = &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Router exposes the handler for in-process tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", slog.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
