// Package server exposes coding tasks over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/internal/version"
	"github.com/tognete/codi/pkg/coditypes"
)

const (
	// DefaultAddr is where `codi serve` listens unless told otherwise.
	DefaultAddr = ":8000"

	shutdownTimeout = 10 * time.Second
	maxBodyBytes    = 8 << 20
)

// TaskProcessor runs standalone coding tasks.
type TaskProcessor interface {
	ProcessTask(ctx context.Context, task coditypes.CodingTask) (coditypes.CodeResponse, error)
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server routes task and health requests.
type Server struct {
	tasks TaskProcessor
	mux   *http.ServeMux
	log   *log.Logger
}

// New creates a Server backed by tasks.
func New(tasks TaskProcessor) *Server {
	s := &Server{
		tasks: tasks,
		mux:   http.NewServeMux(),
		log:   logger.NewStyledLogger("Server"),
	}
	s.mux.HandleFunc("POST /task", s.handleTask)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	s.log.Info("Stopped")
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	var task coditypes.CodingTask
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&task); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}

	if _, err := coditypes.ParseTaskType(string(task.TaskType)); err != nil {
		s.log.Warn("Unsupported task", "task_type", task.TaskType)
		writeJSON(w, http.StatusNotImplemented, errorResponse{Detail: err.Error()})
		return
	}

	s.log.Info("Processing task", "task_type", task.TaskType, "files", len(task.Context.Files))
	resp, err := s.tasks.ProcessTask(r.Context(), task)
	switch {
	case errors.Is(err, coditypes.ErrNotImplemented):
		writeJSON(w, http.StatusNotImplemented, errorResponse{Detail: err.Error()})
	case err != nil:
		s.log.Error("Task failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: err.Error()})
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Version: version.Version})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
