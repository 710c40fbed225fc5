// Package server exposes the translation handler and the history store over
// HTTP, together with health and Prometheus endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"codeberg.org/snonux/jembatan/internal/handler"
	"codeberg.org/snonux/jembatan/internal/history"
)

const (
	maxBodyBytes    = 64 << 10
	defaultListSize = 50
	shutdownTimeout = 10 * time.Second
)

// HistoryStore lists and deletes saved translations
type HistoryStore interface {
	List(ctx context.Context, userID string, limit int) ([]*history.Entry, error)
	Delete(ctx context.Context, userID, id string) error
}

// HTTPServer serves the JSON API
type HTTPServer struct {
	handler *handler.Handler
	history HistoryStore
	logger  *logrus.Logger
	port    int
}

// NewHTTPServer creates a new HTTP server. history may be nil, in which case
// the history endpoints answer 503.
func NewHTTPServer(h *handler.Handler, history HistoryStore, logger *logrus.Logger, port int) *HTTPServer {
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPServer{
		handler: h,
		history: history,
		logger:  logger,
		port:    port,
	}
}

// Handler returns the routed HTTP handler
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/translate", s.handleTranslate)
	mux.HandleFunc("GET /api/v1/history", s.handleHistoryList)
	mux.HandleFunc("DELETE /api/v1/history/{id}", s.handleHistoryDelete)

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	return s.withRequestID(mux)
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *HTTPServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.WithFields(logrus.Fields{
		"port": s.port,
	}).Info("Starting HTTP server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// withRequestID tags every request with an X-Request-ID and logs it
func (s *HTTPServer) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start).String(),
		}).Debug("Handled HTTP request")
	})
}

// handleTranslate runs one translation. Validation failures answer 400,
// exhausted providers 502.
func (s *HTTPServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req handler.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &handler.Response{
			Error: fmt.Sprintf("invalid request body: %v", err),
			Code:  handler.CodeInvalidRequest,
		})
		return
	}

	resp, err := s.handler.Handle(r.Context(), req)
	if err != nil {
		s.logger.WithError(err).Error("Translation handler failed")
		writeJSON(w, http.StatusInternalServerError, &handler.Response{Error: err.Error(), Code: handler.CodeInternal})
		return
	}

	writeJSON(w, resp.HTTPStatus(), resp)
}

func (s *HTTPServer) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is disabled")
		return
	}

	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusUnauthorized, history.MsgLoginRequired)
		return
	}

	limit := defaultListSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}

	entries, err := s.history.List(r.Context(), user, limit)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user).Error("Failed to list history")
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if entries == nil {
		entries = []*history.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":         user,
		"translations": entries,
	})
}

func (s *HTTPServer) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is disabled")
		return
	}

	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusUnauthorized, history.MsgLoginRequired)
		return
	}

	id := r.PathValue("id")
	err := s.history.Delete(r.Context(), user, id)
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		s.logger.WithError(err).WithField("id", id).Error("Failed to delete history entry")
		writeError(w, http.StatusInternalServerError, "failed to delete history entry")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleHealth provides a health check endpoint
func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
