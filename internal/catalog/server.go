package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body of a failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// listItem is the summary returned by GET /schemas
type listItem struct {
	Name        string    `json:"name"`
	Class       string    `json:"class"`
	ID          string    `json:"id"`
	Diagnostics int       `json:"diagnostics"`
	CompiledAt  time.Time `json:"compiledAt"`
}

// Server exposes a catalog store over a read-only HTTP API
type Server struct {
	store  Store
	logger *zap.Logger
	mux    chi.Router
}

// NewServer creates the API for store
func NewServer(store Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:  store,
		logger: logger,
		mux:    chi.NewRouter(),
	}

	s.mux.Use(s.recoverer, s.requestLogger)
	s.mux.Get("/healthz", s.handleHealth)
	s.mux.Route("/schemas", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{name}", s.handleGet)
	})
	return s
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("catalog api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down catalog api")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}

	items := make([]listItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, listItem{
			Name:        e.Name,
			Class:       e.Class,
			ID:          e.ID.String(),
			Diagnostics: len(e.Diagnostics),
			CompiledAt:  e.CompiledAt,
		})
	}
	renderJSON(w, http.StatusOK, items)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, err := s.store.Get(r.Context(), name)
	if errors.Is(err, ErrNotFound) {
		s.renderError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.renderError(w, http.StatusInternalServerError, err)
		return
	}
	renderJSON(w, http.StatusOK, e)
}

func (s *Server) renderError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("catalog request failed", zap.Error(err))
	}
	code := "internal_error"
	if status == http.StatusNotFound {
		code = "not_found"
	}
	renderJSON(w, status, &ErrorResponse{
		Error:   "error",
		Message: err.Error(),
		Code:    code,
	})
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.logger.Error("panic serving request", zap.Any("panic", v), zap.String("path", r.URL.Path))
				s.renderError(w, http.StatusInternalServerError, errors.New("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
