package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/tabulist/tabulist/pkg/flags"
	"github.com/tabulist/tabulist/pkg/telemetry"
	"github.com/tabulist/tabulist/pkg/todo"
)

// Server exposes the todo store and user directory over a JSON HTTP API.
type Server struct {
	store *todo.Store
	admin flags.Admin
	tel   *telemetry.Telemetry
	http  *http.Server
}

// New creates a Server listening on addr.
func New(addr string, store *todo.Store, admin flags.Admin, tel *telemetry.Telemetry) *Server {
	s := &Server{
		store: store,
		admin: admin,
		tel:   tel,
	}

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /api/todos", s.instrument("/api/todos", s.handleListAll))
	mux.HandleFunc("PUT /api/todos/{id}", s.instrument("/api/todos/{id}", s.handleUpdate))
	mux.HandleFunc("DELETE /api/todos/{id}", s.instrument("/api/todos/{id}", s.handleDelete))

	mux.HandleFunc("GET /api/users", s.instrument("/api/users", s.handleListUsers))
	mux.HandleFunc("POST /api/users", s.instrument("/api/users", s.handleCreateUser))
	mux.HandleFunc("DELETE /api/users/{id}", s.instrument("/api/users/{id}", s.handleDeleteUser))
	mux.HandleFunc("GET /api/users/{id}/todos", s.instrument("/api/users/{id}/todos", s.handleListForUser))
	mux.HandleFunc("POST /api/users/{id}/todos", s.instrument("/api/users/{id}/todos", s.handleCreate))

	return mux
}

// Start runs the server until ctx is cancelled, then shuts it down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
			return
		}
		errCh <- nil
	}()

	if s.tel != nil {
		s.tel.Logger.WithField("addr", s.http.Addr).Info("API server listening")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return <-errCh
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with request logging, metrics, and tracing.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.tel == nil {
			next(w, r)
			return
		}

		ctx := r.Context()
		if s.tel.Tracer != nil {
			spanCtx, span := s.tel.Tracer.StartRequestSpan(ctx, r.Method, route)
			defer span.End()
			ctx = spanCtx
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := telemetry.NewTimer()

		next(rec, r.WithContext(ctx))

		duration := timer.Duration()
		if s.tel.Metrics != nil {
			s.tel.Metrics.RecordHTTPRequest(r.Method, route, fmt.Sprintf("%d", rec.status), duration)
		}
		s.tel.Logger.WithFields(map[string]interface{}{
			"method":      r.Method,
			"route":       route,
			"status":      rec.status,
			"duration_ms": duration.Milliseconds(),
		}).Debug("Handled request")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.All(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleListForUser(w http.ResponseWriter, r *http.Request) {
	col, err := s.store.ForUser(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, col)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var draft todo.Draft
	if err := decodeJSON(r, &draft); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.store.Create(r.Context(), r.PathValue("id"), draft)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var record todo.ToDo
	if err := decodeJSON(r, &record); err != nil {
		s.writeError(w, err)
		return
	}

	updated, err := s.store.Update(r.Context(), r.PathValue("id"), record)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.Users(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

var validate = validator.New()

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		s.writeError(w, err)
		return
	}

	user, err := s.admin.CreateUser(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.tel != nil && s.tel.Events != nil {
		_ = s.tel.Events.PublishUserCreated(user.ID, user.Name)
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if err := s.admin.DeleteUser(r.Context(), userID); err != nil {
		s.writeError(w, err)
		return
	}

	if s.tel != nil && s.tel.Events != nil {
		_ = s.tel.Events.PublishUserRemoved(userID)
	}
	w.WriteHeader(http.StatusNoContent)
}

// errBadRequest wraps malformed request bodies so writeError can map them.
var errBadRequest = errors.New("bad request")

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var verr validator.ValidationErrors
	switch {
	case errors.Is(err, errBadRequest), errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, todo.ErrUnknownUser), errors.Is(err, todo.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, todo.ErrIDConflict):
		status = http.StatusConflict
	}

	if s.tel != nil && status == http.StatusInternalServerError {
		s.tel.Logger.WithError(err).Error("Request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
