// Package web exposes the task system as a JSON HTTP API. All /api/tasks,
// /api/search, /api/stats, and /api/suggestions routes require a session
// token, passed either as a Bearer Authorization header or a session_id
// cookie.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskmind/internal/auth"
	"taskmind/internal/logging"
	"taskmind/internal/memory"
	"taskmind/internal/suggest"
)

const serviceVersion = "1.0.0"

// Server serves the JSON API for one store and one user manager.
type Server struct {
	store     *memory.Store
	users     *auth.Manager
	suggester *suggest.Engine

	httpServer *http.Server
	now        func() time.Time
}

// NewServer wires the API around the given store and user manager.
func NewServer(store *memory.Store, users *auth.Manager, addr string) *Server {
	s := &Server{
		store:     store,
		users:     users,
		suggester: suggest.NewEngine(),
		now:       time.Now,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))
	mux.HandleFunc("POST /api/auth/validate", s.handleValidate)
	mux.HandleFunc("DELETE /api/auth/delete-account", s.requireAuth(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/tasks", s.requireAuth(s.handleListTasks))
	mux.HandleFunc("POST /api/tasks", s.requireAuth(s.handleAddTask))
	mux.HandleFunc("PUT /api/tasks/{id}", s.requireAuth(s.handleUpdateTask))
	mux.HandleFunc("DELETE /api/tasks/{id}", s.requireAuth(s.handleDeleteTask))
	mux.HandleFunc("POST /api/tasks/{id}/complete", s.requireAuth(s.handleCompleteTask))

	mux.HandleFunc("GET /api/search", s.requireAuth(s.handleSearch))
	mux.HandleFunc("GET /api/stats", s.requireAuth(s.handleStats))
	mux.HandleFunc("GET /api/suggestions", s.requireAuth(s.handleSuggestions))

	return logRequests(mux)
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logging.Web("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Web("shutting down")
	return s.httpServer.Shutdown(ctx)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.WebDebug("%s %s (%v)", r.Method, r.URL.Path, time.Since(start))
	})
}

// =============================================================================
// AUTH MIDDLEWARE
// =============================================================================

type authedHandler func(w http.ResponseWriter, r *http.Request, session *auth.Session)

// sessionToken pulls the token from the Authorization header (with or
// without a Bearer prefix) or the session_id cookie.
func sessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := r.Cookie("session_id"); err == nil {
		return cookie.Value
	}
	return ""
}

func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		session, err := s.users.SessionUser(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid session")
			return
		}
		next(w, r, session)
	}
}

// storeUserID is the task-store key for an authenticated user.
func storeUserID(session *auth.Session) string {
	return strconv.FormatInt(session.UserID, 10)
}
