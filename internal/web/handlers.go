package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"taskmind/internal/auth"
	"taskmind/internal/logging"
	"taskmind/internal/memory"
)

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Web("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

type userView struct {
	ID       int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func viewSession(s *auth.Session) userView {
	return userView{ID: s.UserID, Username: s.Username, Email: s.Email}
}

// taskView is the wire shape of a task, with the due-date urgency
// pre-computed for the frontend.
type taskView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	DueDate     string   `json:"due_date,omitempty"`
	DueStatus   string   `json:"due_status"`
	Completed   bool     `json:"completed"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Similarity  float64  `json:"similarity_score,omitempty"`
}

func (s *Server) viewTask(t *memory.Task) taskView {
	view := taskView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		Tags:        t.Tags,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
	view.DueStatus = s.dueStatus(t)
	return view
}

func (s *Server) dueStatus(t *memory.Task) string {
	if t.DueDate == "" {
		return "no_due_date"
	}
	due, err := time.Parse("2006-01-02", t.DueDate)
	if err != nil {
		return "invalid"
	}
	if t.Completed {
		return "completed"
	}
	today, _ := time.Parse("2006-01-02", s.now().Format("2006-01-02"))
	days := int(due.Sub(today).Hours() / 24)
	switch {
	case days < 0:
		return "overdue"
	case days == 0:
		return "today"
	case days <= 3:
		return "soon"
	default:
		return "upcoming"
	}
}

// =============================================================================
// HEALTH
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "taskmind",
		"version":   serviceVersion,
		"timestamp": s.now().Format(time.RFC3339),
	})
}

// =============================================================================
// AUTH
// =============================================================================

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email, and password are required")
		return
	}

	if _, err := s.users.Register(r.Context(), body.Username, body.Email, body.Password); err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, auth.ErrUserExists) {
			logging.Web("register failed: %v", err)
		}
		writeError(w, status, err.Error())
		return
	}

	// Log the user in right away so the client gets a session token.
	session, err := s.users.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "User registered successfully. Please log in.",
		})
		return
	}

	setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"user":       viewSession(session),
		"session_id": session.Token,
		"message":    "User registered and logged in successfully",
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Username == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	session, err := s.users.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"user":       viewSession(session),
		"session_id": session.Token,
		"message":    "Login successful",
	})
}

func setSessionCookie(w http.ResponseWriter, session *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:    "session_id",
		Value:   session.Token,
		Path:    "/",
		Expires: session.ExpiresAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	if err := s.users.Logout(r.Context(), session.Token); err != nil {
		writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    viewSession(session),
	})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"valid":   false,
		})
		return
	}
	session, err := s.users.SessionUser(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"valid":   false,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"valid":   true,
		"user":    viewSession(session),
	})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	if _, err := s.store.DeleteAll(r.Context(), storeUserID(session)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete tasks")
		return
	}
	if err := s.users.DeleteUser(r.Context(), session.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete account")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "session_id", Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Account deleted successfully",
	})
}

// =============================================================================
// TASKS
// =============================================================================

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	q := r.URL.Query()
	filter := memory.Filter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Tag:      q.Get("tag"),
	}
	tasks, err := s.store.List(r.Context(), storeUserID(session), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]taskView, len(tasks))
	for i := range tasks {
		views[i] = s.viewTask(&tasks[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tasks":   views,
		"total":   len(views),
	})
}

type taskBody struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Priority    *string  `json:"priority"`
	Status      *string  `json:"status"`
	Tags        []string `json:"tags"`
	DueDate     *string  `json:"due_date"`
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	var body taskBody
	if !decodeBody(w, r, &body) {
		return
	}

	title := ""
	if body.Title != nil {
		title = strings.TrimSpace(*body.Title)
	}
	if title == "" {
		writeError(w, http.StatusBadRequest, "Task title is required")
		return
	}

	task := &memory.Task{
		UserID: storeUserID(session),
		Title:  title,
		Tags:   body.Tags,
	}
	if body.Description != nil {
		task.Description = strings.TrimSpace(*body.Description)
	}
	if body.Priority != nil {
		task.Priority = *body.Priority
	}
	if body.DueDate != nil {
		task.DueDate = *body.DueDate
	}

	if err := s.store.Add(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.viewTask(task))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	var body taskBody
	if !decodeBody(w, r, &body) {
		return
	}

	userID := storeUserID(session)
	task, err := s.store.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if body.Title != nil {
		task.Title = strings.TrimSpace(*body.Title)
	}
	if body.Description != nil {
		task.Description = strings.TrimSpace(*body.Description)
	}
	if body.Priority != nil {
		task.Priority = *body.Priority
	}
	if body.Status != nil {
		task.Status = *body.Status
	}
	if body.Tags != nil {
		task.Tags = body.Tags
	}
	if body.DueDate != nil {
		task.DueDate = *body.DueDate
	}

	if err := s.store.Update(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.viewTask(task))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	err := s.store.Delete(r.Context(), storeUserID(session), r.PathValue("id"))
	if errors.Is(err, memory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Task deleted successfully",
	})
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	userID := storeUserID(session)
	task, err := s.store.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil || task.Completed {
		writeError(w, http.StatusNotFound, "Task not found or already completed")
		return
	}
	if _, err := s.store.UpdateField(r.Context(), userID, task.ID, "status", memory.StatusCompleted); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Task completed successfully",
	})
}

// =============================================================================
// SEARCH / STATS / SUGGESTIONS
// =============================================================================

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	results, err := s.store.Search(r.Context(), storeUserID(session), query, 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	views := make([]taskView, len(results))
	for i := range results {
		views[i] = s.viewTask(&results[i].Task)
		views[i].Similarity = results[i].Similarity
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"results": views,
		"query":   query,
		"total":   len(views),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	stats, err := s.store.Statistics(r.Context(), storeUserID(session))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request, session *auth.Session) {
	tasks, err := s.store.List(r.Context(), storeUserID(session), memory.Filter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	suggestions, err := s.suggester.Suggest(r.Context(), tasks, 5)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"suggestions": suggestions,
	})
}
