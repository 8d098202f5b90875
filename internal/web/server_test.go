package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"taskmind/internal/auth"
	"taskmind/internal/memory"
)

func TestMain(m *testing.M) {
	// go.opencensus.io (a transitive dependency of the genai client) starts a
	// stats worker goroutine at package init; it is not a leak from this
	// package.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	store, err := memory.NewStore(filepath.Join(dir, "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	users, err := auth.NewManager(filepath.Join(dir, "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { users.Close() })

	ts := httptest.NewServer(NewServer(store, users, "127.0.0.1:0").Handler())
	t.Cleanup(ts.Close)
	return ts
}

// call sends a JSON request and decodes the JSON response body.
func call(t *testing.T, ts *httptest.Server, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &payload)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// registerUser registers and returns a live session token.
func registerUser(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()
	status, body := call(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusOK, status, "register response: %v", body)
	token, _ := body["session_id"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	status, body := call(t, ts, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "taskmind", body["service"])
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "alice")

	status, body := call(t, ts, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])

	status, body = call(t, ts, http.MethodPost, "/api/auth/validate", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["valid"])

	status, _ = call(t, ts, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, ts, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, ts, http.MethodPost, "/api/auth/validate", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["valid"])
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	status, _ := call(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	registerUser(t, ts, "alice")
	status, _ = call(t, ts, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "s3cret",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginInvalid(t *testing.T) {
	ts := newTestServer(t)
	registerUser(t, ts, "alice")

	status, _ := call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUnauthorized(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/tasks", "/api/search?q=x", "/api/stats", "/api/suggestions"} {
		status, _ := call(t, ts, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
	status, _ := call(t, ts, http.MethodGet, "/api/tasks", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "alice")

	status, created := call(t, ts, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title":    "buy groceries",
		"priority": "high",
		"tags":     []string{"shopping"},
		"due_date": "2099-01-01",
	})
	require.Equal(t, http.StatusCreated, status, "create response: %v", created)
	id := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "upcoming", created["due_status"])
	assert.Equal(t, "pending", created["status"])

	status, listed := call(t, ts, http.MethodGet, "/api/tasks", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, listed["total"])

	status, updated := call(t, ts, http.MethodPut, "/api/tasks/"+id, token, map[string]interface{}{
		"status":      "completed",
		"description": "milk and bread",
	})
	require.Equal(t, http.StatusOK, status, "update response: %v", updated)
	assert.Equal(t, true, updated["completed"])
	assert.Equal(t, "completed", updated["due_status"])
	assert.Equal(t, "milk and bread", updated["description"])

	// Completing an already completed task is a 404, matching lookups of
	// unknown ids.
	status, _ = call(t, ts, http.MethodPost, "/api/tasks/"+id+"/complete", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, ts, http.MethodDelete, "/api/tasks/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, ts, http.MethodDelete, "/api/tasks/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCompleteTask(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "alice")

	_, created := call(t, ts, http.MethodPost, "/api/tasks", token, map[string]string{"title": "chore"})
	id := created["id"].(string)

	status, body := call(t, ts, http.MethodPost, "/api/tasks/"+id+"/complete", token, nil)
	require.Equal(t, http.StatusOK, status, "complete response: %v", body)

	_, listed := call(t, ts, http.MethodGet, "/api/tasks?status=completed", token, nil)
	assert.EqualValues(t, 1, listed["total"])
}

func TestAddTaskRequiresTitle(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "alice")

	status, _ := call(t, ts, http.MethodPost, "/api/tasks", token, map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "alice")

	call(t, ts, http.MethodPost, "/api/tasks", token, map[string]string{"title": "buy groceries"})
	call(t, ts, http.MethodPost, "/api/tasks", token, map[string]string{"title": "write report"})

	status, body := call(t, ts, http.MethodGet, "/api/search?q=groceries", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	results := body["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "buy groceries", first["title"])

	status, _ = call(t, ts, http.MethodGet, "/api/search?q=", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStats(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "alice")

	call(t, ts, http.MethodPost, "/api/tasks", token, map[string]string{"title": "a", "priority": "high"})
	call(t, ts, http.MethodPost, "/api/tasks", token, map[string]string{"title": "b"})

	status, body := call(t, ts, http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusOK, status)
	stats := body["stats"].(map[string]interface{})
	assert.EqualValues(t, 2, stats["total"])
}

func TestSuggestionsOnboarding(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "alice")

	status, body := call(t, ts, http.MethodGet, "/api/suggestions", token, nil)
	require.Equal(t, http.StatusOK, status)
	suggestions := body["suggestions"].([]interface{})
	require.Len(t, suggestions, 3)
	first := suggestions[0].(map[string]interface{})
	assert.Equal(t, "Create your first task", first["title"])
}

func TestDeleteAccount(t *testing.T) {
	ts := newTestServer(t)
	token := registerUser(t, ts, "alice")

	call(t, ts, http.MethodPost, "/api/tasks", token, map[string]string{"title": "chore"})

	status, _ := call(t, ts, http.MethodDelete, "/api/auth/delete-account", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = call(t, ts, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, ts, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "alice",
		"password": "s3cret",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserIsolation(t *testing.T) {
	ts := newTestServer(t)
	alice := registerUser(t, ts, "alice")
	bob := registerUser(t, ts, "bob")

	call(t, ts, http.MethodPost, "/api/tasks", alice, map[string]string{"title": "alice task"})

	_, listed := call(t, ts, http.MethodGet, "/api/tasks", bob, nil)
	assert.EqualValues(t, 0, listed["total"])
}
