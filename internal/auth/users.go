// Package auth manages user accounts and login sessions: bcrypt-hashed
// passwords in SQLite, random bearer tokens with a 30-day lifetime, and an
// in-memory session cache in front of the database.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"taskmind/internal/logging"
)

// Sentinel errors callers branch on.
var (
	ErrUserExists         = errors.New("username or email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionInvalid     = errors.New("session invalid or expired")
)

// DefaultSessionTTL is the session lifetime.
const DefaultSessionTTL = 30 * 24 * time.Hour

// User is one registered account. The password hash never leaves the package.
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// Session is an authenticated login.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager owns the users and sessions tables. Safe for concurrent use.
type Manager struct {
	db     *sql.DB
	mu     sync.RWMutex
	cache  map[string]*Session
	ttl    time.Duration
	dbPath string

	now func() time.Time
}

// NewManager opens (creating if needed) the user database at the given path.
func NewManager(path string) (*Manager, error) {
	timer := logging.StartTimer(logging.CategoryAuth, "NewManager")
	defer timer.Stop()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open user database: %w", err)
	}

	m := &Manager{
		db:     db,
		cache:  make(map[string]*Session),
		ttl:    DefaultSessionTTL,
		dbPath: path,
		now:    time.Now,
	}
	if err := m.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Auth("User database opened at %s", path)
	return m, nil
}

// SetSessionTTL overrides the lifetime used for new sessions.
func (m *Manager) SetSessionTTL(ttl time.Duration) {
	if ttl > 0 {
		m.ttl = ttl
	}
}

func (m *Manager) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_login TIMESTAMP,
		is_active BOOLEAN DEFAULT 1
	);
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id)
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	`
	if _, err := m.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create auth tables: %w", err)
	}
	return nil
}

// Close closes the database.
func (m *Manager) Close() error {
	return m.db.Close()
}

// Register creates a new account. The password is bcrypt-hashed before it
// touches the database.
func (m *Manager) Register(ctx context.Context, username, email, password string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, fmt.Errorf("username and email are required")
	}
	if len(password) < 4 {
		return nil, fmt.Errorf("password too short")
	}

	var existing int64
	err := m.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username = ? OR email = ?", username, email).Scan(&existing)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	createdAt := m.now().UTC()
	res, err := m.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		username, email, string(hash), createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	logging.Auth("Registered user %d (%s)", id, username)
	return &User{
		ID:        id,
		Username:  username,
		Email:     email,
		CreatedAt: createdAt,
		IsActive:  true,
	}, nil
}

// Login verifies credentials and creates a session. The identifier may be a
// username or an email address. Unknown accounts and wrong passwords both
// yield ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, identifier, password string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		userID   int64
		username string
		email    string
		hash     string
	)
	err := m.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash FROM users WHERE (username = ? OR email = ?) AND is_active = 1",
		identifier, identifier).Scan(&userID, &username, &email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		logging.Auth("Failed login attempt for user %d", userID)
		return nil, ErrInvalidCredentials
	}

	nowTime := m.now().UTC()
	if _, err := m.db.ExecContext(ctx,
		"UPDATE users SET last_login = ? WHERE id = ?", nowTime, userID); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	session := &Session{
		Token:     newSessionToken(),
		UserID:    userID,
		Username:  username,
		Email:     email,
		ExpiresAt: nowTime.Add(m.ttl),
	}
	if _, err := m.db.ExecContext(ctx,
		"INSERT INTO sessions (session_id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)",
		session.Token, userID, nowTime, session.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.cache[session.Token] = session

	logging.Auth("User %d logged in, session expires %s", userID, session.ExpiresAt.Format(time.RFC3339))
	return session, nil
}

// Logout invalidates a session. Unknown tokens are not an error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cache, token)
	if _, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SessionUser resolves a token to its session, consulting the in-memory
// cache before the database. Expired sessions yield ErrSessionInvalid.
func (m *Manager) SessionUser(ctx context.Context, token string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cached, ok := m.cache[token]; ok {
		if cached.ExpiresAt.After(m.now()) {
			return cached, nil
		}
		delete(m.cache, token)
	}

	var session Session
	err := m.db.QueryRowContext(ctx, `
		SELECT s.session_id, s.user_id, u.username, u.email, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.session_id = ?`,
		token).Scan(&session.Token, &session.UserID, &session.Username, &session.Email, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}

	if !session.ExpiresAt.After(m.now()) {
		return nil, ErrSessionInvalid
	}

	m.cache[token] = &session
	return &session, nil
}

// FindUser loads one account by username or email.
func (m *Manager) FindUser(ctx context.Context, identifier string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var userID int64
	err := m.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username = ? OR email = ?",
		identifier, identifier).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return m.getUserLocked(ctx, userID)
}

// GetUser loads one account by id.
func (m *Manager) GetUser(ctx context.Context, userID int64) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getUserLocked(ctx, userID)
}

func (m *Manager) getUserLocked(ctx context.Context, userID int64) (*User, error) {
	var u User
	var lastLogin sql.NullTime
	err := m.db.QueryRowContext(ctx,
		"SELECT id, username, email, created_at, last_login, is_active FROM users WHERE id = ?",
		userID).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &lastLogin, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// DeleteUser removes an account and all of its sessions. The caller is
// responsible for removing the user's tasks.
func (m *Manager) DeleteUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.getUserLocked(ctx, userID); err != nil {
		return err
	}

	if _, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	for token, session := range m.cache {
		if session.UserID == userID {
			delete(m.cache, token)
		}
	}

	logging.Auth("Deleted user %d", userID)
	return nil
}

// UserStats summarizes one account.
type UserStats struct {
	UserID         int64      `json:"user_id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	ActiveSessions int        `json:"active_sessions"`
}

// GetUserStats returns account info plus the open session count.
func (m *Manager) GetUserStats(ctx context.Context, userID int64) (*UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, err := m.getUserLocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	var sessions int
	if err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE user_id = ?", userID).Scan(&sessions); err != nil {
		return nil, fmt.Errorf("failed to count sessions: %w", err)
	}

	return &UserStats{
		UserID:         u.ID,
		Username:       u.Username,
		Email:          u.Email,
		CreatedAt:      u.CreatedAt,
		LastLogin:      u.LastLogin,
		ActiveSessions: sessions,
	}, nil
}

// CleanupExpiredSessions removes sessions past their expiry from the
// database and the cache. Returns the number removed from the database.
func (m *Manager) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nowTime := m.now()
	res, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", nowTime.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}

	for token, session := range m.cache {
		if !session.ExpiresAt.After(nowTime) {
			delete(m.cache, token)
		}
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		logging.Auth("Cleaned up %d expired sessions", n)
	}
	return n, nil
}

// newSessionToken returns an unguessable URL-safe token. Two v4 UUIDs give
// 244 bits of entropy.
func newSessionToken() string {
	return uuid.NewString() + uuid.NewString()
}
