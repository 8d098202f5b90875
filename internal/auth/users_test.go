package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestRegisterAndLogin(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	user, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.True(t, user.IsActive)

	// Login by username.
	session, err := m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now().Add(29*24*time.Hour)), "session should last ~30 days")

	// Login by email.
	session2, err := m.Login(ctx, "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session2.UserID)
	assert.NotEqual(t, session.Token, session2.Token)
}

func TestRegisterDuplicate(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = m.Register(ctx, "alice", "other@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = m.Register(ctx, "other", "alice@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "  ", "a@example.com", "s3cret")
	assert.Error(t, err)

	_, err = m.Register(ctx, "alice", "a@example.com", "ab")
	assert.Error(t, err, "short passwords rejected")
}

func TestLoginInvalidCredentials(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = m.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Login(ctx, "nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUpdatesLastLogin(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	user, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	before, err := m.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, before.LastLogin)

	_, err = m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	after, err := m.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, after.LastLogin)
}

func TestFindUser(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	user, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	byName, err := m.FindUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	byEmail, err := m.FindUser(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = m.FindUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetSessionTTL(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	m.SetSessionTTL(time.Hour)

	_, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	session, err := m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	assert.True(t, session.ExpiresAt.Before(time.Now().Add(2*time.Hour)))
}

func TestSessionUser(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	session, err := m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	// Cache hit.
	got, err := m.SessionUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	// Database fallback after a cache wipe (fresh process simulation).
	m.mu.Lock()
	m.cache = make(map[string]*Session)
	m.mu.Unlock()

	got, err = m.SessionUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, got.UserID)

	_, err = m.SessionUser(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionExpiry(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	session, err := m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	// Jump past the expiry.
	m.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	_, err = m.SessionUser(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestLogout(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	session, err := m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, session.Token))

	_, err = m.SessionUser(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	// Logging out twice is fine.
	assert.NoError(t, m.Logout(ctx, session.Token))
}

func TestDeleteUser(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	user, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	session, err := m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	require.NoError(t, m.DeleteUser(ctx, user.ID))

	_, err = m.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = m.SessionUser(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	_, err = m.Login(ctx, "alice", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, m.DeleteUser(ctx, user.ID), ErrUserNotFound)
}

func TestGetUserStats(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	user, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := m.Login(ctx, "alice", "s3cret")
		require.NoError(t, err)
	}

	stats, err := m.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stats.Username)
	assert.Equal(t, 3, stats.ActiveSessions)

	_, err = m.GetUserStats(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCleanupExpiredSessions(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.Register(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	_, err = m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	keep, err := m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	// Make the first session look expired by shortening the TTL for a new
	// login, then advancing the clock past it but not past the others.
	m.ttl = time.Minute
	short, err := m.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(time.Hour) }

	n, err := m.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = m.SessionUser(ctx, short.Token)
	assert.ErrorIs(t, err, ErrSessionInvalid)
	_, err = m.SessionUser(ctx, keep.Token)
	assert.NoError(t, err)
}
