package session

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupStore(t *testing.T, maxAge time.Duration) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	store, err := NewStore(dbPath, maxAge)
	if err != nil {
		t.Fatalf("Failed to create session store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestCreateAndGet(t *testing.T) {
	store := setupStore(t, 30*24*time.Hour)

	expiresAt := time.Now().Add(time.Hour)
	id, err := store.Create("alice", "access-token", "refresh-token", expiresAt)
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if len(id) != 64 {
		t.Errorf("Expected 64-char hex session ID, got %d chars", len(id))
	}

	sess, err := store.Get(id)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if sess.UserID != "alice" {
		t.Errorf("Expected user alice, got %s", sess.UserID)
	}
	if sess.AccessToken != "access-token" {
		t.Errorf("Unexpected access token %s", sess.AccessToken)
	}
	if sess.RefreshToken != "refresh-token" {
		t.Errorf("Unexpected refresh token %s", sess.RefreshToken)
	}
	if !sess.ExpiresAt.Equal(expiresAt) {
		t.Errorf("Expected expiry %v, got %v", expiresAt, sess.ExpiresAt)
	}
}

func TestGetUnknownID(t *testing.T) {
	store := setupStore(t, 0)

	if _, err := store.Get("deadbeef"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateTokens(t *testing.T) {
	store := setupStore(t, 0)

	id, err := store.Create("alice", "old-access", "old-refresh", time.Now())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	newExpiry := time.Now().Add(time.Hour)
	if err := store.UpdateTokens(id, "new-access", "new-refresh", newExpiry); err != nil {
		t.Fatalf("Failed to update tokens: %v", err)
	}

	sess, err := store.Get(id)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if sess.AccessToken != "new-access" {
		t.Errorf("Expected updated access token, got %s", sess.AccessToken)
	}
	if sess.RefreshToken != "new-refresh" {
		t.Errorf("Expected updated refresh token, got %s", sess.RefreshToken)
	}
}

func TestUpdateTokens_KeepsRefreshWhenOmitted(t *testing.T) {
	store := setupStore(t, 0)

	id, err := store.Create("alice", "old-access", "old-refresh", time.Now())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	if err := store.UpdateTokens(id, "new-access", "", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Failed to update tokens: %v", err)
	}

	sess, err := store.Get(id)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if sess.RefreshToken != "old-refresh" {
		t.Errorf("Expected refresh token to be kept, got %s", sess.RefreshToken)
	}
}

func TestDelete(t *testing.T) {
	store := setupStore(t, 0)

	id, err := store.Create("alice", "access", "refresh", time.Now())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if err := store.Delete(id); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := store.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestMaxAgeEviction(t *testing.T) {
	store := setupStore(t, 50*time.Millisecond)

	id, err := store.Create("alice", "access", "refresh", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if _, err := store.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected aged-out session to be gone, got %v", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	store, err := NewStore(dbPath, 0)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	id, err := store.Create("alice", "access", "refresh", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	store.Close()

	reopened, err := NewStore(dbPath, 0)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	sess, err := reopened.Get(id)
	if err != nil {
		t.Fatalf("Expected session to survive reopen: %v", err)
	}
	if sess.UserID != "alice" {
		t.Errorf("Expected user alice, got %s", sess.UserID)
	}
}
