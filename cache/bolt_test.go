package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// setupBoltStore creates a temporary bolt store for testing
func setupBoltStore(t *testing.T, compression bool) (*BoltStore, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_cache.db")

	store, err := NewBoltStore(dbPath, compression)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, dbPath
}

func TestBoltStore_SetAndGet(t *testing.T) {
	store, _ := setupBoltStore(t, false)
	ctx := context.Background()

	if err := store.Set(ctx, "test_key", "test_value", 0); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	got, ok := store.Get(ctx, "test_key")
	if !ok {
		t.Fatal("Expected value to exist")
	}
	if got != "test_value" {
		t.Errorf("Expected %q, got %q", "test_value", got)
	}
}

func TestBoltStore_GetMissing(t *testing.T) {
	store, _ := setupBoltStore(t, false)

	if _, ok := store.Get(context.Background(), "nonexistent"); ok {
		t.Error("Expected miss for nonexistent key")
	}
}

func TestBoltStore_TTLExpiry(t *testing.T) {
	store, _ := setupBoltStore(t, false)
	ctx := context.Background()

	if err := store.Set(ctx, "short_lived", "value", time.Second); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	if _, ok := store.Get(ctx, "short_lived"); !ok {
		t.Fatal("Expected value to exist before expiry")
	}

	// Expiry granularity is one second
	time.Sleep(1100 * time.Millisecond)

	if _, ok := store.Get(ctx, "short_lived"); ok {
		t.Error("Expected value to be expired")
	}
}

func TestBoltStore_Delete(t *testing.T) {
	store, _ := setupBoltStore(t, false)
	ctx := context.Background()

	if err := store.Set(ctx, "doomed", "value", 0); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}
	if err := store.Delete(ctx, "doomed"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, ok := store.Get(ctx, "doomed"); ok {
		t.Error("Expected key to be deleted")
	}
}

func TestBoltStore_DeleteMatching(t *testing.T) {
	store, _ := setupBoltStore(t, false)
	ctx := context.Background()

	entries := map[string]string{
		"playlists:user:alice": "a",
		"profile:user:alice":   "b",
		"playlists:user:bob":   "c",
		"search:hello":         "d",
	}
	for k, v := range entries {
		if err := store.Set(ctx, k, v, 0); err != nil {
			t.Fatalf("Failed to set %s: %v", k, err)
		}
	}

	deleted, err := store.DeleteMatching(ctx, "*:user:alice")
	if err != nil {
		t.Fatalf("DeleteMatching failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deletions, got %d", deleted)
	}

	if _, ok := store.Get(ctx, "playlists:user:alice"); ok {
		t.Error("Expected alice's playlists entry to be deleted")
	}
	if _, ok := store.Get(ctx, "profile:user:alice"); ok {
		t.Error("Expected alice's profile entry to be deleted")
	}
	if _, ok := store.Get(ctx, "playlists:user:bob"); !ok {
		t.Error("Expected bob's entry to survive")
	}
	if _, ok := store.Get(ctx, "search:hello"); !ok {
		t.Error("Expected search entry to survive")
	}
}

func TestBoltStore_Compression(t *testing.T) {
	store, _ := setupBoltStore(t, true)
	ctx := context.Background()

	value := `{"tracks":[{"name":"Hello","artist":"Adele"}]}`
	if err := store.Set(ctx, "search:hello", value, 0); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}

	got, ok := store.Get(ctx, "search:hello")
	if !ok {
		t.Fatal("Expected value to exist")
	}
	if got != value {
		t.Errorf("Expected round-tripped value %q, got %q", value, got)
	}
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "cache.db")
	ctx := context.Background()

	store, err := NewBoltStore(dbPath, false)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Set(ctx, "durable", "value", time.Hour); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	reopened, err := NewBoltStore(dbPath, false)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get(ctx, "durable")
	if !ok {
		t.Fatal("Expected value to survive reopen")
	}
	if got != "value" {
		t.Errorf("Expected %q, got %q", "value", got)
	}
}

func TestBoltStore_ExpiredNotLoadedOnReopen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "cache.db")
	ctx := context.Background()

	store, err := NewBoltStore(dbPath, false)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Set(ctx, "stale", "value", time.Second); err != nil {
		t.Fatalf("Failed to set value: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Failed to close store: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	reopened, err := NewBoltStore(dbPath, false)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	if _, ok := reopened.Get(ctx, "stale"); ok {
		t.Error("Expected expired entry to be skipped on reopen")
	}
}
