package cache

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"
)

// memStore is a minimal in-memory Store for helper tests.
type memStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *memStore) Get(ctx context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := 0
	for key := range m.data {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.data, key)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) Close() error { return nil }

func TestSearchKey_Normalization(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{"lowercase passthrough", "hello world", "search:hello world"},
		{"mixed case folded", "Hello World", "search:hello world"},
		{"whitespace trimmed", "  hello world  ", "search:hello world"},
		{"interior whitespace kept", "hello   world", "search:hello   world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SearchKey(tt.query); got != tt.expected {
				t.Errorf("SearchKey(%q) = %q, want %q", tt.query, got, tt.expected)
			}
		})
	}
}

func TestKeyBuilders(t *testing.T) {
	if got := PlaylistsKey("alice"); got != "playlists:user:alice" {
		t.Errorf("PlaylistsKey = %q", got)
	}
	if got := PlaylistKey("37i9dQ"); got != "playlist:37i9dQ" {
		t.Errorf("PlaylistKey = %q", got)
	}
	if got := ProfileKey("alice"); got != "profile:user:alice" {
		t.Errorf("ProfileKey = %q", got)
	}
}

func TestHelper_JSONRoundTrip(t *testing.T) {
	store := newMemStore()
	h := NewHelper(store, TTLs{Search: time.Hour})

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	h.SetJSON(context.Background(), "search:test", payload{Name: "test", Count: 3}, time.Hour)

	var got payload
	if !h.GetJSON(context.Background(), "search:test", &got) {
		t.Fatal("Expected cache hit")
	}
	if got.Name != "test" || got.Count != 3 {
		t.Errorf("Unexpected payload: %+v", got)
	}
	if store.ttls["search:test"] != time.Hour {
		t.Errorf("Expected TTL of 1h, got %v", store.ttls["search:test"])
	}
}

func TestHelper_MissOnAbsentKey(t *testing.T) {
	h := NewHelper(newMemStore(), TTLs{})

	var dest map[string]string
	if h.GetJSON(context.Background(), "search:nothing", &dest) {
		t.Error("Expected miss for absent key")
	}
}

func TestHelper_CorruptEntryDropped(t *testing.T) {
	store := newMemStore()
	h := NewHelper(store, TTLs{})

	store.data["search:bad"] = "{not json"

	var dest map[string]string
	if h.GetJSON(context.Background(), "search:bad", &dest) {
		t.Error("Expected miss for corrupt entry")
	}
	if _, ok := store.data["search:bad"]; ok {
		t.Error("Expected corrupt entry to be dropped from the store")
	}
}

func TestHelper_InvalidateOwner(t *testing.T) {
	store := newMemStore()
	h := NewHelper(store, TTLs{})
	ctx := context.Background()

	h.SetJSON(ctx, PlaylistsKey("alice"), []string{"a"}, 0)
	h.SetJSON(ctx, ProfileKey("alice"), map[string]string{"id": "alice"}, 0)
	h.SetJSON(ctx, PlaylistsKey("bob"), []string{"b"}, 0)
	h.SetJSON(ctx, SearchKey("hello"), []string{"t"}, 0)

	if deleted := h.InvalidateOwner(ctx, "alice"); deleted != 2 {
		t.Errorf("Expected 2 entries invalidated, got %d", deleted)
	}

	var dest interface{}
	if h.GetJSON(ctx, PlaylistsKey("alice"), &dest) {
		t.Error("Expected alice's playlist list to be invalidated")
	}
	if h.GetJSON(ctx, ProfileKey("alice"), &dest) {
		t.Error("Expected alice's profile to be invalidated")
	}
	if !h.GetJSON(ctx, PlaylistsKey("bob"), &dest) {
		t.Error("Expected bob's playlist list to survive")
	}
	if !h.GetJSON(ctx, SearchKey("hello"), &dest) {
		t.Error("Expected search entry to survive")
	}

	if deleted := h.InvalidateOwner(ctx, "nobody"); deleted != 0 {
		t.Errorf("Expected 0 entries invalidated for unknown owner, got %d", deleted)
	}
}

func TestNoopStore(t *testing.T) {
	var s NoopStore
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("Expected NoopStore to always miss")
	}
}
