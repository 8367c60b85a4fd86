package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"playlist-api-go/logcolors"
	"playlist-api-go/stats"

	log "github.com/sirupsen/logrus"
)

// TTLs holds the freshness window per kind of cached value.
type TTLs struct {
	Search       time.Duration
	PlaylistList time.Duration
	Playlist     time.Duration
	Profile      time.Duration
}

// Helper implements the cache-aside pattern on top of a Store: callers
// check the cache first, fetch on a miss, then write back. All values
// are stored as JSON.
type Helper struct {
	store Store
	ttls  TTLs
}

func NewHelper(store Store, ttls TTLs) *Helper {
	return &Helper{store: store, ttls: ttls}
}

func (h *Helper) TTLs() TTLs { return h.ttls }

// SearchKey normalizes the query so "Hello World" and " hello world "
// share one cache entry.
func SearchKey(query string) string {
	return "search:" + strings.ToLower(strings.TrimSpace(query))
}

func PlaylistsKey(owner string) string {
	return "playlists:user:" + owner
}

func PlaylistKey(id string) string {
	return "playlist:" + id
}

func ProfileKey(owner string) string {
	return "profile:user:" + owner
}

// GetJSON loads key into dest, reporting whether the value was present.
// A corrupt cached value is dropped and treated as a miss.
func (h *Helper) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := h.store.Get(ctx, key)
	if !ok {
		stats.Get().RecordCacheMiss()
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		log.Warnf("%s Corrupt cache entry for key %s, dropping: %v", logcolors.LogCache, key, err)
		if err := h.store.Delete(ctx, key); err != nil {
			log.Warnf("%s Failed to drop corrupt key %s: %v", logcolors.LogCache, key, err)
		}
		stats.Get().RecordCacheMiss()
		return false
	}
	stats.Get().RecordCacheHit()
	return true
}

// SetJSON stores value under key. Cache write failures are logged, not
// returned: a broken cache must never fail the request it was serving.
func (h *Helper) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Errorf("%s Failed to marshal value for key %s: %v", logcolors.LogCache, key, err)
		return
	}

	if err := h.store.Set(ctx, key, string(data), ttl); err != nil {
		log.Errorf("%s Failed to write key %s: %v", logcolors.LogCache, key, err)
	}
}

func (h *Helper) Delete(ctx context.Context, key string) {
	if err := h.store.Delete(ctx, key); err != nil {
		log.Warnf("%s Failed to delete key %s: %v", logcolors.LogCache, key, err)
	}
}

// InvalidateOwner removes every owner-scoped entry (playlist lists and
// profiles) after a mutation changes what the owner would see. It
// returns how many entries were removed; 0 when nothing matched or the
// backend failed.
func (h *Helper) InvalidateOwner(ctx context.Context, owner string) int {
	deleted, err := h.store.DeleteMatching(ctx, "*:user:"+owner)
	if err != nil {
		log.Errorf("%s Failed to invalidate entries for owner %s: %v", logcolors.LogCacheOwner, owner, err)
		return 0
	}
	log.Infof("%s Invalidated %d entries for owner %s", logcolors.LogCacheOwner, deleted, owner)
	return deleted
}
