package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"playlist-api-go/logcolors"
	"playlist-api-go/utils"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "cache"

const janitorInterval = time.Minute

// BoltStore wraps BoltDB with an in-memory cache for fast access.
// Expiry is enforced by the store itself: reads drop stale entries
// lazily and a background janitor sweeps the rest.
type BoltStore struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	compressionEnabled bool
	stopJanitor        chan struct{}
	closeOnce          sync.Once
}

type boltEntry struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix seconds, 0 = no expiry
}

func (e boltEntry) expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.Unix() >= e.ExpiresAt
}

// NewBoltStore opens (or creates) the cache database at dbPath.
func NewBoltStore(dbPath string, compressionEnabled bool) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %v", err)
	}

	bs := &BoltStore{
		db:                 db,
		dbPath:             dbPath,
		compressionEnabled: compressionEnabled,
		stopJanitor:        make(chan struct{}),
	}

	if err := bs.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload cache to memory: %v", logcolors.LogCache, err)
	}

	go bs.janitor()

	log.Infof("%s Bolt cache initialized at %s (compression: %v)", logcolors.LogCacheInit, dbPath, compressionEnabled)
	return bs, nil
}

// loadToMemory loads all live cache entries from disk to memory.
func (bs *BoltStore) loadToMemory() error {
	count := 0
	now := time.Now()
	err := bs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var entry boltEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("%s Failed to unmarshal cache entry for key %s: %v", logcolors.LogCache, string(k), err)
				return nil // Continue to next entry
			}
			if entry.expired(now) {
				return nil
			}
			bs.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})

	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d entries from disk to memory", logcolors.LogCache, count)
	return nil
}

func (bs *BoltStore) Get(ctx context.Context, key string) (string, bool) {
	entry, ok := bs.memCache.Load(key)
	if !ok {
		return "", false
	}

	e := entry.(boltEntry)
	if e.expired(time.Now()) {
		// Lazy expiry: drop the stale entry and report a miss
		if err := bs.Delete(ctx, key); err != nil {
			log.Warnf("%s Failed to drop expired key %s: %v", logcolors.LogCache, key, err)
		}
		return "", false
	}

	if bs.compressionEnabled {
		decompressed, err := utils.DecompressString(e.Value)
		if err != nil {
			log.Errorf("%s Error decompressing cache value for key %s: %v", logcolors.LogCache, key, err)
			return "", false
		}
		return decompressed, true
	}

	return e.Value, true
}

func (bs *BoltStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	finalValue := value
	if bs.compressionEnabled {
		compressed, err := utils.CompressString(value)
		if err != nil {
			log.Errorf("%s Error compressing cache value for key %s: %v", logcolors.LogCache, key, err)
			return err
		}
		finalValue = compressed
	}

	entry := boltEntry{Value: finalValue}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl).Unix()
	}

	bs.memCache.Store(key, entry)

	return bs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put([]byte(key), data)
	})
}

func (bs *BoltStore) Delete(ctx context.Context, key string) error {
	bs.memCache.Delete(key)

	return bs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Delete([]byte(key))
	})
}

// DeleteMatching removes all keys matching a glob pattern (path.Match
// syntax, which lines up with Redis glob for the patterns we use).
func (bs *BoltStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	var matched []string
	bs.memCache.Range(func(k, v interface{}) bool {
		key := k.(string)
		if ok, err := path.Match(pattern, key); err == nil && ok {
			matched = append(matched, key)
		}
		return true
	})

	for i, key := range matched {
		if err := bs.Delete(ctx, key); err != nil {
			return i, err
		}
	}
	return len(matched), nil
}

// janitor periodically sweeps expired entries so the database file does
// not grow without bound on keys that are never read again.
func (bs *BoltStore) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bs.stopJanitor:
			return
		case <-ticker.C:
			bs.sweep()
		}
	}
}

func (bs *BoltStore) sweep() {
	now := time.Now()
	var expired []string
	bs.memCache.Range(func(k, v interface{}) bool {
		if v.(boltEntry).expired(now) {
			expired = append(expired, k.(string))
		}
		return true
	})

	for _, key := range expired {
		if err := bs.Delete(context.Background(), key); err != nil {
			log.Warnf("%s Janitor failed to delete key %s: %v", logcolors.LogCache, key, err)
		}
	}

	if len(expired) > 0 {
		log.Debugf("%s Janitor swept %d expired entries", logcolors.LogCache, len(expired))
	}
}

func (bs *BoltStore) Close() error {
	bs.closeOnce.Do(func() {
		close(bs.stopJanitor)
	})
	return bs.db.Close()
}
