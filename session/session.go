package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"playlist-api-go/logcolors"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "sessions"

// ErrNotFound is returned when a session ID is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session ties a browser cookie to a user's upstream tokens.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"` // access token expiry
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists sessions in BoltDB so logins survive restarts.
type Store struct {
	db     *bolt.DB
	maxAge time.Duration
}

func NewStore(dbPath string, maxAge time.Duration) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session bucket: %v", err)
	}

	log.Infof("%s Session store initialized at %s (max age: %v)", logcolors.LogSession, dbPath, maxAge)
	return &Store{db: db, maxAge: maxAge}, nil
}

// Create stores the tokens under a fresh random session ID and returns it.
func (s *Store) Create(userID, accessToken, refreshToken string, expiresAt time.Time) (string, error) {
	id, err := newSessionID()
	if err != nil {
		return "", err
	}

	sess := Session{
		ID:           id,
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}

	if err := s.put(sess); err != nil {
		return "", err
	}

	log.Infof("%s Created session for user %s", logcolors.LogSession, userID)
	return id, nil
}

// Get returns the session for id. Sessions older than the store's max
// age are deleted and reported as missing.
func (s *Store) Get(id string) (*Session, error) {
	var sess Session
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &sess)
	})
	if err != nil {
		return nil, err
	}

	if s.maxAge > 0 && time.Since(sess.CreatedAt) > s.maxAge {
		if err := s.Delete(id); err != nil {
			log.Warnf("%s Failed to delete aged-out session %s: %v", logcolors.LogSession, id, err)
		}
		return nil, ErrNotFound
	}

	return &sess, nil
}

// UpdateTokens replaces the session's tokens after a refresh. An empty
// refreshToken keeps the existing one, since the upstream may omit it.
func (s *Store) UpdateTokens(id, accessToken, refreshToken string, expiresAt time.Time) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}

	sess.AccessToken = accessToken
	if refreshToken != "" {
		sess.RefreshToken = refreshToken
	}
	sess.ExpiresAt = expiresAt

	return s.put(*sess)
}

func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(id))
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) put(sess Session) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketName)).Put([]byte(sess.ID), data)
	})
}

func newSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session id: %v", err)
	}
	return hex.EncodeToString(buf), nil
}
