package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/tubeshelf/internal/domain"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

// Bucket names
var (
	bucketPlaylists = []byte("playlists")
	bucketConfig    = []byte("config")
	bucketAuth      = []byte("auth")
)

// Keys inside the config and auth buckets
const (
	keySelection = "selection"
	keyFlags     = "flags"
	keyToken     = "token"
)

var allBuckets = [][]byte{bucketPlaylists, bucketConfig, bucketAuth}

// ShelfStore implements domain.Store using BoltDB.
type ShelfStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// Open opens (or creates) the store at path. An empty path gives a
// memory-only store with no persistence.
func Open(path string) (*ShelfStore, error) {
	if path == "" {
		return &ShelfStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreLocked, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ShelfStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *ShelfStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// getRaw returns the stored bytes for key, or nil when absent.
func (s *ShelfStore) getRaw(bucket []byte, key string) ([]byte, error) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data, nil
}

func (s *ShelfStore) get(bucket []byte, key string, dest interface{}) bool {
	data, err := s.getRaw(bucket, key)
	if err != nil || data == nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (s *ShelfStore) setRaw(bucket []byte, key string, data []byte) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *ShelfStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.setRaw(bucket, key, data)
}

func (s *ShelfStore) delete(bucket []byte, key string) error {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (s *ShelfStore) clearBucket(bucket []byte) error {
	s.mu.Lock()
	prefix := string(bucket) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Playlist cache ===

// GetPlaylistCache returns domain.ErrNotFound when the key is absent and a
// decode error when the stored object is malformed.
func (s *ShelfStore) GetPlaylistCache(key string) (*domain.CachedPlaylistData, error) {
	data, err := s.getRaw(bucketPlaylists, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, domain.ErrNotFound
	}
	var entry domain.CachedPlaylistData
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	if entry.LastFetched.IsZero() {
		return nil, fmt.Errorf("decode cache entry %q: %w", key, errMissingTimestamp)
	}
	return &entry, nil
}

var errMissingTimestamp = errors.New("missing lastFetched timestamp")

func (s *ShelfStore) SavePlaylistCache(key string, entry domain.CachedPlaylistData) error {
	return s.set(bucketPlaylists, key, entry)
}

func (s *ShelfStore) DeletePlaylistCache(key string) error {
	return s.delete(bucketPlaylists, key)
}

func (s *ShelfStore) ClearPlaylistCache() error {
	return s.clearBucket(bucketPlaylists)
}

// === Selection ===

func (s *ShelfStore) GetSelection() (domain.Selection, bool) {
	var sel domain.Selection
	ok := s.get(bucketConfig, keySelection, &sel)
	return sel, ok
}

func (s *ShelfStore) SaveSelection(sel domain.Selection) error {
	return s.set(bucketConfig, keySelection, sel)
}

// === Auth ===

func (s *ShelfStore) GetAuthFlags() domain.AuthFlags {
	var flags domain.AuthFlags
	s.get(bucketAuth, keyFlags, &flags)
	return flags
}

func (s *ShelfStore) SaveAuthFlags(flags domain.AuthFlags) error {
	return s.set(bucketAuth, keyFlags, flags)
}

func (s *ShelfStore) GetAuthToken() ([]byte, bool) {
	data, err := s.getRaw(bucketAuth, keyToken)
	if err != nil || data == nil {
		return nil, false
	}
	return data, true
}

func (s *ShelfStore) SaveAuthToken(data []byte) error {
	return s.setRaw(bucketAuth, keyToken, data)
}

func (s *ShelfStore) ClearAuthToken() error {
	return s.delete(bucketAuth, keyToken)
}
