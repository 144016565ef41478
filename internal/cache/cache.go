// Package cache decides which selected playlists can be served from the
// local store and which must be fetched again.
package cache

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

// DefaultTTL is how long a fetched playlist stays fresh.
const DefaultTTL = 30 * time.Minute

// Partition splits a selection into entries usable as-is and IDs to fetch.
type Partition struct {
	Fresh   []domain.CachedPlaylistData
	Expired []string
}

// Manager tracks per-playlist freshness on top of a domain.Store.
// Storage failures never reach the caller: they read as an empty cache.
type Manager struct {
	store  domain.Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithTTL overrides DefaultTTL
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a cache manager
func NewManager(store domain.Store, logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:  store,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL returns the freshness window
func (m *Manager) TTL() time.Duration { return m.ttl }

// NormalizeKey maps a UI playlist ID to its cache key
func NormalizeKey(playlistID string) string {
	if domain.IsLiked(playlistID) {
		return domain.LikedCacheKey
	}
	return playlistID
}

// IsFresh reports whether an entry fetched at fetched is still within the TTL
func (m *Manager) IsFresh(fetched time.Time) bool {
	return m.now().Sub(fetched) < m.ttl
}

// Partition returns fresh entries in selection order and the IDs that are
// missing, expired or unreadable. Expired IDs keep the UI-facing form.
func (m *Manager) Partition(selectedIDs []string) Partition {
	var p Partition
	seen := make(map[string]bool, len(selectedIDs))

	for _, id := range selectedIDs {
		key := NormalizeKey(id)
		if seen[key] {
			continue
		}
		seen[key] = true

		entry, ok := m.lookup(key)
		if !ok || !m.IsFresh(entry.LastFetched) {
			p.Expired = append(p.Expired, id)
			continue
		}
		entry.PlaylistID = id
		p.Fresh = append(p.Fresh, *entry)
	}

	m.logger.Debug("cache partitioned", "fresh", len(p.Fresh), "expired", len(p.Expired))
	return p
}

func (m *Manager) lookup(key string) (*domain.CachedPlaylistData, bool) {
	entry, err := m.store.GetPlaylistCache(key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			m.logger.Warn("unreadable cache entry, treating as missing", "key", key, "error", err)
		}
		return nil, false
	}
	return entry, true
}

// Get returns the stored entry for a playlist regardless of freshness
func (m *Manager) Get(playlistID string) (*domain.CachedPlaylistData, bool) {
	entry, ok := m.lookup(NormalizeKey(playlistID))
	if ok {
		entry.PlaylistID = playlistID
	}
	return entry, ok
}

// Write replaces each entry whole. An entry older than what is stored is
// skipped so timestamps never move backwards.
func (m *Manager) Write(entries []domain.CachedPlaylistData) {
	for _, entry := range entries {
		key := NormalizeKey(entry.PlaylistID)

		if existing, ok := m.lookup(key); ok && entry.LastFetched.Before(existing.LastFetched) {
			m.logger.Debug("skipping stale cache write", "key", key,
				"stored", existing.LastFetched, "incoming", entry.LastFetched)
			continue
		}

		if err := m.store.SavePlaylistCache(key, entry); err != nil {
			m.logger.Error("failed to write cache entry", "key", key, "error", err)
			continue
		}
		m.logger.Debug("cached playlist", "key", key, "videos", len(entry.Videos))
	}
}

// Invalidate drops the entry for one playlist
func (m *Manager) Invalidate(playlistID string) {
	key := NormalizeKey(playlistID)
	if err := m.store.DeletePlaylistCache(key); err != nil {
		m.logger.Warn("failed to invalidate cache entry", "key", key, "error", err)
	}
}

// Clear drops every cached playlist
func (m *Manager) Clear() {
	if err := m.store.ClearPlaylistCache(); err != nil {
		m.logger.Warn("failed to clear playlist cache", "error", err)
	}
}
