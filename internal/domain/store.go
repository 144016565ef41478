package domain

// Store is the local durable key-value storage (BoltDB + memory).
// It outlives a single shelf session; nothing else does.
type Store interface {
	// === Playlist cache (keyed by normalized playlist key) ===
	GetPlaylistCache(key string) (*CachedPlaylistData, error)
	SavePlaylistCache(key string, entry CachedPlaylistData) error
	DeletePlaylistCache(key string) error
	ClearPlaylistCache() error

	// === Selection and per-playlist settings ===
	GetSelection() (Selection, bool)
	SaveSelection(sel Selection) error

	// === Auth ===
	GetAuthFlags() AuthFlags
	SaveAuthFlags(flags AuthFlags) error
	GetAuthToken() ([]byte, bool)
	SaveAuthToken(data []byte) error
	ClearAuthToken() error

	Close() error
}
