package domain

import (
	"context"
)

// PlaylistAPI provides network access to playlists and their videos.
// Every call takes the caller's access token; refreshing it is not the
// implementation's job.
type PlaylistAPI interface {
	// GetMyPlaylists returns the playlists owned by the token's user
	GetMyPlaylists(ctx context.Context, token string) ([]PlaylistInfo, error)

	// GetPlaylistInfo returns metadata for one playlist
	GetPlaylistInfo(ctx context.Context, token, playlistID string) (*PlaylistInfo, error)

	// FetchPlaylistVideos returns a complete cache entry for a playlist,
	// stamped with the fetch time
	FetchPlaylistVideos(ctx context.Context, token, playlistID string) (*CachedPlaylistData, error)
}

// TokenProvider hands out access tokens. A provider that cannot produce a
// token returns ErrNoToken.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenSource is the OAuth collaborator behind a TokenProvider
type TokenSource interface {
	GetToken(ctx context.Context, interactive bool) (string, error)
	SignOut() error
}

// UpdateNotifier announces that the selection or settings changed
type UpdateNotifier interface {
	PlaylistsUpdated(ctx context.Context) error
}
