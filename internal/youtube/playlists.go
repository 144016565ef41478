package youtube

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

var (
	playlistParts     = []string{"snippet", "contentDetails", "status"}
	playlistItemParts = []string{"snippet", "contentDetails"}
	videoParts        = []string{"snippet", "contentDetails", "statistics"}
)

// GetMyPlaylists returns every playlist owned by the token's user
func (c *Client) GetMyPlaylists(ctx context.Context, token string) ([]domain.PlaylistInfo, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	var playlists []domain.PlaylistInfo
	pageToken := ""
	for {
		resp, err := svc.Playlists.List(playlistParts).
			Mine(true).
			MaxResults(BatchSize).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			return nil, mapError(err)
		}

		for _, p := range resp.Items {
			playlists = append(playlists, mapPlaylist(p))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("fetched playlists", "count", len(playlists))
	return playlists, nil
}

// GetPlaylistInfo returns metadata for one playlist. Liked videos is
// synthesised without a request.
func (c *Client) GetPlaylistInfo(ctx context.Context, token, playlistID string) (*domain.PlaylistInfo, error) {
	if domain.IsLiked(playlistID) {
		info := domain.LikedPlaylist()
		return &info, nil
	}

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Playlists.List(playlistParts).
		Id(playlistID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, playlistID)
	}

	info := mapPlaylist(resp.Items[0])
	return &info, nil
}

// GetPlaylistItems returns playlist entries in playlist order, capped at the
// configured maximum
func (c *Client) GetPlaylistItems(ctx context.Context, token, playlistID string) ([]domain.PlaylistItem, error) {
	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	var items []domain.PlaylistItem
	pageToken := ""
	for len(items) < c.opts.MaxItems {
		resp, err := svc.PlaylistItems.List(playlistItemParts).
			PlaylistId(apiPlaylistID(playlistID)).
			MaxResults(BatchSize).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			return nil, mapError(err)
		}

		for _, it := range resp.Items {
			item, ok := c.mapPlaylistItem(it)
			if !ok {
				continue
			}
			items = append(items, item)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if len(items) > c.opts.MaxItems {
		items = items[:c.opts.MaxItems]
	}
	return items, nil
}

// GetVideoDetails looks up ids in sequential batches of BatchSize.
// Results follow response order and contain each ID at most once; IDs the
// API does not return (deleted or private videos) are simply absent.
func (c *Client) GetVideoDetails(ctx context.Context, token string, ids []string) ([]domain.VideoDetails, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	svc, err := c.service(ctx, token)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ids))
	details := make([]domain.VideoDetails, 0, len(ids))

	for _, batch := range chunk(ids, BatchSize) {
		resp, err := svc.Videos.List(videoParts).
			Id(strings.Join(batch, ",")).
			Context(ctx).
			Do()
		if err != nil {
			return nil, mapError(err)
		}

		for _, v := range resp.Items {
			if v == nil || v.Id == "" || seen[v.Id] {
				continue
			}
			seen[v.Id] = true
			details = append(details, c.mapVideoDetails(v))
		}
	}

	return details, nil
}

// FetchPlaylistVideos builds a complete cache entry for a playlist: items,
// batched details, merged records with category names, stamped with now.
func (c *Client) FetchPlaylistVideos(ctx context.Context, token, playlistID string) (*domain.CachedPlaylistData, error) {
	info, err := c.GetPlaylistInfo(ctx, token, playlistID)
	if err != nil {
		return nil, err
	}

	items, err := c.GetPlaylistItems(ctx, token, playlistID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.VideoID)
	}

	details, err := c.GetVideoDetails(ctx, token, ids)
	if err != nil {
		return nil, err
	}

	videos := MergeVideos(items, details, c.logger)
	for i := range videos {
		videos[i].CategoryName = c.CategoryName(ctx, token, videos[i].CategoryID)
	}

	c.logger.Info("fetched playlist", "playlistID", playlistID,
		"items", len(items), "videos", len(videos))

	return &domain.CachedPlaylistData{
		PlaylistID:  playlistID,
		Title:       info.Title,
		Videos:      videos,
		TotalVideos: len(videos),
		LastFetched: c.opts.Now(),
	}, nil
}

// apiPlaylistID maps the cache key form of liked videos back to the API ID
func apiPlaylistID(id string) string {
	if domain.IsLiked(id) {
		return domain.LikedPlaylistID
	}
	return id
}

func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}
	return batches
}
