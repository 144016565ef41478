package youtube

import (
	"log/slog"
	"time"

	yt "google.golang.org/api/youtube/v3"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

// mapPlaylist converts an API playlist to domain playlist info
func mapPlaylist(p *yt.Playlist) domain.PlaylistInfo {
	info := domain.PlaylistInfo{ID: p.Id}
	if p.Snippet != nil {
		info.Title = p.Snippet.Title
		info.Description = p.Snippet.Description
		info.ThumbnailURL = thumbnailURL(p.Snippet.Thumbnails)
	}
	if p.ContentDetails != nil {
		info.VideoCount = p.ContentDetails.ItemCount
	}
	if p.Status != nil {
		info.Privacy = p.Status.PrivacyStatus
	}
	return info
}

// mapPlaylistItem converts a playlist entry. Entries without a video ID
// (removed videos) are rejected.
func (c *Client) mapPlaylistItem(it *yt.PlaylistItem) (domain.PlaylistItem, bool) {
	if it == nil {
		return domain.PlaylistItem{}, false
	}

	var item domain.PlaylistItem
	published := ""
	if it.ContentDetails != nil {
		item.VideoID = it.ContentDetails.VideoId
		published = it.ContentDetails.VideoPublishedAt
	}
	if s := it.Snippet; s != nil {
		if item.VideoID == "" && s.ResourceId != nil {
			item.VideoID = s.ResourceId.VideoId
		}
		item.Title = s.Title
		item.ChannelTitle = s.VideoOwnerChannelTitle
		if item.ChannelTitle == "" {
			item.ChannelTitle = s.ChannelTitle
		}
		item.ThumbnailURL = thumbnailURL(s.Thumbnails)
		item.Position = s.Position
		if published == "" {
			published = s.PublishedAt
		}
	}
	if item.VideoID == "" {
		return domain.PlaylistItem{}, false
	}

	item.PublishedAt = c.parseTime(published, item.VideoID)
	return item, true
}

// mapVideoDetails converts a videos.list record
func (c *Client) mapVideoDetails(v *yt.Video) domain.VideoDetails {
	d := domain.VideoDetails{VideoID: v.Id}
	if s := v.Snippet; s != nil {
		d.Title = s.Title
		d.ChannelTitle = s.ChannelTitle
		d.CategoryID = s.CategoryId
		d.ThumbnailURL = thumbnailURL(s.Thumbnails)
		d.PublishedAt = c.parseTime(s.PublishedAt, v.Id)
	}
	if v.ContentDetails != nil {
		d.Duration = v.ContentDetails.Duration
	}
	if st := v.Statistics; st != nil {
		d.ViewCount = int64(st.ViewCount)
		d.LikeCount = int64(st.LikeCount)
		d.CommentCount = int64(st.CommentCount)
	}
	return d
}

func (c *Client) parseTime(value, videoID string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		c.logger.Warn("malformed publish time", "videoID", videoID, "value", value, "error", err)
		return time.Time{}
	}
	return t
}

func thumbnailURL(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.Medium, t.High, t.Default, t.Standard, t.Maxres} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

// MergeVideos joins playlist items with their details, keeping playlist
// order. Items with no matching detail record are dropped and logged;
// duplicate video IDs keep their first position.
func MergeVideos(items []domain.PlaylistItem, details []domain.VideoDetails, logger *slog.Logger) []domain.Video {
	if logger == nil {
		logger = slog.Default()
	}

	byID := make(map[string]domain.VideoDetails, len(details))
	for _, d := range details {
		byID[d.VideoID] = d
	}

	videos := make([]domain.Video, 0, len(items))
	seen := make(map[string]bool, len(items))
	dropped := 0

	for _, it := range items {
		if seen[it.VideoID] {
			continue
		}
		d, ok := byID[it.VideoID]
		if !ok {
			dropped++
			logger.Info("dropping video without details", "videoID", it.VideoID, "title", it.Title)
			continue
		}
		seen[it.VideoID] = true
		videos = append(videos, mergeVideo(it, d, logger))
	}

	if dropped > 0 {
		logger.Debug("merged playlist videos", "kept", len(videos), "dropped", dropped)
	}
	return videos
}

func mergeVideo(it domain.PlaylistItem, d domain.VideoDetails, logger *slog.Logger) domain.Video {
	v := domain.Video{
		VideoID:      it.VideoID,
		Title:        firstNonEmpty(d.Title, it.Title),
		ChannelTitle: firstNonEmpty(d.ChannelTitle, it.ChannelTitle),
		PublishedAt:  d.PublishedAt,
		CategoryID:   d.CategoryID,
		ThumbnailURL: firstNonEmpty(d.ThumbnailURL, it.ThumbnailURL),
		Duration:     d.Duration,
		ViewCount:    d.ViewCount,
		LikeCount:    d.LikeCount,
		CommentCount: d.CommentCount,
		Position:     it.Position,
	}
	if v.PublishedAt.IsZero() {
		v.PublishedAt = it.PublishedAt
	}

	if d.Duration != "" {
		secs, err := domain.ParseDuration(d.Duration)
		if err != nil {
			logger.Warn("malformed duration", "videoID", it.VideoID, "duration", d.Duration, "error", err)
		}
		v.DurationSeconds = secs
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
