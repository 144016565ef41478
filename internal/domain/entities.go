package domain

import (
	"fmt"
	"time"
)

// Liked videos has no real playlist ID. The UI addresses it as LikedPlaylistID
// while the cache stores it under LikedCacheKey.
const (
	LikedPlaylistID = "LL"
	LikedCacheKey   = "liked_videos"
	LikedTitle      = "Liked Videos"
)

// IsLiked reports whether id refers to the liked-videos pseudo-playlist
func IsLiked(id string) bool {
	return id == LikedPlaylistID || id == LikedCacheKey
}

// PlaylistInfo describes a user-owned playlist or the liked-videos pseudo-playlist
type PlaylistInfo struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	VideoCount   int64  `json:"videoCount"`
	Privacy      string `json:"privacy,omitempty"` // public, unlisted, private
}

// LikedPlaylist returns the synthetic playlist info for liked videos
func LikedPlaylist() PlaylistInfo {
	return PlaylistInfo{
		ID:      LikedPlaylistID,
		Title:   LikedTitle,
		Privacy: "private",
	}
}

// PlaylistItem is a playlist membership entry before detail lookup
type PlaylistItem struct {
	VideoID      string
	Title        string
	ChannelTitle string
	PublishedAt  time.Time
	ThumbnailURL string
	Position     int64
}

// VideoDetails holds the fields only the videos endpoint returns
type VideoDetails struct {
	VideoID      string
	Title        string
	ChannelTitle string
	PublishedAt  time.Time
	CategoryID   string
	Duration     string // ISO-8601, e.g. PT4M13S
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	ThumbnailURL string
}

// Video is the unified record built from a playlist item and its details
type Video struct {
	VideoID         string    `json:"videoId"`
	Title           string    `json:"title"`
	ChannelTitle    string    `json:"channelTitle"`
	PublishedAt     time.Time `json:"publishedAt"`
	CategoryID      string    `json:"categoryId,omitempty"`
	CategoryName    string    `json:"categoryName,omitempty"`
	ThumbnailURL    string    `json:"thumbnailUrl,omitempty"`
	Duration        string    `json:"duration,omitempty"`
	DurationSeconds int64     `json:"durationSeconds"`
	ViewCount       int64     `json:"viewCount"`
	LikeCount       int64     `json:"likeCount"`
	CommentCount    int64     `json:"commentCount"`
	Position        int64     `json:"position"`
}

// FormattedDuration returns the duration as H:MM:SS or M:SS
func (v Video) FormattedDuration() string {
	s := v.DurationSeconds
	if s <= 0 {
		return ""
	}
	h, m, sec := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// FormattedViews returns a compact view count (e.g. "1.2M views")
func (v Video) FormattedViews() string {
	n := v.ViewCount
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB views", float64(n)/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM views", float64(n)/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK views", float64(n)/1e3)
	default:
		return fmt.Sprintf("%d views", n)
	}
}

// URL returns the watch URL for the video
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.VideoID
}

// CachedPlaylistData is one playlist's cache entry. Entries are only ever
// replaced whole.
type CachedPlaylistData struct {
	PlaylistID  string    `json:"playlistId"`
	Title       string    `json:"title"`
	Videos      []Video   `json:"videos"`
	TotalVideos int       `json:"totalVideos"`
	LastFetched time.Time `json:"lastFetched"`
}

// PaginationState is the per-playlist page window. Not persisted.
type PaginationState struct {
	CurrentPage   int `json:"currentPage"`
	VideosPerPage int `json:"videosPerPage"`
	TotalVideos   int `json:"totalVideos"`
}

// TotalPages returns ceil(TotalVideos / VideosPerPage)
func (p PaginationState) TotalPages() int {
	if p.VideosPerPage <= 0 || p.TotalVideos <= 0 {
		return 0
	}
	return (p.TotalVideos + p.VideosPerPage - 1) / p.VideosPerPage
}

// MultiPlaylistData is one rendered shelf row: a playlist after filter and sort.
// An empty Videos slice means "no matches", not "not selected".
type MultiPlaylistData struct {
	ID           string
	Title        string
	Videos       []Video
	TotalFetched int
	Settings     FilterSortSettings
	Pagination   PaginationState
	FromCache    bool
}

// NoMatches reports whether filtering removed every video
func (d MultiPlaylistData) NoMatches() bool {
	return len(d.Videos) == 0
}
