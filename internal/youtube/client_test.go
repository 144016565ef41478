package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/log"
)

// fakeAPI serves the subset of the Data API the client uses
type fakeAPI struct {
	mu sync.Mutex

	items        map[string][]string // playlist ID -> video IDs
	missing      map[string]bool     // video IDs absent from videos.list
	failPath     string              // path that answers with failStatus
	failStatus   int
	failReason   string
	categories   map[string]string
	failCats     bool
	calls        map[string]int
	videoBatches [][]string
	tokens       []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		items:      map[string][]string{},
		missing:    map[string]bool{},
		categories: map[string]string{"10": "Music", "27": "Education"},
		calls:      map[string]int{},
	}
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/youtube/v3/")
	f.calls[path]++
	f.tokens = append(f.tokens, r.Header.Get("Authorization"))

	if f.failPath != "" && path == f.failPath {
		writeError(w, f.failStatus, f.failReason)
		return
	}

	q := r.URL.Query()
	switch path {
	case "playlists":
		if q.Get("mine") == "true" {
			writeJSON(w, map[string]any{"items": []any{
				playlistJSON("PL1", "Road Trip", 3),
				playlistJSON("PL2", "Lectures", 12),
			}})
			return
		}
		id := q.Get("id")
		if _, ok := f.items[id]; !ok {
			writeJSON(w, map[string]any{"items": []any{}})
			return
		}
		writeJSON(w, map[string]any{"items": []any{playlistJSON(id, "Playlist "+id, len(f.items[id]))}})

	case "playlistItems":
		ids := f.items[q.Get("playlistId")]
		start := 0
		if tok := q.Get("pageToken"); tok != "" {
			fmt.Sscanf(tok, "page-%d", &start)
		}
		end := min(start+BatchSize, len(ids))
		var items []any
		for i, id := range ids[start:end] {
			items = append(items, map[string]any{
				"snippet": map[string]any{
					"title":                  "Item " + id,
					"videoOwnerChannelTitle": "Channel " + id,
					"position":               start + i,
					"publishedAt":            "2026-01-01T00:00:00Z",
					"resourceId":             map[string]any{"videoId": id},
				},
				"contentDetails": map[string]any{"videoId": id, "videoPublishedAt": "2025-12-01T00:00:00Z"},
			})
		}
		resp := map[string]any{"items": items}
		if end < len(ids) {
			resp["nextPageToken"] = fmt.Sprintf("page-%d", end)
		}
		writeJSON(w, resp)

	case "videos":
		var ids []string
		for _, v := range q["id"] {
			ids = append(ids, strings.Split(v, ",")...)
		}
		f.videoBatches = append(f.videoBatches, ids)
		var items []any
		// reversed to prove callers must not rely on request order
		for i := len(ids) - 1; i >= 0; i-- {
			if f.missing[ids[i]] {
				continue
			}
			items = append(items, videoJSON(ids[i], 1000*int64(i+1)))
		}
		writeJSON(w, map[string]any{"items": items})

	case "videoCategories":
		if f.failCats {
			writeError(w, http.StatusInternalServerError, "backendError")
			return
		}
		var items []any
		for id, title := range f.categories {
			items = append(items, map[string]any{"id": id, "snippet": map[string]any{"title": title}})
		}
		writeJSON(w, map[string]any{"items": items})

	default:
		http.NotFound(w, r)
	}
}

func playlistJSON(id, title string, count int) map[string]any {
	return map[string]any{
		"id":             id,
		"snippet":        map[string]any{"title": title, "description": "desc"},
		"contentDetails": map[string]any{"itemCount": count},
		"status":         map[string]any{"privacyStatus": "private"},
	}
}

func videoJSON(id string, views int64) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"title":        "Video " + id,
			"channelTitle": "Channel " + id,
			"categoryId":   "10",
			"publishedAt":  "2026-02-01T00:00:00Z",
		},
		"contentDetails": map[string]any{"duration": "PT4M13S"},
		"statistics": map[string]any{
			"viewCount":    fmt.Sprint(views),
			"likeCount":    "10",
			"commentCount": "2",
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	msg := "request failed"
	if reason == "quotaExceeded" {
		msg = "The request cannot be completed because you have exceeded your quota."
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": msg,
			"errors":  []any{map[string]any{"reason": reason, "message": msg}},
		},
	})
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		Endpoint:          srv.URL,
		RequestsPerSecond: 1000,
		Now:               func() time.Time { return fixedNow },
	}, log.NullLogger())
}

func videoIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%03d", prefix, i)
	}
	return ids
}

func TestGetVideoDetailsBatches(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	ids := videoIDs("v", 120)
	ids = append(ids, "v000", "v001") // duplicates in the request

	details, err := c.GetVideoDetails(context.Background(), "tok", ids)
	if err != nil {
		t.Fatalf("GetVideoDetails() error = %v", err)
	}

	if got := api.calls["videos"]; got != 3 {
		t.Errorf("videos requests = %d, want 3", got)
	}
	for i, batch := range api.videoBatches {
		if len(batch) > BatchSize {
			t.Errorf("batch %d has %d ids, want <= %d", i, len(batch), BatchSize)
		}
	}

	seen := map[string]bool{}
	for _, d := range details {
		if seen[d.VideoID] {
			t.Errorf("duplicate %s in result", d.VideoID)
		}
		seen[d.VideoID] = true
	}
	if len(seen) != 120 {
		t.Errorf("result has %d unique ids, want 120", len(seen))
	}
}

func TestGetVideoDetailsEmpty(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	details, err := c.GetVideoDetails(context.Background(), "tok", nil)
	if err != nil || len(details) != 0 {
		t.Fatalf("GetVideoDetails(nil) = %v, %v", details, err)
	}
	if api.calls["videos"] != 0 {
		t.Errorf("empty lookup issued %d requests", api.calls["videos"])
	}
}

func TestFetchPlaylistVideosDropsMissingDetails(t *testing.T) {
	api := newFakeAPI()
	api.items["PL123"] = []string{"a", "b", "c", "d", "e"}
	api.missing["c"] = true
	c := newTestClient(t, api)

	entry, err := c.FetchPlaylistVideos(context.Background(), "tok", "PL123")
	if err != nil {
		t.Fatalf("FetchPlaylistVideos() error = %v", err)
	}

	if len(entry.Videos) != 4 || entry.TotalVideos != 4 {
		t.Fatalf("got %d videos (total %d), want 4", len(entry.Videos), entry.TotalVideos)
	}
	wantOrder := []string{"a", "b", "d", "e"}
	for i, v := range entry.Videos {
		if v.VideoID != wantOrder[i] {
			t.Errorf("video %d = %s, want %s (playlist order)", i, v.VideoID, wantOrder[i])
		}
		if v.DurationSeconds != 253 || v.CategoryName != "Music" {
			t.Errorf("video %s not fully merged: %+v", v.VideoID, v)
		}
	}
	if entry.Title != "Playlist PL123" || !entry.LastFetched.Equal(fixedNow) {
		t.Errorf("entry metadata = %q @ %v", entry.Title, entry.LastFetched)
	}
}

func TestFetchPlaylistVideosPagesItems(t *testing.T) {
	api := newFakeAPI()
	api.items["PLbig"] = videoIDs("x", 130)
	c := newTestClient(t, api)

	entry, err := c.FetchPlaylistVideos(context.Background(), "tok", "PLbig")
	if err != nil {
		t.Fatalf("FetchPlaylistVideos() error = %v", err)
	}
	if len(entry.Videos) != 130 {
		t.Errorf("got %d videos, want 130", len(entry.Videos))
	}
	if api.calls["playlistItems"] != 3 {
		t.Errorf("playlistItems requests = %d, want 3", api.calls["playlistItems"])
	}
}

func TestMaxItemsCapsPlaylist(t *testing.T) {
	api := newFakeAPI()
	api.items["PLbig"] = videoIDs("x", 130)
	srv := httptest.NewServer(api)
	defer srv.Close()
	c := NewClient(Options{Endpoint: srv.URL, RequestsPerSecond: 1000, MaxItems: 60}, log.NullLogger())

	items, err := c.GetPlaylistItems(context.Background(), "tok", "PLbig")
	if err != nil {
		t.Fatalf("GetPlaylistItems() error = %v", err)
	}
	if len(items) != 60 {
		t.Errorf("got %d items, want 60", len(items))
	}
}

func TestLikedVideosNeedsNoMetadataCall(t *testing.T) {
	api := newFakeAPI()
	api.items[domain.LikedPlaylistID] = []string{"a", "b"}
	c := newTestClient(t, api)

	entry, err := c.FetchPlaylistVideos(context.Background(), "tok", domain.LikedPlaylistID)
	if err != nil {
		t.Fatalf("FetchPlaylistVideos(LL) error = %v", err)
	}
	if entry.Title != domain.LikedTitle || len(entry.Videos) != 2 {
		t.Errorf("entry = %q with %d videos", entry.Title, len(entry.Videos))
	}
	if api.calls["playlists"] != 0 {
		t.Errorf("liked videos issued %d playlist metadata calls", api.calls["playlists"])
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reason string
		want   error
	}{
		{"quota", http.StatusForbidden, "quotaExceeded", domain.ErrQuotaExceeded},
		{"auth", http.StatusUnauthorized, "authError", domain.ErrAuthFailed},
		{"not found", http.StatusNotFound, "playlistNotFound", domain.ErrPlaylistNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.items["PL1"] = []string{"a"}
			api.failPath = "playlistItems"
			api.failStatus = tt.status
			api.failReason = tt.reason
			c := newTestClient(t, api)

			_, err := c.FetchPlaylistVideos(context.Background(), "tok", "PL1")
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status || apiErr.Reason != tt.reason {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	api := newFakeAPI()
	api.failPath = "playlists"
	api.failStatus = http.StatusServiceUnavailable
	api.failReason = "backendError"
	c := newTestClient(t, api)

	_, err := c.GetMyPlaylists(context.Background(), "tok")
	if err == nil || !domain.IsTransient(err) {
		t.Errorf("error = %v, want transient", err)
	}
}

func TestGetPlaylistInfoNotFound(t *testing.T) {
	c := newTestClient(t, newFakeAPI())

	_, err := c.GetPlaylistInfo(context.Background(), "tok", "PLnope")
	if !errors.Is(err, domain.ErrPlaylistNotFound) {
		t.Errorf("error = %v, want ErrPlaylistNotFound", err)
	}
}

func TestGetMyPlaylists(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	playlists, err := c.GetMyPlaylists(context.Background(), "secret-token")
	if err != nil {
		t.Fatalf("GetMyPlaylists() error = %v", err)
	}
	if len(playlists) != 2 || playlists[1].Title != "Lectures" || playlists[1].VideoCount != 12 {
		t.Errorf("playlists = %+v", playlists)
	}
	if api.tokens[0] != "Bearer secret-token" {
		t.Errorf("Authorization = %q", api.tokens[0])
	}
}

func TestCategoryNameFallbackAndUnknown(t *testing.T) {
	api := newFakeAPI()
	api.failCats = true
	c := newTestClient(t, api)
	ctx := context.Background()

	tests := []struct {
		id   string
		want string
	}{
		{"27", "Education"},
		{"10", "Music"},
		{"999", UnknownCategory},
		{"", UnknownCategory},
	}
	for _, tt := range tests {
		if got := c.CategoryName(ctx, "tok", tt.id); got != tt.want {
			t.Errorf("CategoryName(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
	if api.calls["videoCategories"] != 1 {
		t.Errorf("category list requested %d times, want 1", api.calls["videoCategories"])
	}
}

func TestCategoryNameLoadsOnce(t *testing.T) {
	api := newFakeAPI()
	api.categories["44"] = "Trailers"
	c := newTestClient(t, api)

	for range 3 {
		if got := c.CategoryName(context.Background(), "tok", "44"); got != "Trailers" {
			t.Fatalf("CategoryName(44) = %q", got)
		}
	}
	if api.calls["videoCategories"] != 1 {
		t.Errorf("category list requested %d times, want 1", api.calls["videoCategories"])
	}
}

func TestMergeVideosMalformedDuration(t *testing.T) {
	items := []domain.PlaylistItem{{VideoID: "a", Title: "A"}, {VideoID: "a"}, {VideoID: "b"}}
	details := []domain.VideoDetails{
		{VideoID: "b", Duration: "PT1M"},
		{VideoID: "a", Duration: "garbage", ViewCount: 5},
	}

	videos := MergeVideos(items, details, log.NullLogger())
	if len(videos) != 2 || videos[0].VideoID != "a" || videos[1].VideoID != "b" {
		t.Fatalf("videos = %+v", videos)
	}
	if videos[0].DurationSeconds != 0 || videos[0].Duration != "garbage" || videos[0].ViewCount != 5 {
		t.Errorf("malformed duration not zeroed: %+v", videos[0])
	}
	if videos[1].DurationSeconds != 60 {
		t.Errorf("DurationSeconds = %d, want 60", videos[1].DurationSeconds)
	}
}
