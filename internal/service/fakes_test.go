package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/tubeshelf/internal/cache"
	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/log"
	"github.com/mmcdole/tubeshelf/internal/store"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeAPI serves canned playlists and records fetch order
type fakeAPI struct {
	mu        sync.Mutex
	playlists map[string]*domain.CachedPlaylistData
	owned     []domain.PlaylistInfo
	errs      map[string]error
	fetched   []string
	block     chan struct{} // when set, fetches wait on it
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		playlists: map[string]*domain.CachedPlaylistData{},
		errs:      map[string]error{},
	}
}

func (f *fakeAPI) add(id string, videos ...domain.Video) {
	f.playlists[id] = &domain.CachedPlaylistData{
		PlaylistID:  id,
		Title:       "Title " + id,
		Videos:      videos,
		TotalVideos: len(videos),
		LastFetched: testNow,
	}
}

func (f *fakeAPI) GetMyPlaylists(ctx context.Context, token string) ([]domain.PlaylistInfo, error) {
	return f.owned, nil
}

func (f *fakeAPI) GetPlaylistInfo(ctx context.Context, token, id string) (*domain.PlaylistInfo, error) {
	if p, ok := f.playlists[id]; ok {
		return &domain.PlaylistInfo{ID: id, Title: p.Title}, nil
	}
	return nil, domain.ErrPlaylistNotFound
}

func (f *fakeAPI) FetchPlaylistVideos(ctx context.Context, token, id string) (*domain.CachedPlaylistData, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, id)

	if err := f.errs[id]; err != nil {
		return nil, err
	}
	p, ok := f.playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlaylistNotFound, id)
	}
	cp := *p
	cp.Videos = append([]domain.Video(nil), p.Videos...)
	return &cp, nil
}

func (f *fakeAPI) fetchedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

type staticToken struct {
	token string
	err   error
}

func (s staticToken) Token(ctx context.Context) (string, error) {
	return s.token, s.err
}

type countingNotifier struct {
	mu    sync.Mutex
	count int
	err   error
}

func (n *countingNotifier) PlaylistsUpdated(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.count++
	return n.err
}

func (n *countingNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.count
}

type harness struct {
	store *store.ShelfStore
	cache *cache.Manager
	api   *fakeAPI
	feed  *FeedService
}

func newHarness(t *testing.T, tokens domain.TokenProvider) *harness {
	t.Helper()
	s, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := func() time.Time { return testNow }
	cm := cache.NewManager(s, log.NullLogger(), cache.WithClock(clock))
	api := newFakeAPI()
	feed := NewFeedService(s, cm, api, tokens, log.NullLogger(), WithFeedClock(clock), WithVideosPerPage(2))
	return &harness{store: s, cache: cm, api: api, feed: feed}
}

func (h *harness) selectIDs(t *testing.T, ids ...string) {
	t.Helper()
	sel, _ := h.store.GetSelection()
	sel.PlaylistIDs = ids
	if err := h.store.SaveSelection(sel); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}
}

func (h *harness) setSettings(t *testing.T, id string, p domain.PartialSettings) {
	t.Helper()
	sel, _ := h.store.GetSelection()
	if sel.PlaylistSettings == nil {
		sel.PlaylistSettings = map[string]domain.PartialSettings{}
	}
	sel.PlaylistSettings[id] = p
	if err := h.store.SaveSelection(sel); err != nil {
		t.Fatalf("SaveSelection() error = %v", err)
	}
}

func videos(prefix string, views ...int64) []domain.Video {
	out := make([]domain.Video, len(views))
	for i, v := range views {
		out[i] = domain.Video{
			VideoID:      fmt.Sprintf("%s%d", prefix, i),
			Title:        fmt.Sprintf("%s video %d", prefix, i),
			ChannelTitle: "Channel",
			ViewCount:    v,
			PublishedAt:  testNow.AddDate(0, 0, -i),
		}
	}
	return out
}

func rowIDs(rows []domain.MultiPlaylistData) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
