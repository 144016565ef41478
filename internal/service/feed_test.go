package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

func int64p(n int64) *int64 { return &n }

func TestRefreshScenarioAColdCache(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add("PL123", videos("v", 10, 20, 30, 40, 50)...)
	h.selectIDs(t, "PL123")

	rows, err := h.feed.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "PL123" {
		t.Fatalf("rows = %v, want [PL123]", rowIDs(rows))
	}
	row := rows[0]
	if len(row.Videos) != 5 || row.Pagination.TotalVideos != 5 {
		t.Errorf("videos = %d, pagination total = %d, want 5/5", len(row.Videos), row.Pagination.TotalVideos)
	}
	if row.Pagination.CurrentPage != 0 || row.Pagination.VideosPerPage != 2 {
		t.Errorf("Pagination = %+v", row.Pagination)
	}
	if row.FromCache {
		t.Error("freshly fetched row marked as cached")
	}

	// written back, so the next refresh is served from cache
	rows, _ = h.feed.Refresh(context.Background())
	if len(h.api.fetchedIDs()) != 1 || !rows[0].FromCache {
		t.Errorf("second refresh fetched %v, FromCache = %v", h.api.fetchedIDs(), rows[0].FromCache)
	}
}

func TestRefreshScenarioBLikedWithViewFilter(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add(domain.LikedPlaylistID, videos("l", 5, 1_000_000, 999_999, 3_000_000, 12)...)
	h.selectIDs(t, domain.LikedPlaylistID)
	h.setSettings(t, domain.LikedPlaylistID, domain.PartialSettings{
		Filters: &domain.PartialFilters{ViewCount: &domain.PartialRange{Min: int64p(1_000_000)}},
	})

	rows, err := h.feed.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %v", rowIDs(rows))
	}
	got := rows[0].Videos
	if len(got) != 2 || got[0].VideoID != "l1" || got[1].VideoID != "l3" {
		t.Errorf("filtered videos = %+v, want l1, l3", got)
	}
	if rows[0].TotalFetched != 5 || rows[0].Pagination.TotalVideos != 2 {
		t.Errorf("TotalFetched = %d, Pagination = %+v", rows[0].TotalFetched, rows[0].Pagination)
	}

	if _, err := h.store.GetPlaylistCache(domain.LikedCacheKey); err != nil {
		t.Errorf("liked videos not cached under reserved key: %v", err)
	}
}

func TestRefreshScenarioDQuotaStopsLoop(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add("PL1", videos("a", 1, 2)...)
	h.api.add("PL2", videos("b", 1)...)
	h.api.add("PL3", videos("c", 1)...)
	h.api.add("PLcached", videos("d", 7)...)
	h.api.errs["PL2"] = &domain.APIError{Status: 403, Reason: "quotaExceeded", Message: "quota"}

	cached := *h.api.playlists["PLcached"]
	h.cache.Write([]domain.CachedPlaylistData{cached})
	h.selectIDs(t, "PLcached", "PL1", "PL2", "PL3")

	rows, err := h.feed.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := rowIDs(rows); !slices.Equal(got, []string{"PLcached", "PL1"}) {
		t.Errorf("rows = %v, want [PLcached PL1]", got)
	}
	if got := h.api.fetchedIDs(); !slices.Equal(got, []string{"PL1", "PL2"}) {
		t.Errorf("fetched = %v, want [PL1 PL2] (no request after quota)", got)
	}
	if _, err := h.store.GetPlaylistCache("PL1"); err != nil {
		t.Errorf("partial result not cached: %v", err)
	}
}

func TestRefreshAuthFailureAborts(t *testing.T) {
	h := newHarness(t, staticToken{token: "expired"})
	h.api.add("PL1", videos("a", 1)...)
	h.api.add("PL2", videos("b", 1)...)
	h.api.errs["PL1"] = &domain.APIError{Status: 401, Message: "Invalid Credentials"}
	h.selectIDs(t, "PL1", "PL2")

	rows, err := h.feed.Refresh(context.Background())
	if err != nil || len(rows) != 0 {
		t.Fatalf("Refresh() = %v, %v; want empty, nil", rowIDs(rows), err)
	}
	if got := h.api.fetchedIDs(); !slices.Equal(got, []string{"PL1"}) {
		t.Errorf("fetched = %v, want [PL1]", got)
	}
}

func TestRefreshTransientErrorSkipsPlaylist(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add("PL1", videos("a", 1)...)
	h.api.add("PL3", videos("c", 1)...)
	h.api.errs["PL1"] = &domain.APIError{Status: 503, Message: "backend error"}
	h.selectIDs(t, "PL1", "PLgone", "PL3")

	rows, err := h.feed.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if got := rowIDs(rows); !slices.Equal(got, []string{"PL3"}) {
		t.Errorf("rows = %v, want [PL3]", got)
	}
}

func TestRefreshScenarioCDroppedVideo(t *testing.T) {
	// the API client already drops missing details; the feed must not
	// reintroduce gaps
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add("PL1", videos("a", 1, 2, 4, 5)...)
	h.selectIDs(t, "PL1")

	rows, _ := h.feed.Refresh(context.Background())
	if len(rows) != 1 || len(rows[0].Videos) != 4 {
		t.Fatalf("rows = %+v", rows)
	}
	for _, v := range rows[0].Videos {
		if v.VideoID == "" {
			t.Error("empty video in result")
		}
	}
}

func TestRefreshKeepsEmptyFilteredRow(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add("PL1", videos("a", 1, 2)...)
	h.api.add("PLempty")
	h.selectIDs(t, "PL1", "PLempty")
	h.setSettings(t, "PL1", domain.PartialSettings{
		Filters: &domain.PartialFilters{ViewCount: &domain.PartialRange{Min: int64p(100)}},
	})

	rows, _ := h.feed.Refresh(context.Background())
	if got := rowIDs(rows); !slices.Equal(got, []string{"PL1", "PLempty"}) {
		t.Fatalf("rows = %v", got)
	}
	for _, row := range rows {
		if !row.NoMatches() || row.Videos == nil {
			t.Errorf("row %s = %+v, want non-nil empty videos", row.ID, row.Videos)
		}
		if row.Pagination.CurrentPage != 0 || row.Pagination.TotalPages() != 0 {
			t.Errorf("row %s pagination = %+v", row.ID, row.Pagination)
		}
	}
	if rows[0].TotalFetched != 2 {
		t.Errorf("TotalFetched = %d, want 2", rows[0].TotalFetched)
	}
}

func TestRefreshAppliesSort(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add("PL1", videos("a", 5, 50, 20)...)
	h.selectIDs(t, "PL1")
	by := domain.SortViews
	h.setSettings(t, "PL1", domain.PartialSettings{Sort: &domain.PartialSort{By: &by}})

	rows, _ := h.feed.Refresh(context.Background())
	var got []string
	for _, v := range rows[0].Videos {
		got = append(got, v.VideoID)
	}
	if !slices.Equal(got, []string{"a1", "a2", "a0"}) {
		t.Errorf("order = %v, want views desc", got)
	}
}

func TestRefreshNoSelectionOrNoToken(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	rows, err := h.feed.Refresh(context.Background())
	if err != nil || rows != nil {
		t.Errorf("no selection: Refresh() = %v, %v", rows, err)
	}

	h = newHarness(t, staticToken{err: domain.ErrNoToken})
	h.api.add("PL1", videos("a", 1)...)
	h.selectIDs(t, "PL1")
	rows, err = h.feed.Refresh(context.Background())
	if err != nil || rows != nil {
		t.Errorf("no token: Refresh() = %v, %v", rows, err)
	}
	if len(h.api.fetchedIDs()) != 0 {
		t.Error("fetched without a token")
	}
}

func TestBuildReportsEmptyReason(t *testing.T) {
	tests := []struct {
		name   string
		tokens domain.TokenProvider
		ids    []string
		fail   bool
		want   EmptyReason
	}{
		{"nothing selected", staticToken{token: "tok"}, nil, false, EmptyNoSelection},
		{"signed out", staticToken{err: domain.ErrNoToken}, []string{"PL1"}, false, EmptyNoToken},
		{"every fetch failed", staticToken{token: "tok"}, []string{"PL1"}, true, EmptyUnavailable},
		{"rows built", staticToken{token: "tok"}, []string{"PL1"}, false, NotEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.tokens)
			h.api.add("PL1", videos("a", 1)...)
			if tt.fail {
				h.api.errs["PL1"] = &domain.APIError{Status: 503, Message: "backend error"}
			}
			if tt.ids != nil {
				h.selectIDs(t, tt.ids...)
			}

			res, err := h.feed.Build(context.Background(), false)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if res.Empty != tt.want {
				t.Errorf("Build().Empty = %v, want %v", res.Empty, tt.want)
			}
			if (tt.want == NotEmpty) != (len(res.Rows) > 0) {
				t.Errorf("Build() rows = %v with reason %v", rowIDs(res.Rows), res.Empty)
			}
		})
	}
}

func TestForceRefreshBypassesCache(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add("PL1", videos("a", 1)...)
	h.selectIDs(t, "PL1")

	h.feed.Refresh(context.Background())
	rows, err := h.feed.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("ForceRefresh() error = %v", err)
	}
	if len(h.api.fetchedIDs()) != 2 || rows[0].FromCache {
		t.Errorf("fetched = %v, FromCache = %v", h.api.fetchedIDs(), rows[0].FromCache)
	}
}

func TestRefreshCancelled(t *testing.T) {
	h := newHarness(t, staticToken{token: "tok"})
	h.api.add("PL1", videos("a", 1)...)
	h.selectIDs(t, "PL1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.feed.Refresh(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Refresh(cancelled) error = %v", err)
	}
}
