package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmcdole/tubeshelf/internal/cache"
	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/filter"
	"github.com/mmcdole/tubeshelf/internal/pager"
	"github.com/mmcdole/tubeshelf/internal/sorter"
)

// DefaultVideosPerPage is the page size a fresh result starts with
const DefaultVideosPerPage = 4

// EmptyReason says why a refresh produced no rows
type EmptyReason int

const (
	// NotEmpty means at least one row was built
	NotEmpty EmptyReason = iota
	// EmptyNoSelection means no playlists are selected
	EmptyNoSelection
	// EmptyNoToken means playlists are selected but no access token is available
	EmptyNoToken
	// EmptyUnavailable means every selected playlist failed to load
	EmptyUnavailable
)

// Result is the outcome of one refresh
type Result struct {
	Rows  []domain.MultiPlaylistData
	Empty EmptyReason
}

// FeedService turns the persisted selection into rendered shelf rows:
// selection -> cache partition -> fetch -> filter -> sort -> page.
type FeedService struct {
	store   domain.Store
	cache   *cache.Manager
	api     domain.PlaylistAPI
	tokens  domain.TokenProvider
	filter  *filter.Engine
	perPage int
	now     func() time.Time
	logger  *slog.Logger
}

// FeedOption configures a FeedService
type FeedOption func(*FeedService)

// WithVideosPerPage sets the initial page size of every row
func WithVideosPerPage(n int) FeedOption {
	return func(s *FeedService) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// WithFeedClock replaces time.Now for upload-date filtering
func WithFeedClock(now func() time.Time) FeedOption {
	return func(s *FeedService) { s.now = now }
}

// NewFeedService creates a new feed service
func NewFeedService(store domain.Store, cacheMgr *cache.Manager, api domain.PlaylistAPI,
	tokens domain.TokenProvider, logger *slog.Logger, opts ...FeedOption) *FeedService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FeedService{
		store:   store,
		cache:   cacheMgr,
		api:     api,
		tokens:  tokens,
		filter:  filter.New(logger),
		perPage: DefaultVideosPerPage,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh builds rows for the current selection, serving fresh playlists
// from the cache and fetching the rest. Failures degrade to partial or
// empty results; only context cancellation is returned.
func (s *FeedService) Refresh(ctx context.Context) ([]domain.MultiPlaylistData, error) {
	res, err := s.Build(ctx, false)
	return res.Rows, err
}

// ForceRefresh drops the cached entries of every selected playlist first
func (s *FeedService) ForceRefresh(ctx context.Context) ([]domain.MultiPlaylistData, error) {
	res, err := s.Build(ctx, true)
	return res.Rows, err
}

// Build is Refresh (or ForceRefresh when force is set) that also reports
// why the result is empty
func (s *FeedService) Build(ctx context.Context, force bool) (Result, error) {
	sel, ok := s.store.GetSelection()
	if !ok || len(sel.PlaylistIDs) == 0 {
		s.logger.Debug("no playlists selected")
		return Result{Empty: EmptyNoSelection}, nil
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		s.logger.Warn("no access token, skipping refresh", "error", err)
		return Result{Empty: EmptyNoToken}, nil
	}

	if force {
		for _, id := range sel.PlaylistIDs {
			s.cache.Invalidate(id)
		}
	}

	part := s.cache.Partition(sel.PlaylistIDs)
	fetched, err := s.fetchExpired(ctx, token, part.Expired)
	if err != nil {
		return Result{}, err
	}
	s.cache.Write(fetched)

	entries := make(map[string]domain.CachedPlaylistData, len(part.Fresh)+len(fetched))
	fromCache := make(map[string]bool, len(part.Fresh))
	for _, e := range part.Fresh {
		entries[e.PlaylistID] = e
		fromCache[e.PlaylistID] = true
	}
	for _, e := range fetched {
		entries[e.PlaylistID] = e
	}

	now := s.now()
	rows := make([]domain.MultiPlaylistData, 0, len(entries))
	seen := make(map[string]bool, len(sel.PlaylistIDs))
	for _, id := range sel.PlaylistIDs {
		entry, ok := entries[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, s.buildRow(entry, sel.SettingsFor(id), fromCache[id], now))
	}

	s.logger.Info("refreshed shelf", "selected", len(sel.PlaylistIDs),
		"cached", len(part.Fresh), "fetched", len(fetched), "rows", len(rows))
	if len(rows) == 0 {
		return Result{Rows: rows, Empty: EmptyUnavailable}, nil
	}
	return Result{Rows: rows}, nil
}

// fetchExpired fetches playlists one at a time. Quota exhaustion and auth
// failure stop the loop but keep what was already fetched; other failures
// skip just that playlist.
func (s *FeedService) fetchExpired(ctx context.Context, token string, ids []string) ([]domain.CachedPlaylistData, error) {
	var fetched []domain.CachedPlaylistData

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := s.api.FetchPlaylistVideos(ctx, token, id)
		switch {
		case err == nil:
			entry.PlaylistID = id
			fetched = append(fetched, *entry)
			continue
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, domain.ErrQuotaExceeded):
			s.logger.Warn("quota exhausted, keeping partial results",
				"playlistID", id, "fetched", len(fetched), "skipped", len(ids)-i)
			return fetched, nil
		case errors.Is(err, domain.ErrAuthFailed):
			s.logger.Error("access token rejected, aborting fetch",
				"playlistID", id, "fetched", len(fetched), "error", err)
			return fetched, nil
		case domain.IsTransient(err):
			s.logger.Warn("transient failure fetching playlist, skipping", "playlistID", id, "error", err)
		default:
			s.logger.Error("failed to fetch playlist, skipping", "playlistID", id, "error", err)
		}
	}
	return fetched, nil
}

func (s *FeedService) buildRow(entry domain.CachedPlaylistData, settings domain.FilterSortSettings,
	fromCache bool, now time.Time) domain.MultiPlaylistData {
	videos := entry.Videos
	if len(videos) > 0 {
		videos = s.filter.Apply(videos, settings.Filters, now)
		videos = sorter.Apply(videos, settings.Sort)
	}
	if videos == nil {
		videos = []domain.Video{}
	}

	return domain.MultiPlaylistData{
		ID:           entry.PlaylistID,
		Title:        entry.Title,
		Videos:       videos,
		TotalFetched: len(entry.Videos),
		Settings:     settings,
		Pagination:   pager.New(len(videos), s.perPage).State(),
		FromCache:    fromCache,
	}
}
