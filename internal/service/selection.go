package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/tubeshelf/internal/cache"
	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/filter"
)

// DefaultMaxPlaylists caps the selection when nothing else is configured
const DefaultMaxPlaylists = 5

// SelectionService manages which playlists are on the shelf and their
// per-playlist filter and sort settings
type SelectionService struct {
	store        domain.Store
	api          domain.PlaylistAPI
	tokens       domain.TokenProvider
	notifier     domain.UpdateNotifier
	cache        *cache.Manager
	maxPlaylists int
	logger       *slog.Logger
}

// NewSelectionService creates a new selection service. notifier and
// cacheMgr may be nil.
func NewSelectionService(store domain.Store, api domain.PlaylistAPI, tokens domain.TokenProvider,
	notifier domain.UpdateNotifier, cacheMgr *cache.Manager, maxPlaylists int, logger *slog.Logger) *SelectionService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxPlaylists <= 0 {
		maxPlaylists = DefaultMaxPlaylists
	}
	return &SelectionService{
		store:        store,
		api:          api,
		tokens:       tokens,
		notifier:     notifier,
		cache:        cacheMgr,
		maxPlaylists: maxPlaylists,
		logger:       logger,
	}
}

// Available returns liked videos followed by the user's own playlists
func (s *SelectionService) Available(ctx context.Context) ([]domain.PlaylistInfo, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	owned, err := s.api.GetMyPlaylists(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}

	return append([]domain.PlaylistInfo{domain.LikedPlaylist()}, owned...), nil
}

// Find returns available playlists whose title fuzzily matches query,
// closest first. An empty query returns everything.
func (s *SelectionService) Find(ctx context.Context, query string) ([]domain.PlaylistInfo, error) {
	available, err := s.Available(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return available, nil
	}

	titles := make([]string, len(available))
	for i, p := range available {
		titles[i] = p.Title
	}

	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Sort(ranks)

	out := make([]domain.PlaylistInfo, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, available[r.OriginalIndex])
	}
	return out, nil
}

// Selection returns the persisted selection, with the configured maximum
func (s *SelectionService) Selection() domain.Selection {
	sel, _ := s.store.GetSelection()
	sel.MaxPlaylists = s.maxPlaylists
	return sel
}

// Select replaces the selection. Settings of playlists no longer selected
// are dropped.
func (s *SelectionService) Select(ctx context.Context, ids []string) error {
	ids = dedupe(ids)
	if len(ids) > s.maxPlaylists {
		return fmt.Errorf("%w: %d selected, max %d", domain.ErrTooManyPlaylists, len(ids), s.maxPlaylists)
	}

	sel := s.Selection()
	sel.PlaylistIDs = ids
	for id := range sel.PlaylistSettings {
		if !slices.Contains(ids, id) {
			delete(sel.PlaylistSettings, id)
		}
	}

	if err := s.store.SaveSelection(sel); err != nil {
		return fmt.Errorf("save selection: %w", err)
	}

	s.logger.Info("selection updated", "playlists", len(ids))
	s.publish(ctx)
	return nil
}

// Settings returns the effective settings for a playlist
func (s *SelectionService) Settings(playlistID string) domain.FilterSortSettings {
	return s.Selection().SettingsFor(playlistID)
}

// UpdateSettings overlays partial onto a selected playlist's settings
func (s *SelectionService) UpdateSettings(ctx context.Context, playlistID string, partial domain.PartialSettings) error {
	sel := s.Selection()
	if !sel.IsSelected(playlistID) {
		return fmt.Errorf("%w: %s is not selected", domain.ErrPlaylistNotFound, playlistID)
	}

	updated := sel.SettingsFor(playlistID).With(&partial)
	if sel.PlaylistSettings == nil {
		sel.PlaylistSettings = make(map[string]domain.PartialSettings)
	}
	sel.PlaylistSettings[playlistID] = updated.Partial()

	if err := s.store.SaveSelection(sel); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("settings updated", "playlistID", playlistID, "sort", updated.Sort.By)
	s.publish(ctx)
	return nil
}

// ResetSettings returns a playlist to default settings
func (s *SelectionService) ResetSettings(ctx context.Context, playlistID string) error {
	sel := s.Selection()
	if _, ok := sel.PlaylistSettings[playlistID]; !ok {
		return nil
	}
	delete(sel.PlaylistSettings, playlistID)

	if err := s.store.SaveSelection(sel); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("settings reset", "playlistID", playlistID)
	s.publish(ctx)
	return nil
}

// Channels lists the channel names in a playlist's cached videos, for
// building channel filters
func (s *SelectionService) Channels(playlistID string) []string {
	return s.distinct(playlistID, filter.Channels)
}

// Categories lists the category names in a playlist's cached videos
func (s *SelectionService) Categories(playlistID string) []string {
	return s.distinct(playlistID, filter.Categories)
}

func (s *SelectionService) distinct(playlistID string, values func([]domain.Video) []string) []string {
	if s.cache == nil {
		return nil
	}
	entry, ok := s.cache.Get(playlistID)
	if !ok {
		return nil
	}
	// non-nil so callers can tell "cached but none" from "not cached"
	if out := values(entry.Videos); out != nil {
		return out
	}
	return []string{}
}

// publish is fire-and-forget; a failed notification is only logged
func (s *SelectionService) publish(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PlaylistsUpdated(ctx); err != nil {
		s.logger.Warn("failed to announce playlist update", "error", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
