package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/pager"
)

// ErrRefreshInFlight is returned when a refresh starts while another one
// is still running in the same session
var ErrRefreshInFlight = errors.New("refresh already in progress")

// ErrSessionClosed is returned when results arrive after teardown
var ErrSessionClosed = errors.New("session closed")

// Session owns the shelf state for one view lifetime: the rendered rows,
// one pager per row and the guard against overlapping refreshes. A new
// Session replaces it whenever the view is torn down.
type Session struct {
	ID string

	feed *FeedService

	mu       sync.Mutex
	inFlight bool
	closed   bool
	perPage  int
	rows     []domain.MultiPlaylistData
	empty    EmptyReason
	pagers   map[string]*pager.Pager
}

// NewSession starts a session rendering perPage videos per row
func NewSession(feed *FeedService, perPage int) *Session {
	return &Session{
		ID:      uuid.NewString(),
		feed:    feed,
		perPage: max(1, perPage),
		pagers:  make(map[string]*pager.Pager),
	}
}

// TryBegin claims the refresh slot. It fails while a refresh is running or
// after Close.
func (s *Session) TryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight || s.closed {
		return false
	}
	s.inFlight = true
	return true
}

// End releases the refresh slot
func (s *Session) End() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// Busy reports whether a refresh is running
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Close tears the session down. Later results are discarded.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Stale reports whether the session was torn down
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Load runs a refresh under the re-entrancy guard and applies its result.
// The guard is released before returning.
func (s *Session) Load(ctx context.Context, force bool) ([]domain.MultiPlaylistData, error) {
	if !s.TryBegin() {
		if s.Stale() {
			return nil, ErrSessionClosed
		}
		return nil, ErrRefreshInFlight
	}
	defer s.End()

	res, err := s.feed.Build(ctx, force)
	if err != nil {
		return nil, err
	}
	if !s.Apply(res.Rows) {
		return nil, ErrSessionClosed
	}
	s.mu.Lock()
	s.empty = res.Empty
	s.mu.Unlock()
	return s.Rows(), nil
}

// Empty says why the last load produced no rows
func (s *Session) Empty() EmptyReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.empty
}

// Apply installs freshly built rows with a pager per row at page 0.
// It returns false, and changes nothing, once the session is stale.
func (s *Session) Apply(rows []domain.MultiPlaylistData) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}

	s.rows = rows
	s.pagers = make(map[string]*pager.Pager, len(rows))
	for i := range s.rows {
		p := pager.New(len(s.rows[i].Videos), s.perPage)
		s.pagers[s.rows[i].ID] = p
		s.rows[i].Pagination = p.State()
	}
	return true
}

// Rows returns the current rows with up-to-date pagination state
func (s *Session) Rows() []domain.MultiPlaylistData {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.MultiPlaylistData, len(s.rows))
	copy(out, s.rows)
	for i := range out {
		if p, ok := s.pagers[out[i].ID]; ok {
			out[i].Pagination = p.State()
		}
	}
	return out
}

// SetVideosPerPage resizes every row. Rows whose page size changed go back
// to page 0; it reports whether anything changed.
func (s *Session) SetVideosPerPage(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n = max(1, n)
	changed := n != s.perPage
	s.perPage = n
	for _, p := range s.pagers {
		if p.SetVideosPerPage(n) {
			changed = true
		}
	}
	return changed
}

// Next pages one row forward
func (s *Session) Next(playlistID string) bool {
	return s.withPager(playlistID, (*pager.Pager).Next)
}

// Previous pages one row back
func (s *Session) Previous(playlistID string) bool {
	return s.withPager(playlistID, (*pager.Pager).Previous)
}

func (s *Session) withPager(playlistID string, fn func(*pager.Pager) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pagers[playlistID]
	if !ok {
		return false
	}
	return fn(p)
}

// CurrentPage returns the visible videos of one row
func (s *Session) CurrentPage(playlistID string) []domain.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.ID != playlistID {
			continue
		}
		if p, ok := s.pagers[playlistID]; ok {
			return p.CurrentPage(row.Videos)
		}
	}
	return nil
}
