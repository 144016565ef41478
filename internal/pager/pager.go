// Package pager keeps the page window for one shelf row.
package pager

import (
	"github.com/mmcdole/tubeshelf/internal/domain"
)

// Breakpoint maps a minimum viewport width to a number of videos per page
type Breakpoint struct {
	MinWidth int
	PerPage  int
}

// DefaultBreakpoints are pixel widths, widest first
var DefaultBreakpoints = []Breakpoint{
	{MinWidth: 1312, PerPage: 5},
	{MinWidth: 1015, PerPage: 4},
	{MinWidth: 768, PerPage: 3},
	{MinWidth: 0, PerPage: 2},
}

// VideosPerPage returns the page size for width. Breakpoints must be ordered
// widest first; widths below every breakpoint get the last entry.
func VideosPerPage(width int, breakpoints []Breakpoint) int {
	if len(breakpoints) == 0 {
		breakpoints = DefaultBreakpoints
	}
	for _, bp := range breakpoints {
		if width >= bp.MinWidth {
			return max(1, bp.PerPage)
		}
	}
	return max(1, breakpoints[len(breakpoints)-1].PerPage)
}

// Pager is the page state machine for one playlist.
// Page is always within [0, max(1, TotalPages)).
type Pager struct {
	page    int
	perPage int
	total   int
}

// New creates a pager at page 0. perPage below 1 is treated as 1.
func New(total, perPage int) *Pager {
	return &Pager{
		perPage: max(1, perPage),
		total:   max(0, total),
	}
}

// Page returns the zero-based current page
func (p *Pager) Page() int { return p.page }

// PerPage returns the videos per page
func (p *Pager) PerPage() int { return p.perPage }

// Total returns the number of videos being paged
func (p *Pager) Total() int { return p.total }

// TotalPages returns ceil(total / perPage)
func (p *Pager) TotalPages() int {
	return p.State().TotalPages()
}

// HasNext reports whether Next would move
func (p *Pager) HasNext() bool { return p.page < p.TotalPages()-1 }

// HasPrevious reports whether Previous would move
func (p *Pager) HasPrevious() bool { return p.page > 0 }

// Next advances one page; a no-op on the last page
func (p *Pager) Next() bool {
	if !p.HasNext() {
		return false
	}
	p.page++
	return true
}

// Previous goes back one page; a no-op on page 0
func (p *Pager) Previous() bool {
	if !p.HasPrevious() {
		return false
	}
	p.page--
	return true
}

// SetVideosPerPage changes the page size. A change resets to page 0 and
// reports true so the caller can re-render.
func (p *Pager) SetVideosPerPage(n int) bool {
	n = max(1, n)
	if n == p.perPage {
		return false
	}
	p.perPage = n
	p.page = 0
	return true
}

// SetTotal replaces the video count after a new fetch or filter change and
// resets to page 0
func (p *Pager) SetTotal(n int) {
	p.total = max(0, n)
	p.page = 0
}

// CurrentPage returns the slice of videos on the current page, clipped to
// bounds
func (p *Pager) CurrentPage(videos []domain.Video) []domain.Video {
	start := p.page * p.perPage
	if start >= len(videos) {
		return nil
	}
	end := min(start+p.perPage, len(videos))
	return videos[start:end]
}

// State returns the current pagination state
func (p *Pager) State() domain.PaginationState {
	return domain.PaginationState{
		CurrentPage:   p.page,
		VideosPerPage: p.perPage,
		TotalVideos:   p.total,
	}
}
