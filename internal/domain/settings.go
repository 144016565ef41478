package domain

import "time"

// UploadDate limits videos by age
type UploadDate string

const (
	UploadDateAll   UploadDate = "all"
	UploadDateWeek  UploadDate = "week"
	UploadDateMonth UploadDate = "month"
	UploadDateYear  UploadDate = "year"
)

// MaxAgeDays returns the age limit in days, or 0 for no limit
func (u UploadDate) MaxAgeDays() int {
	switch u {
	case UploadDateWeek:
		return 7
	case UploadDateMonth:
		return 30
	case UploadDateYear:
		return 365
	default:
		return 0
	}
}

// Valid reports whether u is a known upload date window
func (u UploadDate) Valid() bool {
	switch u {
	case UploadDateAll, UploadDateWeek, UploadDateMonth, UploadDateYear:
		return true
	}
	return false
}

// SortBy is the field a playlist is ordered by
type SortBy string

const (
	SortDefault  SortBy = "default"
	SortViews    SortBy = "views"
	SortLikes    SortBy = "likes"
	SortComments SortBy = "comments"
	SortDate     SortBy = "date"
	SortDuration SortBy = "duration"
	SortTitle    SortBy = "title"
	SortChannel  SortBy = "channel"
	SortRandom   SortBy = "random"
)

// SortOptions returns every sort field in display order
func SortOptions() []SortBy {
	return []SortBy{SortDefault, SortViews, SortLikes, SortComments, SortDate, SortDuration, SortTitle, SortChannel, SortRandom}
}

// Valid reports whether s is a known sort field
func (s SortBy) Valid() bool {
	for _, opt := range SortOptions() {
		if s == opt {
			return true
		}
	}
	return false
}

// String returns the display name for the sort field
func (s SortBy) String() string {
	switch s {
	case SortDefault:
		return "Default"
	case SortViews:
		return "Views"
	case SortLikes:
		return "Likes"
	case SortComments:
		return "Comments"
	case SortDate:
		return "Upload Date"
	case SortDuration:
		return "Duration"
	case SortTitle:
		return "Title"
	case SortChannel:
		return "Channel"
	case SortRandom:
		return "Random"
	default:
		return "Unknown"
	}
}

// SortDirection represents sort direction
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Range is an inclusive numeric bound. A nil Max is unbounded above.
type Range struct {
	Min int64  `json:"min"`
	Max *int64 `json:"max"`
}

// Contains reports whether v lies within the range
func (r Range) Contains(v int64) bool {
	if v < r.Min {
		return false
	}
	return r.Max == nil || v <= *r.Max
}

// Unbounded reports whether the range passes every non-negative value
func (r Range) Unbounded() bool {
	return r.Min <= 0 && r.Max == nil
}

// Filters is the set of per-playlist filter dimensions
type Filters struct {
	ViewCount    Range      `json:"viewCount"`
	LikeCount    Range      `json:"likeCount"`
	CommentCount Range      `json:"commentCount"`
	UploadDate   UploadDate `json:"uploadDate"`
	Duration     Range      `json:"duration"` // seconds
	Channels     []string   `json:"channels"`
	Categories   []string   `json:"categories"`
	Keywords     string     `json:"keywords"`
}

// Sort is the ordering applied after filtering
type Sort struct {
	By        SortBy        `json:"by"`
	Direction SortDirection `json:"direction"`
}

// FilterSortSettings is a playlist's effective filter and sort configuration
type FilterSortSettings struct {
	Filters Filters `json:"filters"`
	Sort    Sort    `json:"sort"`
}

// DefaultSettings returns pass-all filters and playlist order
func DefaultSettings() FilterSortSettings {
	return FilterSortSettings{
		Filters: Filters{UploadDate: UploadDateAll},
		Sort:    Sort{By: SortDefault, Direction: SortDesc},
	}
}

// IsDefault reports whether the settings neither filter nor reorder
func (s FilterSortSettings) IsDefault() bool {
	f := s.Filters
	return f.ViewCount.Unbounded() && f.LikeCount.Unbounded() && f.CommentCount.Unbounded() &&
		f.Duration.Unbounded() && (f.UploadDate == UploadDateAll || f.UploadDate == "") &&
		len(f.Channels) == 0 && len(f.Categories) == 0 && f.Keywords == "" &&
		s.Sort.By == SortDefault
}

// PartialRange is the stored form of a Range; nil fields fall back to defaults
type PartialRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// PartialFilters is the stored form of Filters
type PartialFilters struct {
	ViewCount    *PartialRange `json:"viewCount,omitempty"`
	LikeCount    *PartialRange `json:"likeCount,omitempty"`
	CommentCount *PartialRange `json:"commentCount,omitempty"`
	UploadDate   *UploadDate   `json:"uploadDate,omitempty"`
	Duration     *PartialRange `json:"duration,omitempty"`
	Channels     []string      `json:"channels,omitempty"`
	Categories   []string      `json:"categories,omitempty"`
	Keywords     *string       `json:"keywords,omitempty"`
}

// PartialSort is the stored form of Sort
type PartialSort struct {
	By        *SortBy        `json:"by,omitempty"`
	Direction *SortDirection `json:"direction,omitempty"`
}

// PartialSettings is what gets persisted per playlist. Any field may be missing.
type PartialSettings struct {
	Filters *PartialFilters `json:"filters,omitempty"`
	Sort    *PartialSort    `json:"sort,omitempty"`
}

// MergeSettings fills every missing or invalid field of p with its default.
// Fields fall back individually, never wholesale.
func MergeSettings(p *PartialSettings) FilterSortSettings {
	return DefaultSettings().With(p)
}

// With overlays the fields present in p onto s. Invalid values are ignored
// and a negative range max clears the upper bound.
func (s FilterSortSettings) With(p *PartialSettings) FilterSortSettings {
	s.Filters.Channels = append([]string(nil), s.Filters.Channels...)
	s.Filters.Categories = append([]string(nil), s.Filters.Categories...)
	if p == nil {
		return s
	}
	if f := p.Filters; f != nil {
		s.Filters.ViewCount = mergeRange(s.Filters.ViewCount, f.ViewCount)
		s.Filters.LikeCount = mergeRange(s.Filters.LikeCount, f.LikeCount)
		s.Filters.CommentCount = mergeRange(s.Filters.CommentCount, f.CommentCount)
		s.Filters.Duration = mergeRange(s.Filters.Duration, f.Duration)
		if f.UploadDate != nil && f.UploadDate.Valid() {
			s.Filters.UploadDate = *f.UploadDate
		}
		if f.Channels != nil {
			s.Filters.Channels = append([]string(nil), f.Channels...)
		}
		if f.Categories != nil {
			s.Filters.Categories = append([]string(nil), f.Categories...)
		}
		if f.Keywords != nil {
			s.Filters.Keywords = *f.Keywords
		}
	}
	if so := p.Sort; so != nil {
		if so.By != nil && so.By.Valid() {
			s.Sort.By = *so.By
		}
		if so.Direction != nil && (*so.Direction == SortAsc || *so.Direction == SortDesc) {
			s.Sort.Direction = *so.Direction
		}
	}
	return s
}

func mergeRange(base Range, p *PartialRange) Range {
	if p == nil {
		return base
	}
	r := base
	if p.Min != nil && *p.Min >= 0 {
		r.Min = *p.Min
	}
	if p.Max != nil {
		if *p.Max < 0 {
			r.Max = nil
		} else {
			max := *p.Max
			r.Max = &max
		}
	}
	return r
}

// Partial converts effective settings to their stored form
func (s FilterSortSettings) Partial() PartialSettings {
	f := s.Filters
	upload := f.UploadDate
	keywords := f.Keywords
	by := s.Sort.By
	dir := s.Sort.Direction
	return PartialSettings{
		Filters: &PartialFilters{
			ViewCount:    partialRange(f.ViewCount),
			LikeCount:    partialRange(f.LikeCount),
			CommentCount: partialRange(f.CommentCount),
			UploadDate:   &upload,
			Duration:     partialRange(f.Duration),
			Channels:     append([]string{}, f.Channels...),
			Categories:   append([]string{}, f.Categories...),
			Keywords:     &keywords,
		},
		Sort: &PartialSort{By: &by, Direction: &dir},
	}
}

func partialRange(r Range) *PartialRange {
	min := r.Min
	pr := &PartialRange{Min: &min}
	if r.Max != nil {
		max := *r.Max
		pr.Max = &max
	}
	return pr
}

// Selection is the persisted popup configuration
type Selection struct {
	PlaylistIDs      []string                   `json:"playlistIds"`
	MaxPlaylists     int                        `json:"maxPlaylists"`
	PlaylistSettings map[string]PartialSettings `json:"playlistSettings"`
}

// SettingsFor returns the merged settings for a playlist
func (s Selection) SettingsFor(id string) FilterSortSettings {
	if p, ok := s.PlaylistSettings[id]; ok {
		return MergeSettings(&p)
	}
	return DefaultSettings()
}

// IsSelected reports whether id is in the selection
func (s Selection) IsSelected(id string) bool {
	for _, sel := range s.PlaylistIDs {
		if sel == id {
			return true
		}
	}
	return false
}

// AuthFlags are persisted flags consumed by the token collaborator
type AuthFlags struct {
	SignedOut   bool      `json:"signedOut"`
	SignedOutAt time.Time `json:"signedOutAt,omitempty"`
}
