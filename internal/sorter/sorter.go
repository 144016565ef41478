// Package sorter orders a filtered playlist according to its sort settings.
package sorter

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

// Apply returns a new slice ordered by s. The input is never modified.
// Ties keep their input order.
func Apply(videos []domain.Video, s domain.Sort) []domain.Video {
	out := slices.Clone(videos)
	if len(out) < 2 {
		return out
	}

	switch s.By {
	case domain.SortRandom:
		shuffle(out)
		return out
	case domain.SortViews, domain.SortLikes, domain.SortComments, domain.SortDate, domain.SortDuration:
		key := numericKey(s.By)
		slices.SortStableFunc(out, func(a, b domain.Video) int {
			return directed(cmp.Compare(key(a), key(b)), s.Direction)
		})
	case domain.SortTitle, domain.SortChannel:
		col := collate.New(language.Und, collate.IgnoreCase)
		field := func(v domain.Video) string { return v.Title }
		if s.By == domain.SortChannel {
			field = func(v domain.Video) string { return v.ChannelTitle }
		}
		slices.SortStableFunc(out, func(a, b domain.Video) int {
			return directed(col.CompareString(field(a), field(b)), s.Direction)
		})
	}
	return out
}

// directed flips an ascending comparison for desc. Anything that is not
// asc sorts descending.
func directed(c int, dir domain.SortDirection) int {
	if dir == domain.SortAsc {
		return c
	}
	return -c
}

func numericKey(by domain.SortBy) func(domain.Video) int64 {
	switch by {
	case domain.SortViews:
		return func(v domain.Video) int64 { return v.ViewCount }
	case domain.SortLikes:
		return func(v domain.Video) int64 { return v.LikeCount }
	case domain.SortComments:
		return func(v domain.Video) int64 { return v.CommentCount }
	case domain.SortDate:
		return func(v domain.Video) int64 { return v.PublishedAt.Unix() }
	default:
		return func(v domain.Video) int64 { return v.DurationSeconds }
	}
}

// shuffle is a Fisher-Yates shuffle seeded fresh by math/rand/v2
func shuffle(videos []domain.Video) {
	for i := len(videos) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		videos[i], videos[j] = videos[j], videos[i]
	}
}
