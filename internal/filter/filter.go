// Package filter reduces a playlist's videos to the ones matching its
// filter settings.
package filter

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

const day = 24 * time.Hour

// Engine evaluates filter settings against videos
type Engine struct {
	logger *slog.Logger
}

// New creates a filter engine
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Apply returns the videos passing every active filter, in their original
// order. now is the reference for upload-date windows. A video whose fields
// cannot be evaluated passes.
func (e *Engine) Apply(videos []domain.Video, f domain.Filters, now time.Time) []domain.Video {
	keyword := strings.ToLower(f.Keywords)
	maxAge := f.UploadDate.MaxAgeDays()

	out := make([]domain.Video, 0, len(videos))
	for _, v := range videos {
		if keyword != "" && !strings.Contains(strings.ToLower(v.Title+" "+v.ChannelTitle), keyword) {
			continue
		}
		if !f.ViewCount.Contains(v.ViewCount) ||
			!f.LikeCount.Contains(v.LikeCount) ||
			!f.CommentCount.Contains(v.CommentCount) {
			continue
		}
		if !f.Duration.Unbounded() && !e.durationPasses(v, f.Duration) {
			continue
		}
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, v.CategoryName) {
			continue
		}
		if len(f.Channels) > 0 && !slices.Contains(f.Channels, v.ChannelTitle) {
			continue
		}
		if maxAge > 0 && !e.agePasses(v, maxAge, now) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func (e *Engine) durationPasses(v domain.Video, r domain.Range) bool {
	secs := v.DurationSeconds
	if v.Duration != "" {
		parsed, err := domain.ParseDuration(v.Duration)
		if err != nil {
			e.logger.Warn("cannot evaluate duration filter, keeping video",
				"videoID", v.VideoID, "duration", v.Duration, "error", err)
			return true
		}
		secs = parsed
	}
	return r.Contains(secs)
}

func (e *Engine) agePasses(v domain.Video, maxAgeDays int, now time.Time) bool {
	if v.PublishedAt.IsZero() {
		e.logger.Warn("cannot evaluate upload date filter, keeping video", "videoID", v.VideoID)
		return true
	}
	return now.Sub(v.PublishedAt) <= time.Duration(maxAgeDays)*day
}

// Channels returns the distinct channel names in videos, sorted
func Channels(videos []domain.Video) []string {
	return distinct(videos, func(v domain.Video) string { return v.ChannelTitle })
}

// Categories returns the distinct category names in videos, sorted
func Categories(videos []domain.Video) []string {
	return distinct(videos, func(v domain.Video) string { return v.CategoryName })
}

func distinct(videos []domain.Video, field func(domain.Video) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, v := range videos {
		s := field(v)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		values = append(values, s)
	}
	slices.Sort(values)
	return values
}

// Suggest ranks candidates against a possibly mistyped query, best first.
// An exact match is returned alone.
func Suggest(query string, candidates []string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	for _, c := range candidates {
		if strings.EqualFold(c, query) {
			return []string{c}
		}
	}

	matches := fuzzy.Find(query, candidates)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}
