package filter

import (
	"slices"
	"testing"
	"time"

	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/log"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr(n int64) *int64 { return &n }

func sampleVideos() []domain.Video {
	return []domain.Video{
		{VideoID: "a", Title: "Go Concurrency Patterns", ChannelTitle: "GopherCon", CategoryName: "Education",
			ViewCount: 1_000_000, LikeCount: 500, CommentCount: 40, Duration: "PT30M", DurationSeconds: 1800,
			PublishedAt: now.AddDate(0, 0, -3)},
		{VideoID: "b", Title: "Lo-fi beats", ChannelTitle: "Chill Radio", CategoryName: "Music",
			ViewCount: 999_999, LikeCount: 20, CommentCount: 0, Duration: "PT3M", DurationSeconds: 180,
			PublishedAt: now.AddDate(0, 0, -20)},
		{VideoID: "c", Title: "Rust vs Go", ChannelTitle: "GopherCon", CategoryName: "Science & Technology",
			ViewCount: 5_000_000, LikeCount: 9000, CommentCount: 1200, Duration: "PT12M", DurationSeconds: 720,
			PublishedAt: now.AddDate(0, -6, 0)},
		{VideoID: "d", Title: "Old talk", ChannelTitle: "Archive", CategoryName: "Education",
			ViewCount: 10, LikeCount: 1, CommentCount: 1, Duration: "PT1H", DurationSeconds: 3600,
			PublishedAt: now.AddDate(-2, 0, 0)},
	}
}

func ids(videos []domain.Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.VideoID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		filters domain.Filters
		want    []string
	}{
		{"defaults pass all", domain.DefaultSettings().Filters, []string{"a", "b", "c", "d"}},
		{"keyword in title", domain.Filters{Keywords: "go"}, []string{"a", "c"}},
		{"keyword in channel", domain.Filters{Keywords: "RADIO"}, []string{"b"}},
		{"keyword spans title and channel", domain.Filters{Keywords: "patterns gophercon"}, []string{"a"}},
		{"keyword keeps surrounding spaces", domain.Filters{Keywords: " con"}, []string{"a"}},
		{"view min", domain.Filters{ViewCount: domain.Range{Min: 1_000_000}}, []string{"a", "c"}},
		{"view max", domain.Filters{ViewCount: domain.Range{Max: ptr(999_999)}}, []string{"b", "d"}},
		{"comment exact", domain.Filters{CommentCount: domain.Range{Min: 40, Max: ptr(40)}}, []string{"a"}},
		{"duration window", domain.Filters{Duration: domain.Range{Min: 180, Max: ptr(720)}}, []string{"b", "c"}},
		{"category set", domain.Filters{Categories: []string{"Education"}}, []string{"a", "d"}},
		{"category exact", domain.Filters{Categories: []string{"education"}}, []string{}},
		{"channel set", domain.Filters{Channels: []string{"GopherCon", "Archive"}}, []string{"a", "c", "d"}},
		{"week", domain.Filters{UploadDate: domain.UploadDateWeek}, []string{"a"}},
		{"month", domain.Filters{UploadDate: domain.UploadDateMonth}, []string{"a", "b"}},
		{"year", domain.Filters{UploadDate: domain.UploadDateYear}, []string{"a", "b", "c"}},
		{"conjunctive", domain.Filters{Channels: []string{"GopherCon"}, ViewCount: domain.Range{Min: 2_000_000}}, []string{"c"}},
	}

	e := New(log.NullLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(e.Apply(sampleVideos(), tt.filters, now))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRangeInclusivity(t *testing.T) {
	e := New(log.NullLogger())
	videos := []domain.Video{
		{VideoID: "min", ViewCount: 100},
		{VideoID: "max", ViewCount: 200},
		{VideoID: "over", ViewCount: 201},
	}

	got := ids(e.Apply(videos, domain.Filters{ViewCount: domain.Range{Min: 100, Max: ptr(200)}}, now))
	if !slices.Equal(got, []string{"min", "max"}) {
		t.Errorf("Apply() = %v, want [min max]", got)
	}
}

func TestUploadDateBoundary(t *testing.T) {
	e := New(log.NullLogger())
	videos := []domain.Video{
		{VideoID: "7d", PublishedAt: now.Add(-7 * day)},
		{VideoID: "7d1h", PublishedAt: now.Add(-7*day - time.Hour)},
		{VideoID: "7d23h", PublishedAt: now.Add(-8*day + time.Hour)},
		{VideoID: "8d", PublishedAt: now.Add(-8 * day)},
	}

	got := ids(e.Apply(videos, domain.Filters{UploadDate: domain.UploadDateWeek}, now))
	if !slices.Equal(got, []string{"7d"}) {
		t.Errorf("Apply(week) = %v, want [7d]", got)
	}

	// evaluated against the supplied clock, not fetch time
	later := now.Add(2 * day)
	if got := ids(e.Apply(videos, domain.Filters{UploadDate: domain.UploadDateWeek}, later)); len(got) != 0 {
		t.Errorf("Apply(week) two days later = %v, want none", got)
	}
}

func TestFailOpen(t *testing.T) {
	e := New(log.NullLogger())
	videos := []domain.Video{
		{VideoID: "bad-duration", Duration: "forever"},
		{VideoID: "no-date"},
		{VideoID: "short", Duration: "PT10S", DurationSeconds: 10, PublishedAt: now.AddDate(-3, 0, 0)},
	}

	got := ids(e.Apply(videos, domain.Filters{Duration: domain.Range{Min: 60}}, now))
	if !slices.Equal(got, []string{"bad-duration"}) {
		t.Errorf("duration filter = %v, want [bad-duration]", got)
	}

	got = ids(e.Apply(videos, domain.Filters{UploadDate: domain.UploadDateYear}, now))
	if !slices.Equal(got, []string{"bad-duration", "no-date"}) {
		t.Errorf("upload filter = %v, want [bad-duration no-date]", got)
	}
}

func TestConjunctivity(t *testing.T) {
	e := New(log.NullLogger())
	f1 := domain.Filters{ViewCount: domain.Range{Min: 500_000}}
	f2 := domain.Filters{Channels: []string{"GopherCon"}, UploadDate: domain.UploadDateMonth}
	both := domain.Filters{
		ViewCount:  f1.ViewCount,
		Channels:   f2.Channels,
		UploadDate: f2.UploadDate,
	}

	videos := sampleVideos()
	chained := ids(e.Apply(e.Apply(videos, f1, now), f2, now))
	reversed := ids(e.Apply(e.Apply(videos, f2, now), f1, now))
	combined := ids(e.Apply(videos, both, now))

	if !slices.Equal(chained, combined) || !slices.Equal(reversed, combined) {
		t.Errorf("chained %v, reversed %v, combined %v", chained, reversed, combined)
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e := New(log.NullLogger())
	videos := sampleVideos()
	before := ids(videos)

	e.Apply(videos, domain.Filters{Keywords: "go"}, now)
	if !slices.Equal(ids(videos), before) {
		t.Errorf("input changed: %v", ids(videos))
	}
}

func TestChannelsAndCategories(t *testing.T) {
	videos := sampleVideos()
	if got := Channels(videos); !slices.Equal(got, []string{"Archive", "Chill Radio", "GopherCon"}) {
		t.Errorf("Channels() = %v", got)
	}
	if got := Categories(videos); !slices.Equal(got, []string{"Education", "Music", "Science & Technology"}) {
		t.Errorf("Categories() = %v", got)
	}
}

func TestSuggest(t *testing.T) {
	candidates := []string{"GopherCon", "Chill Radio", "Archive"}

	tests := []struct {
		query string
		first string
	}{
		{"gophercon", "GopherCon"},
		{"gphcn", "GopherCon"},
		{"chrad", "Chill Radio"},
	}
	for _, tt := range tests {
		got := Suggest(tt.query, candidates)
		if len(got) == 0 || got[0] != tt.first {
			t.Errorf("Suggest(%q) = %v, want %q first", tt.query, got, tt.first)
		}
	}
	if got := Suggest("  ", candidates); got != nil {
		t.Errorf("Suggest(blank) = %v, want nil", got)
	}
}
