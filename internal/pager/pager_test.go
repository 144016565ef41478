package pager

import (
	"fmt"
	"testing"

	"github.com/mmcdole/tubeshelf/internal/domain"
)

func makeVideos(n int) []domain.Video {
	videos := make([]domain.Video, n)
	for i := range videos {
		videos[i] = domain.Video{VideoID: fmt.Sprint(i)}
	}
	return videos
}

func TestVideosPerPage(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{1920, 5}, {1312, 5}, {1311, 4}, {1015, 4}, {1014, 3}, {768, 3}, {767, 2}, {0, 2},
	}
	for _, tt := range tests {
		if got := VideosPerPage(tt.width, nil); got != tt.want {
			t.Errorf("VideosPerPage(%d) = %d, want %d", tt.width, got, tt.want)
		}
	}

	custom := []Breakpoint{{MinWidth: 100, PerPage: 3}, {MinWidth: 50, PerPage: 0}}
	if got := VideosPerPage(10, custom); got != 1 {
		t.Errorf("VideosPerPage below all breakpoints = %d, want 1", got)
	}
}

func TestPageBounds(t *testing.T) {
	for total := 0; total <= 12; total++ {
		for perPage := 1; perPage <= 5; perPage++ {
			p := New(total, perPage)
			lastPage := max(0, (total+perPage-1)/perPage-1)

			for range 20 {
				p.Next()
			}
			if p.Page() != lastPage {
				t.Errorf("total=%d perPage=%d: after Next* page = %d, want %d", total, perPage, p.Page(), lastPage)
			}
			if p.Next() {
				t.Errorf("total=%d perPage=%d: Next on last page moved", total, perPage)
			}

			for range 20 {
				p.Previous()
			}
			if p.Page() != 0 {
				t.Errorf("total=%d perPage=%d: after Previous* page = %d", total, perPage, p.Page())
			}
			if p.Previous() {
				t.Errorf("total=%d perPage=%d: Previous on page 0 moved", total, perPage)
			}
		}
	}
}

func TestCurrentPage(t *testing.T) {
	videos := makeVideos(7)
	p := New(len(videos), 3)

	wantPages := [][]string{{"0", "1", "2"}, {"3", "4", "5"}, {"6"}}
	for i, want := range wantPages {
		got := p.CurrentPage(videos)
		if len(got) != len(want) {
			t.Fatalf("page %d = %d videos, want %d", i, len(got), len(want))
		}
		for j := range want {
			if got[j].VideoID != want[j] {
				t.Errorf("page %d[%d] = %s, want %s", i, j, got[j].VideoID, want[j])
			}
		}
		p.Next()
	}

	if got := New(0, 3).CurrentPage(nil); len(got) != 0 {
		t.Errorf("empty CurrentPage = %v", got)
	}
}

func TestSetVideosPerPageResets(t *testing.T) {
	p := New(20, 4)
	p.Next()
	p.Next()

	if p.SetVideosPerPage(4) {
		t.Error("unchanged page size reported a change")
	}
	if p.Page() != 2 {
		t.Errorf("unchanged page size moved page to %d", p.Page())
	}

	if !p.SetVideosPerPage(5) {
		t.Error("changed page size not reported")
	}
	if p.Page() != 0 || p.TotalPages() != 4 {
		t.Errorf("after resize page = %d, pages = %d", p.Page(), p.TotalPages())
	}
}

func TestSetTotalResets(t *testing.T) {
	p := New(10, 2)
	p.Next()
	p.SetTotal(3)

	state := p.State()
	want := domain.PaginationState{CurrentPage: 0, VideosPerPage: 2, TotalVideos: 3}
	if state != want {
		t.Errorf("State() = %+v, want %+v", state, want)
	}
	if p.TotalPages() != 2 {
		t.Errorf("TotalPages() = %d, want 2", p.TotalPages())
	}
}

func TestNewClampsInput(t *testing.T) {
	p := New(-5, 0)
	if p.PerPage() != 1 || p.Total() != 0 || p.TotalPages() != 0 {
		t.Errorf("New(-5, 0) = %+v", p.State())
	}
}
