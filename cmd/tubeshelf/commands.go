package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/filter"
	"github.com/mmcdole/tubeshelf/internal/service"
	"github.com/mmcdole/tubeshelf/internal/tui"
	"github.com/mmcdole/tubeshelf/internal/tui/styles"
)

func (a *app) login(ctx context.Context) error {
	if _, err := a.auth.GetToken(ctx, true); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Println("Signed in.")
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.broker.ClearToken(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	a.cache.Clear()
	fmt.Println("Signed out. Run `tubeshelf login` to sign in again.")
	return nil
}

func (a *app) playlists(ctx context.Context, query string) error {
	found, err := a.selection.Find(ctx, query)
	if err != nil {
		return noTokenHint(err)
	}

	selected := make(map[string]bool)
	for _, id := range a.selection.Selection().PlaylistIDs {
		selected[id] = true
	}

	rows := make([][]string, 0, len(found))
	for _, p := range found {
		mark := ""
		if selected[p.ID] {
			mark = "✓"
		}
		count := ""
		if p.VideoCount > 0 {
			count = strconv.FormatInt(p.VideoCount, 10)
		}
		rows = append(rows, []string{mark, p.ID, p.Title, count})
	}
	printTable(os.Stdout, []string{"", "ID", "TITLE", "VIDEOS"}, rows)
	return nil
}

func (a *app) selectPlaylists(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return errors.New("usage: tubeshelf select ID...")
	}
	if err := a.selection.Select(ctx, ids); err != nil {
		return err
	}
	sel := a.selection.Selection()
	fmt.Printf("Selected %d of %d playlists: %s\n", len(sel.PlaylistIDs), sel.MaxPlaylists,
		strings.Join(sel.PlaylistIDs, ", "))
	return nil
}

func (a *app) set(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: tubeshelf set ID key=value...")
	}
	id := args[0]
	partial, err := service.ParseSettingArgs(args[1:])
	if err != nil {
		return err
	}
	if err := a.selection.UpdateSettings(ctx, id, partial); err != nil {
		return err
	}
	printSettings(os.Stdout, id, a.selection.Settings(id))
	return nil
}

func (a *app) reset(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tubeshelf reset ID")
	}
	if err := a.selection.ResetSettings(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Settings for %s restored to defaults.\n", args[0])
	return nil
}

func (a *app) refresh(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("refresh", flag.ContinueOnError)
	force := fs.Bool("force", false, "ignore cached playlists")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		rows []domain.MultiPlaylistData
		err  error
	)
	if *force {
		rows, err = a.feed.ForceRefresh(ctx)
	} else {
		rows, err = a.feed.Refresh(ctx)
	}
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("Nothing to show. Select playlists with `tubeshelf select`, or sign in with `tubeshelf login`.")
		return nil
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		source := "fetched"
		if r.FromCache {
			source = "cached"
		}
		top := tui.NoMatchesText
		if len(r.Videos) > 0 {
			top = styles.Truncate(r.Videos[0].Title, 40)
		}
		out = append(out, []string{
			r.Title,
			fmt.Sprintf("%d/%d", len(r.Videos), r.TotalFetched),
			fmt.Sprint(r.Pagination.TotalPages()),
			source,
			top,
		})
	}
	printTable(os.Stdout, []string{"PLAYLIST", "SHOWN", "PAGES", "SOURCE", "FIRST"}, out)
	return nil
}

func (a *app) channels(args []string) error {
	return a.listValues("channels", a.selection.Channels, args)
}

func (a *app) categories(args []string) error {
	return a.listValues("categories", a.selection.Categories, args)
}

// listValues prints a cached playlist's distinct values, fuzzy-matched
// against an optional query
func (a *app) listValues(cmd string, values func(string) []string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tubeshelf %s ID [query]", cmd)
	}
	all := values(args[0])
	if all == nil {
		return fmt.Errorf("no cached videos for %s; run `tubeshelf refresh` first", args[0])
	}
	list := all
	if len(args) > 1 {
		list = filter.Suggest(strings.Join(args[1:], " "), all)
	}
	for _, c := range list {
		fmt.Println(c)
	}
	return nil
}

func noTokenHint(err error) error {
	if errors.Is(err, domain.ErrNoToken) {
		return fmt.Errorf("%w; run `tubeshelf login`", err)
	}
	return err
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.DimStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.AccentStyle.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(w, t)
}

func printSettings(w io.Writer, id string, s domain.FilterSortSettings) {
	f := s.Filters
	rows := [][]string{
		{"views", formatRange(f.ViewCount)},
		{"likes", formatRange(f.LikeCount)},
		{"comments", formatRange(f.CommentCount)},
		{"duration (s)", formatRange(f.Duration)},
		{"upload", string(f.UploadDate)},
		{"channels", strings.Join(f.Channels, ", ")},
		{"categories", strings.Join(f.Categories, ", ")},
		{"keywords", f.Keywords},
		{"sort", fmt.Sprintf("%s %s", s.Sort.By, s.Sort.Direction)},
	}
	fmt.Fprintf(w, "Settings for %s\n", id)
	printTable(w, []string{"SETTING", "VALUE"}, rows)
}

func formatRange(r domain.Range) string {
	if r.Max == nil {
		return fmt.Sprintf("≥ %d", r.Min)
	}
	return fmt.Sprintf("%d to %d", r.Min, *r.Max)
}
