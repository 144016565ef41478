package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/tubeshelf/internal/broker"
	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/service"
)

const (
	refreshTimeout = 2 * time.Minute
	editTimeout    = 30 * time.Second
)

// LoadRowsCmd refreshes the shelf inside a session
func LoadRowsCmd(s *service.Session, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		rows, err := s.Load(ctx, force)
		return RowsLoadedMsg{SessionID: s.ID, Rows: rows, Empty: s.Empty(), Err: err}
	}
}

// ListPlaylistsCmd loads the playlists the picker offers
func ListPlaylistsCmd(sel *service.SelectionService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
		defer cancel()

		playlists, err := sel.Available(ctx)
		current := sel.Selection()
		return PlaylistsListedMsg{
			Playlists: playlists,
			Selected:  current.PlaylistIDs,
			Max:       current.MaxPlaylists,
			Err:       err,
		}
	}
}

// SaveSelectionCmd replaces the selection
func SaveSelectionCmd(sel *service.SelectionService, ids []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
		defer cancel()

		err := sel.Select(ctx, ids)
		return SelectionSavedMsg{Status: fmt.Sprintf("%d playlists selected", len(ids)), Err: err}
	}
}

// UpdateSettingsCmd applies a settings change to one playlist
func UpdateSettingsCmd(sel *service.SelectionService, playlistID string, partial domain.PartialSettings) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
		defer cancel()

		err := sel.UpdateSettings(ctx, playlistID, partial)
		return SelectionSavedMsg{Status: "Settings saved", Err: err}
	}
}

// ResetSettingsCmd restores one playlist's default settings
func ResetSettingsCmd(sel *service.SelectionService, playlistID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
		defer cancel()

		err := sel.ResetSettings(ctx, playlistID)
		return SelectionSavedMsg{Status: "Settings reset", Err: err}
	}
}

// WaitForEventCmd blocks until the broker announces a change
func WaitForEventCmd(events <-chan broker.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return subscriptionClosedMsg{}
		}
		return PlaylistsUpdatedMsg{EventID: ev.ID}
	}
}

// TickCmd schedules the next spinner frame
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status line after d
func ClearStatusCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
