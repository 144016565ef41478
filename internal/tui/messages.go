package tui

import (
	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/service"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// RowsLoadedMsg carries the result of a refresh for one session
type RowsLoadedMsg struct {
	SessionID string
	Rows      []domain.MultiPlaylistData
	Empty     service.EmptyReason
	Err       error
}

// PlaylistsListedMsg carries the playlists offered by the picker
type PlaylistsListedMsg struct {
	Playlists []domain.PlaylistInfo
	Selected  []string
	Max       int
	Err       error
}

// SelectionSavedMsg reports a selection or settings change made from the
// shelf. The shelf rebuild follows from the broker event.
type SelectionSavedMsg struct {
	Status string
	Err    error
}

// PlaylistsUpdatedMsg signals that the selection or settings changed
// elsewhere and the shelf must be rebuilt
type PlaylistsUpdatedMsg struct {
	EventID string
}

// subscriptionClosedMsg means the broker went away
type subscriptionClosedMsg struct{}

// TickMsg drives the spinner
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}
