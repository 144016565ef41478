package tui

import (
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/tubeshelf/internal/broker"
	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/pager"
	"github.com/mmcdole/tubeshelf/internal/service"
)

const (
	tickInterval   = 100 * time.Millisecond
	statusDuration = 3 * time.Second

	// cellWidthPx approximates one terminal cell in pixels so the shelf
	// shares breakpoints with pixel-based layouts
	cellWidthPx = 8

	// Vertical layout: header line plus footer line
	ChromeHeight = 2
)

// Model is the main Bubble Tea model for the shelf
type Model struct {
	Feed      *service.FeedService
	Session   *service.Session
	Selection *service.SelectionService
	events    <-chan broker.Event

	Keys   KeyMap
	Help   help.Model
	logger *slog.Logger

	// Data
	Rows   []domain.MultiPlaylistData
	Empty  service.EmptyReason
	Cursor int

	// Modals
	Picker PickerModal
	Editor SettingsModal

	// Dimensions
	Width   int
	Height  int
	PerPage int

	// UI state
	Ready        bool
	Loading      bool
	ShowHelp     bool
	SpinnerFrame int
	StatusMsg    string
	StatusIsErr  bool
	MaxPlaylists int

	now func() time.Time
}

// NewModel creates the shelf model. selection may be nil, which disables
// editing; events may be nil when no broker runs.
func NewModel(feed *service.FeedService, selection *service.SelectionService, events <-chan broker.Event,
	maxPlaylists int, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		Feed:         feed,
		Session:      service.NewSession(feed, service.DefaultVideosPerPage),
		Selection:    selection,
		events:       events,
		Editor:       NewSettingsModal(),
		Keys:         DefaultKeyMap(),
		Help:         help.New(),
		logger:       logger,
		PerPage:      service.DefaultVideosPerPage,
		Loading:      true,
		MaxPlaylists: maxPlaylists,
		now:          time.Now,
	}
}

// Init starts the first refresh and the background listeners
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadRowsCmd(m.Session, false),
		TickCmd(tickInterval),
		WaitForEventCmd(m.events),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.Help.Width = msg.Width
		m.Picker.SetHeight(msg.Height)
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(tickInterval)

	case RowsLoadedMsg:
		return m.handleRowsLoaded(msg)

	case PlaylistsUpdatedMsg:
		m.logger.Debug("playlists updated, rebuilding shelf", "event", msg.EventID)
		cmd := m.rebuild()
		return m, tea.Batch(cmd, WaitForEventCmd(m.events))

	case subscriptionClosedMsg:
		m.events = nil
		return m, nil

	case PlaylistsListedMsg:
		return m.handlePlaylistsListed(msg)

	case SelectionSavedMsg:
		return m.handleSelectionSaved(msg)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	// cursor blink and other input plumbing
	if m.Editor.IsVisible() {
		var cmd tea.Cmd
		m.Editor, cmd, _ = m.Editor.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Picker.IsVisible() {
		return m.handlePickerKey(msg)
	}
	if m.Editor.IsVisible() {
		return m.handleEditorKey(msg)
	}

	if key.Matches(msg, m.Keys.Quit) {
		m.Session.Close()
		return m, tea.Quit
	}

	if m.ShowHelp {
		m.ShowHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.Keys.Help):
		m.ShowHelp = true

	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}

	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.Rows)-1 {
			m.Cursor++
		}

	case key.Matches(msg, m.Keys.Left):
		if row, ok := m.selectedRow(); ok && m.Session.Previous(row.ID) {
			m.Rows = m.Session.Rows()
		}

	case key.Matches(msg, m.Keys.Right):
		if row, ok := m.selectedRow(); ok && m.Session.Next(row.ID) {
			m.Rows = m.Session.Rows()
		}

	case key.Matches(msg, m.Keys.Refresh):
		return m.startRefresh(false)

	case key.Matches(msg, m.Keys.ForceRefresh):
		return m.startRefresh(true)

	case key.Matches(msg, m.Keys.Playlists):
		if m.Selection == nil {
			return m.setStatus("Playlist selection is not available here", true)
		}
		m.StatusMsg = "Loading playlists..."
		m.StatusIsErr = false
		return m, ListPlaylistsCmd(m.Selection)

	case key.Matches(msg, m.Keys.Settings):
		row, ok := m.selectedRow()
		if !ok || m.Selection == nil {
			return m, nil
		}
		return m, m.Editor.Show(row)

	case key.Matches(msg, m.Keys.Reset):
		row, ok := m.selectedRow()
		if !ok || m.Selection == nil || row.Settings.IsDefault() {
			return m, nil
		}
		return m, ResetSettingsCmd(m.Selection, row.ID)
	}

	return m, nil
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	shouldClose, submitted := m.Picker.HandleKeyMsg(msg)
	if !shouldClose {
		return m, nil
	}
	m.Picker.Hide()
	if !submitted {
		return m, nil
	}
	return m, SaveSelectionCmd(m.Selection, m.Picker.Chosen())
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var (
		cmd       tea.Cmd
		submitted bool
	)
	m.Editor, cmd, submitted = m.Editor.Update(msg)
	if !submitted {
		return m, cmd
	}

	args := service.SplitSettingLine(m.Editor.Value())
	if len(args) == 0 {
		m.Editor.Hide()
		return m, nil
	}
	partial, err := service.ParseSettingArgs(args)
	if err != nil {
		m.Editor.SetError(err)
		return m, nil
	}
	id := m.Editor.PlaylistID()
	m.Editor.Hide()
	return m, UpdateSettingsCmd(m.Selection, id, partial)
}

func (m Model) handlePlaylistsListed(msg PlaylistsListedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Error("failed to list playlists", "error", msg.Err)
		if errors.Is(msg.Err, domain.ErrNoToken) {
			return m.setStatus("Not signed in; run `tubeshelf login`", true)
		}
		return m.setStatus(ErrMsg{Err: msg.Err, Context: "playlists"}.Error(), true)
	}
	m.StatusMsg = ""
	m.Picker.Show(msg.Playlists, msg.Selected, msg.Max)
	return m, nil
}

// handleSelectionSaved reports the edit. Without a broker there is no
// update event, so the shelf is rebuilt here.
func (m Model) handleSelectionSaved(msg SelectionSavedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Error("failed to save selection", "error", msg.Err)
		return m.setStatus(ErrMsg{Err: msg.Err, Context: "save"}.Error(), true)
	}
	next, cmd := m.setStatus(msg.Status, false)
	m = next.(Model)
	if m.events == nil {
		return m, tea.Batch(cmd, m.rebuild())
	}
	return m, cmd
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusDuration)
}

// startRefresh ignores the request while a refresh is running
func (m Model) startRefresh(force bool) (tea.Model, tea.Cmd) {
	if m.Loading || m.Session.Busy() {
		return m, nil
	}
	m.Loading = true
	return m, LoadRowsCmd(m.Session, force)
}

func (m Model) handleRowsLoaded(msg RowsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.SessionID != m.Session.ID {
		m.logger.Debug("discarding rows from torn-down session", "session", msg.SessionID)
		return m, nil
	}

	switch {
	case errors.Is(msg.Err, service.ErrRefreshInFlight):
		return m, nil
	case errors.Is(msg.Err, service.ErrSessionClosed):
		m.Loading = false
		return m, nil
	case msg.Err != nil:
		m.Loading = false
		m.logger.Error("refresh failed", "error", msg.Err)
		m.StatusMsg = ErrMsg{Err: msg.Err, Context: "refresh"}.Error()
		m.StatusIsErr = true
		return m, ClearStatusCmd(statusDuration)
	}

	m.Loading = false
	m.Rows = msg.Rows
	m.Empty = msg.Empty
	m.Cursor = min(m.Cursor, max(0, len(m.Rows)-1))
	return m, nil
}

// rebuild tears down the session and starts a fresh one
func (m *Model) rebuild() tea.Cmd {
	m.Session.Close()
	m.Session = service.NewSession(m.Feed, m.PerPage)
	m.Rows = nil
	m.Empty = service.NotEmpty
	m.Cursor = 0
	m.Loading = true
	return LoadRowsCmd(m.Session, false)
}

// resize recomputes videos per page for every row; changed rows restart at
// page 0
func (m *Model) resize() {
	per := pager.VideosPerPage(m.Width*cellWidthPx, pager.DefaultBreakpoints)
	m.PerPage = per
	if m.Session.SetVideosPerPage(per) {
		m.Rows = m.Session.Rows()
	}
}

func (m Model) selectedRow() (domain.MultiPlaylistData, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return domain.MultiPlaylistData{}, false
	}
	return m.Rows[m.Cursor], true
}
