package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/tui/styles"
)

const modalWidth = 56

// PickerModal chooses which playlists are on the shelf
type PickerModal struct {
	visible   bool
	playlists []domain.PlaylistInfo
	chosen    []string // selection order
	max       int
	cursor    int
	height    int
	note      string
}

// Show opens the picker with the current selection checked
func (m *PickerModal) Show(playlists []domain.PlaylistInfo, selected []string, max int) {
	m.visible = true
	m.playlists = playlists
	m.chosen = slices.Clone(selected)
	m.max = max
	m.cursor = 0
	m.note = ""
}

// Hide dismisses the picker
func (m *PickerModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the picker is shown
func (m PickerModal) IsVisible() bool {
	return m.visible
}

// Chosen returns the checked playlist IDs in the order they were checked
func (m PickerModal) Chosen() []string {
	return slices.Clone(m.chosen)
}

// SetHeight bounds the number of listed playlists
func (m *PickerModal) SetHeight(h int) {
	m.height = h
}

// HandleKeyMsg processes a key, returns (shouldClose, submitted)
func (m *PickerModal) HandleKeyMsg(msg tea.KeyMsg) (shouldClose bool, submitted bool) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.playlists)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case " ", "x":
		m.toggle()
	case "enter":
		return true, true
	case "esc", "q":
		return true, false
	}
	return false, false
}

func (m *PickerModal) toggle() {
	if m.cursor >= len(m.playlists) {
		return
	}
	id := m.playlists[m.cursor].ID
	if i := slices.Index(m.chosen, id); i >= 0 {
		m.chosen = slices.Delete(m.chosen, i, i+1)
		m.note = ""
		return
	}
	if len(m.chosen) >= m.max {
		m.note = fmt.Sprintf("At most %d playlists", m.max)
		return
	}
	m.chosen = append(m.chosen, id)
	m.note = ""
}

// View renders the picker
func (m PickerModal) View() string {
	if !m.visible {
		return ""
	}

	lines := []string{
		styles.TitleStyle.Render(fmt.Sprintf("Playlists (%d/%d)", len(m.chosen), m.max)),
		"",
	}

	if len(m.playlists) == 0 {
		lines = append(lines, styles.DimStyle.Render("No playlists found."))
	}

	visible := max(3, m.height-8)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(len(m.playlists), start+visible)

	for i := start; i < end; i++ {
		p := m.playlists[i]
		checkbox := "[ ]"
		if slices.Contains(m.chosen, p.ID) {
			checkbox = "[x]"
		}
		line := styles.Truncate(checkbox+" "+p.Title, modalWidth-6)
		switch {
		case i == m.cursor:
			line = styles.CursorStyle.Render(line)
		case checkbox == "[x]":
			line = styles.AccentStyle.Render(line)
		default:
			line = styles.SubtitleStyle.Render(line)
		}
		lines = append(lines, line)
	}

	lines = append(lines, "")
	if m.note != "" {
		lines = append(lines, styles.ErrorStyle.Render(m.note))
	}
	lines = append(lines, styles.DimStyle.Render("Space: Toggle  Enter: Save  Esc: Cancel"))

	return styles.ModalStyle.Width(modalWidth).Render(strings.Join(lines, "\n"))
}

// SettingsModal edits one row's filters and sort as key=value pairs
type SettingsModal struct {
	visible    bool
	playlistID string
	title      string
	current    string
	input      textinput.Model
	err        string
}

// NewSettingsModal creates a new settings modal
func NewSettingsModal() SettingsModal {
	ti := textinput.New()
	ti.Placeholder = "views.min=1000 upload=month sort=views"
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.Width = modalWidth - 8
	ti.PlaceholderStyle = styles.DimStyle

	return SettingsModal{input: ti}
}

// Show opens the editor for a row
func (m *SettingsModal) Show(row domain.MultiPlaylistData) tea.Cmd {
	m.visible = true
	m.playlistID = row.ID
	m.title = row.Title
	m.current = describeSettings(row.Settings)
	m.err = ""
	m.input.SetValue("")
	return m.input.Focus()
}

// Hide dismisses the editor
func (m *SettingsModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the editor is shown
func (m SettingsModal) IsVisible() bool {
	return m.visible
}

// PlaylistID returns the playlist being edited
func (m SettingsModal) PlaylistID() string {
	return m.playlistID
}

// Value returns the typed line
func (m SettingsModal) Value() string {
	return m.input.Value()
}

// SetError keeps the editor open with a message
func (m *SettingsModal) SetError(err error) {
	m.err = err.Error()
}

// Update handles input events, returns (modal, cmd, submitted)
func (m SettingsModal) Update(msg tea.Msg) (SettingsModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return m, nil, true
		case "esc":
			m.Hide()
			return m, nil, false
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the editor
func (m SettingsModal) View() string {
	if !m.visible {
		return ""
	}

	lines := []string{
		styles.TitleStyle.Render(styles.Truncate("Settings: "+m.title, modalWidth-6)),
		styles.DimStyle.Render(styles.Truncate(m.current, modalWidth-6)),
		"",
		m.input.View(),
		"",
	}
	if m.err != "" {
		lines = append(lines, styles.ErrorStyle.Render(styles.Truncate(m.err, modalWidth-6)))
	}
	lines = append(lines, styles.DimStyle.Render("Enter: Apply  Esc: Cancel"))

	return styles.ModalStyle.Width(modalWidth).Render(strings.Join(lines, "\n"))
}

// describeSettings summarises the non-default parts of s on one line
func describeSettings(s domain.FilterSortSettings) string {
	if s.IsDefault() {
		return "Default settings"
	}

	f := s.Filters
	var parts []string
	for _, r := range []struct {
		name string
		r    domain.Range
	}{
		{"views", f.ViewCount},
		{"likes", f.LikeCount},
		{"comments", f.CommentCount},
		{"duration", f.Duration},
	} {
		if r.r.Unbounded() {
			continue
		}
		if r.r.Max == nil {
			parts = append(parts, fmt.Sprintf("%s ≥ %d", r.name, r.r.Min))
		} else {
			parts = append(parts, fmt.Sprintf("%s %d to %d", r.name, r.r.Min, *r.r.Max))
		}
	}
	if f.UploadDate != "" && f.UploadDate != domain.UploadDateAll {
		parts = append(parts, "upload "+string(f.UploadDate))
	}
	if len(f.Channels) > 0 {
		parts = append(parts, "channels "+strings.Join(f.Channels, ","))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, "categories "+strings.Join(f.Categories, ","))
	}
	if f.Keywords != "" {
		parts = append(parts, fmt.Sprintf("keywords %q", f.Keywords))
	}
	if s.Sort.By != domain.SortDefault {
		parts = append(parts, fmt.Sprintf("sort %s %s", s.Sort.By, s.Sort.Direction))
	}
	return strings.Join(parts, " · ")
}

// centered places a modal in the middle of the screen
func centered(width, height int, modal string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}
