package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/service"
	"github.com/mmcdole/tubeshelf/internal/tui/styles"
)

const (
	// NoMatchesText is shown for a row whose filters removed every video
	NoMatchesText = "No videos match your filters"

	cardLines  = 3
	cardHeight = cardLines + 2 // plus border
	rowHeight  = cardHeight + 2
	cardGap    = 1
)

var numbers = message.NewPrinter(language.English)

// View renders the shelf
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.ShowHelp {
		return m.renderHelp()
	}
	if m.Picker.IsVisible() {
		return centered(m.Width, m.Height, m.Picker.View())
	}
	if m.Editor.IsVisible() {
		return centered(m.Width, m.Height, m.Editor.View())
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(0, m.Height-ChromeHeight)

	var body string
	if len(m.Rows) == 0 {
		body = m.renderEmpty(bodyHeight)
	} else {
		body = m.renderRows(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body),
		footer,
	)
}

func (m Model) renderHeader() string {
	title := styles.AccentStyle.Bold(true).Render("▶ tubeshelf")
	if len(m.Rows) == 0 {
		return title
	}
	return title + "  " + styles.DimStyle.Render(numbers.Sprintf("%d playlists", len(m.Rows)))
}

// renderEmpty shows only a hint saying why the shelf is empty
func (m Model) renderEmpty(height int) string {
	if m.Loading {
		return ""
	}

	var title, detail string
	switch m.Empty {
	case service.EmptyNoToken:
		title = "Not signed in."
		detail = "Run `tubeshelf login`, then press r to refresh."
	case service.EmptyUnavailable:
		title = "Selected playlists could not be loaded."
		detail = "Press R to retry, or p to choose other playlists."
	default:
		title = "No playlists selected."
		detail = fmt.Sprintf("Press p to choose up to %d playlists.", m.MaxPlaylists)
	}

	hint := styles.SubtitleStyle.Render(title) + "\n" + styles.DimStyle.Render(detail)
	return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, hint)
}

// renderRows shows the window of rows that keeps the cursor visible
func (m Model) renderRows(height int) string {
	visible := max(1, height/rowHeight)
	start := 0
	if m.Cursor >= visible {
		start = m.Cursor - visible + 1
	}
	end := min(len(m.Rows), start+visible)

	parts := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		parts = append(parts, m.renderRow(m.Rows[i], i == m.Cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderRow(row domain.MultiPlaylistData, active bool) string {
	width := max(10, m.Width-3)

	title := styles.RowHeaderStyle.Render(styles.Truncate(row.Title, width/2))
	p := row.Pagination
	info := numbers.Sprintf("%d of %d videos", len(row.Videos), row.TotalFetched)
	if pages := p.TotalPages(); pages > 1 {
		info += fmt.Sprintf(" · page %d/%d", p.CurrentPage+1, pages)
	}
	header := title + "  " + styles.DimStyle.Render(info)
	if row.FromCache {
		header += " " + styles.DimBadgeStyle.Render("cached")
	}
	if !row.Settings.IsDefault() {
		header += " " + styles.BadgeStyle.Render("filtered")
	}

	var content string
	if row.NoMatches() {
		content = lipgloss.NewStyle().Height(cardHeight).Render(styles.DimStyle.Render(NoMatchesText))
	} else {
		content = m.renderCards(row, width)
	}

	style := styles.IdleRowStyle
	if active {
		style = styles.ActiveRowStyle
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, header, content)) + "\n"
}

func (m Model) renderCards(row domain.MultiPlaylistData, width int) string {
	per := max(1, row.Pagination.VideosPerPage)
	cardWidth := max(8, (width-cardGap*(per-1))/per-2)
	inner := max(4, cardWidth-2)

	page := m.Session.CurrentPage(row.ID)
	cards := make([]string, 0, len(page)*2)
	for i, v := range page {
		if i > 0 {
			cards = append(cards, strings.Repeat(" ", cardGap))
		}
		cards = append(cards, renderCard(v, inner, cardWidth, m.now()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func renderCard(v domain.Video, inner, width int, now time.Time) string {
	meta := []string{v.FormattedViews()}
	if d := v.FormattedDuration(); d != "" {
		meta = append(meta, d)
	}
	if age := formatAge(v.PublishedAt, now); age != "" {
		meta = append(meta, age)
	}

	lines := []string{
		styles.TitleStyle.Render(styles.Truncate(v.Title, inner)),
		styles.SubtitleStyle.Render(styles.Truncate(v.ChannelTitle, inner)),
		styles.DimStyle.Render(styles.Truncate(strings.Join(meta, " · "), inner)),
	}
	return styles.CardStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// formatAge renders a coarse "3 days ago"
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Hour:
		return "just now"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	case d < 365*24*time.Hour:
		return plural(int(d.Hours()/(24*30)), "month")
	default:
		return plural(int(d.Hours()/(24*365)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func (m Model) renderFooter() string {
	var left string
	switch {
	case m.Loading:
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Refreshing playlists...")
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	}

	right := m.Help.ShortHelpView(m.Keys.ShortHelp())
	gap := max(0, m.Width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderHelp() string {
	h := m.Help
	h.ShowAll = true
	content := styles.TitleStyle.Render("Keys") + "\n\n" + h.View(m.Keys) + "\n\n" +
		styles.DimStyle.Render("Press any key to return...")
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center,
		styles.CardStyle.Padding(1, 2).Render(content))
}

// RenderSpinner renders one spinner frame
func RenderSpinner(frame int) string {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	return styles.SpinnerStyle.Render(frames[frame%len(frames)])
}
