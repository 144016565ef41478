package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Color palette
var (
	YouTubeRed = lipgloss.Color("#FF0033")
	Amber      = lipgloss.Color("#E5A00D")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
)

// Accent is the highlight color of the active theme
var Accent = YouTubeRed

// Text styles
var (
	TitleStyle     lipgloss.Style
	SubtitleStyle  lipgloss.Style
	DimStyle       lipgloss.Style
	AccentStyle    lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style
	SpinnerStyle   lipgloss.Style
	BadgeStyle     lipgloss.Style
	DimBadgeStyle  lipgloss.Style
	HelpKeyStyle   lipgloss.Style
	HelpDescStyle  lipgloss.Style
	CardStyle      lipgloss.Style
	RowHeaderStyle lipgloss.Style
	ActiveRowStyle lipgloss.Style
	IdleRowStyle   lipgloss.Style
	ModalStyle     lipgloss.Style
	CursorStyle    lipgloss.Style
)

func init() {
	build()
}

// SetTheme switches the accent palette. Unknown names keep the default.
func SetTheme(name string) {
	switch name {
	case "amber":
		Accent = Amber
	case "mono":
		Accent = White
	default:
		Accent = YouTubeRed
	}
	build()
}

func build() {
	TitleStyle = lipgloss.NewStyle().Foreground(White).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(LightGray)
	DimStyle = lipgloss.NewStyle().Foreground(DimGray)
	AccentStyle = lipgloss.NewStyle().Foreground(Accent)
	ErrorStyle = lipgloss.NewStyle().Foreground(Red)
	SuccessStyle = lipgloss.NewStyle().Foreground(Green)
	SpinnerStyle = lipgloss.NewStyle().Foreground(Accent)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(Accent).
		Padding(0, 1)

	DimBadgeStyle = lipgloss.NewStyle().
		Foreground(LightGray).
		Background(SlateLight).
		Padding(0, 1)

	HelpKeyStyle = lipgloss.NewStyle().Foreground(Accent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(DimGray)

	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray).
		Padding(0, 1)

	RowHeaderStyle = lipgloss.NewStyle().Foreground(White).Bold(true)

	ActiveRowStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(Accent).
		PaddingLeft(1)

	IdleRowStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true).
		PaddingLeft(1)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Accent).
		Padding(1, 2)

	CursorStyle = lipgloss.NewStyle().
		Foreground(White).
		Background(SlateLight)
}

// Truncate shortens s to width terminal cells with an ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
