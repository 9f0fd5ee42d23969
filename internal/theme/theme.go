package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/channel-kanban/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces StatusBarStyle while a failure is being reported.
var ErrorBarStyle = StatusBarStyle.
	Background(ColorRed)

// PanelStyle wraps the help and command panels.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// GroupHeaderStyle renders group and subgroup rows of the structure list.
var GroupHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// DimmedStyle is used for secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// StaleStyle flags data shown from the local snapshot.
var StaleStyle = lipgloss.NewStyle().
	Foreground(ColorYellow).
	Bold(true)

// ColumnStyle frames one status column of a board.
var ColumnStyle = lipgloss.NewStyle().
	Padding(0, 1).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// CurrentColumnStyle frames the column the entity currently sits in.
var CurrentColumnStyle = ColumnStyle.
	BorderForeground(ColorBlue).
	BorderStyle(lipgloss.ThickBorder())

// FocusedColumnStyle frames the column under the cursor.
var FocusedColumnStyle = ColumnStyle.
	BorderForeground(ColorMagenta)

// named maps the backend's color names onto the palette.
func named(name string) lipgloss.AdaptiveColor {
	switch name {
	case "yellow":
		return ColorYellow
	case "green":
		return ColorGreen
	case "blue":
		return ColorBlue
	case "purple":
		return ColorMagenta
	case "red":
		return ColorRed
	case "orange":
		return ColorOrange
	default:
		return ColorGray
	}
}

// StatusStyle returns the badge style for a status color name as returned
// by model.StatusLabel.
func StatusStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(named(color))
}

// NoteStyle returns the card style of a note color.
func NoteStyle(c model.NoteColor) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(named(string(c))).
		PaddingLeft(1)
}

// Apply selects the palette variant: "dark" or "light" force one, anything
// else keeps the terminal's detected background.
func Apply(name string) {
	switch name {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}
