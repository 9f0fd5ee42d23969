package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/channel-kanban/internal/theme"
)

// AppName heads every screen.
const AppName = "Channel Kanban"

// SyncState classifies how fresh the displayed data is.
type SyncState int

const (
	SyncLive SyncState = iota
	SyncBusy
	SyncOffline
	SyncFailing
)

// SyncStatus is the right-hand side of the header.
type SyncStatus struct {
	Text  string
	State SyncState
}

func (s SyncStatus) glyph() (string, lipgloss.TerminalColor) {
	switch s.State {
	case SyncBusy:
		return "↻", theme.ColorYellow
	case SyncOffline:
		return "◌", theme.ColorGray
	case SyncFailing:
		return "⚠", theme.ColorRed
	}
	return "●", theme.ColorGreen
}

// Header is the top bar: app name, the open channel and its stage, and the
// sync badge.
type Header struct {
	Channel string
	Stage   string
	Sync    SyncStatus
}

// Title is the left-hand text of the header.
func (h Header) Title() string {
	t := AppName
	if h.Channel != "" {
		t += " › " + h.Channel
		if h.Stage != "" {
			t += " · " + h.Stage
		}
	}
	return t
}

// StatusBar is the bottom line. Err, when set, replaces Hints.
type StatusBar struct {
	Mode  string
	Hints string
	Err   string
}

// Layout holds the terminal size and splits it into header, content and
// status bar rows.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentHeight is what remains after the header and status bar rows.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 0)
}

// RenderHeader renders h across the full width.
func (l Layout) RenderHeader(h Header) string {
	glyph, color := h.Sync.glyph()
	badge := theme.HeaderStyle.Foreground(color).PaddingRight(0).Render(glyph)
	text := theme.HeaderStyle.Render(h.Sync.Text)
	return l.spread(theme.HeaderStyle, theme.HeaderStyle.Render(h.Title()), badge+text)
}

// RenderStatusBar renders the mode pill followed by hints, or by the error
// in the error style.
func (l Layout) RenderStatusBar(s StatusBar) string {
	style, body := theme.StatusBarStyle, s.Hints
	if s.Err != "" {
		style, body = theme.ErrorBarStyle, "✗ "+s.Err
	}
	pill := ""
	if s.Mode != "" {
		pill = theme.HeaderStyle.Render(s.Mode)
	}
	return l.spread(style, pill+style.Render(body), "")
}

// Frame stacks header, content and status bar.
func (l Layout) Frame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// spread places left and right on one row, padding the gap with style's
// background.
func (l Layout) spread(style lipgloss.Style, left, right string) string {
	gap := max(l.Width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
