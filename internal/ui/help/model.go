// Package help is the overlay listing key bindings, the stage legend and
// how often the console refreshes.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/channel-kanban/internal/keys"
	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/theme"
)

// Model is the help overlay.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	poll   model.PollConfig
	width  int
	height int
}

// New creates the overlay. poll feeds the refresh line.
func New(k *keys.KeyMap, poll model.PollConfig, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	m := Model{keys: k, help: h, poll: poll}
	m.SetSize(width, height)
	return m
}

// SetPoll updates the intervals shown after settings change.
func (m *Model) SetPoll(poll model.PollConfig) {
	m.poll = poll
}

// Update is a no-op; the overlay has no state of its own.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the overlay.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	sections := []string{
		title.MarginBottom(1).Render("Shortcuts"),
		m.help.View(m.keys),
		"",
		title.Render("Stages"),
		legend("Not monetized", model.ColumnsFor(false, "")),
		legend("Monetized", model.ColumnsFor(true, "")),
		"",
		theme.DimmedStyle.Render(m.refreshLine()),
		theme.DimmedStyle.Render("Deletes always ask first. Hidden history entries stay on the backend."),
	}

	return theme.PanelStyle.
		Width(max(m.width-4, 0)).
		Height(max(m.height-4, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m Model) refreshLine() string {
	return fmt.Sprintf("Channels refresh every %ds, an open board's history every %ds.",
		m.poll.StructureIntervalSec, m.poll.HistoryIntervalSec)
}

func legend(name string, cols []model.Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.Emoji + " " + c.Label
	}
	return theme.DimmedStyle.Render(name+": ") + strings.Join(parts, " → ")
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(width-8, 0)
}
