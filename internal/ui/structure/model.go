// Package structure is the entry view of the console: every channel grouped
// by monetization and subniche, with its current status.
package structure

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/channel-kanban/internal/keys"
	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/theme"
)

// SelectedEntityMsg is sent when the user opens an entity's board.
type SelectedEntityMsg struct {
	EntityID int64
}

// Model is the structure tree view.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	tree        model.Structure
	loaded      bool
	stale       bool
	fetchedAt   time.Time
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates an empty structure view.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Channels"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search channels..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetTree replaces the displayed tree, keeping the cursor on the same
// entity when it is still listed.
func (m *Model) SetTree(tree model.Structure, stale bool, fetchedAt time.Time) tea.Cmd {
	selected, hadSelection := m.SelectedEntity()
	m.tree = tree
	m.loaded = true
	m.stale = stale
	m.fetchedAt = fetchedAt
	m.list.Title = fmt.Sprintf("Channels (%d)", tree.Total())
	return m.rebuild(selected.ID, hadSelection)
}

func (m *Model) rebuild(keepID int64, keep bool) tea.Cmd {
	items := buildItems(m.tree, m.query)
	cmd := m.list.SetItems(items)
	if keep {
		for i, it := range items {
			if e, ok := it.(EntityItem); ok && e.Entity.ID == keepID {
				m.list.Select(i)
				return cmd
			}
		}
	}
	m.selectFirstEntity()
	return cmd
}

func (m *Model) selectFirstEntity() {
	for i, it := range m.list.Items() {
		if _, ok := it.(EntityItem); ok {
			m.list.Select(i)
			return
		}
	}
}

// SelectedEntity returns the entity under the cursor.
func (m Model) SelectedEntity() (model.Entity, bool) {
	it, ok := m.list.SelectedItem().(EntityItem)
	if !ok {
		return model.Entity{}, false
	}
	return it.Entity, true
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the structure view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		return m, m.rebuild(0, false)

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.rebuild(0, false)
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		e, ok := m.SelectedEntity()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedEntityMsg{EntityID: e.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Summary describes how fresh the tree is, for the header.
func (m Model) Summary() string {
	if !m.loaded {
		return "loading"
	}
	s := "updated " + humanize.Time(m.fetchedAt)
	if m.stale {
		s = "offline · snapshot " + humanize.Time(m.fetchedAt)
	}
	if m.query != "" {
		s = fmt.Sprintf("filter %q · %s", m.query, s)
	}
	return s
}

// View renders the structure view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	view := m.list.View()
	if m.stale {
		view = lipgloss.JoinVertical(lipgloss.Left,
			theme.StaleStyle.Render("⚠ backend unreachable, showing the last snapshot"),
			view,
		)
	}
	return view
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case !m.loaded:
		return style.Render("Loading channels...")
	case m.query != "":
		return style.Render("No matching channels.\nPress / and clear the search.")
	default:
		return style.Render("No channels yet.")
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
