// Package boardview renders one entity's board: its status columns side by
// side with their notes, and the history log underneath. It never talks to
// the backend; every action is emitted as a message for the app to run.
package boardview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/channel-kanban/internal/keys"
	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/theme"
)

// BackMsg signals the parent to close the board.
type BackMsg struct{}

// MoveStatusMsg asks to move the entity into Column.
type MoveStatusMsg struct {
	Column model.ColumnID
}

// NewNoteMsg asks to open the note form for Column.
type NewNoteMsg struct {
	Column model.ColumnID
}

// EditNoteMsg asks to open the note form on an existing note.
type EditNoteMsg struct {
	Note model.Note
}

// DeleteNoteMsg asks to confirm and delete a note.
type DeleteNoteMsg struct {
	Note model.Note
}

// ReorderMsg asks to drop the dragged note on the target note.
type ReorderMsg struct {
	DraggedID int64
	TargetID  int64
}

// DeleteHistoryMsg asks to confirm and hide a history entry.
type DeleteHistoryMsg struct {
	Entry model.HistoryEntry
}

type focusArea int

const (
	focusNotes focusArea = iota
	focusHistory
)

// Model is the board view.
type Model struct {
	keys *keys.KeyMap

	board    model.Board
	history  []model.HistoryEntry
	loaded   bool
	loading  bool
	stale    bool
	cachedAt time.Time

	col     int
	row     int
	histIdx int
	focus   focusArea

	historyView viewport.Model
	width       int
	height      int
}

// New creates an empty board view.
func New(k *keys.KeyMap, width, height int) Model {
	m := Model{
		keys:        k,
		historyView: viewport.New(width, 1),
		width:       width,
		height:      height,
	}
	m.SetSize(width, height)
	return m
}

// SetLoading shows the loading placeholder until the next SetBoard.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Reset forgets the board so the next SetBoard starts from the current
// column.
func (m *Model) Reset() {
	m.board = model.Board{}
	m.history = nil
	m.loaded = false
	m.col, m.row, m.histIdx = 0, 0, 0
	m.focus = focusNotes
}

// SetBoard displays b. A board for a different entity moves the cursor to
// its current column; otherwise the cursor stays where it was.
func (m *Model) SetBoard(b model.Board, history []model.HistoryEntry, stale bool, cachedAt time.Time) {
	sameEntity := m.loaded && m.board.Entity.ID == b.Entity.ID
	m.board = b
	m.history = history
	m.loaded = true
	m.loading = false
	m.stale = stale
	m.cachedAt = cachedAt

	if !sameEntity {
		m.col, m.row, m.histIdx = 0, 0, 0
		m.focus = focusNotes
		for i, c := range b.Columns {
			if c.IsCurrent {
				m.col = i
			}
		}
	}
	m.clamp()
	m.historyView.SetContent(m.renderHistory())
}

// EntityID returns the displayed entity, or zero.
func (m Model) EntityID() int64 {
	if !m.loaded {
		return 0
	}
	return m.board.Entity.ID
}

func (m *Model) clamp() {
	if n := len(m.board.Columns); m.col >= n {
		m.col = max(n-1, 0)
	}
	if n := len(m.columnNotes()); m.row >= n {
		m.row = max(n-1, 0)
	}
	if n := len(m.history); m.histIdx >= n {
		m.histIdx = max(n-1, 0)
	}
}

func (m Model) focusedColumn() (model.Column, bool) {
	if m.col < 0 || m.col >= len(m.board.Columns) {
		return model.Column{}, false
	}
	return m.board.Columns[m.col], true
}

func (m Model) columnNotes() []model.Note {
	c, ok := m.focusedColumn()
	if !ok {
		return nil
	}
	return model.NotesInColumn(m.board.Notes, c.ID)
}

// SelectedNote returns the note under the cursor.
func (m Model) SelectedNote() (model.Note, bool) {
	notes := m.columnNotes()
	if m.row < 0 || m.row >= len(notes) {
		return model.Note{}, false
	}
	return notes[m.row], true
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// Update handles messages for the board view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.loaded {
		if ok && key.Matches(kmsg, m.keys.Back) {
			return m, emit(BackMsg{})
		}
		return m, nil
	}

	switch {
	case key.Matches(kmsg, m.keys.Back):
		return m, emit(BackMsg{})

	case key.Matches(kmsg, m.keys.FocusHistory):
		if m.focus == focusNotes {
			m.focus = focusHistory
		} else {
			m.focus = focusNotes
		}
		m.historyView.SetContent(m.renderHistory())
		return m, nil
	}

	if m.focus == focusHistory {
		return m.updateHistory(kmsg)
	}
	return m.updateNotes(kmsg)
}

func (m Model) updateNotes(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.row = 0
		}

	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.board.Columns)-1 {
			m.col++
			m.row = 0
		}

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(msg, m.keys.Down):
		if m.row < len(m.columnNotes())-1 {
			m.row++
		}

	case key.Matches(msg, m.keys.MoveStatus):
		c, ok := m.focusedColumn()
		if !ok || c.IsCurrent || m.stale {
			return m, nil
		}
		return m, emit(MoveStatusMsg{Column: c.ID})

	case key.Matches(msg, m.keys.NewNote):
		c, ok := m.focusedColumn()
		if !ok {
			return m, nil
		}
		return m, emit(NewNoteMsg{Column: c.ID})

	case key.Matches(msg, m.keys.EditNote):
		if n, ok := m.SelectedNote(); ok {
			return m, emit(EditNoteMsg{Note: n})
		}

	case key.Matches(msg, m.keys.DeleteNote):
		if n, ok := m.SelectedNote(); ok {
			return m, emit(DeleteNoteMsg{Note: n})
		}

	case key.Matches(msg, m.keys.ReorderUp):
		return m.reorder(-1)

	case key.Matches(msg, m.keys.ReorderDown):
		return m.reorder(1)
	}
	return m, nil
}

// reorder drops the selected note on its neighbor in the same column and
// keeps the cursor on the moved note.
func (m Model) reorder(delta int) (Model, tea.Cmd) {
	notes := m.columnNotes()
	target := m.row + delta
	if m.row >= len(notes) || target < 0 || target >= len(notes) {
		return m, nil
	}
	msg := ReorderMsg{DraggedID: notes[m.row].ID, TargetID: notes[target].ID}
	m.row = target
	return m, emit(msg)
}

func (m Model) updateHistory(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.histIdx > 0 {
			m.histIdx--
		}
	case key.Matches(msg, m.keys.Down):
		if m.histIdx < len(m.history)-1 {
			m.histIdx++
		}
	case key.Matches(msg, m.keys.DeleteHistory):
		if m.histIdx < len(m.history) {
			return m, emit(DeleteHistoryMsg{Entry: m.history[m.histIdx]})
		}
		return m, nil
	default:
		return m, nil
	}
	m.historyView.SetContent(m.renderHistory())
	if m.histIdx < m.historyView.YOffset {
		m.historyView.SetYOffset(m.histIdx)
	} else if m.histIdx >= m.historyView.YOffset+m.historyView.Height {
		m.historyView.SetYOffset(m.histIdx - m.historyView.Height + 1)
	}
	return m, nil
}

// View renders the board view.
func (m Model) View() string {
	placeholder := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)
	if m.loading && !m.loaded {
		return placeholder.Render("Loading board...")
	}
	if !m.loaded {
		return placeholder.Render("No board open")
	}

	sections := []string{m.renderTitle()}
	if m.stale {
		sections = append(sections, theme.StaleStyle.Render(
			"⚠ offline: snapshot from "+humanize.Time(m.cachedAt)))
	}
	sections = append(sections, m.renderColumns(), m.renderHistoryPanel())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitle() string {
	e := m.board.Entity
	name := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).
		Render(fmt.Sprintf("%s %s", model.LanguageFlag(e.Language), e.Name))
	_, color := model.StatusLabel(e.CurrentStatus)
	status := theme.StatusStyle(color).Render(e.StatusTag())
	return lipgloss.JoinHorizontal(lipgloss.Top, name, "  ", status)
}

func (m Model) columnsHeight() int {
	return max(m.height*3/5, 6)
}

func (m Model) renderColumns() string {
	n := len(m.board.Columns)
	if n == 0 {
		return ""
	}
	width := max((m.width-2*n)/n, 16)
	height := m.columnsHeight() - 2

	cols := make([]string, n)
	for i, c := range m.board.Columns {
		style := theme.ColumnStyle
		switch {
		case i == m.col && m.focus == focusNotes:
			style = theme.FocusedColumnStyle
		case c.IsCurrent:
			style = theme.CurrentColumnStyle
		}

		title := fmt.Sprintf("%s %s", c.Emoji, c.Label)
		if c.IsCurrent {
			title += " ●"
		}
		lines := []string{lipgloss.NewStyle().Bold(true).Render(title)}
		for j, note := range model.NotesInColumn(m.board.Notes, c.ID) {
			lines = append(lines, m.renderNote(note, width-4, i == m.col && j == m.row && m.focus == focusNotes))
		}
		cols[i] = style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderNote(n model.Note, width int, selected bool) string {
	text := n.Text
	if n.Edited() {
		text += theme.DimmedStyle.Render(" (editado)")
	}
	style := theme.NoteStyle(n.Color).Width(width)
	if selected {
		style = style.Bold(true).Foreground(theme.ColorBlue)
	}
	return style.Render(text)
}

func (m Model) renderHistoryPanel() string {
	title := "Histórico"
	if m.focus == focusHistory {
		title = "▸ " + title
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render(title)
	return lipgloss.JoinVertical(lipgloss.Left, header, m.historyView.View())
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return theme.DimmedStyle.Italic(true).Render("No history yet")
	}
	lines := make([]string, len(m.history))
	for i, h := range m.history {
		line := fmt.Sprintf("%-14s %s", humanize.Time(h.PerformedAt), h.Description)
		if m.focus == focusHistory && i == m.histIdx {
			lines[i] = theme.SelectedItemStyle.Render(line)
		} else {
			lines[i] = theme.ListItemStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

// SetSize updates the board view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.historyView.Width = width
	m.historyView.Height = max(height-m.columnsHeight()-3, 1)
}
