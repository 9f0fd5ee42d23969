package noteform

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/theme"
)

// SubmittedMsg is dispatched when the form is completed. NoteID is zero for
// a new note.
type SubmittedMsg struct {
	NoteID int64
	Column model.ColumnID
	Text   string
	Color  model.NoteColor
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct {
	NoteID int64
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	text  string
	color model.NoteColor
}

// Model is the Bubble Tea model for the note create/edit form.
type Model struct {
	form        *huh.Form
	fb          *formBindings
	noteID      int64
	column      model.ColumnID
	columnLabel string
	width       int
	height      int
}

// New creates a new note form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{color: model.DefaultNoteColor},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new note in column.
func (m *Model) StartCreate(column model.ColumnID) tea.Cmd {
	m.noteID = 0
	m.column = column
	m.columnLabel, _ = model.StatusLabel(column)
	m.fb.text = ""
	m.fb.color = model.DefaultNoteColor
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form on an existing note.
func (m *Model) StartEdit(n model.Note) tea.Cmd {
	m.noteID = n.ID
	m.column = n.ColumnID
	m.columnLabel, _ = model.StatusLabel(n.ColumnID)
	m.fb.text = n.Text
	m.fb.color = n.Color
	if !m.fb.color.Valid() {
		m.fb.color = model.DefaultNoteColor
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// Editing returns the id of the note being edited, or zero.
func (m Model) Editing() int64 {
	return m.noteID
}

// Update handles messages for the note form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		out := SubmittedMsg{
			NoteID: m.noteID,
			Column: m.column,
			Text:   strings.TrimSpace(m.fb.text),
			Color:  m.fb.color,
		}
		m.form = nil
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		id := m.noteID
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{NoteID: id} }
	}

	return m, cmd
}

// View renders the note form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New note · " + m.columnLabel
	if m.noteID != 0 {
		titleText = "Edit note · " + m.columnLabel
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[model.NoteColor], len(model.NotePalette))
	for i, c := range model.NotePalette {
		opts[i] = huh.NewOption(string(c), c)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Text").
				Placeholder("What happened with this channel?").
				Value(&m.fb.text).
				Validate(validateText),
			huh.NewSelect[model.NoteColor]().
				Title("Color").
				Options(opts...).
				Value(&m.fb.color),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateText(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("note text is required")
	}
	return nil
}
