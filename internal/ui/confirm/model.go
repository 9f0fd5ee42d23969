// Package confirm is a yes/no dialog for destructive board actions.
package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ResultMsg reports the user's answer. Payload is whatever Ask was given.
type ResultMsg struct {
	Confirmed bool
	Payload   any
}

type bindings struct {
	ok bool
}

// Model wraps a single huh confirm field.
type Model struct {
	form    *huh.Form
	b       *bindings
	payload any
	width   int
	height  int
}

// New creates an idle dialog.
func New(width, height int) Model {
	return Model{b: &bindings{}, width: width, height: height}
}

// Ask opens the dialog. The default answer is no.
func (m *Model) Ask(title, description string, payload any) tea.Cmd {
	m.b.ok = false
	m.payload = payload
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.b.ok),
		),
	).WithWidth(min(max(m.width-4, 40), 80))
	return m.form.Init()
}

// Update handles messages for the dialog.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted, huh.StateAborted:
		res := ResultMsg{
			Confirmed: m.form.State == huh.StateCompleted && m.b.ok,
			Payload:   m.payload,
		}
		m.form = nil
		m.payload = nil
		return m, func() tea.Msg { return res }
	}
	return m, cmd
}

// View renders the dialog.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(m.form.View())
}

// SetSize updates the dialog dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
