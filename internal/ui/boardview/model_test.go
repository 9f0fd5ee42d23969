package boardview

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/keys"
	"github.com/nhle/channel-kanban/internal/model"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testBoard() model.Board {
	return model.Board{
		Entity:  model.Entity{ID: 7, Name: "Canal Teste", Monetized: true, CurrentStatus: model.ColumnNewTests},
		Columns: model.ColumnsFor(true, model.ColumnNewTests),
		Notes: []model.Note{
			{ID: 1, ColumnID: model.ColumnNewTests, Text: "first", Color: model.NoteYellow},
			{ID: 2, ColumnID: model.ColumnNewTests, Text: "second", Color: model.NoteBlue},
			{ID: 3, ColumnID: model.ColumnSteady, Text: "steady", Color: model.NoteGreen},
		},
	}
}

func loaded(t *testing.T) Model {
	t.Helper()
	m := New(keys.DefaultKeyMap(), 120, 40)
	m.SetBoard(testBoard(), []model.HistoryEntry{
		{ID: 20, Description: "newest"},
		{ID: 10, Description: "older"},
	}, false, time.Time{})
	return m
}

// press sends a key and returns the emitted message, if any.
func press(m Model, k tea.KeyMsg) (Model, tea.Msg) {
	m, cmd := m.Update(k)
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestCursorStartsOnCurrentColumn(t *testing.T) {
	m := loaded(t)
	n, ok := m.SelectedNote()
	require.True(t, ok)
	assert.Equal(t, int64(1), n.ID)
	assert.Equal(t, int64(7), m.EntityID())
}

func TestMoveStatusOnlyToOtherColumns(t *testing.T) {
	m := loaded(t)

	_, msg := press(m, runes("m"))
	assert.Nil(t, msg, "already current")

	m, _ = press(m, runes("l"))
	_, msg = press(m, runes("m"))
	assert.Equal(t, MoveStatusMsg{Column: model.ColumnSteady}, msg)

	m.SetBoard(testBoard(), nil, true, time.Now())
	_, msg = press(m, runes("m"))
	assert.Nil(t, msg, "stale boards cannot move")
}

func TestNoteActions(t *testing.T) {
	m := loaded(t)

	_, msg := press(m, runes("n"))
	assert.Equal(t, NewNoteMsg{Column: model.ColumnNewTests}, msg)

	m, _ = press(m, runes("j"))
	_, msg = press(m, runes("e"))
	require.IsType(t, EditNoteMsg{}, msg)
	assert.Equal(t, int64(2), msg.(EditNoteMsg).Note.ID)

	_, msg = press(m, runes("d"))
	require.IsType(t, DeleteNoteMsg{}, msg)
	assert.Equal(t, int64(2), msg.(DeleteNoteMsg).Note.ID)

	m, msg = press(m, runes("K"))
	assert.Equal(t, ReorderMsg{DraggedID: 2, TargetID: 1}, msg)
	n, _ := m.SelectedNote()
	assert.Equal(t, int64(1), n.ID, "cursor follows the moved slot")

	_, msg = press(m, runes("K"))
	assert.Nil(t, msg, "top of the column")
}

func TestEmptyColumnHasNoSelection(t *testing.T) {
	m := loaded(t)
	m, _ = press(m, runes("h"))
	_, ok := m.SelectedNote()
	assert.False(t, ok)

	_, msg := press(m, runes("e"))
	assert.Nil(t, msg)
}

func TestHistoryFocus(t *testing.T) {
	m := loaded(t)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = press(m, runes("j"))
	_, msg := press(m, runes("x"))
	assert.Equal(t, DeleteHistoryMsg{Entry: model.HistoryEntry{ID: 10, Description: "older"}}, msg)

	m, _ = press(m, tea.KeyMsg{Type: tea.KeyTab})
	_, msg = press(m, runes("x"))
	assert.Nil(t, msg, "x does nothing in the notes area")
}

func TestBackBeforeLoad(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetLoading(true)
	_, msg := press(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, BackMsg{}, msg)
	assert.Contains(t, m.View(), "Loading")
}

func TestSameEntityKeepsCursor(t *testing.T) {
	m := loaded(t)
	m, _ = press(m, runes("l"))

	b := testBoard()
	b.Notes = append(b.Notes, model.Note{ID: 4, ColumnID: model.ColumnSteady, Text: "new"})
	m.SetBoard(b, nil, false, time.Time{})
	n, ok := m.SelectedNote()
	require.True(t, ok)
	assert.Equal(t, int64(3), n.ID)

	m.Reset()
	assert.Zero(t, m.EntityID())
}
