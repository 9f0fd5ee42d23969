package board

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/model"
)

func TestCreateNote_AppendsAfterConfirmation(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)

	n, err := s.CreateNote(context.Background(), model.ColumnSteady, "  follow up  ", "")
	require.NoError(t, err)
	assert.Equal(t, "follow up", n.Text)
	assert.Equal(t, model.DefaultNoteColor, n.Color)
	assert.Equal(t, model.ColumnSteady, n.ColumnID)
	assert.Equal(t, int64(7), n.EntityID)

	c, _ := f.last("CreateNote")
	assert.Equal(t, []any{int64(7), model.ColumnSteady, "follow up", model.NoteYellow}, c.Args)

	b, _ := s.Board()
	assert.Len(t, b.Notes, 5)
	assert.Equal(t, 5, b.Entity.NoteCount)
	assert.Equal(t, 1, f.count("FetchHistory"))
}

func TestCreateNote_EmptyTextIssuesNoRequest(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	before := f.total()

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.CreateNote(context.Background(), model.ColumnSteady, text, model.NoteBlue)
		assert.ErrorIs(t, err, ErrEmptyNote)
	}
	assert.Equal(t, before, f.total())
}

func TestCreateNote_RejectsInvalidColorAndColumn(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	before := f.total()

	_, err := s.CreateNote(context.Background(), model.ColumnSteady, "x", "magenta")
	assert.ErrorIs(t, err, ErrInvalidColor)

	_, err = s.CreateNote(context.Background(), model.ColumnInitialTest, "x", model.NoteRed)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	assert.Equal(t, before, f.total())
}

func TestCreateNote_FailureLeavesBoardUnchanged(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	f.failCreate = true

	_, err := s.CreateNote(context.Background(), model.ColumnSteady, "x", "")
	require.ErrorIs(t, err, errBackend)

	b, _ := s.Board()
	assert.Len(t, b.Notes, 4)
	assert.Equal(t, 4, b.Entity.NoteCount)
}

func TestUpdateNote_ReplacesTextAndColor(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f, WithClock(fixedClock()))

	n, err := s.UpdateNote(context.Background(), 2, "b2", model.NotePurple)
	require.NoError(t, err)
	assert.Equal(t, "b2", n.Text)
	assert.Equal(t, model.NotePurple, n.Color)
	assert.True(t, n.Edited())

	b, _ := s.Board()
	assert.Equal(t, "b2", b.Notes[1].Text)
	assert.Equal(t, model.ColumnSteady, b.Notes[1].ColumnID)
}

func TestUpdateNote_FailureKeepsOriginal(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	f.failUpdate = true

	_, err := s.UpdateNote(context.Background(), 2, "b2", model.NotePurple)
	require.Error(t, err)

	b, _ := s.Board()
	assert.Equal(t, "b", b.Notes[1].Text)
	assert.Equal(t, model.NoteGreen, b.Notes[1].Color)
}

func TestUpdateNote_EmptyTextRejected(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	before := f.total()

	_, err := s.UpdateNote(context.Background(), 2, " ", model.NotePurple)
	assert.ErrorIs(t, err, ErrEmptyNote)
	assert.Equal(t, before, f.total())
}

func TestEdit_CancelRestoresOriginal(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	before := f.total()

	require.NoError(t, s.BeginEdit(1))
	require.NoError(t, s.DraftEdit(1, "draft", model.NoteOrange))
	b, _ := s.Board()
	assert.Equal(t, "draft", b.Notes[0].Text)

	require.NoError(t, s.CancelEdit(1))
	b, _ = s.Board()
	assert.Equal(t, "a", b.Notes[0].Text)
	assert.Equal(t, model.NoteYellow, b.Notes[0].Color)
	assert.False(t, s.Editing(1))
	assert.Equal(t, before, f.total())
}

func TestEdit_CommitFailureRestoresOriginal(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	f.failUpdate = true

	require.NoError(t, s.BeginEdit(1))
	require.NoError(t, s.DraftEdit(1, "draft", ""))
	_, err := s.CommitEdit(context.Background(), 1)
	require.ErrorIs(t, err, errBackend)

	b, _ := s.Board()
	assert.Equal(t, "a", b.Notes[0].Text)
	assert.False(t, s.Editing(1))
}

func TestEdit_CommitSendsDraft(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)

	require.NoError(t, s.BeginEdit(1))
	require.NoError(t, s.DraftEdit(1, "new text", model.NoteRed))
	n, err := s.CommitEdit(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "new text", n.Text)

	c, _ := f.last("UpdateNote")
	assert.Equal(t, []any{int64(1), "new text", model.NoteRed}, c.Args)
}

func TestEdit_CommitUnchangedIssuesNoRequest(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	before := f.total()

	require.NoError(t, s.BeginEdit(1))
	_, err := s.CommitEdit(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, before, f.total())
}

func TestEdit_WithoutBegin(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)

	assert.ErrorIs(t, s.DraftEdit(1, "x", ""), ErrNotEditing)
	assert.ErrorIs(t, s.CancelEdit(1), ErrNotEditing)
	_, err := s.CommitEdit(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestDeleteNote_RequiresConfirmation(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	before := f.total()

	assert.ErrorIs(t, s.DeleteNote(context.Background(), 2, nil), ErrNotConfirmed)
	assert.ErrorIs(t, s.DeleteNote(context.Background(), 2, func(model.Note) bool { return false }), ErrNotConfirmed)
	assert.Equal(t, before, f.total())

	b, _ := s.Board()
	assert.Len(t, b.Notes, 4)
}

func TestDeleteNote_RemovesAfterConfirmation(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)

	var asked model.Note
	err := s.DeleteNote(context.Background(), 2, func(n model.Note) bool {
		asked = n
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, "b", asked.Text)

	b, _ := s.Board()
	assert.Len(t, b.Notes, 3)
	assert.Equal(t, 3, b.Entity.NoteCount)
	for _, n := range b.Notes {
		assert.NotEqual(t, int64(2), n.ID)
	}
}

func TestDeleteNote_FailureKeepsNote(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	f.failDelete = true

	err := s.DeleteNote(context.Background(), 2, func(model.Note) bool { return true })
	require.Error(t, err)

	b, _ := s.Board()
	assert.Len(t, b.Notes, 4)
}

func TestDeleteNote_Unknown(t *testing.T) {
	f := newFakeWithBoard()
	s, _ := openSession(f)
	err := s.DeleteNote(context.Background(), 999, func(model.Note) bool { return true })
	assert.ErrorIs(t, err, ErrNoteNotFound)
}
