package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/channel-kanban/internal/model"
)

func normalizeNote(text string, color model.NoteColor) (string, model.NoteColor, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", ErrEmptyNote
	}
	if color == "" {
		color = model.DefaultNoteColor
	}
	if !color.Valid() {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidColor, color)
	}
	return text, color, nil
}

// CreateNote adds a note to a column of the open board. The note only
// appears locally once the backend has confirmed it.
func (s *Session) CreateNote(ctx context.Context, columnID model.ColumnID, text string, color model.NoteColor) (model.Note, error) {
	text, color, err := normalizeNote(text, color)
	if err != nil {
		return model.Note{}, err
	}

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return model.Note{}, ErrNoBoard
	}
	if !model.HasColumn(s.board.Columns, columnID) {
		s.mu.Unlock()
		return model.Note{}, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	entityID, gen := s.board.Entity.ID, s.gen
	s.mu.Unlock()

	created, err := s.backend.CreateNote(ctx, entityID, columnID, text, color)
	if err != nil {
		s.opts.log.Warn().Err(err).Int64("entity_id", entityID).Msg("creating note failed")
		return model.Note{}, err
	}

	note := *created
	note.ColumnID = columnID
	if note.EntityID == 0 {
		note.EntityID = entityID
	}
	if note.Text == "" {
		note.Text = text
	}
	if note.Color == "" {
		note.Color = color
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return note, nil
	}
	if note.Position == 0 {
		note.Position = len(s.board.Notes) + 1
	}
	s.board.Notes = append(s.board.Notes, note)
	s.board.Entity.NoteCount++
	s.mu.Unlock()

	s.refreshHistoryLogged(ctx)
	return note, nil
}

// UpdateNote replaces a note's text and color. Local state changes only
// after the backend confirms.
func (s *Session) UpdateNote(ctx context.Context, noteID int64, text string, color model.NoteColor) (model.Note, error) {
	text, color, err := normalizeNote(text, color)
	if err != nil {
		return model.Note{}, err
	}

	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return model.Note{}, ErrNoBoard
	}
	if s.findNote(noteID) == -1 {
		s.mu.Unlock()
		return model.Note{}, fmt.Errorf("%w: %d", ErrNoteNotFound, noteID)
	}
	gen := s.gen
	s.mu.Unlock()

	updated, err := s.backend.UpdateNote(ctx, noteID, text, color)
	if err != nil {
		s.opts.log.Warn().Err(err).Int64("note_id", noteID).Msg("updating note failed")
		return model.Note{}, err
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return *updated, nil
	}
	i := s.findNote(noteID)
	if i == -1 {
		s.mu.Unlock()
		return *updated, nil
	}
	n := &s.board.Notes[i]
	n.Text = text
	n.Color = color
	if updated.UpdatedAt != nil {
		n.UpdatedAt = updated.UpdatedAt
	} else {
		now := s.opts.now()
		n.UpdatedAt = &now
	}
	out := *n
	delete(s.edits, noteID)
	s.mu.Unlock()

	s.refreshHistoryLogged(ctx)
	return out, nil
}

// BeginEdit starts an inline edit of a note. Drafts are local until
// CommitEdit.
func (s *Session) BeginEdit(noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return ErrNoBoard
	}
	i := s.findNote(noteID)
	if i == -1 {
		return fmt.Errorf("%w: %d", ErrNoteNotFound, noteID)
	}
	if _, ok := s.edits[noteID]; !ok {
		s.edits[noteID] = s.board.Notes[i]
	}
	return nil
}

// Editing reports whether a note has an edit in progress.
func (s *Session) Editing(noteID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.edits[noteID]
	return ok
}

// DraftEdit applies unsaved text and color to a note being edited.
func (s *Session) DraftEdit(noteID int64, text string, color model.NoteColor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return ErrNoBoard
	}
	if _, ok := s.edits[noteID]; !ok {
		return ErrNotEditing
	}
	if color != "" && !color.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidColor, color)
	}
	i := s.findNote(noteID)
	if i == -1 {
		return fmt.Errorf("%w: %d", ErrNoteNotFound, noteID)
	}
	s.board.Notes[i].Text = text
	if color != "" {
		s.board.Notes[i].Color = color
	}
	return nil
}

// CancelEdit discards a draft and restores the note as it was before
// BeginEdit.
func (s *Session) CancelEdit(noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	orig, ok := s.edits[noteID]
	if !ok {
		return ErrNotEditing
	}
	delete(s.edits, noteID)
	if s.board == nil {
		return nil
	}
	if i := s.findNote(noteID); i != -1 {
		s.board.Notes[i].Text = orig.Text
		s.board.Notes[i].Color = orig.Color
	}
	return nil
}

// CommitEdit saves the draft of a note. On failure the note is restored to
// its pre-edit content and the edit ends.
func (s *Session) CommitEdit(ctx context.Context, noteID int64) (model.Note, error) {
	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return model.Note{}, ErrNoBoard
	}
	orig, ok := s.edits[noteID]
	if !ok {
		s.mu.Unlock()
		return model.Note{}, ErrNotEditing
	}
	i := s.findNote(noteID)
	if i == -1 {
		delete(s.edits, noteID)
		s.mu.Unlock()
		return model.Note{}, fmt.Errorf("%w: %d", ErrNoteNotFound, noteID)
	}
	draft := s.board.Notes[i]
	if draft.Text == orig.Text && draft.Color == orig.Color {
		delete(s.edits, noteID)
		s.mu.Unlock()
		return draft, nil
	}
	s.mu.Unlock()

	out, err := s.UpdateNote(ctx, noteID, draft.Text, draft.Color)
	if err != nil {
		s.mu.Lock()
		delete(s.edits, noteID)
		if s.board != nil {
			if j := s.findNote(noteID); j != -1 {
				s.board.Notes[j].Text = orig.Text
				s.board.Notes[j].Color = orig.Color
			}
		}
		s.mu.Unlock()
		return model.Note{}, err
	}
	return out, nil
}

// DeleteNote removes a note once confirm approves it and the backend
// confirms the delete. A nil confirm counts as a refusal.
func (s *Session) DeleteNote(ctx context.Context, noteID int64, confirm ConfirmFunc) error {
	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return ErrNoBoard
	}
	i := s.findNote(noteID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNoteNotFound, noteID)
	}
	note, gen := s.board.Notes[i], s.gen
	s.mu.Unlock()

	if confirm == nil || !confirm(note) {
		return ErrNotConfirmed
	}

	if err := s.backend.DeleteNote(ctx, noteID); err != nil {
		s.opts.log.Warn().Err(err).Int64("note_id", noteID).Msg("deleting note failed")
		return err
	}

	s.mu.Lock()
	if s.gen == gen {
		if j := s.findNote(noteID); j != -1 {
			s.board.Notes = append(s.board.Notes[:j:j], s.board.Notes[j+1:]...)
			if s.board.Entity.NoteCount > 0 {
				s.board.Entity.NoteCount--
			}
		}
		delete(s.edits, noteID)
	}
	s.mu.Unlock()

	s.refreshHistoryLogged(ctx)
	return nil
}

// ReorderNotes drops the dragged note onto the target note. The new order
// is applied locally, then sent as the full list of positions. If the
// backend rejects it the notes are re-fetched, falling back to the previous
// order when that fails too. Dropping a note on itself does nothing.
func (s *Session) ReorderNotes(ctx context.Context, draggedID, targetID int64) ([]model.NotePosition, error) {
	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return nil, ErrNoBoard
	}
	if draggedID == targetID {
		s.mu.Unlock()
		return nil, nil
	}
	reordered, ok := Reorder(s.board.Notes, draggedID, targetID)
	if !ok {
		s.mu.Unlock()
		return nil, ErrNoteNotFound
	}
	prev := s.board.Notes
	s.board.Notes = reordered
	entityID, gen := s.board.Entity.ID, s.gen
	s.mu.Unlock()

	positions := Positions(reordered)
	err := s.backend.ReorderNotes(ctx, entityID, positions)
	if err == nil {
		s.refreshHistoryLogged(ctx)
		return positions, nil
	}
	s.opts.log.Warn().Err(err).Int64("entity_id", entityID).Msg("reordering notes failed")

	fresh, ferr := s.backend.FetchBoard(ctx, entityID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return nil, err
	}
	if ferr == nil {
		s.board.Notes = fresh.Notes
	} else {
		s.opts.log.Warn().Err(ferr).Int64("entity_id", entityID).Msg("re-fetching notes failed, restoring previous order")
		s.board.Notes = RestoreOrder(s.board.Notes, prev)
	}
	return nil, err
}
