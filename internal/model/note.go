package model

import (
	"strings"
	"time"
)

// NoteColor is one of the fixed note palette colors.
type NoteColor string

const (
	NoteYellow NoteColor = "yellow"
	NoteGreen  NoteColor = "green"
	NoteBlue   NoteColor = "blue"
	NotePurple NoteColor = "purple"
	NoteRed    NoteColor = "red"
	NoteOrange NoteColor = "orange"
)

// DefaultNoteColor is used when a note is created without a color.
const DefaultNoteColor = NoteYellow

// NotePalette lists the palette in display order.
var NotePalette = []NoteColor{
	NoteYellow, NoteGreen, NoteBlue, NotePurple, NoteRed, NoteOrange,
}

// Valid reports whether c belongs to the palette.
func (c NoteColor) Valid() bool {
	for _, p := range NotePalette {
		if p == c {
			return true
		}
	}
	return false
}

// ParseNoteColor normalizes s into a palette color. An empty string yields
// the default color.
func ParseNoteColor(s string) (NoteColor, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultNoteColor, true
	}
	c := NoteColor(s)
	return c, c.Valid()
}

// Note is a free-text annotation pinned to one column of an entity's board.
// Its column is fixed at creation and does not follow the entity's status.
type Note struct {
	ID        int64      `json:"id"`
	EntityID  int64      `json:"entity_id"`
	ColumnID  ColumnID   `json:"column_id"`
	Text      string     `json:"text"`
	Color     NoteColor  `json:"color"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Edited reports whether the note was changed after creation.
func (n Note) Edited() bool {
	return n.UpdatedAt != nil
}

// NotePosition pairs a note with its 1-based render position.
type NotePosition struct {
	NoteID   int64 `json:"note_id"`
	Position int   `json:"position"`
}

// NotesInColumn returns the notes placed in col, preserving order.
func NotesInColumn(notes []Note, col ColumnID) []Note {
	var out []Note
	for _, n := range notes {
		if n.ColumnID == col {
			out = append(out, n)
		}
	}
	return out
}
