package board

import (
	"slices"

	"github.com/nhle/channel-kanban/internal/model"
)

// Reorder moves the dragged note to the target note's index in the flat
// collection and renumbers every note 1..N. Column membership is untouched.
// It returns false if either id is missing. The input slice is not
// modified.
func Reorder(notes []model.Note, draggedID, targetID int64) ([]model.Note, bool) {
	from, to := -1, -1
	for i, n := range notes {
		if n.ID == draggedID {
			from = i
		}
		if n.ID == targetID {
			to = i
		}
	}
	if from == -1 || to == -1 {
		return nil, false
	}

	out := make([]model.Note, 0, len(notes))
	out = append(out, notes[:from]...)
	out = append(out, notes[from+1:]...)

	moved := notes[from]
	out = append(out, model.Note{})
	copy(out[to+1:], out[to:])
	out[to] = moved

	for i := range out {
		out[i].Position = i + 1
	}
	return out, true
}

// Positions lists the {note, position} pairs of notes in order.
func Positions(notes []model.Note) []model.NotePosition {
	out := make([]model.NotePosition, len(notes))
	for i, n := range notes {
		out[i] = model.NotePosition{NoteID: n.ID, Position: n.Position}
	}
	return out
}

// RestoreOrder puts notes back in the order and positions they had in prev.
// Notes missing from prev keep their position and go last; notes missing
// from notes stay gone.
func RestoreOrder(notes, prev []model.Note) []model.Note {
	rank := make(map[int64]int, len(prev))
	pos := make(map[int64]int, len(prev))
	for i, n := range prev {
		rank[n.ID] = i
		pos[n.ID] = n.Position
	}

	out := slices.Clone(notes)
	slices.SortStableFunc(out, func(a, b model.Note) int {
		ra, oka := rank[a.ID]
		rb, okb := rank[b.ID]
		switch {
		case oka && okb:
			return ra - rb
		case oka:
			return -1
		case okb:
			return 1
		}
		return 0
	})
	for i := range out {
		if p, ok := pos[out[i].ID]; ok {
			out[i].Position = p
		}
	}
	return out
}
