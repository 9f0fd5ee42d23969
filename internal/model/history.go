package model

import "time"

// History action types recorded by the backend.
const (
	ActionStatusChange  = "status_change"
	ActionNoteAdded     = "note_added"
	ActionNoteEdited    = "note_edited"
	ActionNoteDeleted   = "note_deleted"
	ActionNoteReordered = "note_reordered"
)

// HistoryEntry is an immutable audit record of one board mutation.
type HistoryEntry struct {
	ID          int64          `json:"id"`
	EntityID    int64          `json:"entity_id"`
	ActionType  string         `json:"action_type"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details,omitempty"`
	PerformedAt time.Time      `json:"performed_at"`
}
