package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/nhle/channel-kanban/internal/model"
)

// FetchStructure retrieves the grouped summary of all tracked entities.
func (c *Client) FetchStructure(ctx context.Context) (*model.Structure, error) {
	var resp structureResponse
	if err := c.get(ctx, "/structure", &resp); err != nil {
		return nil, fmt.Errorf("fetching structure: %w", err)
	}
	s := resp.toModel()
	return &s, nil
}

// FetchBoard retrieves one entity's columns, notes and history as a single
// snapshot.
func (c *Client) FetchBoard(ctx context.Context, entityID int64) (*model.Board, error) {
	var resp boardResponse
	if err := c.get(ctx, c.entityPath(entityID, "/board"), &resp); err != nil {
		return nil, fmt.Errorf("fetching board %d: %w", entityID, err)
	}
	return resp.toModel(), nil
}

// MoveStatus asks the backend to make target the entity's current stage.
func (c *Client) MoveStatus(ctx context.Context, entityID int64, target model.ColumnID) error {
	err := c.do(ctx, http.MethodPatch, c.entityPath(entityID, "/move-status"),
		moveStatusRequest{NewStatus: target}, nil)
	if err != nil {
		return fmt.Errorf("moving entity %d to %s: %w", entityID, target, err)
	}
	return nil
}

// CreateNote creates a note in the given column and returns the backend's
// record of it.
func (c *Client) CreateNote(
	ctx context.Context,
	entityID int64,
	columnID model.ColumnID,
	text string,
	color model.NoteColor,
) (*model.Note, error) {
	var resp noteDTO
	err := c.do(ctx, http.MethodPost, c.entityPath(entityID, "/note"),
		createNoteRequest{NoteText: text, NoteColor: color, ColumnID: columnID}, &resp)
	if err != nil {
		return nil, fmt.Errorf("creating note on entity %d: %w", entityID, err)
	}
	n := resp.toModel()
	if n.EntityID == 0 {
		n.EntityID = entityID
	}
	return &n, nil
}

// UpdateNote replaces a note's text and color.
func (c *Client) UpdateNote(
	ctx context.Context,
	noteID int64,
	text string,
	color model.NoteColor,
) (*model.Note, error) {
	var resp noteDTO
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/note/%d", noteID),
		updateNoteRequest{NoteText: text, NoteColor: color}, &resp)
	if err != nil {
		return nil, fmt.Errorf("updating note %d: %w", noteID, err)
	}
	n := resp.toModel()
	return &n, nil
}

// DeleteNote permanently removes a note.
func (c *Client) DeleteNote(ctx context.Context, noteID int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/note/%d", noteID), nil, nil); err != nil {
		return fmt.Errorf("deleting note %d: %w", noteID, err)
	}
	return nil
}

// ReorderNotes sends the full list of note positions for an entity.
func (c *Client) ReorderNotes(
	ctx context.Context,
	entityID int64,
	positions []model.NotePosition,
) error {
	err := c.do(ctx, http.MethodPatch, c.entityPath(entityID, "/reorder-notes"),
		reorderNotesRequest{NotePositions: positions}, nil)
	if err != nil {
		return fmt.Errorf("reordering notes of entity %d: %w", entityID, err)
	}
	return nil
}

// FetchHistory retrieves the most recent history entries of an entity,
// newest first. A limit outside 1..100 is left to the backend default.
func (c *Client) FetchHistory(
	ctx context.Context,
	entityID int64,
	limit int,
) ([]model.HistoryEntry, error) {
	path := c.entityPath(entityID, "/history")
	if limit >= 1 && limit <= 100 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	var resp []historyDTO
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("fetching history of entity %d: %w", entityID, err)
	}
	return historyToModel(resp), nil
}

// DeleteHistoryEntry hides a history entry on the backend.
func (c *Client) DeleteHistoryEntry(ctx context.Context, entryID int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/history/%d", entryID), nil, nil); err != nil {
		return fmt.Errorf("deleting history entry %d: %w", entryID, err)
	}
	return nil
}
