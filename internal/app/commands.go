package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/channel-kanban/internal/api"
	"github.com/nhle/channel-kanban/internal/board"
	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/poll"
)

const (
	taskStructure = "structure"
	taskHistory   = "history"
)

type structureLoadedMsg struct {
	err error
}

type boardOpenedMsg struct {
	entityID int64
	stale    bool
	cachedAt time.Time
	err      error
}

type boardChangedMsg struct {
	op  string
	err error
}

type boardClosedMsg struct {
	err error
}

// registerTasks schedules the structure refresh, which runs while the
// structure view is visible, and the history refresh of the open board.
func registerTasks(p *poll.Poller, cfg model.PollConfig, st *board.Structure, sess *board.Session) {
	p.Register(poll.Task{
		Name:      taskStructure,
		Interval:  time.Duration(cfg.StructureIntervalSec) * time.Second,
		Run:       st.Refresh,
		Immediate: true,
	})
	p.Register(poll.Task{
		Name:     taskHistory,
		Interval: time.Duration(cfg.HistoryIntervalSec) * time.Second,
		Run:      sess.RefreshHistory,
		Disabled: true,
	})
}

func (m *Model) applyPollResult(msg poll.ResultMsg) {
	if msg.Err == nil {
		return
	}
	op := "refresh " + msg.Task
	if msg.Task == taskHistory {
		op = "history"
	}
	m.fail(op, msg.Err)
}

// syncViews copies session state into whichever views show it.
func (m *Model) syncViews() tea.Cmd {
	cmd := m.syncStructure()
	if m.session.IsOpen() {
		m.syncBoard()
	}
	return cmd
}

func (m *Model) syncStructure() tea.Cmd {
	tree, ok := m.structure.Tree()
	if !ok {
		return nil
	}
	return m.structureView.SetTree(tree, m.structure.Stale(), m.structure.FetchedAt())
}

func (m *Model) syncBoard() {
	b, ok := m.session.Board()
	if !ok {
		return
	}
	m.boardView.SetBoard(b, m.session.VisibleHistory(), m.session.Stale(), m.cachedAt)
}

func (m Model) loadCachedStructure() tea.Cmd {
	st := m.structure
	ctx := m.ctx
	return func() tea.Msg {
		return structureLoadedMsg{err: st.LoadCached(ctx)}
	}
}

// openBoard switches to the board view and fetches the entity's board,
// falling back to its cached snapshot when the backend is unreachable.
func (m *Model) openBoard(entityID int64) tea.Cmd {
	m.poller.SetEnabled(taskStructure, false)
	m.poller.SetEnabled(taskHistory, false)
	m.currentView = ViewBoard
	m.pending = entityID
	m.cachedAt = time.Time{}
	m.boardView.Reset()
	m.boardView.SetLoading(true)
	m.inFlight++

	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		err := sess.Open(ctx, entityID)
		if err == nil {
			return boardOpenedMsg{entityID: entityID}
		}
		if !api.IsTransport(err) {
			return boardOpenedMsg{entityID: entityID, err: err}
		}
		at, cerr := sess.OpenCached(ctx, entityID)
		if cerr != nil {
			return boardOpenedMsg{entityID: entityID, err: err}
		}
		return boardOpenedMsg{entityID: entityID, stale: true, cachedAt: at}
	}
}

// leaveBoard returns to the structure view and resumes its refreshes.
func (m *Model) leaveBoard() {
	m.poller.SetEnabled(taskHistory, false)
	m.poller.SetEnabled(taskStructure, true)
	m.currentView = ViewStructure
	m.pending = 0
	m.boardView.Reset()
}

func (m *Model) closeBoard() tea.Cmd {
	m.leaveBoard()
	m.inFlight++
	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		return boardClosedMsg{err: sess.Close(ctx)}
	}
}

func (m *Model) reloadBoard() tea.Cmd {
	if !m.session.IsOpen() {
		return nil
	}
	m.inFlight++
	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		if err := sess.Reload(ctx); err != nil {
			return boardChangedMsg{op: "reload", err: err}
		}
		return boardChangedMsg{op: "reload", err: sess.RefreshHistory(ctx)}
	}
}

// moveStatus shows the flip right away; the reply re-syncs the view, which
// rolls it back if the backend refused.
func (m *Model) moveStatus(target model.ColumnID) tea.Cmd {
	b, ok := m.session.Board()
	if !ok {
		return nil
	}
	if cur, ok := model.CurrentColumn(b.Columns); ok && model.Transitions.Allows(cur.ID, target) {
		b.Columns = model.SetCurrent(b.Columns, target)
		m.boardView.SetBoard(b, m.session.VisibleHistory(), m.session.Stale(), m.cachedAt)
	}

	m.inFlight++
	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		_, err := sess.MoveStatus(ctx, target)
		return boardChangedMsg{op: "move", err: err}
	}
}

func (m *Model) reorderNotes(draggedID, targetID int64) tea.Cmd {
	b, ok := m.session.Board()
	if !ok {
		return nil
	}
	if notes, ok := board.Reorder(b.Notes, draggedID, targetID); ok {
		b.Notes = notes
		m.boardView.SetBoard(b, m.session.VisibleHistory(), m.session.Stale(), m.cachedAt)
	}

	m.inFlight++
	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		_, err := sess.ReorderNotes(ctx, draggedID, targetID)
		return boardChangedMsg{op: "reorder", err: err}
	}
}

func (m *Model) createNote(col model.ColumnID, text string, color model.NoteColor) tea.Cmd {
	m.inFlight++
	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		_, err := sess.CreateNote(ctx, col, text, color)
		return boardChangedMsg{op: "new note", err: err}
	}
}

func (m *Model) commitEdit(noteID int64, text string, color model.NoteColor) tea.Cmd {
	if err := m.session.DraftEdit(noteID, text, color); err != nil {
		m.fail("edit", err)
		return nil
	}
	m.inFlight++
	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		_, err := sess.CommitEdit(ctx, noteID)
		return boardChangedMsg{op: "edit", err: err}
	}
}

// deleteNote runs after the confirm dialog approved the delete.
func (m *Model) deleteNote(noteID int64) tea.Cmd {
	m.inFlight++
	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		err := sess.DeleteNote(ctx, noteID, func(model.Note) bool { return true })
		return boardChangedMsg{op: "delete", err: err}
	}
}

func (m *Model) deleteHistory(entryID int64) tea.Cmd {
	m.inFlight++
	sess, ctx := m.session, m.ctx
	return func() tea.Msg {
		return boardChangedMsg{op: "hide history", err: sess.DeleteHistoryEntry(ctx, entryID)}
	}
}

func background(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
