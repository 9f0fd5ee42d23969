package board

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/channel-kanban/internal/model"
)

// MoveStatus makes target the open entity's current stage. The flip is
// applied locally before the request and rolled back if it fails. Moving to
// the stage that is already current is a no-op that issues no request; the
// returned bool reports whether a move happened.
func (s *Session) MoveStatus(ctx context.Context, target model.ColumnID) (bool, error) {
	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return false, ErrNoBoard
	}
	if !model.HasColumn(s.board.Columns, target) {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrUnknownColumn, target)
	}

	var from model.ColumnID
	if cur, ok := model.CurrentColumn(s.board.Columns); ok {
		from = cur.ID
	}
	if from == target {
		s.mu.Unlock()
		return false, nil
	}
	if !model.Transitions.Allows(from, target) {
		s.mu.Unlock()
		return false, fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, from, target)
	}

	prev := captureStatus(s.board.Entity)

	now := s.opts.now()
	s.board.Columns = model.SetCurrent(s.board.Columns, target)
	s.board.Entity.CurrentStatus = target
	s.board.Entity.StatusLabel, s.board.Entity.StatusColor = model.StatusLabel(target)
	for _, c := range s.board.Columns {
		if c.ID == target {
			s.board.Entity.StatusEmoji = c.Emoji
		}
	}
	s.board.Entity.StatusSince = &now
	s.board.Entity.DaysInStatus = 0

	entityID, gen := s.board.Entity.ID, s.gen
	s.mu.Unlock()

	err := s.backend.MoveStatus(ctx, entityID, target)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return err == nil, err
	}
	if err != nil {
		// Only undo our own flip; a later successful move wins.
		if cur, ok := model.CurrentColumn(s.board.Columns); ok && cur.ID == target {
			s.board.Columns = model.SetCurrent(s.board.Columns, from)
			prev.restore(&s.board.Entity)
		}
		s.mu.Unlock()
		s.opts.log.Warn().
			Err(err).
			Int64("entity_id", entityID).
			Str("target", string(target)).
			Msg("status move failed, rolled back")
		return false, err
	}
	s.mu.Unlock()

	s.refreshHistoryLogged(ctx)
	return true, nil
}

// statusFields are the entity fields a status move rewrites. A rollback
// restores only these so note changes made meanwhile survive.
type statusFields struct {
	current model.ColumnID
	label   string
	color   string
	emoji   string
	since   *time.Time
	days    int
}

func captureStatus(e model.Entity) statusFields {
	return statusFields{
		current: e.CurrentStatus,
		label:   e.StatusLabel,
		color:   e.StatusColor,
		emoji:   e.StatusEmoji,
		since:   e.StatusSince,
		days:    e.DaysInStatus,
	}
}

func (f statusFields) restore(e *model.Entity) {
	e.CurrentStatus = f.current
	e.StatusLabel = f.label
	e.StatusColor = f.color
	e.StatusEmoji = f.emoji
	e.StatusSince = f.since
	e.DaysInStatus = f.days
}
