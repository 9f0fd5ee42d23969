package board

import (
	"context"
	"errors"

	"github.com/nhle/channel-kanban/internal/model"
)

// RefreshHistory re-fetches the open entity's history. The result is
// dropped if the board was closed or replaced meanwhile.
func (s *Session) RefreshHistory(ctx context.Context) error {
	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return ErrNoBoard
	}
	entityID, gen := s.board.Entity.ID, s.gen
	s.mu.Unlock()

	entries, err := s.backend.FetchHistory(ctx, entityID, s.opts.fetchLimit)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen && s.board != nil {
		s.board.History = entries
	}
	return nil
}

func (s *Session) refreshHistoryLogged(ctx context.Context) {
	if err := s.RefreshHistory(ctx); err != nil && !errors.Is(err, ErrNoBoard) {
		s.opts.log.Warn().Err(err).Msg("history refresh failed")
	}
}

// VisibleHistory returns the newest entries, at most the visible limit.
func (s *Session) VisibleHistory() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return nil
	}
	h := s.board.History
	if len(h) > s.opts.visibleLimit {
		h = h[:s.opts.visibleLimit]
	}
	return append([]model.HistoryEntry(nil), h...)
}

// DeleteHistoryEntry soft-deletes an entry on the backend and drops it from
// the local list once that succeeds.
func (s *Session) DeleteHistoryEntry(ctx context.Context, entryID int64) error {
	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return ErrNoBoard
	}
	gen := s.gen
	s.mu.Unlock()

	if err := s.backend.DeleteHistoryEntry(ctx, entryID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.board == nil {
		return nil
	}
	for i, e := range s.board.History {
		if e.ID == entryID {
			s.board.History = append(s.board.History[:i:i], s.board.History[i+1:]...)
			break
		}
	}
	return nil
}
