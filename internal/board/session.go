package board

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/channel-kanban/internal/model"
)

// Session owns the board of the entity currently open in the console.
// Results of requests issued for a board that has since been closed or
// replaced are discarded.
type Session struct {
	backend   Backend
	structure *Structure
	opts      options

	mu    sync.Mutex
	board *model.Board
	gen   uint64
	stale bool
	edits map[int64]model.Note
}

// NewSession creates a session with no board open. Closing a board
// refreshes structure; it may be nil when no parent view exists.
func NewSession(b Backend, structure *Structure, opts ...Option) *Session {
	return &Session{
		backend:   b,
		structure: structure,
		opts:      newOptions(opts),
		edits:     make(map[int64]model.Note),
	}
}

// Open fetches the entity's board and replaces the session state with it.
// On failure the previous state is kept.
func (s *Session) Open(ctx context.Context, entityID int64) error {
	b, err := s.backend.FetchBoard(ctx, entityID)
	if err != nil {
		s.opts.log.Warn().Err(err).Int64("entity_id", entityID).Msg("opening board failed")
		return err
	}

	s.mu.Lock()
	s.gen++
	s.board = b
	s.stale = false
	s.edits = make(map[int64]model.Note)
	snapshot := cloneBoard(b)
	s.mu.Unlock()

	if s.opts.cache != nil {
		if cerr := s.opts.cache.SaveBoard(ctx, snapshot); cerr != nil {
			s.opts.log.Warn().Err(cerr).Int64("entity_id", entityID).Msg("caching board failed")
		}
	}
	return nil
}

// OpenCached shows the last cached board of an entity. The board is marked
// stale; mutations still go to the backend.
func (s *Session) OpenCached(ctx context.Context, entityID int64) (time.Time, error) {
	if s.opts.cache == nil {
		return time.Time{}, ErrNoBoard
	}
	b, at, err := s.opts.cache.LoadBoard(ctx, entityID)
	if err != nil {
		return time.Time{}, err
	}
	if b == nil {
		return time.Time{}, ErrNoBoard
	}

	s.mu.Lock()
	s.gen++
	s.board = b
	s.stale = true
	s.edits = make(map[int64]model.Note)
	s.mu.Unlock()
	return at, nil
}

// Stale reports whether the open board came from the cache.
func (s *Session) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

// Close discards the board and re-syncs the structure tree exactly once so
// summaries reflect changes made while the board was open.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.board = nil
	s.stale = false
	s.edits = make(map[int64]model.Note)
	s.mu.Unlock()

	if s.structure == nil {
		return nil
	}
	return s.structure.Refresh(ctx)
}

// Reload re-fetches the open board, keeping it on failure.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.board == nil {
		s.mu.Unlock()
		return ErrNoBoard
	}
	id, gen := s.board.Entity.ID, s.gen
	s.mu.Unlock()

	b, err := s.backend.FetchBoard(ctx, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == gen {
		s.board = b
		s.stale = false
	}
	return nil
}

// IsOpen reports whether a board is open.
func (s *Session) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board != nil
}

// EntityID returns the id of the open entity, or zero.
func (s *Session) EntityID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return 0
	}
	return s.board.Entity.ID
}

// Board returns a copy of the open board.
func (s *Session) Board() (model.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.board == nil {
		return model.Board{}, false
	}
	return cloneBoard(s.board), true
}

// findNote returns the index of a note in the flat collection. Callers hold
// s.mu.
func (s *Session) findNote(noteID int64) int {
	for i, n := range s.board.Notes {
		if n.ID == noteID {
			return i
		}
	}
	return -1
}
