package board

import (
	"context"
	"sync"
	"time"

	"github.com/nhle/channel-kanban/internal/model"
)

// StructureFetcher loads the grouped entity summary.
type StructureFetcher interface {
	FetchStructure(ctx context.Context) (*model.Structure, error)
}

// Structure holds the last successfully fetched structure tree. A refresh
// replaces the tree wholesale; a failed refresh leaves it untouched.
type Structure struct {
	fetcher StructureFetcher
	opts    options

	mu        sync.RWMutex
	tree      *model.Structure
	fetchedAt time.Time
	stale     bool
	err       error
}

// NewStructure creates an empty structure aggregator.
func NewStructure(f StructureFetcher, opts ...Option) *Structure {
	return &Structure{fetcher: f, opts: newOptions(opts)}
}

// Refresh re-fetches the whole tree. On failure the previous tree is kept,
// the error is recorded and returned; nothing is retried.
func (s *Structure) Refresh(ctx context.Context) error {
	tree, err := s.fetcher.FetchStructure(ctx)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.opts.log.Warn().Err(err).Msg("structure refresh failed")
		return err
	}

	now := s.opts.now()
	s.mu.Lock()
	s.tree = tree
	s.fetchedAt = now
	s.stale = false
	s.err = nil
	s.mu.Unlock()

	if s.opts.cache != nil {
		if cerr := s.opts.cache.SaveStructure(ctx, *tree); cerr != nil {
			s.opts.log.Warn().Err(cerr).Msg("caching structure failed")
		}
	}
	return nil
}

// LoadCached seeds the tree from the snapshot cache. It never replaces a
// tree that was already fetched live.
func (s *Structure) LoadCached(ctx context.Context) error {
	if s.opts.cache == nil {
		return nil
	}
	tree, at, err := s.opts.cache.LoadStructure(ctx)
	if err != nil || tree == nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree != nil {
		return nil
	}
	s.tree = tree
	s.fetchedAt = at
	s.stale = true
	return nil
}

// Tree returns the current tree and whether one has been loaded.
func (s *Structure) Tree() (model.Structure, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tree == nil {
		return model.Structure{}, false
	}
	return *s.tree, true
}

// Err returns the error of the last refresh, nil after a successful one.
func (s *Structure) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// FetchedAt returns when the current tree was fetched.
func (s *Structure) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Stale reports whether the tree came from the cache rather than the
// backend.
func (s *Structure) Stale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}
