package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/model"
)

type memCache struct {
	saved  *model.Structure
	at     time.Time
	saves  int
	boards map[int64]model.Board
}

func (c *memCache) SaveStructure(ctx context.Context, s model.Structure) error {
	c.saved = &s
	c.saves++
	return nil
}

func (c *memCache) LoadStructure(ctx context.Context) (*model.Structure, time.Time, error) {
	return c.saved, c.at, nil
}

func (c *memCache) SaveBoard(ctx context.Context, b model.Board) error {
	if c.boards == nil {
		c.boards = make(map[int64]model.Board)
	}
	c.boards[b.Entity.ID] = b
	return nil
}

func (c *memCache) LoadBoard(ctx context.Context, entityID int64) (*model.Board, time.Time, error) {
	b, ok := c.boards[entityID]
	if !ok {
		return nil, time.Time{}, nil
	}
	return &b, c.at, nil
}

func sampleStructure() *model.Structure {
	s := model.BuildStructure([]model.Entity{
		{ID: 1, Name: "A", Subgroup: "history", Monetized: true},
		{ID: 2, Name: "B", Subgroup: "history"},
		{ID: 3, Name: "C"},
	})
	return &s
}

func TestStructure_RefreshReplacesTree(t *testing.T) {
	f := newFakeBackend()
	f.structure = sampleStructure()
	cache := &memCache{}
	st := NewStructure(f, WithCache(cache), WithClock(fixedClock()))

	require.NoError(t, st.Refresh(context.Background()))
	tree, ok := st.Tree()
	require.True(t, ok)
	assert.Equal(t, 3, tree.Total())
	assert.Equal(t, fixedClock()(), st.FetchedAt())
	assert.False(t, st.Stale())
	assert.Equal(t, 1, cache.saves)
}

func TestStructure_FailureKeepsPreviousTree(t *testing.T) {
	f := newFakeBackend()
	f.structure = sampleStructure()
	st := NewStructure(f)
	require.NoError(t, st.Refresh(context.Background()))

	f.failStructure = true
	err := st.Refresh(context.Background())
	require.ErrorIs(t, err, errBackend)
	assert.ErrorIs(t, st.Err(), errBackend)

	tree, ok := st.Tree()
	require.True(t, ok)
	assert.Equal(t, 3, tree.Total())

	f.failStructure = false
	require.NoError(t, st.Refresh(context.Background()))
	assert.NoError(t, st.Err())
}

func TestStructure_LoadCachedIsStaleAndNeverOverridesLive(t *testing.T) {
	cached := model.BuildStructure([]model.Entity{{ID: 9, Name: "old"}})
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := &memCache{saved: &cached, at: at}

	f := newFakeBackend()
	st := NewStructure(f, WithCache(cache))
	require.NoError(t, st.LoadCached(context.Background()))
	assert.True(t, st.Stale())
	assert.Equal(t, at, st.FetchedAt())

	f.structure = sampleStructure()
	require.NoError(t, st.Refresh(context.Background()))
	assert.False(t, st.Stale())

	require.NoError(t, st.LoadCached(context.Background()))
	tree, _ := st.Tree()
	assert.Equal(t, 3, tree.Total())
}
