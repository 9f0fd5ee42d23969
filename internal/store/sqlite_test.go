package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/store"
	"github.com/nhle/channel-kanban/tests/testutil"
)

func TestStructureSnapshot(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	got, at, err := s.LoadStructure(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, at.IsZero())

	st := model.BuildStructure([]model.Entity{
		{ID: 1, Name: "A", Subgroup: "history", Monetized: true, CurrentStatus: model.ColumnGrowing},
		{ID: 2, Name: "B"},
	})
	require.NoError(t, s.SaveStructure(ctx, st))

	st2 := model.BuildStructure([]model.Entity{{ID: 3, Name: "C"}})
	require.NoError(t, s.SaveStructure(ctx, st2))

	got, at, err = s.LoadStructure(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Total())
	e, ok := got.FindEntity(3)
	require.True(t, ok)
	assert.Equal(t, "C", e.Name)
	assert.WithinDuration(t, time.Now(), at, time.Minute)
}

func TestBoardSnapshot(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	b := model.Board{
		Entity:  model.Entity{ID: 7, Name: "Canal", Monetized: true, CurrentStatus: model.ColumnSteady},
		Columns: model.ColumnsFor(true, model.ColumnSteady),
		Notes: []model.Note{
			{ID: 1, EntityID: 7, ColumnID: model.ColumnGrowing, Text: "a", Color: model.NoteRed, Position: 1},
		},
	}
	require.NoError(t, s.SaveBoard(ctx, b))

	got, _, err := s.LoadBoard(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Canal", got.Entity.Name)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, model.ColumnGrowing, got.Notes[0].ColumnID)

	missing, _, err := s.LoadBoard(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDispatchLog(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []model.Dispatch{
		{ID: "a", SpreadsheetID: "s1", Row: 2, Title: "one", Outcome: model.DispatchSent, StatusCode: 200, CreatedAt: base},
		{ID: "b", SpreadsheetID: "s1", Row: 3, Outcome: model.DispatchSkipped, Reason: "status is not done", CreatedAt: base.Add(time.Minute)},
		{ID: "c", SpreadsheetID: "s2", Row: 4, Outcome: model.DispatchFailed, StatusCode: 500, Marker: "❌ Erro 500", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, d := range records {
		require.NoError(t, s.RecordDispatch(ctx, d))
	}

	all, err := s.GetDispatches(ctx, store.DispatchFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "❌ Erro 500", all[0].Marker)
	assert.Equal(t, 4, all[0].Row)

	failed := model.DispatchFailed
	got, err := s.GetDispatches(ctx, store.DispatchFilter{Outcome: &failed})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 500, got[0].StatusCode)

	sheet := "s1"
	got, err = s.GetDispatches(ctx, store.DispatchFilter{SpreadsheetID: &sheet, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	assert.Error(t, s.RecordDispatch(ctx, records[0]), "duplicate id")
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := t.TempDir() + "/cache.db"
	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveStructure(context.Background(), model.Structure{}))
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	got, _, err := s.LoadStructure(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
}
