package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nhle/channel-kanban/internal/model"
)

var errBackend = errors.New("backend down")

type call struct {
	Method string
	Args   []any
}

// fakeBackend records every call and serves canned responses.
type fakeBackend struct {
	mu    sync.Mutex
	calls []call

	structure *model.Structure
	boards    map[int64]*model.Board
	history   []model.HistoryEntry
	nextID    int64

	failStructure bool
	failBoard     bool
	failMove      bool
	failCreate    bool
	failUpdate    bool
	failDelete    bool
	failReorder   bool
	failHistory   bool
	// onMove and onReorder run while the call is in flight.
	onMove    func()
	onReorder func()
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		structure: &model.Structure{},
		boards:    make(map[int64]*model.Board),
		nextID:    100,
	}
}

func (f *fakeBackend) record(method string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Args: args})
	f.mu.Unlock()
}

func (f *fakeBackend) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) last(method string) (call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Method == method {
			return f.calls[i], true
		}
	}
	return call{}, false
}

func (f *fakeBackend) FetchStructure(ctx context.Context) (*model.Structure, error) {
	f.record("FetchStructure")
	if f.failStructure {
		return nil, errBackend
	}
	s := *f.structure
	return &s, nil
}

func (f *fakeBackend) FetchBoard(ctx context.Context, entityID int64) (*model.Board, error) {
	f.record("FetchBoard", entityID)
	if f.failBoard {
		return nil, errBackend
	}
	b, ok := f.boards[entityID]
	if !ok {
		return nil, errors.New("not found")
	}
	out := cloneBoard(b)
	return &out, nil
}

func (f *fakeBackend) MoveStatus(ctx context.Context, entityID int64, target model.ColumnID) error {
	f.record("MoveStatus", entityID, target)
	if f.onMove != nil {
		f.onMove()
	}
	if f.failMove {
		return errBackend
	}
	return nil
}

func (f *fakeBackend) CreateNote(ctx context.Context, entityID int64, columnID model.ColumnID, text string, color model.NoteColor) (*model.Note, error) {
	f.record("CreateNote", entityID, columnID, text, color)
	if f.failCreate {
		return nil, errBackend
	}
	f.nextID++
	return &model.Note{ID: f.nextID, Text: text, Color: color, CreatedAt: time.Now()}, nil
}

func (f *fakeBackend) UpdateNote(ctx context.Context, noteID int64, text string, color model.NoteColor) (*model.Note, error) {
	f.record("UpdateNote", noteID, text, color)
	if f.failUpdate {
		return nil, errBackend
	}
	return &model.Note{ID: noteID, Text: text, Color: color}, nil
}

func (f *fakeBackend) DeleteNote(ctx context.Context, noteID int64) error {
	f.record("DeleteNote", noteID)
	if f.failDelete {
		return errBackend
	}
	return nil
}

func (f *fakeBackend) ReorderNotes(ctx context.Context, entityID int64, positions []model.NotePosition) error {
	f.record("ReorderNotes", entityID, positions)
	if f.onReorder != nil {
		f.onReorder()
	}
	if f.failReorder {
		return errBackend
	}
	return nil
}

func (f *fakeBackend) FetchHistory(ctx context.Context, entityID int64, limit int) ([]model.HistoryEntry, error) {
	f.record("FetchHistory", entityID, limit)
	if f.failHistory {
		return nil, errBackend
	}
	return append([]model.HistoryEntry(nil), f.history...), nil
}

func (f *fakeBackend) DeleteHistoryEntry(ctx context.Context, entryID int64) error {
	f.record("DeleteHistoryEntry", entryID)
	if f.failDelete {
		return errBackend
	}
	return nil
}

// monetizedBoard is a monetized entity currently "growing", with notes in
// two columns.
func monetizedBoard(id int64) *model.Board {
	return &model.Board{
		Entity: model.Entity{
			ID:            id,
			Name:          "Canal Teste",
			Monetized:     true,
			CurrentStatus: model.ColumnNewTests,
			NoteCount:     4,
		},
		Columns: model.ColumnsFor(true, model.ColumnNewTests),
		Notes: []model.Note{
			{ID: 1, EntityID: id, ColumnID: model.ColumnSteady, Text: "a", Color: model.NoteYellow, Position: 1},
			{ID: 2, EntityID: id, ColumnID: model.ColumnSteady, Text: "b", Color: model.NoteGreen, Position: 2},
			{ID: 5, EntityID: id, ColumnID: model.ColumnGrowing, Text: "five", Color: model.NoteBlue, Position: 3},
			{ID: 3, EntityID: id, ColumnID: model.ColumnGrowing, Text: "c", Color: model.NoteRed, Position: 4},
		},
	}
}

func openSession(f *fakeBackend, opts ...Option) (*Session, *Structure) {
	st := NewStructure(f, opts...)
	s := NewSession(f, st, opts...)
	if err := s.Open(context.Background(), 7); err != nil {
		panic(err)
	}
	return s, st
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}
