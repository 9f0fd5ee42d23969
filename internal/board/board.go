// Package board holds the client-side Kanban workflow: the structure tree,
// the open entity board, status transitions, notes and history. The backend
// is the source of truth; every mutation is either deferred until the
// backend confirms it or applied optimistically with a snapshot that is
// restored on failure.
package board

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/channel-kanban/internal/model"
)

var (
	// ErrNoBoard is returned by board operations when no board is open.
	ErrNoBoard = errors.New("no board open")

	// ErrEmptyNote is returned when note text is empty after trimming.
	ErrEmptyNote = errors.New("note text is empty")

	// ErrInvalidColor is returned for colors outside the note palette.
	ErrInvalidColor = errors.New("color is not in the note palette")

	// ErrUnknownColumn is returned for a column id the board does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrTransitionNotAllowed is returned when the transition table rejects
	// a move.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")

	// ErrNoteNotFound is returned when a note id is not on the board.
	ErrNoteNotFound = errors.New("note not found")

	// ErrNotEditing is returned by edit operations without a BeginEdit.
	ErrNotEditing = errors.New("note is not being edited")

	// ErrNotConfirmed is returned when a destructive action was not
	// confirmed. No request is issued.
	ErrNotConfirmed = errors.New("action not confirmed")
)

// Backend is the subset of the kanban API the workflow depends on.
type Backend interface {
	FetchStructure(ctx context.Context) (*model.Structure, error)
	FetchBoard(ctx context.Context, entityID int64) (*model.Board, error)
	MoveStatus(ctx context.Context, entityID int64, target model.ColumnID) error
	CreateNote(ctx context.Context, entityID int64, columnID model.ColumnID, text string, color model.NoteColor) (*model.Note, error)
	UpdateNote(ctx context.Context, noteID int64, text string, color model.NoteColor) (*model.Note, error)
	DeleteNote(ctx context.Context, noteID int64) error
	ReorderNotes(ctx context.Context, entityID int64, positions []model.NotePosition) error
	FetchHistory(ctx context.Context, entityID int64, limit int) ([]model.HistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, entryID int64) error
}

// Cache persists the last good structure tree and boards so an offline
// console still has something to show.
type Cache interface {
	SaveStructure(ctx context.Context, s model.Structure) error
	LoadStructure(ctx context.Context) (*model.Structure, time.Time, error)
	SaveBoard(ctx context.Context, b model.Board) error
	LoadBoard(ctx context.Context, entityID int64) (*model.Board, time.Time, error)
}

// ConfirmFunc asks the user to confirm a destructive action on a note.
type ConfirmFunc func(note model.Note) bool

type options struct {
	cache        Cache
	log          zerolog.Logger
	now          func() time.Time
	fetchLimit   int
	visibleLimit int
}

// Option configures a Structure or a Session.
type Option func(*options)

// WithCache enables snapshot persistence.
func WithCache(c Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithLogger sets the logger for failures that are not returned to a caller.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithHistoryLimits sets how many history entries are fetched from the
// backend and how many are exposed by VisibleHistory.
func WithHistoryLimits(fetch, visible int) Option {
	return func(o *options) {
		if fetch > 0 {
			o.fetchLimit = fetch
		}
		if visible > 0 {
			o.visibleLimit = visible
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		log:          zerolog.Nop(),
		now:          time.Now,
		fetchLimit:   50,
		visibleLimit: 50,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// cloneBoard deep-copies the slices of b so callers cannot mutate session
// state.
func cloneBoard(b *model.Board) model.Board {
	out := *b
	out.Columns = append([]model.Column(nil), b.Columns...)
	out.Notes = append([]model.Note(nil), b.Notes...)
	out.History = append([]model.HistoryEntry(nil), b.History...)
	return out
}
