package store

import (
	"context"
	"time"

	"github.com/nhle/channel-kanban/internal/model"
)

// DispatchFilter controls filtering and pagination for dispatch queries.
type DispatchFilter struct {
	Outcome       *model.DispatchOutcome
	SpreadsheetID *string
	Limit         int
}

// Store defines the local persistence used for offline display and the
// upload trigger log.
type Store interface {
	// === Snapshots ===

	SaveStructure(ctx context.Context, s model.Structure) error
	LoadStructure(ctx context.Context) (*model.Structure, time.Time, error)
	SaveBoard(ctx context.Context, b model.Board) error
	LoadBoard(ctx context.Context, entityID int64) (*model.Board, time.Time, error)

	// === Upload trigger log ===

	RecordDispatch(ctx context.Context, d model.Dispatch) error
	GetDispatches(ctx context.Context, filter DispatchFilter) ([]model.Dispatch, error)

	Close() error
}
