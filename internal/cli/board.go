package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/channel-kanban/internal/api"
	"github.com/nhle/channel-kanban/internal/board"
	"github.com/nhle/channel-kanban/internal/model"
)

// openBoard opens an entity's board. With cached set the snapshot is read
// without touching the network; an unreachable backend also falls back to
// the snapshot. The returned time is zero for a live board.
func (rt *runtime) openBoard(ctx context.Context, entityID int64, cached bool, opts ...board.Option) (*board.Session, time.Time, error) {
	s := board.NewSession(rt.client(), nil, append(rt.boardOptions(), opts...)...)
	if cached {
		at, err := s.OpenCached(ctx, entityID)
		return s, at, err
	}

	err := s.Open(ctx, entityID)
	if err == nil || !api.IsTransport(err) {
		return s, time.Time{}, err
	}
	at, cerr := s.OpenCached(ctx, entityID)
	if cerr != nil {
		return s, time.Time{}, err
	}
	rt.log.Warn().Err(err).Int64("entity_id", entityID).Msg("backend unreachable, using snapshot")
	return s, at, nil
}

// openLive opens a board that is about to be mutated.
func (rt *runtime) openLive(ctx context.Context, arg string) (*board.Session, error) {
	id, err := parseID("entity", arg)
	if err != nil {
		return nil, err
	}
	s := board.NewSession(rt.client(), nil, rt.boardOptions()...)
	if err := s.Open(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

type boardResult struct {
	Board    model.Board `json:"board"`
	Stale    bool        `json:"stale"`
	CachedAt *time.Time  `json:"cached_at,omitempty"`
}

func newBoardCmd(rt *runtime) *cobra.Command {
	var cached bool
	cmd := &cobra.Command{
		Use:   "board <entity-id>",
		Short: "Show a channel's status columns, notes and history",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("entity", args[0])
			if err != nil {
				return err
			}
			s, at, err := rt.openBoard(cmd.Context(), id, cached)
			if err != nil {
				return err
			}

			b, _ := s.Board()
			b.History = s.VisibleHistory()
			res := boardResult{Board: b, Stale: s.Stale()}
			if res.Stale {
				res.CachedAt = &at
			}
			return rt.formatter().Success(res, func(w io.Writer) {
				if res.Stale {
					staleNotice(w, at)
				}
				renderBoard(w, b, b.History)
			})
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "read the local snapshot without contacting the backend")
	return cmd
}

type moveResult struct {
	EntityID int64          `json:"entity_id"`
	From     model.ColumnID `json:"from"`
	To       model.ColumnID `json:"to"`
	Moved    bool           `json:"moved"`
}

func newMoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "move <entity-id> <column>",
		Short: "Move a channel to another status column",
		Long: `Move a channel to another status column. The column may be given by id
(em_crescimento) or by label ("Em Crescimento").`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := rt.openLive(ctx, args[0])
			if err != nil {
				return err
			}

			b, _ := s.Board()
			target, err := model.ParseColumnID(b.Columns, args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", board.ErrUnknownColumn, args[1])
			}

			moved, err := s.MoveStatus(ctx, target)
			if err != nil {
				return err
			}
			res := moveResult{EntityID: b.Entity.ID, From: b.Entity.CurrentStatus, To: target, Moved: moved}
			return rt.formatter().Success(res, func(w io.Writer) {
				label, _ := model.StatusLabel(target)
				if !moved {
					fmt.Fprintf(w, "%s is already in %s\n", b.Entity.Name, label)
					return
				}
				fmt.Fprintf(w, "✓ %s moved to %s\n", b.Entity.Name, label)
			})
		},
	}
}
