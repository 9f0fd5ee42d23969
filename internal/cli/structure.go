package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/channel-kanban/internal/board"
	"github.com/nhle/channel-kanban/internal/model"
)

type structureResult struct {
	Structure model.Structure `json:"structure"`
	Stale     bool            `json:"stale"`
	FetchedAt time.Time       `json:"fetched_at"`
}

func newStructureCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "structure",
		Short: "Show every channel grouped by monetization and subniche",
		Long: `Fetch the grouped channel summary. When the backend cannot be reached
the last snapshot is shown instead and marked as offline.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st := board.NewStructure(rt.client(), rt.boardOptions()...)

			if err := st.Refresh(ctx); err != nil {
				if cerr := st.LoadCached(ctx); cerr != nil {
					rt.log.Warn().Err(cerr).Msg("loading cached structure")
				}
				if _, ok := st.Tree(); !ok {
					return err
				}
			}

			tree, _ := st.Tree()
			res := structureResult{Structure: tree, Stale: st.Stale(), FetchedAt: st.FetchedAt()}
			return rt.formatter().Success(res, func(w io.Writer) {
				if res.Stale {
					staleNotice(w, res.FetchedAt)
				}
				renderStructure(w, tree)
			})
		},
	}
}
