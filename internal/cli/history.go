package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nhle/channel-kanban/internal/board"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	var (
		limit  int
		cached bool
	)
	cmd := &cobra.Command{
		Use:   "history <entity-id>",
		Short: "Show a channel's change history",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := parseID("entity", args[0])
			if err != nil {
				return err
			}
			if limit < 1 || limit > 100 {
				return usagef(fmt.Errorf("--limit must be between 1 and 100, got %d", limit))
			}

			s, at, err := rt.openBoard(ctx, id, cached, board.WithHistoryLimits(limit, limit))
			if err != nil {
				return err
			}
			if !s.Stale() && cmd.Flags().Changed("limit") {
				if err := s.RefreshHistory(ctx); err != nil {
					return err
				}
			}

			entries := s.VisibleHistory()
			return rt.formatter().Success(entries, func(w io.Writer) {
				if s.Stale() {
					staleNotice(w, at)
				}
				if len(entries) == 0 {
					fmt.Fprintln(w, "No history")
					return
				}
				renderHistory(w, entries)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of entries (1-100)")
	cmd.Flags().BoolVar(&cached, "cached", false, "read the local snapshot without contacting the backend")
	cmd.AddCommand(newHistoryRmCmd(rt))
	return cmd
}

func newHistoryRmCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <entity-id> <entry-id>",
		Aliases: []string{"hide"},
		Short:   "Hide a history entry",
		Long: `Hide a history entry. The backend keeps the record but stops returning it.
Asks for confirmation unless --yes is given.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entryID, err := parseID("history entry", args[1])
			if err != nil {
				return err
			}
			s, err := rt.openLive(ctx, args[0])
			if err != nil {
				return err
			}

			var description string
			for _, h := range s.VisibleHistory() {
				if h.ID == entryID {
					description = oneLine(h.Description)
				}
			}
			if !rt.confirm(yes, fmt.Sprintf("Hide history entry #%d?", entryID), description) {
				fmt.Fprintln(rt.env.Err, "Cancelled")
				return nil
			}

			if err := s.DeleteHistoryEntry(ctx, entryID); err != nil {
				return err
			}
			return rt.formatter().Success(map[string]int64{"entry_id": entryID}, func(w io.Writer) {
				fmt.Fprintf(w, "✓ History entry #%d hidden\n", entryID)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}
