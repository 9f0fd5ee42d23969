package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/channel-kanban/internal/board"
	"github.com/nhle/channel-kanban/internal/model"
)

func newNoteCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage the notes on a channel's board",
	}
	cmd.AddCommand(
		newNoteAddCmd(rt),
		newNoteEditCmd(rt),
		newNoteRmCmd(rt),
		newNoteReorderCmd(rt),
	)
	return cmd
}

func parseColor(s string) (model.NoteColor, error) {
	c, ok := model.ParseNoteColor(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", board.ErrInvalidColor, s)
	}
	return c, nil
}

func newNoteAddCmd(rt *runtime) *cobra.Command {
	var column, color string
	cmd := &cobra.Command{
		Use:   "add <entity-id> <text>...",
		Short: "Add a note to a column",
		Long: `Add a note to a column of a channel's board. Without --column the note
goes to the channel's current column.

Examples:
  kanban note add 7 "thumbnail test next week"
  kanban note add 7 --column canal_constante --color blue "steady RPM"`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return usagef(errors.New("note add needs an entity id and the note text"))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := parseColor(color)
			if err != nil {
				return err
			}
			s, err := rt.openLive(ctx, args[0])
			if err != nil {
				return err
			}

			b, _ := s.Board()
			col := b.Entity.CurrentStatus
			if column != "" {
				if col, err = model.ParseColumnID(b.Columns, column); err != nil {
					return fmt.Errorf("%w: %q", board.ErrUnknownColumn, column)
				}
			} else if cur, ok := model.CurrentColumn(b.Columns); ok {
				col = cur.ID
			}
			if !model.HasColumn(b.Columns, col) {
				return usagef(errors.New("the channel has no current column; pass --column"))
			}

			n, err := s.CreateNote(ctx, col, strings.Join(args[1:], " "), c)
			if err != nil {
				return err
			}
			return rt.formatter().Success(n, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Note #%d added\n", n.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&column, "column", "c", "", "column id or label")
	cmd.Flags().StringVar(&color, "color", "", "note color ("+paletteList()+")")
	return cmd
}

func newNoteEditCmd(rt *runtime) *cobra.Command {
	var text, color string
	cmd := &cobra.Command{
		Use:   "edit <entity-id> <note-id>",
		Short: "Change a note's text or color",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("text") && !cmd.Flags().Changed("color") {
				return usagef(errors.New("pass --text and/or --color"))
			}
			noteID, err := parseID("note", args[1])
			if err != nil {
				return err
			}
			var c model.NoteColor
			if color != "" {
				if c, err = parseColor(color); err != nil {
					return err
				}
			}
			s, err := rt.openLive(ctx, args[0])
			if err != nil {
				return err
			}

			if err := s.BeginEdit(noteID); err != nil {
				return err
			}
			// Unset flags keep the note's current values.
			b, _ := s.Board()
			for _, n := range b.Notes {
				if n.ID != noteID {
					continue
				}
				if !cmd.Flags().Changed("text") {
					text = n.Text
				}
				if c == "" {
					c = n.Color
				}
			}
			if err := s.DraftEdit(noteID, text, c); err != nil {
				if cerr := s.CancelEdit(noteID); cerr != nil {
					rt.log.Warn().Err(cerr).Int64("note_id", noteID).Msg("cancelling edit")
				}
				return err
			}
			n, err := s.CommitEdit(ctx, noteID)
			if err != nil {
				return err
			}
			return rt.formatter().Success(n, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Note #%d updated\n", n.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "new text")
	cmd.Flags().StringVar(&color, "color", "", "new color ("+paletteList()+")")
	return cmd
}

// confirm asks through env.Confirm unless yes is set. A failed prompt
// counts as a refusal.
func (rt *runtime) confirm(yes bool, title, description string) bool {
	if yes {
		return true
	}
	if rt.env.Confirm == nil {
		return false
	}
	ok, err := rt.env.Confirm(title, description)
	if err != nil {
		rt.log.Warn().Err(err).Msg("confirmation prompt")
		return false
	}
	return ok
}

func newNoteRmCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm <entity-id> <note-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Long:    `Delete a note. Asks for confirmation unless --yes is given.`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			noteID, err := parseID("note", args[1])
			if err != nil {
				return err
			}
			s, err := rt.openLive(ctx, args[0])
			if err != nil {
				return err
			}

			err = s.DeleteNote(ctx, noteID, func(n model.Note) bool {
				return rt.confirm(yes, fmt.Sprintf("Delete note #%d?", n.ID), oneLine(n.Text))
			})
			if errors.Is(err, board.ErrNotConfirmed) {
				fmt.Fprintln(rt.env.Err, "Cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			return rt.formatter().Success(map[string]int64{"note_id": noteID}, func(w io.Writer) {
				fmt.Fprintf(w, "✓ Note #%d deleted\n", noteID)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newNoteReorderCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <entity-id> <note-id> <target-note-id>",
		Short: "Move a note to the position of another note",
		Long: `Move a note to the position currently held by the target note. Positions
are renumbered across the whole board; notes never change column.`,
		Args: exactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dragged, err := parseID("note", args[1])
			if err != nil {
				return err
			}
			target, err := parseID("note", args[2])
			if err != nil {
				return err
			}
			s, err := rt.openLive(ctx, args[0])
			if err != nil {
				return err
			}

			positions, err := s.ReorderNotes(ctx, dragged, target)
			if err != nil {
				return err
			}
			return rt.formatter().Success(positions, func(w io.Writer) {
				if positions == nil {
					fmt.Fprintln(w, "Nothing to reorder")
					return
				}
				b, _ := s.Board()
				for _, c := range b.Columns {
					fmt.Fprintf(w, "%s %s\n", c.Emoji, c.Label)
					for _, n := range model.NotesInColumn(b.Notes, c.ID) {
						renderNote(w, n)
					}
				}
			})
		},
	}
}
