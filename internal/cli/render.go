package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nhle/channel-kanban/internal/model"
)

func renderStructure(w io.Writer, tree model.Structure) {
	for _, g := range tree.Groups() {
		fmt.Fprintf(w, "%s (%d)\n", g.Key.Label(), g.Total)
		for _, sg := range g.Subgroups {
			fmt.Fprintf(w, "  %s (%d)\n", sg.Name, sg.Total)
			for _, e := range sg.Entities {
				fmt.Fprintf(w, "    #%-5d %s %s  %s  · %s\n",
					e.ID, model.LanguageFlag(e.Language), e.Name, e.StatusTag(), noteCount(e.NoteCount))
			}
		}
	}
}

func noteCount(n int) string {
	if n == 1 {
		return "1 nota"
	}
	return fmt.Sprintf("%d notas", n)
}

func renderBoard(w io.Writer, b model.Board, history []model.HistoryEntry) {
	e := b.Entity
	fmt.Fprintf(w, "%s %s  #%d\n", model.LanguageFlag(e.Language), e.Name, e.ID)
	fmt.Fprintf(w, "%s\n\n", e.StatusTag())

	for _, c := range b.Columns {
		marker := "  "
		if c.IsCurrent {
			marker = "▶ "
		}
		fmt.Fprintf(w, "%s%s %s\n", marker, c.Emoji, c.Label)
		for _, n := range model.NotesInColumn(b.Notes, c.ID) {
			renderNote(w, n)
		}
	}

	if len(history) > 0 {
		fmt.Fprintln(w, "\nHistórico")
		renderHistory(w, history)
	}
}

func renderNote(w io.Writer, n model.Note) {
	edited := ""
	if n.Edited() {
		edited = " (editado)"
	}
	fmt.Fprintf(w, "      #%-5d [%s] %s%s\n", n.ID, n.Color, oneLine(n.Text), edited)
}

func renderHistory(w io.Writer, entries []model.HistoryEntry) {
	for _, h := range entries {
		fmt.Fprintf(w, "  #%-5d %-14s %-15s %s\n",
			h.ID, humanize.Time(h.PerformedAt), h.ActionType, oneLine(h.Description))
	}
}

func renderDispatches(w io.Writer, ds []model.Dispatch) {
	if len(ds) == 0 {
		fmt.Fprintln(w, "No dispatches recorded")
		return
	}
	for _, d := range ds {
		detail := d.Reason
		if d.Marker != "" {
			detail = d.Marker
		}
		fmt.Fprintf(w, "%-14s %-8s row %-5d %s  %s\n",
			humanize.Time(d.CreatedAt), d.Outcome, d.Row, oneLine(d.Title), detail)
	}
}

// staleNotice tells the user the data came from the local snapshot.
func staleNotice(w io.Writer, at time.Time) {
	fmt.Fprintf(w, "⚠ offline: showing snapshot from %s\n\n", humanize.Time(at))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
