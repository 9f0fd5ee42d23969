package structure

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/channel-kanban/internal/model"
	"github.com/nhle/channel-kanban/internal/theme"
)

// HeaderItem is a group or subgroup row. It cannot be opened.
type HeaderItem struct {
	Title string
	Total int
	Depth int
}

// FilterValue returns the string used for filtering.
func (h HeaderItem) FilterValue() string { return h.Title }

// EntityItem wraps a model.Entity so it can be used in a bubbles/list.
type EntityItem struct {
	Entity model.Entity
}

// FilterValue returns the string used for filtering.
func (i EntityItem) FilterValue() string { return i.Entity.Name }

// buildItems flattens the tree into list rows. A non-empty query keeps the
// entities whose name contains it and drops the headers left empty.
func buildItems(tree model.Structure, query string) []list.Item {
	query = strings.ToLower(strings.TrimSpace(query))
	var items []list.Item
	for _, g := range tree.Groups() {
		var groupRows []list.Item
		for _, sg := range g.Subgroups {
			var rows []list.Item
			for _, e := range sg.Entities {
				if query != "" && !strings.Contains(strings.ToLower(e.Name), query) {
					continue
				}
				rows = append(rows, EntityItem{Entity: e})
			}
			if len(rows) == 0 {
				continue
			}
			groupRows = append(groupRows, HeaderItem{Title: sg.Name, Total: len(rows), Depth: 1})
			groupRows = append(groupRows, rows...)
		}
		if len(groupRows) == 0 {
			continue
		}
		total := g.Total
		if query != "" {
			total = 0
			for _, it := range groupRows {
				if _, ok := it.(EntityItem); ok {
					total++
				}
			}
		}
		items = append(items, HeaderItem{Title: g.Key.Label(), Total: total})
		items = append(items, groupRows...)
	}
	return items
}

// ItemDelegate implements list.ItemDelegate for the structure rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	isSelected := index == m.Index()

	switch it := item.(type) {
	case HeaderItem:
		line := fmt.Sprintf("%s%s (%d)", strings.Repeat("  ", it.Depth), it.Title, it.Total)
		style := theme.GroupHeaderStyle
		if it.Depth > 0 {
			style = theme.DimmedStyle.Bold(true)
		}
		if isSelected {
			style = style.Underline(true)
		}
		fmt.Fprint(w, style.Render(line))

	case EntityItem:
		fmt.Fprint(w, renderEntity(it.Entity, isSelected))
	}
}

func renderEntity(e model.Entity, selected bool) string {
	label := e.StatusLabel
	color := e.StatusColor
	if label == "" {
		label, color = model.StatusLabel(e.CurrentStatus)
	}
	status := theme.StatusStyle(color).Render(fmt.Sprintf("%s %s", e.StatusEmoji, label))
	days := theme.DimmedStyle.Render(fmt.Sprintf("há %dd", e.DaysInStatus))

	notes := ""
	if e.NoteCount > 0 {
		notes = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render(fmt.Sprintf(" 📝%d", e.NoteCount))
	}

	line := fmt.Sprintf("    %s %s %s %s%s", model.LanguageFlag(e.Language), e.Name, status, days, notes)
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}
