package api

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nhle/channel-kanban/internal/model"
)

// flexTime accepts the timestamp shapes the backend emits: RFC 3339 with or
// without fractional seconds, with "Z" or an offset, and naive timestamps
// (assumed UTC).
type flexTime struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t *flexTime) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// === Structure ===

type structureResponse struct {
	Monetizados    groupDTO `json:"monetizados"`
	NaoMonetizados groupDTO `json:"nao_monetizados"`
}

type groupDTO struct {
	Total     int                    `json:"total"`
	Subnichos map[string]subgroupDTO `json:"subnichos"`
}

type subgroupDTO struct {
	Nome   string             `json:"nome"`
	Total  int                `json:"total"`
	Canais []entitySummaryDTO `json:"canais"`
}

type entitySummaryDTO struct {
	ID           int64     `json:"id"`
	Nome         string    `json:"nome"`
	Subnicho     string    `json:"subnicho"`
	Lingua       string    `json:"lingua"`
	URLCanal     string    `json:"url_canal"`
	KanbanStatus string    `json:"kanban_status"`
	StatusLabel  string    `json:"status_label"`
	StatusColor  string    `json:"status_color"`
	StatusEmoji  string    `json:"status_emoji"`
	StatusSince  *flexTime `json:"status_since"`
	DiasNoStatus int       `json:"dias_no_status"`
	TotalNotas   int       `json:"total_notas"`
}

func (d entitySummaryDTO) toModel(monetized bool) model.Entity {
	e := model.Entity{
		ID:            d.ID,
		Name:          d.Nome,
		Subgroup:      d.Subnicho,
		Language:      d.Lingua,
		URL:           d.URLCanal,
		Monetized:     monetized,
		CurrentStatus: model.ColumnID(d.KanbanStatus),
		StatusLabel:   d.StatusLabel,
		StatusColor:   d.StatusColor,
		StatusEmoji:   d.StatusEmoji,
		StatusSince:   d.StatusSince.ptr(),
		DaysInStatus:  d.DiasNoStatus,
		NoteCount:     d.TotalNotas,
	}
	if e.StatusLabel == "" {
		e.StatusLabel, e.StatusColor = model.StatusLabel(e.CurrentStatus)
	}
	return e
}

func (g groupDTO) toModel(key model.GroupKey) model.Group {
	monetized := key == model.GroupMonetized
	names := make([]string, 0, len(g.Subnichos))
	for name := range g.Subnichos {
		names = append(names, name)
	}
	sort.Strings(names)

	out := model.Group{Key: key, Total: g.Total}
	for _, name := range names {
		sg := g.Subnichos[name]
		sub := model.Subgroup{Name: name, Total: sg.Total}
		if sg.Nome != "" {
			sub.Name = sg.Nome
		}
		for _, c := range sg.Canais {
			sub.Entities = append(sub.Entities, c.toModel(monetized))
		}
		if sub.Total == 0 {
			sub.Total = len(sub.Entities)
		}
		out.Subgroups = append(out.Subgroups, sub)
	}
	return out
}

func (r structureResponse) toModel() model.Structure {
	return model.Structure{
		Monetized:    r.Monetizados.toModel(model.GroupMonetized),
		NotMonetized: r.NaoMonetizados.toModel(model.GroupNotMonetized),
	}
}

// === Board ===

type boardResponse struct {
	Canal     boardEntityDTO `json:"canal"`
	Colunas   []columnDTO    `json:"colunas"`
	Notas     []noteDTO      `json:"notas"`
	Historico []historyDTO   `json:"historico"`
}

type boardEntityDTO struct {
	ID           int64     `json:"id"`
	Nome         string    `json:"nome"`
	Subnicho     string    `json:"subnicho"`
	Monetizado   bool      `json:"monetizado"`
	StatusAtual  string    `json:"status_atual"`
	StatusSince  *flexTime `json:"status_since"`
	DiasNoStatus int       `json:"dias_no_status"`
}

type columnDTO struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Emoji     string `json:"emoji"`
	Descricao string `json:"descricao"`
	IsCurrent bool   `json:"is_current"`
}

type noteDTO struct {
	ID        int64     `json:"id"`
	CanalID   int64     `json:"canal_id"`
	ColumnID  string    `json:"column_id"`
	ColunaID  string    `json:"coluna_id"`
	NoteText  string    `json:"note_text"`
	NoteColor string    `json:"note_color"`
	Position  int       `json:"position"`
	CreatedAt flexTime  `json:"created_at"`
	UpdatedAt *flexTime `json:"updated_at"`
}

func (d noteDTO) toModel() model.Note {
	col := d.ColumnID
	if col == "" {
		col = d.ColunaID
	}
	color := model.NoteColor(d.NoteColor)
	if color == "" {
		color = model.DefaultNoteColor
	}
	return model.Note{
		ID:        d.ID,
		EntityID:  d.CanalID,
		ColumnID:  model.ColumnID(col),
		Text:      d.NoteText,
		Color:     color,
		Position:  d.Position,
		CreatedAt: d.CreatedAt.Time,
		UpdatedAt: d.UpdatedAt.ptr(),
	}
}

type historyDTO struct {
	ID          int64          `json:"id"`
	CanalID     int64          `json:"canal_id"`
	ActionType  string         `json:"action_type"`
	Description string         `json:"description"`
	Details     map[string]any `json:"details"`
	PerformedAt flexTime       `json:"performed_at"`
}

func (d historyDTO) toModel() model.HistoryEntry {
	return model.HistoryEntry{
		ID:          d.ID,
		EntityID:    d.CanalID,
		ActionType:  d.ActionType,
		Description: d.Description,
		Details:     d.Details,
		PerformedAt: d.PerformedAt.Time,
	}
}

func historyToModel(in []historyDTO) []model.HistoryEntry {
	out := make([]model.HistoryEntry, 0, len(in))
	for _, h := range in {
		out = append(out, h.toModel())
	}
	return out
}

func (r boardResponse) toModel() *model.Board {
	label, color := model.StatusLabel(model.ColumnID(r.Canal.StatusAtual))
	b := &model.Board{
		Entity: model.Entity{
			ID:            r.Canal.ID,
			Name:          r.Canal.Nome,
			Subgroup:      r.Canal.Subnicho,
			Monetized:     r.Canal.Monetizado,
			CurrentStatus: model.ColumnID(r.Canal.StatusAtual),
			StatusLabel:   label,
			StatusColor:   color,
			StatusSince:   r.Canal.StatusSince.ptr(),
			DaysInStatus:  r.Canal.DiasNoStatus,
		},
		Notes:   make([]model.Note, 0, len(r.Notas)),
		History: historyToModel(r.Historico),
	}

	for _, c := range r.Colunas {
		b.Columns = append(b.Columns, model.Column{
			ID:          model.ColumnID(c.ID),
			Label:       c.Label,
			Emoji:       c.Emoji,
			Description: c.Descricao,
			IsCurrent:   c.IsCurrent,
		})
	}
	// Older backends omit the column list; fall back to the static sets.
	if len(b.Columns) == 0 {
		b.Columns = model.ColumnsFor(b.Entity.Monetized, b.Entity.CurrentStatus)
	}

	for _, n := range r.Notas {
		note := n.toModel()
		if note.EntityID == 0 {
			note.EntityID = b.Entity.ID
		}
		b.Notes = append(b.Notes, note)
	}
	b.Entity.NoteCount = len(b.Notes)
	return b
}

// === Requests ===

type moveStatusRequest struct {
	NewStatus model.ColumnID `json:"new_status"`
}

type createNoteRequest struct {
	NoteText  string          `json:"note_text"`
	NoteColor model.NoteColor `json:"note_color"`
	ColumnID  model.ColumnID  `json:"column_id"`
}

type updateNoteRequest struct {
	NoteText  string          `json:"note_text"`
	NoteColor model.NoteColor `json:"note_color"`
}

type reorderNotesRequest struct {
	NotePositions []model.NotePosition `json:"note_positions"`
}
