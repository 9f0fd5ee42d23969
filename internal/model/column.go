package model

import (
	"fmt"
	"strings"
)

// ColumnID identifies one workflow stage. The set of valid stages depends on
// whether the entity is monetized.
type ColumnID string

// Stages for channels that are not monetized yet.
const (
	ColumnInitialTest ColumnID = "em_teste_inicial"
	ColumnTraction    ColumnID = "demonstrando_tracao"
	ColumnInProgress  ColumnID = "em_andamento"
	ColumnMonetized   ColumnID = "monetizado"
)

// Stages for monetized channels.
const (
	ColumnGrowing  ColumnID = "em_crescimento"
	ColumnNewTests ColumnID = "em_testes_novos"
	ColumnSteady   ColumnID = "canal_constante"
)

// Column is one stage of an entity's board. Columns are static
// configuration; only IsCurrent varies per entity.
type Column struct {
	ID          ColumnID `json:"id"`
	Label       string   `json:"label"`
	Emoji       string   `json:"emoji"`
	Description string   `json:"description"`
	IsCurrent   bool     `json:"is_current"`
}

// statusInfo holds the display label and color of a stage.
type statusInfo struct {
	label string
	color string
}

var statusInfos = map[ColumnID]statusInfo{
	ColumnInitialTest: {"Em Teste Inicial", "yellow"},
	ColumnTraction:    {"Demonstrando Tração", "green"},
	ColumnInProgress:  {"Em Andamento p/ Monetizar", "orange"},
	ColumnMonetized:   {"Monetizado", "blue"},
	ColumnGrowing:     {"Em Crescimento", "green"},
	ColumnNewTests:    {"Em Testes Novos", "yellow"},
	ColumnSteady:      {"Canal Constante", "blue"},
}

// StatusLabel returns the display label and color for a stage. Unknown or
// empty stages map to "Sem Status" / gray.
func StatusLabel(id ColumnID) (label, color string) {
	if info, ok := statusInfos[id]; ok {
		return info.label, info.color
	}
	return "Sem Status", "gray"
}

var notMonetizedColumns = []Column{
	{ID: ColumnInitialTest, Label: "Em Teste Inicial", Emoji: "🟡", Description: "Canal testando micro-nichos pela primeira vez"},
	{ID: ColumnTraction, Label: "Demonstrando Tração", Emoji: "🟢", Description: "Sinais positivos, vídeos viralizando"},
	{ID: ColumnInProgress, Label: "Em Andamento p/ Monetizar", Emoji: "🟠", Description: "Caminhando para 1K subs e 4K horas"},
	{ID: ColumnMonetized, Label: "Monetizado", Emoji: "🔵", Description: "Atingiu requisitos de monetização"},
}

var monetizedColumns = []Column{
	{ID: ColumnGrowing, Label: "Em Crescimento", Emoji: "🟢", Description: "Canal saudável e escalando"},
	{ID: ColumnNewTests, Label: "Em Testes Novos", Emoji: "🟡", Description: "Perdeu tração, testando novas estratégias"},
	{ID: ColumnSteady, Label: "Canal Constante", Emoji: "🔵", Description: "Estável, performance previsível"},
}

// ColumnsFor returns a fresh copy of the ordered column set for an entity,
// with IsCurrent set on the column matching current.
func ColumnsFor(monetized bool, current ColumnID) []Column {
	src := notMonetizedColumns
	if monetized {
		src = monetizedColumns
	}
	cols := make([]Column, len(src))
	copy(cols, src)
	for i := range cols {
		cols[i].IsCurrent = cols[i].ID == current
	}
	return cols
}

// CurrentColumn returns the column flagged as current, if any.
func CurrentColumn(cols []Column) (Column, bool) {
	for _, c := range cols {
		if c.IsCurrent {
			return c, true
		}
	}
	return Column{}, false
}

// SetCurrent flips IsCurrent so that only target is current. It returns a
// new slice and leaves cols untouched.
func SetCurrent(cols []Column, target ColumnID) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		c.IsCurrent = c.ID == target
		out[i] = c
	}
	return out
}

// HasColumn reports whether id is one of cols.
func HasColumn(cols []Column, id ColumnID) bool {
	for _, c := range cols {
		if c.ID == id {
			return true
		}
	}
	return false
}

// TransitionTable lists, per stage, the stages it may move to.
type TransitionTable map[ColumnID][]ColumnID

// unrestricted builds a table where every stage reaches every other stage
// of the same set.
func unrestricted(sets ...[]Column) TransitionTable {
	t := make(TransitionTable)
	for _, set := range sets {
		for _, from := range set {
			for _, to := range set {
				if from.ID != to.ID {
					t[from.ID] = append(t[from.ID], to.ID)
				}
			}
		}
	}
	return t
}

// Transitions is the allowed-transition table for both column sets.
var Transitions = unrestricted(notMonetizedColumns, monetizedColumns)

// Allows reports whether moving from one stage to another is permitted.
// Self-transitions are never permitted. Stages absent from the table
// (including "no stage yet") are unrestricted.
func (t TransitionTable) Allows(from, to ColumnID) bool {
	if from == to {
		return false
	}
	targets, ok := t[from]
	if !ok {
		return true
	}
	for _, c := range targets {
		if c == to {
			return true
		}
	}
	return false
}

// ParseColumnID matches a stage id or its label (case-insensitive) within
// cols.
func ParseColumnID(cols []Column, s string) (ColumnID, error) {
	for _, c := range cols {
		if string(c.ID) == s || strings.EqualFold(c.Label, s) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("unknown column %q", s)
}
