package model

import "sort"

// GroupKey identifies a top-level category of the structure tree.
type GroupKey string

const (
	GroupMonetized    GroupKey = "monetizados"
	GroupNotMonetized GroupKey = "nao_monetizados"
)

// Label returns the display title of a group.
func (k GroupKey) Label() string {
	switch k {
	case GroupMonetized:
		return "💰 Monetizados"
	case GroupNotMonetized:
		return "🌱 Não Monetizados"
	}
	return string(k)
}

// NoSubgroup is the subgroup name used for entities without a subniche.
const NoSubgroup = "Sem Subnicho"

// Subgroup is the second level of the structure tree.
type Subgroup struct {
	Name     string   `json:"name"`
	Total    int      `json:"total"`
	Entities []Entity `json:"entities"`
}

// Group is a top-level category with its subgroups in name order.
type Group struct {
	Key       GroupKey   `json:"key"`
	Total     int        `json:"total"`
	Subgroups []Subgroup `json:"subgroups"`
}

// Structure is the two-level summary tree of all tracked entities.
type Structure struct {
	Monetized    Group `json:"monetized"`
	NotMonetized Group `json:"not_monetized"`
}

// Groups returns both groups in display order.
func (s Structure) Groups() []Group {
	return []Group{s.Monetized, s.NotMonetized}
}

// FindEntity looks up an entity anywhere in the tree.
func (s Structure) FindEntity(id int64) (Entity, bool) {
	for _, g := range s.Groups() {
		for _, sg := range g.Subgroups {
			for _, e := range sg.Entities {
				if e.ID == id {
					return e, true
				}
			}
		}
	}
	return Entity{}, false
}

// Total returns the number of entities in the tree.
func (s Structure) Total() int {
	return s.Monetized.Total + s.NotMonetized.Total
}

// BuildStructure groups a flat entity list into the two-level tree. Entities
// keep their relative order inside a subgroup.
func BuildStructure(entities []Entity) Structure {
	var mon, not []Entity
	for _, e := range entities {
		if e.Monetized {
			mon = append(mon, e)
		} else {
			not = append(not, e)
		}
	}
	return Structure{
		Monetized:    buildGroup(GroupMonetized, mon),
		NotMonetized: buildGroup(GroupNotMonetized, not),
	}
}

func buildGroup(key GroupKey, entities []Entity) Group {
	bySub := make(map[string]*Subgroup)
	var names []string
	for _, e := range entities {
		name := e.Subgroup
		if name == "" {
			name = NoSubgroup
		}
		sg, ok := bySub[name]
		if !ok {
			sg = &Subgroup{Name: name}
			bySub[name] = sg
			names = append(names, name)
		}
		sg.Entities = append(sg.Entities, e)
		sg.Total++
	}
	sort.Strings(names)

	g := Group{Key: key, Total: len(entities)}
	for _, n := range names {
		g.Subgroups = append(g.Subgroups, *bySub[n])
	}
	return g
}

// Board is one entity's detailed workflow snapshot.
type Board struct {
	Entity  Entity         `json:"entity"`
	Columns []Column       `json:"columns"`
	Notes   []Note         `json:"notes"`
	History []HistoryEntry `json:"history"`
}
