package filter

import (
	"fmt"
	"sort"
)

// Manager builds executable filters from stored definitions.
type Manager struct {
	defs map[int]Definition
}

// NewManager indexes defs by id. Later duplicates replace earlier ones.
func NewManager(defs []Definition) *Manager {
	m := &Manager{defs: make(map[int]Definition, len(defs))}
	for _, d := range defs {
		m.defs[d.ID] = d
	}
	return m
}

// Build compiles the definition stored under id.
func (m *Manager) Build(id int) (*Composite, error) {
	def, ok := m.defs[id]
	if !ok {
		return nil, fmt.Errorf("build filter %d: %w", id, ErrUnknownFilter)
	}
	return Compile(def)
}

// Definitions returns the stored definitions ordered ascending by Order, ties
// broken by id.
func (m *Manager) Definitions() []Definition {
	out := make([]Definition, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d)
	}
	sortByOrder(out)
	return out
}

func sortByOrder(defs []Definition) {
	sort.SliceStable(defs, func(i, j int) bool {
		if defs[i].Order != defs[j].Order {
			return defs[i].Order < defs[j].Order
		}
		return defs[i].ID < defs[j].ID
	})
}
