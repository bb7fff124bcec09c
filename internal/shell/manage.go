package shell

import (
	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/filter"
)

// RepositoryEntry is one row of the repository management screen.
type RepositoryEntry struct {
	Repository config.Repository
	Available  bool
}

// FilterEntry is one row of the filter management screen.
type FilterEntry struct {
	Definition  filter.Definition
	Description string
}

// ManageRepositories activates the repository management screen.
func (o *Orchestrator) ManageRepositories() {
	o.stopTail()
	o.screen = ScreenManageRepositories
}

// ManageFilters activates the filter management screen.
func (o *Orchestrator) ManageFilters() {
	o.stopTail()
	o.screen = ScreenManageFilters
}

// RepositoryEntries lists every configured repository by name, including
// those whose plugin is unavailable.
func (o *Orchestrator) RepositoryEntries() []RepositoryEntry {
	available := make(map[string]struct{})
	for _, d := range o.registry.PluginsInfo() {
		available[d.ID] = struct{}{}
	}
	repos := o.cfg.Get().RepositoriesByName()
	out := make([]RepositoryEntry, 0, len(repos))
	for _, r := range repos {
		_, ok := available[r.PluginID]
		out = append(out, RepositoryEntry{Repository: r, Available: ok})
	}
	return out
}

// FilterEntries lists every stored filter by order with its translated
// description.
func (o *Orchestrator) FilterEntries() []FilterEntry {
	defs := o.cfg.BuildFilterManager().Definitions()
	out := make([]FilterEntry, 0, len(defs))
	for _, d := range defs {
		out = append(out, FilterEntry{Definition: d, Description: o.translator.Translate(d)})
	}
	return out
}
