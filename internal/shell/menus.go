package shell

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/filter"
)

// FilterManager lists stored filters and builds executable ones by id.
// Implemented by *filter.Manager.
type FilterManager interface {
	Build(id int) (*filter.Composite, error)
	Definitions() []filter.Definition
}

// buildRepositoryMenu joins the configured repositories with the plugins
// available right now, sorted by repository name.
func (o *Orchestrator) buildRepositoryMenu(settings config.AppSettings) []MenuItem {
	available := make(map[string]struct{})
	for _, d := range o.registry.PluginsInfo() {
		available[d.ID] = struct{}{}
	}

	items := make([]MenuItem, 0, len(settings.Repositories))
	for _, repo := range settings.RepositoriesByName() {
		if _, ok := available[repo.PluginID]; !ok {
			o.log.WithFields(logrus.Fields{"repository": repo.Name, "plugin": repo.PluginID}).Debug("plugin unavailable, repository hidden")
			continue
		}
		items = append(items, MenuItem{
			Name:   repo.Name,
			Action: o.openRepository(repo),
		})
	}
	return items
}

// openRepository returns the action of a repository menu item: build a
// fresh plugin and load its days.
func (o *Orchestrator) openRepository(repo config.Repository) func() tea.Cmd {
	return func() tea.Cmd {
		p, err := o.registry.Build(repo)
		if err != nil {
			o.lastErr = err
			o.log.WithError(err).WithField("repository", repo.Name).Error("building plugin failed")
			return nil
		}
		return o.LoadDays(p)
	}
}

// buildFilterMenu lists every stored filter ascending by order. Unnamed
// filters are shown with their translated description.
func (o *Orchestrator) buildFilterMenu(fm FilterManager) []MenuItem {
	defs := fm.Definitions()
	items := make([]MenuItem, 0, len(defs))
	for _, def := range defs {
		name := def.Name
		if !def.HasName() {
			name = o.translator.Translate(def)
		}
		items = append(items, MenuItem{
			Name:   name,
			Action: o.selectFilter(fm, def.ID),
		})
	}
	return items
}

func (o *Orchestrator) selectFilter(fm FilterManager, id int) func() tea.Cmd {
	return func() tea.Cmd {
		comp, err := fm.Build(id)
		if err != nil {
			o.lastErr = err
			o.log.WithError(err).WithField("filter", id).Error("building filter failed")
			return nil
		}
		o.ApplyFilter(comp)
		return nil
	}
}
