// Package plugin defines the contract between the shell and log repository
// backends, plus the registry that maps plugin ids to factories.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/model"
)

// ErrUnknownPlugin is returned by Build for an unregistered plugin id.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Plugin is a log repository backend bound to one configured repository.
type Plugin interface {
	RepositoryName() string
	GetDays(ctx context.Context) ([]time.Time, error)
	GetLogs(ctx context.Context, day time.Time) ([]model.LogRow, error)
	// TryGetFile returns the backing file when the repository is exactly one
	// file on disk.
	TryGetFile() (string, bool)
	CanListen() bool
}

// Listener is implemented by plugins that can stream new rows. Each received
// batch is in arrival order; the channel closes when ctx ends or the source
// fails.
type Listener interface {
	Listen(ctx context.Context) (<-chan []model.LogRow, error)
}

// Descriptor describes an available plugin.
type Descriptor struct {
	ID          string
	Name        string
	Description string
}

// Factory builds a plugin for a repository.
type Factory func(repo config.Repository) (Plugin, error)

// Registry maps plugin ids to factories.
type Registry struct {
	mu        sync.RWMutex
	plugins   map[string]Descriptor
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:   make(map[string]Descriptor),
		factories: make(map[string]Factory),
	}
}

// Register adds or replaces a plugin.
func (r *Registry) Register(d Descriptor, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[d.ID] = d
	r.factories[d.ID] = f
}

// PluginsInfo returns the available plugins sorted by id.
func (r *Registry) PluginsInfo() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, 0, len(r.plugins))
	for _, d := range r.plugins {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Build creates a fresh plugin instance for repo.
func (r *Registry) Build(repo config.Repository) (Plugin, error) {
	r.mu.RLock()
	factory, ok := r.factories[repo.PluginID]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("repository %q: %w %q", repo.Name, ErrUnknownPlugin, repo.PluginID)
	}
	p, err := factory(repo)
	if err != nil {
		return nil, fmt.Errorf("build %s plugin for %q: %w", repo.PluginID, repo.Name, err)
	}
	return p, nil
}
