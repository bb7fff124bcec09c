package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/logbook/internal/filter"
)

// Manager owns the settings file and the in-memory copy the shell reads.
type Manager struct {
	path string

	mu       sync.RWMutex
	settings AppSettings
}

// NewManager loads the settings at path (default location when empty).
func NewManager(path string) (*Manager, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	settings, err := Load(resolved)
	if err != nil {
		return nil, err
	}
	return &Manager{path: resolved, settings: settings}, nil
}

// NewStaticManager wraps settings that are not backed by a file. Reload is a
// no-op and Save fails.
func NewStaticManager(settings AppSettings) *Manager {
	settings = settings.Clone()
	settings.normalize()
	return &Manager{settings: settings}
}

// Path returns the settings file path, empty for static managers.
func (m *Manager) Path() string {
	return m.path
}

// Get returns a copy of the current settings.
func (m *Manager) Get() AppSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.Clone()
}

// Reload re-reads the settings file. On error the previous settings stay.
func (m *Manager) Reload() error {
	if m.path == "" {
		return nil
	}
	settings, err := Load(m.path)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.settings = settings
	m.mu.Unlock()
	return nil
}

// Save validates and writes settings, then makes them current.
func (m *Manager) Save(settings AppSettings) error {
	if m.path == "" {
		return fmt.Errorf("save settings: no settings file")
	}
	settings = settings.Clone()
	settings.normalize()
	if err := settings.Validate(); err != nil {
		return err
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}

	m.mu.Lock()
	m.settings = settings
	m.mu.Unlock()
	return nil
}

// BuildFilterManager returns a filter manager over the current filters.
func (m *Manager) BuildFilterManager() *filter.Manager {
	return filter.NewManager(m.Get().Filters)
}
