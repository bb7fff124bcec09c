package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/logbook/internal/filter"
)

func TestManager_GetReturnsCopy(t *testing.T) {
	m, err := NewManager(writeSettings(t, sampleSettings))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	got := m.Get()
	got.Repositories[0].Name = "mutated"
	if m.Get().Repositories[0].Name != "Beta" {
		t.Fatal("Get should return an independent copy")
	}
}

func TestManager_ReloadKeepsPreviousOnError(t *testing.T) {
	path := writeSettings(t, sampleSettings)
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	if err := os.WriteFile(path, []byte(`[ui`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := m.Reload(); err == nil {
		t.Fatal("Reload returned nil error for broken file")
	}
	if len(m.Get().Repositories) != 2 {
		t.Fatalf("settings lost after failed reload: %#v", m.Get())
	}

	if err := os.WriteFile(path, []byte("[ui]\nshow_logger = false\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if len(m.Get().Repositories) != 0 || m.Get().UI.ShowLogger {
		t.Fatalf("Reload did not pick up new settings: %#v", m.Get())
	}
}

func TestManager_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	m, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}

	settings := m.Get()
	settings.Repositories = append(settings.Repositories, Repository{ID: 9, Name: "Ops", PluginID: "remote", Connection: "http://localhost:8080"})
	settings.Filters = append(settings.Filters, filter.Definition{
		ID:          3,
		Order:       1,
		Expressions: []filter.Expression{{Field: "message", Operator: "contains", Value: "disk"}},
	})
	if err := m.Save(settings); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("NewManager after save returned error: %v", err)
	}
	got := reloaded.Get()
	if len(got.Repositories) != 1 || got.Repositories[0].Connection != "http://localhost:8080" {
		t.Fatalf("Repositories = %#v", got.Repositories)
	}
	if len(got.Filters) != 1 || got.Filters[0].Expressions[0].Value != "disk" {
		t.Fatalf("Filters = %#v", got.Filters)
	}

	comp, err := reloaded.BuildFilterManager().Build(3)
	if err != nil {
		t.Fatalf("BuildFilterManager().Build returned error: %v", err)
	}
	if comp.ID() != 3 {
		t.Fatalf("composite id = %d, want 3", comp.ID())
	}
}

func TestManager_SaveRejectsInvalid(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "settings.toml"))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	err = m.Save(AppSettings{Repositories: []Repository{{ID: 1}}})
	if err == nil || !strings.Contains(err.Error(), "has no plugin") {
		t.Fatalf("Save error = %v, want validation error", err)
	}
	if _, statErr := os.Stat(m.Path()); !os.IsNotExist(statErr) {
		t.Fatalf("settings file should not exist after rejected save, stat err = %v", statErr)
	}
}

func TestStaticManager(t *testing.T) {
	m := NewStaticManager(AppSettings{Repositories: []Repository{{ID: 1, Name: " Alpha ", PluginID: "file"}}})
	if m.Get().Repositories[0].Name != "Alpha" {
		t.Fatalf("name not normalized: %q", m.Get().Repositories[0].Name)
	}
	if err := m.Reload(); err != nil {
		t.Fatalf("Reload on static manager returned error: %v", err)
	}
	if err := m.Save(m.Get()); err == nil {
		t.Fatal("Save on static manager returned nil error")
	}
}
