package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/logbook/internal/filter"
)

// AppSettings is the persisted application configuration.
type AppSettings struct {
	UI           UISettings          `toml:"ui"`
	Repositories []Repository        `toml:"repositories"`
	Filters      []filter.Definition `toml:"filters"`
}

// UISettings controls which optional columns the logs view shows.
type UISettings struct {
	ShowLogger   bool   `toml:"show_logger"`
	ShowThreadID bool   `toml:"show_thread_id"`
	Language     string `toml:"language"`
}

// Repository is one configured log source, served by the plugin named in
// PluginID.
type Repository struct {
	ID         int    `toml:"id"`
	Name       string `toml:"name"`
	PluginID   string `toml:"plugin"`
	Connection string `toml:"connection"`
	Pattern    string `toml:"pattern,omitempty"`
	Format     string `toml:"format,omitempty"`
	Dialect    string `toml:"dialect,omitempty"`
	Table      string `toml:"table,omitempty"`
	MaxRows    int    `toml:"max_rows,omitempty"`
}

const (
	defaultSettingsPath = "~/.config/logbook/settings.toml"
	defaultLanguage     = "en"
)

// Defaults returns the settings used when no file exists.
func Defaults() AppSettings {
	return AppSettings{UI: UISettings{ShowLogger: true, Language: defaultLanguage}}
}

// Load parses the settings file at path, falling back to defaults when it is
// missing.
func Load(path string) (AppSettings, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return AppSettings{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return AppSettings{}, fmt.Errorf("open settings: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return AppSettings{}, fmt.Errorf("read settings: %w", err)
	}

	settings := Defaults()
	if err := toml.Unmarshal(bytes, &settings); err != nil {
		return AppSettings{}, fmt.Errorf("parse settings: %w", err)
	}
	settings.normalize()
	if err := settings.Validate(); err != nil {
		return AppSettings{}, err
	}
	return settings, nil
}

func (s *AppSettings) normalize() {
	s.UI.Language = strings.TrimSpace(s.UI.Language)
	if s.UI.Language == "" {
		s.UI.Language = defaultLanguage
	}
	for i := range s.Repositories {
		r := &s.Repositories[i]
		r.Name = strings.TrimSpace(r.Name)
		r.PluginID = strings.TrimSpace(r.PluginID)
		r.Connection = strings.TrimSpace(r.Connection)
	}
}

// Validate rejects duplicate ids and repositories without a plugin.
func (s AppSettings) Validate() error {
	var errs []error
	repoIDs := make(map[int]struct{}, len(s.Repositories))
	for _, r := range s.Repositories {
		if _, dup := repoIDs[r.ID]; dup {
			errs = append(errs, fmt.Errorf("repository id %d is duplicated", r.ID))
		}
		repoIDs[r.ID] = struct{}{}
		if strings.TrimSpace(r.PluginID) == "" {
			errs = append(errs, fmt.Errorf("repository %d (%s) has no plugin", r.ID, r.Name))
		}
	}
	filterIDs := make(map[int]struct{}, len(s.Filters))
	for _, f := range s.Filters {
		if _, dup := filterIDs[f.ID]; dup {
			errs = append(errs, fmt.Errorf("filter id %d is duplicated", f.ID))
		}
		filterIDs[f.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	return nil
}

// Clone returns a deep copy.
func (s AppSettings) Clone() AppSettings {
	out := s
	if s.Repositories != nil {
		out.Repositories = append([]Repository(nil), s.Repositories...)
	}
	if s.Filters != nil {
		out.Filters = make([]filter.Definition, len(s.Filters))
		for i, f := range s.Filters {
			f.Expressions = append([]filter.Expression(nil), f.Expressions...)
			out.Filters[i] = f
		}
	}
	return out
}

// RepositoriesByName returns the repositories sorted by name.
func (s AppSettings) RepositoriesByName() []Repository {
	out := append([]Repository(nil), s.Repositories...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// ResolvePath expands path, or the default settings path when empty.
func ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultSettingsPath)
	}
	return ExpandPath(path)
}

// ExpandPath expands a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

// MustExpand is ExpandPath that returns path unchanged on failure.
func MustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}
