package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/logbook/internal/model"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	names[0] = "mutated"
	if ThemeNames()[0] != "Nightfox" {
		t.Fatal("ThemeNames exposes its backing slice")
	}
}

func TestNextTheme(t *testing.T) {
	cases := map[string]string{
		"Nightfox": "Kanagawa",
		"Kanagawa": "Slate",
		"Slate":    "Nightfox",
		"Unknown":  "Nightfox",
	}
	for in, want := range cases {
		if got := NextTheme(in); got != want {
			t.Fatalf("NextTheme(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestGetTheme(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q, want Slate", got)
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox (fallback)", got)
	}
}

func TestThemesColourEveryLevel(t *testing.T) {
	levels := []model.Level{model.LevelTrace, model.LevelDebug, model.LevelInfo, model.LevelWarn, model.LevelError, model.LevelFatal}
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, lvl := range levels {
			if th.Levels[lvl] == "" {
				t.Fatalf("theme %s has no colour for %s", name, lvl)
			}
		}
	}
}

func TestLevelStyle(t *testing.T) {
	th := GetTheme("Nightfox")
	styles := th.Styles()

	if got := styles.LevelStyle(model.LevelWarn).GetForeground(); got != lipgloss.Color(th.Levels[model.LevelWarn]) {
		t.Fatalf("LevelStyle(WARN) foreground = %v", got)
	}
	if got := styles.LevelStyle("NOTICE").GetForeground(); got != lipgloss.Color(th.Text) {
		t.Fatalf("LevelStyle(unknown) foreground = %v, want text colour", got)
	}
	if !styles.LevelStyle(model.LevelError).GetBold() {
		t.Fatal("ERROR should render bold")
	}
	if styles.LevelStyle(model.LevelInfo).GetBold() {
		t.Fatal("INFO should not render bold")
	}
}
