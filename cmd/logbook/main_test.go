package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/five82/logbook/internal/config"
)

func TestOptionsFrom_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("LOGBOOK_LOG_LEVEL", "debug")
	t.Setenv("LOGBOOK_METRICS_ADDR", "127.0.0.1:9464")

	v := viper.New()
	cmd := newRootCommand(v)
	if err := cmd.ParseFlags([]string{"--log-file", "", "--settings", "/tmp/s.toml"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	opts := optionsFrom(v)
	if opts.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", opts.LogLevel)
	}
	if opts.MetricsAddr != "127.0.0.1:9464" {
		t.Errorf("MetricsAddr = %q", opts.MetricsAddr)
	}
	if opts.SettingsPath != "/tmp/s.toml" {
		t.Errorf("SettingsPath = %q", opts.SettingsPath)
	}
	if opts.LogFile != "" {
		t.Errorf("LogFile = %q, want empty", opts.LogFile)
	}
	if opts.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want text", opts.LogFormat)
	}
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	settings := `
[[repositories]]
id = 1
name = "App"
plugin = "file"
connection = "/var/log/app.log"

[[repositories]]
id = 2
name = "Legacy"
plugin = "eventlog"
`
	if err := os.WriteFile(path, []byte(settings), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cmd := newRootCommand(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"validate", "--settings", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "2 repositories, 0 filters") {
		t.Errorf("summary missing from %q", got)
	}
	if !strings.Contains(got, "plugin unavailable") {
		t.Errorf("unavailable plugin not reported in %q", got)
	}
}

func TestValidateCommand_InvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("[[repositories]]\nid = 1\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	cmd := newRootCommand(viper.New())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", "--settings", path})
	if err := cmd.Execute(); err == nil {
		t.Fatal("validate accepted a repository without a plugin")
	}
}

func TestInitCommand_WritesStarterSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "settings.toml")

	cmd := newRootCommand(viper.New())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"init", "--settings", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), "wrote "+path) {
		t.Errorf("output = %q", out.String())
	}

	settings, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load written settings: %v", err)
	}
	if len(settings.Repositories) != 1 || settings.Repositories[0].PluginID != "file" {
		t.Fatalf("Repositories = %#v", settings.Repositories)
	}
	if len(settings.Filters) != 1 || settings.Filters[0].Name != "Errors" {
		t.Fatalf("Filters = %#v", settings.Filters)
	}

	again := newRootCommand(viper.New())
	again.SetOut(&bytes.Buffer{})
	again.SetArgs([]string{"init", "--settings", path})
	if err := again.Execute(); err == nil {
		t.Fatal("init overwrote an existing settings file")
	}
}
