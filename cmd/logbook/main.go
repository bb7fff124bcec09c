package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/five82/logbook/internal/app"
	"github.com/five82/logbook/internal/config"
	"github.com/five82/logbook/internal/filter"
	"github.com/five82/logbook/internal/plugin/file"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(viper.New()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logbook: %v\n", err)
		return 1
	}
	return 0
}

// newRootCommand binds every flag to v so LOGBOOK_* environment variables
// can stand in for them (LOGBOOK_LOG_LEVEL=debug, LOGBOOK_SETTINGS=...).
func newRootCommand(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "logbook",
		Short:         "Browse application logs by repository, day and filter",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), optionsFrom(v))
		},
	}

	flags := root.PersistentFlags()
	flags.String("settings", "", "settings file (default ~/.config/logbook/settings.toml)")
	flags.String("prefs", "", "UI preferences file (default ~/.config/logbook/prefs.toml)")
	flags.String("log-file", app.DefaultLogFile, "diagnostic log file; empty disables logging")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text or json)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")

	v.SetEnvPrefix("LOGBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	root.AddCommand(newInitCommand(v), newValidateCommand(v))
	return root
}

func optionsFrom(v *viper.Viper) app.Options {
	logFile := v.GetString("log-file")
	if logFile != "" {
		logFile = config.MustExpand(logFile)
	}
	return app.Options{
		SettingsPath: v.GetString("settings"),
		PrefsPath:    v.GetString("prefs"),
		LogFile:      logFile,
		LogLevel:     v.GetString("log-level"),
		LogFormat:    v.GetString("log-format"),
		MetricsAddr:  v.GetString("metrics-addr"),
	}
}

func newValidateCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the settings file and list the configured plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.ResolvePath(v.GetString("settings"))
			if err != nil {
				return err
			}
			settings, err := config.Load(path)
			if err != nil {
				return err
			}

			available := map[string]bool{}
			for _, d := range app.NewRegistry(nil).PluginsInfo() {
				available[d.ID] = true
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d repositories, %d filters\n", path, len(settings.Repositories), len(settings.Filters))
			for _, repo := range settings.RepositoriesByName() {
				status := "ok"
				if !available[repo.PluginID] {
					status = "plugin unavailable"
				}
				fmt.Fprintf(out, "  %-24s %-8s %s\n", repo.Name, repo.PluginID, status)
			}
			return nil
		},
	}
}

func newInitCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := config.NewManager(v.GetString("settings"))
			if err != nil {
				return err
			}
			if _, err := os.Stat(m.Path()); err == nil {
				return fmt.Errorf("%s already exists", m.Path())
			}
			if err := m.Save(starterSettings()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", m.Path())
			return nil
		},
	}
}

// starterSettings is a working example: the system log and an errors filter.
func starterSettings() config.AppSettings {
	settings := config.Defaults()
	settings.Repositories = []config.Repository{{
		ID:         1,
		Name:       "System",
		PluginID:   file.ID,
		Connection: "/var/log/syslog",
		MaxRows:    5000,
	}}
	settings.Filters = []filter.Definition{{
		ID:    1,
		Name:  "Errors",
		Order: 1,
		Expressions: []filter.Expression{
			{Field: filter.FieldLevel, Operator: filter.OpIn, Value: "ERROR,FATAL"},
		},
	}}
	return settings
}
