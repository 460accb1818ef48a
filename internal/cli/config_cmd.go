package cli

import (
	"errors"
	"os"

	"projcal/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}
	cmd.AddCommand(newConfigPathCmd(app))
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

func configPath(app *App) (string, error) {
	if app.ConfigFile != "" {
		return app.ConfigFile, nil
	}
	return config.Path()
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			_, statErr := os.Stat(path)
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"path":   path,
					"exists": statErr == nil,
				},
			})
		},
	}
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file, env and flags)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": configView(cfg)})
		},
	}
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return writeErr(cmd, usageErrorf("config file already exists: %s (use --force to overwrite)", path))
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return writeErr(cmd, err)
			}
			cfg := config.Default()
			if err := config.Save(path, cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data":   map[string]any{"path": path, "config": configView(cfg)},
				"_hints": []string{"set PROJCAL_TOKEN to authenticate; the token is never written to the file"},
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

// configView is the printable form of a config; the token is redacted.
func configView(cfg *config.Config) map[string]any {
	token := ""
	if cfg.Token != "" {
		token = "(set)"
	}
	return map[string]any{
		"apiUrl":          cfg.APIURL,
		"dashboardUrl":    cfg.DashboardURL,
		"token":           token,
		"timeout":         cfg.Timeout.Duration.String(),
		"mineOnly":        cfg.MineOnly,
		"project":         cfg.Project,
		"weekStart":       cfg.WeekStart,
		"agendaThreshold": cfg.AgendaThreshold,
		"logFile":         cfg.LogFile,
		"logLevel":        cfg.LogLevel,
	}
}
