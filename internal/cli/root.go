package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"projcal/internal/api"
	"projcal/internal/calendar"
	"projcal/internal/config"
	"projcal/internal/format"
	"projcal/internal/loader"
	"projcal/internal/logging"
	"projcal/internal/model"
	"projcal/internal/tui"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type App struct {
	APIURL     string
	Token      string
	Project    int
	WeekStart  string
	Format     string
	PrettyJSON bool
	LogFile    string
	LogLevel   string
	ConfigFile string

	// Clock is the source of "today"; tests pin it.
	Clock calendar.Clock
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{Clock: calendar.SystemClock{}})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "projcal",
		Short:        "Project calendar for the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive calendar
  projcal

  # Only one project's projects, epics and tasks
  projcal --project 12

  # Print this month without the interactive loop
  projcal month --date 2024-03

  # Scriptable day buckets
  projcal buckets --from 2024-03-01 --to 2024-03-31 --format edn
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.APIURL, "api", "", "API base URL (overrides api_url)")
	pf.StringVar(&app.Token, "token", "", "Bearer token (overrides token / PROJCAL_TOKEN)")
	pf.IntVar(&app.Project, "project", 0, "Scope to one project id (0 = all projects)")
	pf.StringVar(&app.WeekStart, "week-start", "", "First day of the week (sunday|monday|...)")
	pf.StringVar(&app.Format, "format", envOr("PROJCAL_FORMAT", "json"), "Output format (json|edn)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	pf.StringVar(&app.LogFile, "log-file", "", "Log file for the interactive calendar (- disables file logging)")
	pf.StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&app.ConfigFile, "config", envOr("PROJCAL_CONFIG", ""), "Config file (default: ~/.projcal/config.toml)")

	cmd.AddCommand(newMonthCmd(app))
	cmd.AddCommand(newBucketsCmd(app))
	cmd.AddCommand(newDevServerCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// loadConfig layers the command-line flags over the file and environment
// configuration. Only flags the user actually set take effect.
func loadConfig(cmd *cobra.Command, app *App) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if app.ConfigFile != "" {
		cfg, err = config.LoadFile(app.ConfigFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api") {
		cfg.APIURL = strings.TrimSpace(app.APIURL)
	}
	if flags.Changed("token") {
		cfg.Token = strings.TrimSpace(app.Token)
	}
	if flags.Changed("project") {
		cfg.Project = app.Project
	}
	if flags.Changed("week-start") {
		cfg.WeekStart = strings.ToLower(strings.TrimSpace(app.WeekStart))
	}
	if flags.Changed("log-file") {
		cfg.LogFile = strings.TrimSpace(app.LogFile)
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(app.LogLevel))
	}

	if err := cfg.Validate(); err != nil {
		return nil, usageErrorf("invalid configuration:\n%v", err)
	}
	if _, err := format.Parse(app.Format); err != nil {
		return nil, usageErrorf("%v", err)
	}
	return cfg, nil
}

func scopeOf(cfg *config.Config) model.Scope {
	if cfg.Project > 0 {
		return model.ProjectScope(cfg.Project)
	}
	return model.AllScope()
}

func newClient(cfg *config.Config) (*api.Client, error) {
	return api.NewClient(api.Options{
		BaseURL:  cfg.APIURL,
		Token:    cfg.Token,
		Timeout:  cfg.Timeout.Duration,
		MineOnly: cfg.MineOnly,
	})
}

// stderrLogger is the logger for one-shot commands.
func stderrLogger(w io.Writer, cfg *config.Config) *log.Logger {
	opts := logging.DefaultOptions()
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	return logging.New(w, opts)
}

func runTUI(cmd *cobra.Command, app *App) error {
	cfg, err := loadConfig(cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	client, err := newClient(cfg)
	if err != nil {
		return writeErr(cmd, err)
	}

	logger := logging.Discard()
	if cfg.LogFile != "" && cfg.LogFile != "-" {
		opts := logging.DefaultOptions()
		opts.Level = logging.ParseLevel(cfg.LogLevel)
		fl, err := logging.OpenFile(cfg.LogFile, opts)
		if err != nil {
			return writeErr(cmd, err)
		}
		defer fl.Close()
		logger = fl.Logger
	}
	logger.Info("starting calendar", "api", cfg.APIURL, "scope", scopeOf(cfg).String())

	l := loader.New(client, scopeOf(cfg), loader.Options{Location: time.Local, Logger: logger})
	err = tui.Run(tui.Options{
		Loader:          l,
		Clock:           app.Clock,
		Location:        time.Local,
		WeekStart:       cfg.WeekStartDay(),
		AgendaThreshold: cfg.AgendaThreshold,
		DashboardURL:    cfg.DashboardURL,
		Logger:          logger,
		Context:         cmd.Context(),
	})
	if err != nil {
		logger.Error("calendar exited", "err", err)
		return writeErr(cmd, err)
	}
	return nil
}

// fetchBucket runs one synchronous load for the one-shot commands.
func fetchBucket(cmd *cobra.Command, cfg *config.Config) (calendar.Bucket, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	logger := stderrLogger(cmd.ErrOrStderr(), cfg)
	l := loader.New(client, scopeOf(cfg), loader.Options{Location: time.Local, Logger: logger})
	defer l.Close()
	if err := l.Reload(cmd.Context()); err != nil {
		return nil, fmt.Errorf("loading calendar data: %w", err)
	}
	return l.Bucket(), nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
