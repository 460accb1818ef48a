// Package config loads projcal settings. Sources are applied in order:
// defaults, the TOML config file, environment variables. Command-line flags
// are applied last by the cli package.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"projcal/internal/calendar"
	"projcal/internal/logging"

	"github.com/BurntSushi/toml"
)

const (
	DefaultAPIURL          = "http://127.0.0.1:8000/api"
	DefaultDashboardURL    = "http://127.0.0.1:3000"
	DefaultTimeout         = 15 * time.Second
	DefaultWeekStart       = "sunday"
	DefaultAgendaThreshold = 100
	DefaultLogLevel        = "info"

	fileName = "config.toml"
	logName  = "projcal.log"
)

// Duration is a time.Duration written as a string ("15s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Config struct {
	APIURL       string   `toml:"api_url"`
	DashboardURL string   `toml:"dashboard_url"`
	Token        string   `toml:"token,omitempty"`
	Timeout      Duration `toml:"timeout"`
	// MineOnly limits the all-projects epic listing to the caller's epics.
	MineOnly bool `toml:"mine_only"`
	// Project scopes the calendar to one project; 0 shows everything.
	Project         int    `toml:"project"`
	WeekStart       string `toml:"week_start"`
	AgendaThreshold int    `toml:"agenda_threshold"`
	LogFile         string `toml:"log_file"`
	LogLevel        string `toml:"log_level"`
}

// Dir is the projcal config directory (~/.projcal, or $PROJCAL_CONFIG_DIR).
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("PROJCAL_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".projcal"), nil
}

func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func Default() *Config {
	cfg := &Config{
		APIURL:          DefaultAPIURL,
		DashboardURL:    DefaultDashboardURL,
		Timeout:         Duration{DefaultTimeout},
		WeekStart:       DefaultWeekStart,
		AgendaThreshold: DefaultAgendaThreshold,
		LogLevel:        DefaultLogLevel,
	}
	if dir, err := Dir(); err == nil {
		cfg.LogFile = filepath.Join(dir, logName)
	}
	return cfg
}

// Load builds the effective configuration from defaults, the config file
// (when present) and the environment.
func Load() (*Config, error) {
	cfg := Default()
	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("locating config file: %w", err)
	}
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg, os.Getenv)
	finalize(cfg)
	return cfg, nil
}

// LoadFile is Load with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg, os.Getenv)
	finalize(cfg)
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("loading config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("loading config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set("PROJCAL_API_URL", &cfg.APIURL)
	set("PROJCAL_DASHBOARD_URL", &cfg.DashboardURL)
	set("PROJCAL_TOKEN", &cfg.Token)
	set("PROJCAL_WEEK_START", &cfg.WeekStart)
	set("PROJCAL_LOG_FILE", &cfg.LogFile)
	set("PROJCAL_LOG_LEVEL", &cfg.LogLevel)
}

func finalize(cfg *Config) {
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	cfg.DashboardURL = strings.TrimSpace(cfg.DashboardURL)
	cfg.LogFile = expandPath(strings.TrimSpace(cfg.LogFile))
	cfg.WeekStart = strings.ToLower(strings.TrimSpace(cfg.WeekStart))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
}

// Validate checks the values a user can get wrong.
func (c *Config) Validate() error {
	var errs []error
	if err := checkURL("api_url", c.APIURL, true); err != nil {
		errs = append(errs, err)
	}
	if err := checkURL("dashboard_url", c.DashboardURL, false); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative (got %s)", c.Timeout.Duration))
	}
	if c.Project < 0 {
		errs = append(errs, fmt.Errorf("project must be a positive id or 0 (got %d)", c.Project))
	}
	if _, ok := calendar.ParseWeekday(c.WeekStart); !ok {
		errs = append(errs, fmt.Errorf("week_start: unknown weekday %q", c.WeekStart))
	}
	if c.AgendaThreshold < 0 {
		errs = append(errs, fmt.Errorf("agenda_threshold must not be negative (got %d)", c.AgendaThreshold))
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level: unknown level %q (want debug|info|warn|error)", c.LogLevel))
	}
	return errors.Join(errs...)
}

// WeekStartDay returns the configured first weekday (Sunday when invalid).
func (c *Config) WeekStartDay() time.Weekday {
	if d, ok := calendar.ParseWeekday(c.WeekStart); ok {
		return d
	}
	return time.Sunday
}

func checkURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s is empty", field)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: unsupported scheme %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}

// Save writes cfg as TOML, creating the directory. The token is never
// written; it belongs in PROJCAL_TOKEN.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	c := *cfg
	c.Token = ""
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
