package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_UsesConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROJCAL_CONFIG_DIR", dir)

	cfg := Default()
	if cfg.LogFile != filepath.Join(dir, "projcal.log") {
		t.Fatalf("LogFile=%q", cfg.LogFile)
	}
	if cfg.AgendaThreshold != 100 || cfg.WeekStart != "sunday" || cfg.Timeout.Duration != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	p, _ := Path()
	if p != filepath.Join(dir, "config.toml") {
		t.Fatalf("Path=%q", p)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROJCAL_CONFIG_DIR", dir)
	t.Setenv("PROJCAL_TOKEN", "from-env")
	t.Setenv("PROJCAL_WEEK_START", "Monday")

	body := `
api_url = "https://pm.example.com/api"
token = "from-file"
timeout = "3s"
mine_only = true
week_start = "saturday"
agenda_threshold = 120
log_level = "DEBUG"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://pm.example.com/api" {
		t.Fatalf("APIURL=%q", cfg.APIURL)
	}
	if cfg.Token != "from-env" {
		t.Fatalf("env should override file, Token=%q", cfg.Token)
	}
	if cfg.WeekStartDay() != time.Monday {
		t.Fatalf("WeekStartDay=%v", cfg.WeekStartDay())
	}
	if cfg.Timeout.Duration != 3*time.Second || !cfg.MineOnly || cfg.AgendaThreshold != 120 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	t.Setenv("PROJCAL_CONFIG_DIR", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("APIURL=%q", cfg.APIURL)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROJCAL_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("api_ur = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "api_ur") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.APIURL = "ftp://nope"
	cfg.WeekStart = "x"
	cfg.LogLevel = "chatty"
	cfg.AgendaThreshold = -1
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected errors")
	}
	for _, want := range []string{"api_url", "week_start", "log_level", "agenda_threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}

func TestSave_RoundTripsWithoutToken(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PROJCAL_CONFIG_DIR", dir)
	t.Setenv("PROJCAL_TOKEN", "")
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.Token = "secret"
	cfg.Project = 42
	cfg.Timeout = Duration{90 * time.Second}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "secret") {
		t.Fatalf("token must not be written:\n%s", raw)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Project != 42 || got.Timeout.Duration != 90*time.Second || got.Token != "" {
		t.Fatalf("round trip: %+v", got)
	}
}
