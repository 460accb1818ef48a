package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"":        log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"loud":    log.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q)=%v, want %v", in, got, want)
		}
	}
	if ValidLevel("loud") || !ValidLevel("warn") || !ValidLevel(" Error ") || !ValidLevel("") {
		t.Fatalf("ValidLevel mismatch")
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.ReportTimestamp = false
	opts.Level = log.WarnLevel
	l := New(&buf, opts)
	l.Info("hidden")
	l.Warn("shown", "scope", "all")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "scope=all") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestOpenFile_AppendsLogfmt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "projcal.log")
	fl, err := OpenFile(path, DefaultOptions())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	fl.Logger.Error("load failed", "seq", 3)
	if err := fl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "load failed") || !strings.Contains(string(b), "seq=3") {
		t.Fatalf("unexpected log file: %q", b)
	}
}
