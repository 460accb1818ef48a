package tui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdMu sync.Mutex
	// Renderers are cached by style and wrap width. WithAutoStyle is avoided:
	// its terminal queries can block.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders an entity description for the detail overlays.
// On any renderer error the raw text is returned.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		cfg := markdownStyleConfig(style)
		zero := uint(0)
		cfg.Document.Margin = &zero
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(cfg),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			mdMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}

func markdownStyleConfig(style string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if style == "light" {
		cfg = styles.LightStyleConfig
	}
	link := mdColor(colorAccent, style)
	cfg.Link.Color = link
	cfg.Link.Underline = boolPtr(true)
	cfg.LinkText.Color = link
	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	cfg.BlockQuote.Faint = boolPtr(false)
	return cfg
}

// markdownStyle follows PROJCAL_TUI_THEME, then Lip Gloss's background
// detection.
func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PROJCAL_TUI_THEME"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func mdColor(c lipgloss.TerminalColor, style string) *string {
	ac, ok := c.(lipgloss.AdaptiveColor)
	if !ok {
		return nil
	}
	if style == "light" {
		return &ac.Light
	}
	return &ac.Dark
}

func boolPtr(b bool) *bool { return &b }

// RenderMarkdown renders markdown with the calendar's theme, for help text
// printed outside the interactive shell.
func RenderMarkdown(md string, width int) string {
	applyThemePreference()
	return renderMarkdown(md, width)
}
