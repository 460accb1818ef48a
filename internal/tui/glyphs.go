package tui

import (
	"os"
	"strings"
	"sync"

	"projcal/internal/model"
)

// Some terminals or fonts render the Unicode affordances poorly;
// PROJCAL_TUI_GLYPHS=ascii switches to plain ASCII.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

func applyGlyphPreference() {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("PROJCAL_TUI_GLYPHS"))) {
	case "", "unicode", "utf8":
		setGlyphs(glyphSetUnicode)
	case "ascii":
		setGlyphs(glyphSetASCII)
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	defer glyphsMu.RUnlock()
	return currentGlyphs
}

func kindIcon(k model.Kind) string {
	ascii := glyphs() == glyphSetASCII
	switch k {
	case model.KindProject:
		if ascii {
			return "#"
		}
		return "◆"
	case model.KindEpic:
		if ascii {
			return "*"
		}
		return "★"
	default:
		if ascii {
			return "-"
		}
		return "●"
	}
}

func glyphCursor() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "›"
}

func glyphPrev() string {
	if glyphs() == glyphSetASCII {
		return "<"
	}
	return "‹"
}

func glyphNext() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "›"
}

func glyphEllipsis() string {
	if glyphs() == glyphSetASCII {
		return "~"
	}
	return "…"
}
