package tui

import (
	"testing"

	"projcal/internal/model"
)

func TestGlyphs_FromEnv(t *testing.T) {
	t.Setenv("PROJCAL_TUI_GLYPHS", "")
	setGlyphs(glyphSetUnicode)
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetUnicode {
		t.Fatalf("expected unicode glyphs by default; got %v", got)
	}

	t.Setenv("PROJCAL_TUI_GLYPHS", "ascii")
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected ascii glyphs; got %v", got)
	}

	// Unknown values are ignored.
	t.Setenv("PROJCAL_TUI_GLYPHS", "bogus")
	applyGlyphPreference()
	if got := glyphs(); got != glyphSetASCII {
		t.Fatalf("expected unknown to be ignored; got %v", got)
	}
	setGlyphs(glyphSetUnicode)
}

func TestKindIcon_DistinctPerKind(t *testing.T) {
	for _, gs := range []glyphSet{glyphSetUnicode, glyphSetASCII} {
		setGlyphs(gs)
		seen := map[string]model.Kind{}
		for _, k := range model.Kinds {
			icon := kindIcon(k)
			if prev, dup := seen[icon]; dup {
				t.Fatalf("glyph set %v: %s and %s share icon %q", gs, prev, k, icon)
			}
			seen[icon] = k
		}
	}
	setGlyphs(glyphSetUnicode)
}
