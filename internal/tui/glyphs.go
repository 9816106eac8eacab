package tui

import (
	"os"
	"strings"
	"sync"
)

// Some terminals and fonts render box and arrow glyphs poorly; an ASCII set
// is selectable with DATEWHEEL_TUI_GLYPHS=ascii.

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
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DATEWHEEL_TUI_GLYPHS"))) {
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
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func glyphPointer() string {
	if glyphs() == glyphSetASCII {
		return ">"
	}
	return "›"
}

func glyphHRule() string {
	if glyphs() == glyphSetASCII {
		return "-"
	}
	return "─"
}

func glyphBusy() string {
	if glyphs() == glyphSetASCII {
		return "..."
	}
	return "…"
}
