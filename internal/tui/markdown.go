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
	mdRendererMu sync.Mutex
	// Keyed by style and wrap width. WithAutoStyle is avoided because its
	// background query can block on some terminals.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// RenderMarkdown renders md for the terminal, wrapped at width. On any
// renderer failure the source text is returned unchanged.
func RenderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 20 {
		width = 20
	}

	style := markdownStyle()
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(style)),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			mdRendererMu.Unlock()
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}
	mdRendererMu.Unlock()

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyleConfig(style string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	accent := "62"
	if style == "light" {
		cfg = styles.LightStyleConfig
		accent = "27"
	}
	cfg.H1.Color = &accent
	cfg.Link.Color = &accent
	cfg.LinkText.Color = &accent
	underline := true
	cfg.Link.Underline = &underline
	return cfg
}

// markdownStyle follows the picker theme so docs stay readable when the
// theme is forced.
func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DATEWHEEL_TUI_THEME"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			if bg >= 7 {
				return "light"
			}
			return "dark"
		}
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}
