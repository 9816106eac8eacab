package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// fitCell forces s to exactly width columns (ANSI-aware), truncating with an
// ellipsis or centering with spaces.
func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := xansi.StringWidth(s)
	if w > width {
		if width == 1 {
			return xansi.Cut(s, 0, 1)
		}
		return xansi.Cut(s, 0, width-1) + "…"
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// fitBlock pads or cuts a multi-line block to width columns and height lines.
func fitBlock(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		w := xansi.StringWidth(ln)
		if w > width {
			ln = xansi.Cut(ln, 0, width)
			w = xansi.StringWidth(ln)
		}
		lines[i] = ln + strings.Repeat(" ", width-w)
	}
	return strings.Join(lines, "\n")
}
