package tui

import (
	"strings"
	"testing"
)

func TestRenderMarkdown_Empty(t *testing.T) {
	if got := RenderMarkdown("  \n", 80); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestRenderMarkdown_KeepsText(t *testing.T) {
	t.Setenv("DATEWHEEL_TUI_THEME", "light")
	got := RenderMarkdown("# Payload\n\nThe picker sends `date` and `time`.", 60)
	for _, want := range []string{"Payload", "date", "time"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in rendered output:\n%s", want, got)
		}
	}
}

func TestMarkdownStyle(t *testing.T) {
	t.Setenv("DATEWHEEL_TUI_THEME", "")
	t.Setenv("COLORFGBG", "0;15")
	if got := markdownStyle(); got != "light" {
		t.Fatalf("COLORFGBG=0;15: got %q", got)
	}
	t.Setenv("COLORFGBG", "15;0")
	if got := markdownStyle(); got != "dark" {
		t.Fatalf("COLORFGBG=15;0: got %q", got)
	}
	t.Setenv("DATEWHEEL_TUI_THEME", "light")
	if got := markdownStyle(); got != "light" {
		t.Fatalf("theme override: got %q", got)
	}
}
