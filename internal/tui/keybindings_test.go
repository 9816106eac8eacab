package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

func TestKeyMapFallbacks(t *testing.T) {
	k := defaultKeyMap()
	t.Run("scroll", func(t *testing.T) {
		if !key.Matches(tea.KeyMsg{Type: tea.KeyDown}, k.Down) {
			t.Fatalf("expected Down to scroll down")
		}
		if !key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("k")}, k.Up) {
			t.Fatalf("expected k to scroll up")
		}
	})
	t.Run("columns", func(t *testing.T) {
		if !key.Matches(tea.KeyMsg{Type: tea.KeyShiftTab}, k.Left) {
			t.Fatalf("expected Shift+Tab to move to the previous column")
		}
		if !key.Matches(tea.KeyMsg{Type: tea.KeyTab}, k.Right) {
			t.Fatalf("expected Tab to move to the next column")
		}
	})
	t.Run("confirm", func(t *testing.T) {
		if !key.Matches(tea.KeyMsg{Type: tea.KeyCtrlS}, k.Confirm) {
			t.Fatalf("expected Ctrl+S to confirm")
		}
	})
}

func TestKeyMapHelpCoversEveryBinding(t *testing.T) {
	k := defaultKeyMap()
	seen := map[string]bool{}
	for _, group := range k.FullHelp() {
		for _, b := range group {
			seen[b.Help().Key] = true
		}
	}
	for _, b := range []key.Binding{k.Left, k.Right, k.Up, k.Down, k.PageUp, k.PageDown, k.AM, k.PM, k.Toggle, k.Now, k.Confirm, k.Help, k.Quit} {
		if !seen[b.Help().Key] {
			t.Fatalf("binding %q missing from full help", b.Help().Key)
		}
	}
}
