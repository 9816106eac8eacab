package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Left     key.Binding
	Right    key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	AM       key.Binding
	PM       key.Binding
	Toggle   key.Binding
	Now      key.Binding
	Confirm  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:     key.NewBinding(key.WithKeys("left", "h", "shift+tab"), key.WithHelp("←/h", "prev column")),
		Right:    key.NewBinding(key.WithKeys("right", "l", "tab"), key.WithHelp("→/l", "next column")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll a page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll a page down")),
		AM:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "AM")),
		PM:       key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "PM")),
		Toggle:   key.NewBinding(key.WithKeys("m", " "), key.WithHelp("m", "toggle AM/PM")),
		Now:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "now")),
		Confirm:  key.NewBinding(key.WithKeys("enter", "ctrl+s"), key.WithHelp("enter", "confirm")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "cancel")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Left, k.Up, k.Toggle, k.Confirm, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down, k.PageUp, k.PageDown},
		{k.AM, k.PM, k.Toggle, k.Now},
		{k.Confirm, k.Quit, k.Help},
	}
}
