package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	apply    key.Binding
	submit   key.Binding
	download key.Binding
	open     key.Binding
	pageUp   key.Binding
	pageDown key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		apply:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		submit:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "generate")),
		download: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "download")),
		open:     key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "open")),
		pageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		pageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		quit:     key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

// sync enables the bindings that apply to the current state; help hides disabled ones.
func (k *keyMap) sync(submitting, hasResult bool) {
	k.submit.SetEnabled(!submitting)
	k.download.SetEnabled(hasResult)
	k.open.SetEnabled(hasResult)
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.apply, k.submit, k.download, k.open, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.apply, k.submit},
		{k.download, k.open},
		{k.pageUp, k.pageDown, k.quit},
	}
}
