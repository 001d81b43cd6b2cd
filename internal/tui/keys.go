package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Theme      key.Binding
	Zone       key.Binding
	Motion     key.Binding
	Fullscreen key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Theme:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "next theme")),
		Zone:       key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "next timezone")),
		Motion:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "reduce motion")),
		Fullscreen: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fullscreen")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Theme, k.Zone, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Theme, k.Zone},
		{k.Motion, k.Fullscreen},
		{k.Help, k.Quit},
	}
}
