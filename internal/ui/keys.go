package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the editor.
type keyMap struct {
	Quit        key.Binding
	Help        key.Binding
	CycleTheme  key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	Discard     key.Binding
	Diagnostics key.Binding

	Save    key.Binding
	Upload  key.Binding
	Refresh key.Binding
}

// DefaultKeyMap returns the default key bindings. Plain letters are left to
// the text inputs.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "Toggle help"),
		),
		Diagnostics: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "Toggle diagnostics"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Cycle theme"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Discard: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Discard edits"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save profile"),
		),
		Upload: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "Upload avatar file"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Refetch identity"),
		),
	}
}

// helpSections groups the bindings for the help overlay.
func (k keyMap) helpSections() []helpSection {
	return []helpSection{
		{title: "Editing", bindings: []key.Binding{k.NextField, k.PrevField, k.Discard}},
		{title: "Profile", bindings: []key.Binding{k.Save, k.Upload, k.Refresh}},
		{title: "General", bindings: []key.Binding{k.Diagnostics, k.CycleTheme, k.Help, k.Quit}},
	}
}
