package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines dashboard keybindings.
type KeyMap struct {
	NextTab   key.Binding
	PrevTab   key.Binding
	Edit      key.Binding
	Commit    key.Binding
	Cancel    key.Binding
	Undo      key.Binding
	Redo      key.Binding
	Delete    key.Binding
	Duplicate key.Binding
	Add       key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

var dashKeys = KeyMap{
	NextTab:   key.NewBinding(key.WithKeys("tab", "l"), key.WithHelp("tab", "next tab")),
	PrevTab:   key.NewBinding(key.WithKeys("shift+tab", "h"), key.WithHelp("shift+tab", "prev tab")),
	Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit layout")),
	Commit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save layout")),
	Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Undo:      key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
	Redo:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "redo")),
	Delete:    key.NewBinding(key.WithKeys("d", "backspace"), key.WithHelp("d", "delete card")),
	Duplicate: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "duplicate card")),
	Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add card")),
	Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
