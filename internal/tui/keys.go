package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left      key.Binding
	Right     key.Binding
	Next      key.Binding
	Prev      key.Binding
	Pick      key.Binding
	Submit    key.Binding
	New       key.Binding
	History   key.Binding
	Back      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "model")),
		Right:     key.NewBinding(key.WithKeys("right", "l")),
		Next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:      key.NewBinding(key.WithKeys("shift+tab")),
		Pick:      key.NewBinding(key.WithKeys("i", "ctrl+o"), key.WithHelp("i", "upload slide")),
		Submit:    key.NewBinding(key.WithKeys("enter", "ctrl+s"), key.WithHelp("enter", "analyze")),
		New:       key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new analysis")),
		History:   key.NewBinding(key.WithKeys("H", "ctrl+r"), key.WithHelp("H", "history")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

func (k keyMap) configuringHelp() []key.Binding {
	return []key.Binding{k.Left, k.Next, k.Pick, k.Submit, k.History, k.Quit}
}

func (k keyMap) typingHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "upload slide")),
		k.Next,
		k.Submit,
		k.Back,
	}
}

func (k keyMap) submittingHelp() []key.Binding {
	return []key.Binding{k.Left, k.Quit}
}

func (k keyMap) resultHelp() []key.Binding {
	return []key.Binding{k.New, k.Pick, k.History, k.Quit}
}

func (k keyMap) modalHelp() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "move")),
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),
		k.Back,
	}
}
