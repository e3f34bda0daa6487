package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding

	Search key.Binding
	New    key.Binding
	Edit   key.Binding
	Delete key.Binding
	Save   key.Binding
	Sort   key.Binding
	Purge  key.Binding
	Help   key.Binding
	Clear  key.Binding
	Quit   key.Binding

	NextField key.Binding
	PrevField key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Cycle     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+b"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+f"), key.WithHelp("pgdn", "page down")),
		Home:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
		End:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),

		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		New:    key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new")),
		Edit:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete: key.NewBinding(key.WithKeys("d", "delete", "x"), key.WithHelp("d", "delete")),
		Save:   key.NewBinding(key.WithKeys("ctrl+s", "w"), key.WithHelp("w", "save")),
		Sort:   key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
		Purge:  key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "purge expired")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Clear:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		NextField: key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField: key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev field")),
		Confirm:   key.NewBinding(key.WithKeys("enter", "ctrl+s"), key.WithHelp("enter", "confirm")),
		Cancel:    key.NewBinding(key.WithKeys("esc", "ctrl+g"), key.WithHelp("esc", "cancel")),
		Cycle:     key.NewBinding(key.WithKeys("left", "right", " "), key.WithHelp("←/→", "change")),
	}
}

// shortHelp returns the footer bindings for a mode.
func (k keyMap) shortHelp(md mode, filtered bool) []key.Binding {
	switch md {
	case modeSearch:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "keep filter")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		}
	case modeEdit:
		return []key.Binding{k.NextField, k.PrevField, k.Cycle, k.Confirm, k.Cancel}
	case modeConfirmDelete, modeConfirmPurge, modeConfirmQuit:
		return []key.Binding{
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
			k.Confirm,
			k.Cancel,
		}
	case modeHelp:
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		}
	}
	out := []key.Binding{k.Up, k.Down, k.Search, k.New, k.Edit, k.Delete, k.Save, k.Sort, k.Purge, k.Help, k.Quit}
	if filtered {
		out = append(out, k.Clear)
	}
	return out
}
