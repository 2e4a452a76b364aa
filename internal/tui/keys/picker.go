package keys

import "github.com/charmbracelet/bubbles/key"

// PickerKeys are the bindings of the balance picker
type PickerKeys struct {
	CommonKeys
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}

func NewPickerKeys() PickerKeys {
	return PickerKeys{
		CommonKeys: NewCommonKeys(),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "record from balance"),
		),
	}
}

func (k PickerKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

func (k PickerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Select, k.Help, k.Quit},
	}
}
