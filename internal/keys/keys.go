package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down  key.Binding
	Up    key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	Settings key.Binding

	// Board actions
	MoveStatus  key.Binding
	NewNote     key.Binding
	EditNote    key.Binding
	DeleteNote  key.Binding
	ReorderUp   key.Binding
	ReorderDown key.Binding

	// History panel
	FocusHistory  key.Binding
	DeleteHistory key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous column"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next column"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open board"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		MoveStatus: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "move status here"),
		),
		NewNote: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new note"),
		),
		EditNote: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit note"),
		),
		DeleteNote: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete note"),
		),
		ReorderUp: key.NewBinding(
			key.WithKeys("K", "shift+up"),
			key.WithHelp("K", "move note up"),
		),
		ReorderDown: key.NewBinding(
			key.WithKeys("J", "shift+down"),
			key.WithHelp("J", "move note down"),
		),
		FocusHistory: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "notes/history"),
		),
		DeleteHistory: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "hide history entry"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh, k.Settings},
		{k.MoveStatus, k.NewNote, k.EditNote, k.DeleteNote, k.ReorderUp, k.ReorderDown},
		{k.FocusHistory, k.DeleteHistory},
	}
}
