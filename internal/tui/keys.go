package tui

import (
	"github.com/charmbracelet/bubbletea"
)

// KeyMap defines all key bindings for the application.
type KeyMap struct {
	// Navigation
	Up       Key
	Down     Key
	PageUp   Key
	PageDown Key

	// Actions
	Select Key
	Back   Key
	Quit   Key
	Recost Key
	Filter Key

	// Function keys for module navigation
	F1  Key
	F2  Key
	F3  Key
	F4  Key
	F10 Key
}

// Key represents a key binding.
type Key struct {
	Keys    []string
	Help    string
	Enabled bool
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: Key{
			Keys:    []string{"up", "k"},
			Help:    "up",
			Enabled: true,
		},
		Down: Key{
			Keys:    []string{"down", "j"},
			Help:    "down",
			Enabled: true,
		},
		PageUp: Key{
			Keys:    []string{"pgup", "ctrl+u"},
			Help:    "page up",
			Enabled: true,
		},
		PageDown: Key{
			Keys:    []string{"pgdown", "ctrl+d"},
			Help:    "page down",
			Enabled: true,
		},

		// Actions
		Select: Key{
			Keys:    []string{"enter", " "},
			Help:    "select",
			Enabled: true,
		},
		Back: Key{
			Keys:    []string{"esc", "backspace"},
			Help:    "back",
			Enabled: true,
		},
		Quit: Key{
			Keys:    []string{"q", "ctrl+c"},
			Help:    "quit",
			Enabled: true,
		},
		Recost: Key{
			Keys:    []string{"r", "ctrl+r"},
			Help:    "recost",
			Enabled: true,
		},
		Filter: Key{
			Keys:    []string{"f"},
			Help:    "kind filter",
			Enabled: true,
		},

		// Function keys
		F1: Key{
			Keys:    []string{"f1", "?"},
			Help:    "Help",
			Enabled: true,
		},
		F2: Key{
			Keys:    []string{"f2"},
			Help:    "Board",
			Enabled: true,
		},
		F3: Key{
			Keys:    []string{"f3"},
			Help:    "Ingredients",
			Enabled: true,
		},
		F4: Key{
			Keys:    []string{"f4"},
			Help:    "Conversions",
			Enabled: true,
		},
		F10: Key{
			Keys:    []string{"f10"},
			Help:    "Quit",
			Enabled: true,
		},
	}
}

// Matches checks if a key message matches this key binding.
func (k Key) Matches(msg tea.KeyMsg) bool {
	if !k.Enabled {
		return false
	}

	keyStr := msg.String()
	for _, key := range k.Keys {
		if keyStr == key {
			return true
		}
	}
	return false
}

// MatchesAny checks if a key message matches any of the provided key bindings.
func MatchesAny(msg tea.KeyMsg, keys ...Key) bool {
	for _, k := range keys {
		if k.Matches(msg) {
			return true
		}
	}
	return false
}

// IsQuit checks if the key message is a quit command.
func (km KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return km.Quit.Matches(msg) || km.F10.Matches(msg)
}

// IsFunctionKey checks if the key message switches modules.
func (km KeyMap) IsFunctionKey(msg tea.KeyMsg) bool {
	return MatchesAny(msg, km.F1, km.F2, km.F3, km.F4, km.F10)
}

// GetFunctionKeyModule returns the module for a function key, or "".
func (km KeyMap) GetFunctionKeyModule(msg tea.KeyMsg) Module {
	switch {
	case km.F1.Matches(msg):
		return ModuleHelp
	case km.F2.Matches(msg):
		return ModuleBoard
	case km.F3.Matches(msg):
		return ModuleIngredients
	case km.F4.Matches(msg):
		return ModuleConversions
	case km.F10.Matches(msg):
		return moduleQuit
	default:
		return ""
	}
}

// StatusBarHelp returns the help text for the status bar.
func (km KeyMap) StatusBarHelp() string {
	return "[F1]Help [F2]Board [F3]Ingredients [F4]Conversions [F10]Quit"
}
