package terminal

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	controls "github.com/doingharm/go-control-bus"
)

// keyMap holds the bindings the program consumes itself. Every other key is
// input.
type keyMap struct {
	Quit        key.Binding
	Pause       key.Binding
	FastForward key.Binding
	Clear       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Pause: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "pause polling"),
		),
		FastForward: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "skip pending"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear history"),
		),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Quit, k.Pause, k.FastForward, k.Clear}
}

// special keys (arrows, function keys) have negative key types, they are
// folded into the private use area of the keyboard namespace
const specialBase = controls.KeyboardBase + 0xE000

// keyCode maps a key message to a keyboard code. Modifiers are ignored.
func keyCode(msg tea.KeyMsg) (controls.KeyCode, bool) {
	switch {
	case (msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace) && len(msg.Runes) == 1:
		return controls.KeyboardBase + controls.KeyCode(msg.Runes[0]), true
	case msg.Type == tea.KeySpace:
		return controls.KeyboardBase + ' ', true
	case msg.Type == tea.KeyRunes:
		// pastes and IME input carry several runes
		return 0, false
	case msg.Type >= 0:
		return controls.KeyboardBase + controls.KeyCode(msg.Type), true
	default:
		return specialBase + controls.KeyCode(-msg.Type), true
	}
}

// KeyName names keyboard codes the way bubbletea names keys.
func KeyName(code controls.KeyCode) string {
	switch {
	case code >= specialBase && code < specialBase+0x100:
		return tea.KeyType(-(code - specialBase)).String()
	case code == controls.KeyboardBase+' ':
		return "space"
	case code >= controls.KeyboardBase && code < controls.KeyboardBase+0x20,
		code == controls.KeyboardBase+0x7f:
		return tea.KeyType(code - controls.KeyboardBase).String()
	default:
		return controls.DefaultKeyName(code)
	}
}

// mouseButtonIndex is the zero based index of a bubbletea mouse button.
func mouseButtonIndex(b tea.MouseButton) (int, bool) {
	if b == tea.MouseButtonNone {
		return 0, false
	}
	return int(b) - 1, true
}
