package controls

import (
	"fmt"
	"unicode"
)

// KeyCode identifies a boolean control. Codes are namespaced so that keyboard
// keys, mouse buttons and gamepad buttons never collide.
type KeyCode int32

const (
	KeyboardBase      KeyCode = 0
	MouseButtonBase   KeyCode = 0x10000
	GamepadButtonBase KeyCode = 0x20000

	namespaceSize = 0x10000
)

// Namespace is the producer family a KeyCode belongs to.
type Namespace uint8

const (
	UnknownNamespace Namespace = iota
	KeyboardNamespace
	MouseNamespace
	GamepadNamespace
)

func (n Namespace) String() string {
	switch n {
	case KeyboardNamespace:
		return "keyboard"
	case MouseNamespace:
		return "mouse"
	case GamepadNamespace:
		return "gamepad"
	default:
		return "unknown"
	}
}

// MouseButton returns the code of the mouse button with the given zero based index.
func MouseButton(index int) KeyCode { return MouseButtonBase + KeyCode(index) }

// GamepadButton returns the code of the gamepad button with the given zero based index.
func GamepadButton(index int) KeyCode { return GamepadButtonBase + KeyCode(index) }

// Namespace reports which producer family the code belongs to.
func (k KeyCode) Namespace() Namespace {
	switch {
	case k >= KeyboardBase && k < KeyboardBase+namespaceSize:
		return KeyboardNamespace
	case k >= MouseButtonBase && k < MouseButtonBase+namespaceSize:
		return MouseNamespace
	case k >= GamepadButtonBase && k < GamepadButtonBase+namespaceSize:
		return GamepadNamespace
	default:
		return UnknownNamespace
	}
}

// DefaultKeyName is the display name given to dynamically discovered boolean
// controls when a device has no key namer of its own.
func DefaultKeyName(code KeyCode) string {
	switch code.Namespace() {
	case KeyboardNamespace:
		if r := rune(code - KeyboardBase); unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return string(r)
		}
		return fmt.Sprintf("key %d", int(code-KeyboardBase))
	case MouseNamespace:
		return fmt.Sprintf("mouse %d", int(code-MouseButtonBase)+1)
	case GamepadNamespace:
		return fmt.Sprintf("button %d", int(code-GamepadButtonBase))
	default:
		return fmt.Sprintf("code %d", int(code))
	}
}
