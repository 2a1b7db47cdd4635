package controls

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyCode_Namespace(t *testing.T) {
	assert.Equal(t, KeyboardNamespace, KeyCode('a').Namespace())
	assert.Equal(t, MouseNamespace, MouseButton(0).Namespace())
	assert.Equal(t, MouseNamespace, MouseButton(0xffff).Namespace())
	assert.Equal(t, GamepadNamespace, GamepadButton(11).Namespace())
	assert.Equal(t, UnknownNamespace, KeyCode(-1).Namespace())
	assert.Equal(t, UnknownNamespace, KeyCode(0x30000).Namespace())
	assert.Equal(t, "gamepad", GamepadNamespace.String())
}

func TestDefaultKeyName(t *testing.T) {
	for code, want := range map[KeyCode]string{
		'a':              "a",
		'Z':              "Z",
		' ':              "key 32",
		13:               "key 13",
		MouseButton(0):   "mouse 1",
		MouseButton(2):   "mouse 3",
		GamepadButton(4): "button 4",
		-5:               "code -5",
	} {
		assert.Equal(t, want, DefaultKeyName(code), "code %d", code)
	}
}
