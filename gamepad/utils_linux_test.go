package gamepad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFromBytes(t *testing.T) {
	typ, name, ok := extractFromBytes([]byte("js1\x00\x00"))
	assert.True(t, ok)
	assert.Equal(t, gamepadEventType, typ)
	assert.Equal(t, "js1", name)

	for _, src := range []string{"event3", "j", "", "mice"} {
		_, _, ok = extractFromBytes([]byte(src))
		assert.False(t, ok, src)
	}
}

func TestParseMaps(t *testing.T) {
	var buttons [768]uint16
	buttons[0], buttons[1], buttons[2] = 0x130, 0x131, 0x133
	assert.Equal(t, []int{0x130, 0x131}, parseButtonsMap(buttons, 2))
	assert.Nil(t, parseButtonsMap(buttons, 0))

	var axes [64]uint8
	axes[1], axes[2] = 1, 2
	assert.Equal(t, []int{0, 1, 2}, parseAxesMap(axes, 3))
}
