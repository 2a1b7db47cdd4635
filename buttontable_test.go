package controls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestButtonTable_Lookup(t *testing.T) {
	for _, tc := range []struct {
		policy OverflowPolicy
		index  int
		code   KeyCode
		ok     bool
		err    error
	}{
		{OverflowGrow, 0, MouseButton(0), true, nil},
		{OverflowDrop, 2, MouseButton(2), true, nil},
		{OverflowGrow, 7, MouseButton(7), true, nil},
		{OverflowDrop, 7, 0, false, nil},
		{OverflowError, 7, 0, false, ErrButtonOutOfRange},
		{OverflowGrow, -1, 0, false, ErrButtonOutOfRange},
		{OverflowGrow, 0x10000, 0, false, ErrButtonOutOfRange},
	} {
		table, err := NewButtonTable(MouseButtonBase, 3, tc.policy)
		require.NoError(t, err)
		code, ok, err := table.Lookup(tc.index)
		if tc.err != nil {
			assert.ErrorIs(t, err, tc.err, "%v %d", tc.policy, tc.index)
		} else {
			assert.NoError(t, err, "%v %d", tc.policy, tc.index)
		}
		assert.Equal(t, tc.ok, ok, "%v %d", tc.policy, tc.index)
		assert.Equal(t, tc.code, code, "%v %d", tc.policy, tc.index)
	}
}

func TestNewButtonTable(t *testing.T) {
	table, err := NewButtonTable(GamepadButtonBase, 2, OverflowDrop)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Size())
	assert.Equal(t, OverflowDrop, table.Policy())
	assert.Equal(t, []KeyCode{GamepadButton(0), GamepadButton(1)}, table.Codes())

	_, err = NewButtonTable(GamepadButtonBase, -1, OverflowGrow)
	assert.ErrorIs(t, err, ErrButtonOutOfRange)
	_, err = NewButtonTable(GamepadButtonBase, 1, OverflowPolicy(9))
	assert.Error(t, err)
}

func TestParseOverflowPolicy(t *testing.T) {
	for input, want := range map[string]OverflowPolicy{
		"":       OverflowGrow,
		"grow":   OverflowGrow,
		" Drop ": OverflowDrop,
		"error":  OverflowError,
	} {
		got, err := ParseOverflowPolicy(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseOverflowPolicy("explode")
	assert.Error(t, err)

	for _, p := range []OverflowPolicy{OverflowGrow, OverflowDrop, OverflowError} {
		got, err := ParseOverflowPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}
