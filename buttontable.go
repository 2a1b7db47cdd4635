package controls

import (
	"fmt"
	"strings"
)

// OverflowPolicy decides what happens to a physical button whose index lies
// beyond the buttons a ButtonTable models.
type OverflowPolicy uint8

const (
	// OverflowGrow maps the button anyway, so the device discovers a new
	// boolean control for it.
	OverflowGrow OverflowPolicy = iota
	// OverflowDrop ignores the button.
	OverflowDrop
	// OverflowError reports ErrButtonOutOfRange.
	OverflowError
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowGrow:
		return "grow"
	case OverflowDrop:
		return "drop"
	case OverflowError:
		return "error"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", uint8(p))
	}
}

// ParseOverflowPolicy parses the names returned by OverflowPolicy.String.
// The empty string selects OverflowGrow.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "grow":
		return OverflowGrow, nil
	case "drop":
		return OverflowDrop, nil
	case "error":
		return OverflowError, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// ButtonTable maps the button indexes reported by a producer (mouse, gamepad)
// onto key codes of one namespace.
type ButtonTable struct {
	base   KeyCode
	size   int
	policy OverflowPolicy
}

// NewButtonTable models size buttons starting at base.
func NewButtonTable(base KeyCode, size int, policy OverflowPolicy) (ButtonTable, error) {
	if size < 0 || size > namespaceSize {
		return ButtonTable{}, fmt.Errorf("button table size %d: %w", size, ErrButtonOutOfRange)
	}
	if policy > OverflowError {
		return ButtonTable{}, fmt.Errorf("button table: unknown %v", policy)
	}
	return ButtonTable{base: base, size: size, policy: policy}, nil
}

// Size is the number of modeled buttons.
func (t ButtonTable) Size() int { return t.size }

// Policy returns the overflow policy.
func (t ButtonTable) Policy() OverflowPolicy { return t.policy }

// Codes returns the codes of every modeled button.
func (t ButtonTable) Codes() []KeyCode {
	codes := make([]KeyCode, t.size)
	for i := range codes {
		codes[i] = t.base + KeyCode(i)
	}
	return codes
}

// Lookup resolves a button index. ok is false when the button is dropped.
func (t ButtonTable) Lookup(index int) (code KeyCode, ok bool, err error) {
	if index < 0 || index >= namespaceSize {
		return 0, false, fmt.Errorf("button %d: %w", index, ErrButtonOutOfRange)
	}
	if index < t.size {
		return t.base + KeyCode(index), true, nil
	}
	switch t.policy {
	case OverflowGrow:
		return t.base + KeyCode(index), true, nil
	case OverflowDrop:
		return 0, false, nil
	case OverflowError:
		return 0, false, fmt.Errorf("button %d of %d: %w", index, t.size, ErrButtonOutOfRange)
	default:
		panic(fmt.Sprintf("controls: unhandled overflow policy %d", t.policy))
	}
}
