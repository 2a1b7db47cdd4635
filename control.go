package controls

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ControlKind tags both controls and the events that target them.
type ControlKind uint8

const (
	BooleanKind ControlKind = iota + 1
	AnalogKind
)

func (k ControlKind) String() string {
	switch k {
	case BooleanKind:
		return "boolean"
	case AnalogKind:
		return "analog"
	default:
		return fmt.Sprintf("ControlKind(%d)", uint8(k))
	}
}

// Control is a named piece of device state. The implementations are
// *BooleanControl and *AnalogControl.
//
// Retained state only changes when a queued event for the control is polled,
// so it always reflects some prefix of the device's event history. Read it
// from the goroutine that polls, or while holding the device lock.
type Control interface {
	Kind() ControlKind
	Name() string
	// Device returns the owning device, nil until the control is attached.
	Device() *Device

	owner() **Device
}

// ButtonState is the retained state of a boolean control.
type ButtonState uint8

const (
	Released ButtonState = iota
	Pressed
)

func (s ButtonState) String() string {
	switch s {
	case Released:
		return "released"
	case Pressed:
		return "pressed"
	default:
		return fmt.Sprintf("ButtonState(%d)", uint8(s))
	}
}

// BooleanControl is a button or key, identified by its key code.
type BooleanControl struct {
	device *Device
	code   KeyCode
	name   string
	state  ButtonState
}

// NewBooleanControl returns an unattached boolean control, for use with
// WithFixedControls. An empty name selects DefaultKeyName.
func NewBooleanControl(code KeyCode, name string) *BooleanControl {
	if name == "" {
		name = DefaultKeyName(code)
	}
	return &BooleanControl{code: code, name: name}
}

func (c *BooleanControl) Kind() ControlKind      { return BooleanKind }
func (c *BooleanControl) Name() string           { return c.name }
func (c *BooleanControl) Device() *Device        { return c.device }
func (c *BooleanControl) Code() KeyCode          { return c.code }
func (c *BooleanControl) State() ButtonState     { return c.state }
func (c *BooleanControl) Pressed() bool          { return c.state == Pressed }
func (c *BooleanControl) owner() **Device        { return &c.device }
func (c *BooleanControl) setState(s ButtonState) { c.state = s }

func (c *BooleanControl) String() string {
	return c.name + "=" + c.state.String()
}

// AnalogControl is an N dimensional analog input such as a stick, trigger or
// pointer. Unset coordinates are NaN, see IsUnset.
type AnalogControl struct {
	device *Device
	name   string
	coords []float64
	// last enqueued value, used as the old value of the next event
	projected []float64
}

// NewAnalogControl returns an unattached analog control with dof coordinates.
func NewAnalogControl(name string, dof int) (*AnalogControl, error) {
	if dof < 1 {
		return nil, fmt.Errorf("analog control %q with %d degrees of freedom: %w", name, dof, ErrDegreesOfFreedom)
	}
	c := &AnalogControl{
		name:      name,
		coords:    make([]float64, dof),
		projected: make([]float64, dof),
	}
	resetUnset(c.coords)
	resetUnset(c.projected)
	return c, nil
}

func (c *AnalogControl) Kind() ControlKind { return AnalogKind }
func (c *AnalogControl) Name() string      { return c.name }
func (c *AnalogControl) Device() *Device   { return c.device }
func (c *AnalogControl) owner() **Device   { return &c.device }

// DegreesOfFreedom is the number of coordinates.
func (c *AnalogControl) DegreesOfFreedom() int { return len(c.coords) }

// Coord returns coordinate i.
func (c *AnalogControl) Coord(i int) float64 { return c.coords[i] }

// Coords returns a copy of the current coordinates.
func (c *AnalogControl) Coords() []float64 { return c.AppendCoords(nil) }

// AppendCoords appends the current coordinates to dst.
func (c *AnalogControl) AppendCoords(dst []float64) []float64 {
	return append(dst, c.coords...)
}

// Unset reports whether no event has set the control yet.
func (c *AnalogControl) Unset() bool {
	for _, v := range c.coords {
		if !IsUnset(v) {
			return false
		}
	}
	return true
}

func (c *AnalogControl) setCoords(v []float64) { copy(c.coords, v) }

func (c *AnalogControl) String() string {
	return c.name + "=" + formatVector(c.coords)
}

// IsUnset reports whether v is the "no value yet" sentinel.
func IsUnset(v float64) bool { return math.IsNaN(v) }

func resetUnset(s []float64) {
	nan := math.NaN()
	for i := range s {
		s[i] = nan
	}
}

func formatVector(v []float64) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, f := range v {
		if i != 0 {
			b.WriteString(", ")
		}
		if IsUnset(f) {
			b.WriteString("unset")
		} else {
			b.WriteString(strconv.FormatFloat(f, 'f', 3, 64))
		}
	}
	b.WriteByte(')')
	return b.String()
}
