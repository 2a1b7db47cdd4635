package gamepad

import "fmt"

// EventType tells the raw notifier events apart.
type EventType uint8

const (
	ConnectEventType EventType = iota
	DisconnectEventType
	ControlEventType
)

func (t EventType) String() string {
	switch t {
	case ConnectEventType:
		return "connect"
	case DisconnectEventType:
		return "disconnect"
	case ControlEventType:
		return "control"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// Event is a raw event reported by the platform notifier, before the Bus
// turns it into a controls event. Data holds an Info for connects, nil for
// disconnects and a ControlEvent for control events.
type Event struct {
	Type EventType
	ID   string
	Data any
}

// ControlType is the type byte of a joystick event.
type ControlType uint8

const (
	Button ControlType = 0x01
	Axis   ControlType = 0x02
	// InitialState is or-ed into the type of the synthetic events the kernel
	// sends on open, describing the state before the subscription.
	InitialState ControlType = 0x80
)

// ControlEvent is one joystick event.
type ControlEvent struct {
	// Timestamp is the driver's millisecond clock, which has an unspecified
	// epoch.
	Timestamp uint32
	Type      ControlType
	Index     int
	Value     int16
}

// Kind is the event type without the InitialState flag.
func (e ControlEvent) Kind() ControlType { return e.Type &^ InitialState }

// Initial reports whether the kernel synthesized the event on open.
func (e ControlEvent) Initial() bool { return e.Type&InitialState != 0 }
