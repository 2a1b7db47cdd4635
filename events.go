package controls

import (
	"fmt"
	"strconv"
	"strings"
)

// Transition is the change a boolean event makes.
type Transition uint8

const (
	Press Transition = iota + 1
	Release
)

func (t Transition) String() string {
	switch t {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("Transition(%d)", uint8(t))
	}
}

func (t Transition) valid() bool { return t == Press || t == Release }

// Event records one state transition of one control. Events are owned by the
// Pool they were allocated from and recycled after they are polled, so an
// *Event handed out by a poll is only valid until the next poll of the same
// device. Use Record to keep a copy.
type Event struct {
	kind      ControlKind
	source    Control
	timestamp int64

	// BooleanKind
	transition Transition

	// AnalogKind, both sized to the source's degrees of freedom
	oldValue []float64
	newValue []float64

	pool *Pool
	slot int
}

// BooleanEvent is the boolean view of an Event.
type BooleanEvent struct {
	Control    *BooleanControl
	Transition Transition
	Timestamp  int64
}

// AnalogEvent is the analog view of an Event. Old and New alias the event's
// storage and share its lifetime.
type AnalogEvent struct {
	Control   *AnalogControl
	Old       []float64
	New       []float64
	Timestamp int64
}

// Kind tags the event as boolean or analog.
func (e *Event) Kind() ControlKind { return e.kind }

// Source is the control the event targets.
func (e *Event) Source() Control { return e.source }

// Timestamp is in milliseconds.
func (e *Event) Timestamp() int64 { return e.timestamp }

// Boolean returns the boolean view, ok is false for analog events.
func (e *Event) Boolean() (v BooleanEvent, ok bool) {
	if e.kind != BooleanKind {
		return v, false
	}
	return BooleanEvent{
		Control:    e.source.(*BooleanControl),
		Transition: e.transition,
		Timestamp:  e.timestamp,
	}, true
}

// Analog returns the analog view, ok is false for boolean events.
func (e *Event) Analog() (v AnalogEvent, ok bool) {
	if e.kind != AnalogKind {
		return v, false
	}
	return AnalogEvent{
		Control:   e.source.(*AnalogControl),
		Old:       e.oldValue,
		New:       e.newValue,
		Timestamp: e.timestamp,
	}, true
}

// retarget points a recycled event at c. Changing the analog dimension
// resizes both vectors and resets them to the unset sentinel.
func (e *Event) retarget(c Control) {
	switch c := c.(type) {
	case *BooleanControl:
		e.kind = BooleanKind
		e.source = c
		e.transition = 0
	case *AnalogControl:
		e.kind = AnalogKind
		e.source = c
		e.transition = 0
		if dof := c.DegreesOfFreedom(); len(e.oldValue) != dof || len(e.newValue) != dof {
			e.oldValue = resize(e.oldValue, dof)
			e.newValue = resize(e.newValue, dof)
			resetUnset(e.oldValue)
			resetUnset(e.newValue)
		}
	default:
		panic(fmt.Sprintf("controls: unhandled control type %T", c))
	}
}

// apply replays the event onto its control.
func (e *Event) apply() {
	switch e.kind {
	case BooleanKind:
		c := e.source.(*BooleanControl)
		switch e.transition {
		case Press:
			c.setState(Pressed)
		case Release:
			c.setState(Released)
		default:
			panic(fmt.Sprintf("controls: unhandled transition %d", e.transition))
		}
	case AnalogKind:
		e.source.(*AnalogControl).setCoords(e.newValue)
	default:
		panic(fmt.Sprintf("controls: unhandled event kind %d", e.kind))
	}
}

// copyFrom copies everything but the pool bookkeeping, reusing e's vectors.
func (e *Event) copyFrom(src *Event) {
	e.kind = src.kind
	e.source = src.source
	e.timestamp = src.timestamp
	e.transition = src.transition
	e.oldValue = append(e.oldValue[:0], src.oldValue...)
	e.newValue = append(e.newValue[:0], src.newValue...)
}

func resize(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n)
}

// Record is a detached copy of an Event, safe to keep.
type Record struct {
	Kind       ControlKind
	Device     string
	Control    string
	Code       KeyCode
	Transition Transition
	Old        []float64
	New        []float64
	Timestamp  int64
}

// Record copies the event.
func (e *Event) Record() Record {
	r := Record{
		Kind:      e.kind,
		Control:   e.source.Name(),
		Timestamp: e.timestamp,
	}
	if d := e.source.Device(); d != nil {
		r.Device = d.Name()
	}
	switch e.kind {
	case BooleanKind:
		r.Code = e.source.(*BooleanControl).Code()
		r.Transition = e.transition
	case AnalogKind:
		r.Old = append([]float64(nil), e.oldValue...)
		r.New = append([]float64(nil), e.newValue...)
	default:
		panic(fmt.Sprintf("controls: unhandled event kind %d", e.kind))
	}
	return r
}

func (r Record) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(r.Timestamp, 10))
	b.WriteString("ms ")
	if r.Device != "" {
		b.WriteString(r.Device)
		b.WriteByte('/')
	}
	b.WriteString(r.Control)
	b.WriteByte(' ')
	switch r.Kind {
	case BooleanKind:
		b.WriteString(r.Transition.String())
	case AnalogKind:
		b.WriteString(formatVector(r.Old))
		b.WriteString(" -> ")
		b.WriteString(formatVector(r.New))
	default:
		b.WriteString(r.Kind.String())
	}
	return b.String()
}
