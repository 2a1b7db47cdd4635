package controls

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Device owns a set of controls, the queue of events targeting them, and the
// lock that guards both. Producers enqueue from any goroutine, a consumer
// polls, peeks or fast-forwards. Every method takes the device lock for its
// whole duration.
type Device struct {
	name    string
	mu      sync.Locker
	clock   func() int64
	keyName func(KeyCode) string
	log     *logiface.Logger[logiface.Event]

	fixed     []Control
	dynamic   []Control
	buttons   map[KeyCode]*BooleanControl
	analogs   map[string]*AnalogControl
	published atomic.Pointer[[]Control]

	queue       Queue
	booleanPool *Pool
	analogPool  *Pool
	// the most recently polled event, handed out by PollEvent
	current Event

	last       int64
	enqueued   uint64
	polled     uint64
	outOfOrder uint64

	// supplied is set when mu came from WithLocker or SetLocker.
	supplied bool
	// synchronizer is set while a synchronizer merges the device.
	synchronizer *Synchronizer
}

// DeviceStats is a point in time view of a device.
type DeviceStats struct {
	Name       string
	Pending    int
	Enqueued   uint64
	Polled     uint64
	OutOfOrder uint64
	Controls   int
	Booleans   PoolStats
	Analogs    PoolStats
}

// NewDevice builds a device. Controls passed with WithFixedControls are
// attached to it and must be unowned with unique identities.
func NewDevice(name string, options ...Option) (*Device, error) {
	c := resolveConfig(options)
	d := &Device{
		name:        name,
		mu:          c.locker,
		clock:       c.clock,
		keyName:     c.keyName,
		log:         c.logger.Clone().Str("device", name).Logger(),
		buttons:     make(map[KeyCode]*BooleanControl),
		analogs:     make(map[string]*AnalogControl),
		booleanPool: NewPool(BooleanKind),
		analogPool:  NewPool(AnalogKind),
		current:     Event{slot: -1},
		supplied:    c.supplied,
	}

	for _, ctrl := range c.fixed {
		if err := d.register(ctrl); err != nil {
			return nil, fmt.Errorf("device %q: %w", name, err)
		}
	}
	// ownership is only taken once every control validated
	for _, ctrl := range c.fixed {
		*ctrl.owner() = d
	}
	d.fixed = append([]Control(nil), c.fixed...)
	d.publish()

	d.log.Debug().
		Int("fixed", len(d.fixed)).
		Log("device created")

	return d, nil
}

func (d *Device) register(ctrl Control) error {
	switch ctrl := ctrl.(type) {
	case nil:
		return ErrNilControl
	case *BooleanControl:
		if ctrl == nil {
			return ErrNilControl
		}
		if ctrl.device != nil {
			return fmt.Errorf("control %q: %w", ctrl.name, ErrControlOwned)
		}
		if _, ok := d.buttons[ctrl.code]; ok {
			return fmt.Errorf("key code %d: %w", ctrl.code, ErrDuplicateControl)
		}
		d.buttons[ctrl.code] = ctrl
	case *AnalogControl:
		if ctrl == nil {
			return ErrNilControl
		}
		if ctrl.device != nil {
			return fmt.Errorf("control %q: %w", ctrl.name, ErrControlOwned)
		}
		if _, ok := d.analogs[ctrl.name]; ok {
			return fmt.Errorf("analog control %q: %w", ctrl.name, ErrDuplicateControl)
		}
		d.analogs[ctrl.name] = ctrl
	default:
		panic(fmt.Sprintf("controls: unhandled control type %T", ctrl))
	}
	return nil
}

// publish swaps in a fresh merged view of the fixed and dynamic controls.
func (d *Device) publish() {
	view := make([]Control, 0, len(d.fixed)+len(d.dynamic))
	view = append(view, d.fixed...)
	view = append(view, d.dynamic...)
	d.published.Store(&view)
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Now reads the device clock, in milliseconds.
func (d *Device) Now() int64 { return d.clock() }

// SetLocker re-parents the device onto l, nil restores a private mutex.
// It must not be called while any other operation on the device is in
// flight, and fails for a device merged by a synchronizer, which owns the
// lock.
func (d *Device) SetLocker(l sync.Locker) error {
	mu := d.mu
	mu.Lock()
	defer mu.Unlock()
	if d.synchronizer != nil {
		return fmt.Errorf("device %q: %w", d.name, ErrDeviceSynchronized)
	}
	d.supplied = l != nil
	if l == nil {
		l = new(sync.Mutex)
	}
	d.mu = l
	return nil
}

// attach hands the device to s and re-parents it onto the synchronizer
// lock. It returns the lock the device used before.
func (d *Device) attach(s *Synchronizer) (sync.Locker, error) {
	mu := d.mu
	mu.Lock()
	defer mu.Unlock()
	switch {
	case d.synchronizer == s:
		return nil, fmt.Errorf("synchronizer device %q: %w", d.name, ErrDuplicateDevice)
	case d.synchronizer != nil:
		return nil, fmt.Errorf("synchronizer device %q: %w", d.name, ErrDeviceSynchronized)
	case d.supplied && mu != s.mu:
		return nil, fmt.Errorf("synchronizer device %q: %w", d.name, ErrLockerConflict)
	}
	d.synchronizer = s
	d.mu = s.mu
	return mu, nil
}

// detach undoes attach, restoring prev.
func (d *Device) detach(prev sync.Locker) {
	mu := d.mu
	mu.Lock()
	defer mu.Unlock()
	d.synchronizer = nil
	d.mu = prev
}

// Controls returns the fixed controls followed by the discovered ones. The
// slice is shared and must not be modified. It does not take the lock.
func (d *Device) Controls() []Control {
	return *d.published.Load()
}

// BooleanControl looks up a boolean control by key code.
func (d *Device) BooleanControl(code KeyCode) (*BooleanControl, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.buttons[code]
	return c, ok
}

// AnalogControl looks up an analog control by name.
func (d *Device) AnalogControl(name string) (*AnalogControl, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.analogs[name]
	return c, ok
}

// EnsureControlForKeyCode returns the boolean control for code, creating and
// publishing it on first use. Repeated calls return the same control.
func (d *Device) EnsureControlForKeyCode(code KeyCode) *BooleanControl {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ensureButtonLocked(code)
}

func (d *Device) ensureButtonLocked(code KeyCode) *BooleanControl {
	if c, ok := d.buttons[code]; ok {
		return c
	}
	c := &BooleanControl{device: d, code: code, name: d.keyName(code)}
	d.buttons[code] = c
	d.dynamic = append(d.dynamic, c)
	d.publish()

	d.log.Debug().
		Int64("code", int64(code)).
		Str("control", c.name).
		Stringer("namespace", code.Namespace()).
		Log("discovered boolean control")

	return c
}

// EnsureAnalogControl returns the analog control called name, creating and
// publishing it on first use. An existing control with a different number of
// degrees of freedom is an error.
func (d *Device) EnsureAnalogControl(name string, dof int) (*AnalogControl, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.analogs[name]; ok {
		if c.DegreesOfFreedom() != dof {
			return nil, fmt.Errorf("analog control %q has %d degrees of freedom, not %d: %w",
				name, c.DegreesOfFreedom(), dof, ErrDegreesOfFreedom)
		}
		return c, nil
	}
	c, err := NewAnalogControl(name, dof)
	if err != nil {
		return nil, err
	}
	c.device = d
	d.analogs[name] = c
	d.dynamic = append(d.dynamic, c)
	d.publish()

	d.log.Debug().
		Str("control", name).
		Int("dof", dof).
		Log("discovered analog control")

	return c, nil
}

// EnqueueBooleanEvent queues a press or release of c, stamped with timestamp
// (milliseconds).
func (d *Device) EnqueueBooleanEvent(c *BooleanControl, t Transition, timestamp int64) error {
	if c == nil {
		return ErrNilControl
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOwner(c.name, c.device); err != nil {
		return err
	}
	return d.enqueueBooleanLocked(c, t, timestamp)
}

// EnqueueKeyEvent is EnsureControlForKeyCode followed by EnqueueBooleanEvent,
// under one hold of the lock.
func (d *Device) EnqueueKeyEvent(code KeyCode, t Transition, timestamp int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !t.valid() {
		return fmt.Errorf("key code %d: %v: %w", code, t, ErrInvalidTransition)
	}
	return d.enqueueBooleanLocked(d.ensureButtonLocked(code), t, timestamp)
}

func (d *Device) enqueueBooleanLocked(c *BooleanControl, t Transition, timestamp int64) error {
	if !t.valid() {
		return fmt.Errorf("control %q: %v: %w", c.name, t, ErrInvalidTransition)
	}
	e := d.booleanPool.Allocate()
	e.retarget(c)
	e.transition = t
	e.timestamp = timestamp
	d.pushLocked(e)
	return nil
}

// EnqueueAnalogEvent queues a move of c to values, stamped with timestamp
// (milliseconds). The event's old value is the value most recently queued
// for c.
func (d *Device) EnqueueAnalogEvent(c *AnalogControl, values []float64, timestamp int64) error {
	if c == nil {
		return ErrNilControl
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkOwner(c.name, c.device); err != nil {
		return err
	}
	if len(values) != c.DegreesOfFreedom() {
		return fmt.Errorf("control %q takes %d values, got %d: %w",
			c.name, c.DegreesOfFreedom(), len(values), ErrDimension)
	}
	e := d.analogPool.Allocate()
	e.retarget(c)
	copy(e.oldValue, c.projected)
	copy(e.newValue, values)
	copy(c.projected, values)
	e.timestamp = timestamp
	d.pushLocked(e)
	return nil
}

func (d *Device) checkOwner(name string, owner *Device) error {
	if owner != d {
		return fmt.Errorf("control %q on device %q: %w", name, d.name, ErrForeignControl)
	}
	return nil
}

func (d *Device) pushLocked(e *Event) {
	if d.enqueued != 0 && e.timestamp < d.last {
		d.outOfOrder++
		d.log.Warning().
			Str("control", e.source.Name()).
			Int64("timestamp", e.timestamp).
			Int64("previous", d.last).
			Log("event timestamp went backwards")
	}
	d.last = e.timestamp
	d.enqueued++
	d.queue.Enqueue(e)
}

// PollEvent removes the earliest event, applies it to its control and frees
// its slot. The returned event is only valid until the next poll.
func (d *Device) PollEvent() (*Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pollLocked()
}

func (d *Device) pollLocked() (*Event, bool) {
	e, ok := d.queue.PollFirst()
	if !ok {
		return nil, false
	}
	e.apply()
	d.current.copyFrom(e)
	d.release(e)
	d.polled++
	return &d.current, true
}

func (d *Device) release(e *Event) {
	if err := e.pool.Deallocate(e); err != nil {
		d.log.Err().
			Err(err).
			Str("control", e.source.Name()).
			Log("queued event was not live")
		panic(fmt.Errorf("controls: device %q: %w", d.name, err))
	}
}

// PeekEvent returns the pending event at position (0 is the earliest)
// without removing or applying it.
func (d *Device) PeekEvent(position int) (*Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Peek(position)
}

// FastForward applies and discards every pending event, returning how many
// there were.
func (d *Device) FastForward() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fastForwardLocked()
}

func (d *Device) fastForwardLocked() (n int) {
	for {
		e, ok := d.queue.PollFirst()
		if !ok {
			return n
		}
		e.apply()
		d.release(e)
		d.polled++
		n++
	}
}

// EventQueueSize is the number of pending events.
func (d *Device) EventQueueSize() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.Len()
}

// Stats returns the device counters.
func (d *Device) Stats() DeviceStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DeviceStats{
		Name:       d.name,
		Pending:    d.queue.Len(),
		Enqueued:   d.enqueued,
		Polled:     d.polled,
		OutOfOrder: d.outOfOrder,
		Controls:   len(d.fixed) + len(d.dynamic),
		Booleans:   d.booleanPool.Stats(),
		Analogs:    d.analogPool.Stats(),
	}
}
