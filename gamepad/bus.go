package gamepad

import (
	"context"
	"fmt"
	"math"
	"sync"

	controls "github.com/doingharm/go-control-bus"
	"github.com/joeycumines/logiface"
	"golang.org/x/exp/slices"
)

const (
	axisMax = 32767
	// errors not read from Errors in time are logged and dropped
	errorBuffer = 16
)

// Options configures a Bus.
type Options struct {
	// Buttons is the number of buttons modeled per gamepad, attached as
	// fixed controls. Zero models the buttons the driver reports.
	Buttons int
	// Overflow decides what happens to buttons beyond the modeled ones.
	Overflow controls.OverflowPolicy
	// Deadzone is in [0, 1). Normalized axis values with a smaller magnitude
	// read as 0, the rest of the range is rescaled to stay continuous.
	Deadzone float64
	// Sticks pairs axis indexes into two dimensional analog controls named
	// "stick N". Every other axis becomes a one dimensional "axis N".
	Sticks [][2]int
	// Filters drop raw control events before they reach a device.
	Filters []FilterFunc
	Logger  *logiface.Logger[logiface.Event]
	// Clock stamps events, nil uses the default device clock.
	Clock func() int64
	// OnDevice is called once per gamepad, before any of its events are
	// enqueued, typically with Synchronizer.AddDevice. An error drops the
	// gamepad.
	OnDevice func(d *controls.Device) error
	// Manual disables subscribing to gamepads as they connect.
	Manual bool
}

// Bus turns the raw events of every connected gamepad into controls events,
// on one controls.Device per gamepad. A device outlives disconnects, so a
// gamepad that comes back under the same id keeps its device.
type Bus struct {
	options  Options
	log      *logiface.Logger[logiface.Event]
	notifier notify

	events chan *Event
	errs   chan error
	errors chan error
	cancel context.CancelFunc
	done   chan struct{}
	closed sync.Once

	// pads is only written by the run goroutine
	mu    sync.RWMutex
	pads  map[string]*pad
	order []*pad
}

type pad struct {
	info      Info
	device    *controls.Device
	buttons   controls.ButtonTable
	axes      map[int]*axisBinding
	held      map[controls.KeyCode]struct{}
	connected bool
}

type axisBinding struct {
	control *controls.AnalogControl
	coord   int
	// last value enqueued, shared by the axes of a stick
	values []float64
}

// New starts watching for gamepads. Cancelling ctx stops the bus, Close
// also waits for it to stop.
func New(ctx context.Context, options Options) (*Bus, error) {
	return newBus(ctx, options, platformNotifier)
}

func newBus(ctx context.Context, options Options, open notifierFunc) (*Bus, error) {
	if err := validate(options); err != nil {
		return nil, err
	}

	b := &Bus{
		options: options,
		log:     options.Logger,
		events:  make(chan *Event),
		errs:    make(chan error),
		errors:  make(chan error, errorBuffer),
		done:    make(chan struct{}),
		pads:    make(map[string]*pad),
	}

	ctx, b.cancel = context.WithCancel(ctx)
	var err error
	if b.notifier, err = open(ctx, b.events, b.errs, b.log); err != nil {
		b.cancel()
		return nil, err
	}

	go b.run(ctx)

	return b, nil
}

func validate(options Options) error {
	if options.Buttons < 0 {
		return fmt.Errorf("gamepad buttons %d: %w", options.Buttons, controls.ErrButtonOutOfRange)
	}
	if options.Deadzone < 0 || options.Deadzone >= 1 || math.IsNaN(options.Deadzone) {
		return fmt.Errorf("gamepad deadzone %v is not in [0, 1)", options.Deadzone)
	}
	seen := make(map[int]bool)
	for _, stick := range options.Sticks {
		for _, axis := range stick {
			if axis < 0 || seen[axis] {
				return fmt.Errorf("stick %v: %w", stick, ErrInvalidStick)
			}
			seen[axis] = true
		}
	}
	return nil
}

func (b *Bus) run(ctx context.Context) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.events:
			if err := b.handle(e); err != nil {
				b.report(err)
			}
		case err := <-b.errs:
			b.report(err)
		}
	}
}

func (b *Bus) report(err error) {
	select {
	case b.errors <- err:
	default:
		b.log.Err().
			Err(err).
			Log("dropped gamepad error")
	}
}

// Errors reports notifier and mapping errors. It is closed by Close.
func (b *Bus) Errors() <-chan error { return b.errors }

func (b *Bus) handle(e *Event) error {
	if !accept(b.options.Filters, e) {
		return nil
	}
	switch e.Type {
	case ConnectEventType:
		info, ok := e.Data.(Info)
		if !ok {
			return fmt.Errorf("gamepad %q connect carries %T", e.ID, e.Data)
		}
		return b.connect(info)
	case DisconnectEventType:
		b.disconnect(e.ID)
		return nil
	case ControlEventType:
		c, ok := e.Data.(ControlEvent)
		if !ok {
			return fmt.Errorf("gamepad %q control event carries %T", e.ID, e.Data)
		}
		return b.control(e.ID, c)
	default:
		panic(fmt.Sprintf("gamepad: unhandled event type %d", e.Type))
	}
}

func (b *Bus) connect(info Info) error {
	p := b.pad(info.ID)
	if p == nil {
		var err error
		if p, err = b.newPad(info); err != nil {
			return err
		}
		if b.options.OnDevice != nil {
			if err = b.options.OnDevice(p.device); err != nil {
				return fmt.Errorf("gamepad %q: %w", info.ID, err)
			}
		}
		b.mu.Lock()
		b.pads[info.ID] = p
		b.order = append(b.order, p)
		b.mu.Unlock()
	}

	b.mu.Lock()
	p.info = info
	p.connected = true
	b.mu.Unlock()

	if b.options.Manual {
		return nil
	}
	return b.notifier.subscribe(info.ID)
}

func (b *Bus) newPad(info Info) (*pad, error) {
	size := b.options.Buttons
	if size == 0 {
		size = info.Buttons
	}
	table, err := controls.NewButtonTable(controls.GamepadButtonBase, size, b.options.Overflow)
	if err != nil {
		return nil, fmt.Errorf("gamepad %q: %w", info.ID, err)
	}

	fixed := make([]controls.Control, 0, size)
	for _, code := range table.Codes() {
		fixed = append(fixed, controls.NewBooleanControl(code, ""))
	}
	options := []controls.Option{
		controls.WithLogger(b.log),
		controls.WithFixedControls(fixed...),
	}
	if b.options.Clock != nil {
		options = append(options, controls.WithClock(b.options.Clock))
	}
	d, err := controls.NewDevice(info.ID, options...)
	if err != nil {
		return nil, err
	}

	p := &pad{
		info:    info,
		device:  d,
		buttons: table,
		axes:    make(map[int]*axisBinding),
		held:    make(map[controls.KeyCode]struct{}),
	}
	for i, stick := range b.options.Sticks {
		c, err := d.EnsureAnalogControl(fmt.Sprintf("stick %d", i), 2)
		if err != nil {
			return nil, err
		}
		values := c.Coords()
		for coord, axis := range stick {
			p.axes[axis] = &axisBinding{control: c, coord: coord, values: values}
		}
	}
	for axis := 0; axis < info.Axes; axis++ {
		if _, err := p.axis(axis); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// axis returns the binding of an axis, creating a one dimensional control
// for axes neither configured nor reported at connect.
func (p *pad) axis(index int) (*axisBinding, error) {
	if a, ok := p.axes[index]; ok {
		return a, nil
	}
	c, err := p.device.EnsureAnalogControl(fmt.Sprintf("axis %d", index), 1)
	if err != nil {
		return nil, err
	}
	a := &axisBinding{control: c, values: c.Coords()}
	p.axes[index] = a
	return a, nil
}

func (b *Bus) pad(id string) *pad {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pads[id]
}

// disconnect releases the buttons still held, the device has no way to see
// them go up otherwise.
func (b *Bus) disconnect(id string) {
	p := b.pad(id)
	if p == nil {
		return
	}

	b.mu.Lock()
	p.connected = false
	b.mu.Unlock()

	held := make([]controls.KeyCode, 0, len(p.held))
	for code := range p.held {
		held = append(held, code)
	}
	slices.Sort(held)
	now := p.device.Now()
	for _, code := range held {
		if err := p.device.EnqueueKeyEvent(code, controls.Release, now); err != nil {
			b.report(err)
		}
	}
	clear(p.held)

	b.log.Debug().
		Str("gamepad", id).
		Int("released", len(held)).
		Log("gamepad device idle")
}

// control enqueues the change described by c. Events that change nothing,
// like the initial release of every button, are skipped.
func (b *Bus) control(id string, c ControlEvent) error {
	p := b.pad(id)
	if p == nil {
		b.log.Debug().
			Str("gamepad", id).
			Log("event from unknown gamepad")
		return nil
	}

	switch c.Kind() {
	case Button:
		code, ok, err := p.buttons.Lookup(c.Index)
		if err != nil {
			return fmt.Errorf("gamepad %q: %w", id, err)
		}
		if !ok {
			b.log.Debug().
				Str("gamepad", id).
				Int("button", c.Index).
				Log("dropped button beyond table")
			return nil
		}
		_, held := p.held[code]
		t := controls.Release
		if c.Value != 0 {
			t = controls.Press
		}
		switch {
		case t == controls.Press && held, t == controls.Release && !held:
			return nil
		case t == controls.Press:
			p.held[code] = struct{}{}
		default:
			delete(p.held, code)
		}
		return p.device.EnqueueKeyEvent(code, t, p.device.Now())

	case Axis:
		a, err := p.axis(c.Index)
		if err != nil {
			return fmt.Errorf("gamepad %q: %w", id, err)
		}
		v := normalize(c.Value, b.options.Deadzone)
		if a.values[a.coord] == v {
			return nil
		}
		a.values[a.coord] = v
		return p.device.EnqueueAnalogEvent(a.control, a.values, p.device.Now())

	default:
		b.log.Debug().
			Str("gamepad", id).
			Int("type", int(c.Type)).
			Log("unknown joystick event type")
		return nil
	}
}

// normalize maps a raw axis value onto [-1, 1], applying the deadzone.
func normalize(raw int16, deadzone float64) float64 {
	v := max(-1, min(1, float64(raw)/axisMax))
	m := math.Abs(v)
	if m < deadzone {
		return 0
	}
	return math.Copysign((m-deadzone)/(1-deadzone), v)
}

// Gamepads returns the connected gamepads.
func (b *Bus) Gamepads() []Info {
	return b.notifier.gamepads()
}

// Devices returns the device of every gamepad seen so far, in connect order.
func (b *Bus) Devices() []*controls.Device {
	b.mu.RLock()
	defer b.mu.RUnlock()
	devices := make([]*controls.Device, len(b.order))
	for i, p := range b.order {
		devices[i] = p.device
	}
	return devices
}

// Device returns the device of the gamepad id, and whether it is connected.
func (b *Bus) Device(id string) (d *controls.Device, connected bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.pads[id]
	if !ok {
		return nil, false
	}
	return p.device, p.connected
}

// Subscribe starts reading events of the gamepad id, see Options.Manual.
func (b *Bus) Subscribe(id string) error {
	if b.notifier == nil {
		return ErrNotifierNotInitialized
	}
	return b.notifier.subscribe(id)
}

// Unsubscribe stops reading events of the gamepad id.
func (b *Bus) Unsubscribe(id string) error {
	if b.notifier == nil {
		return ErrNotifierNotInitialized
	}
	return b.notifier.unsubscribe(id)
}

// Close stops the bus and its readers, and closes Errors.
func (b *Bus) Close() (err error) {
	b.closed.Do(func() {
		b.cancel()
		<-b.done
		err = b.notifier.stop()
		close(b.errors)
	})
	return err
}
