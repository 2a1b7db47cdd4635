package gamepad

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	controls "github.com/doingharm/go-control-bus"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu         sync.Mutex
	events     chan<- *Event
	errs       chan<- error
	pads       []Info
	subscribed map[string]bool
	stopped    bool
}

func (f *fakeNotifier) open(_ context.Context, events chan<- *Event, errs chan<- error, _ *logiface.Logger[logiface.Event]) (notify, error) {
	f.events, f.errs = events, errs
	f.subscribed = make(map[string]bool)
	return f, nil
}

func (f *fakeNotifier) stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeNotifier) gamepads() []Info {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Info(nil), f.pads...)
}

func (f *fakeNotifier) subscribe(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribed[id] {
		return ErrAlreadySubscribed
	}
	f.subscribed[id] = true
	return nil
}

func (f *fakeNotifier) unsubscribe(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.subscribed[id] {
		return ErrAlreadyUnsubscribed
	}
	delete(f.subscribed, id)
	return nil
}

func (f *fakeNotifier) isSubscribed(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscribed[id]
}

// ticks is a clock advancing one millisecond per read.
func ticks() func() int64 {
	var now int64
	return func() int64 {
		now++
		return now
	}
}

func newTestBus(t *testing.T, options Options) (*Bus, *fakeNotifier) {
	t.Helper()
	if options.Clock == nil {
		options.Clock = ticks()
	}
	f := new(fakeNotifier)
	b, err := newBus(context.Background(), options, f.open)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, f
}

var testPad = Info{ID: "js0", Model: "Test Pad", Buttons: 4, Axes: 3}

func connectEvent(info Info) *Event {
	return &Event{Type: ConnectEventType, ID: info.ID, Data: info}
}

func buttonEvent(id string, index int, value int16) *Event {
	return &Event{Type: ControlEventType, ID: id, Data: ControlEvent{Type: Button, Index: index, Value: value}}
}

func axisEvent(id string, index int, value int16) *Event {
	return &Event{Type: ControlEventType, ID: id, Data: ControlEvent{Type: Axis, Index: index, Value: value}}
}

func pollAll(d *controls.Device) []controls.Record {
	var records []controls.Record
	for {
		e, ok := d.PollEvent()
		if !ok {
			return records
		}
		records = append(records, e.Record())
	}
}

func names(cs []controls.Control) []string {
	s := make([]string, len(cs))
	for i, c := range cs {
		s[i] = c.Name()
	}
	return s
}

func TestBus_connectCreatesDevice(t *testing.T) {
	var added []*controls.Device
	b, f := newTestBus(t, Options{
		Sticks:   [][2]int{{0, 1}},
		OnDevice: func(d *controls.Device) error { added = append(added, d); return nil },
	})
	require.NoError(t, b.handle(connectEvent(testPad)))

	d, connected := b.Device("js0")
	require.NotNil(t, d)
	assert.True(t, connected)
	assert.Equal(t, []*controls.Device{d}, added)
	assert.Equal(t, []*controls.Device{d}, b.Devices())
	assert.True(t, f.isSubscribed("js0"))
	assert.Equal(t, []string{"button 0", "button 1", "button 2", "button 3", "stick 0", "axis 2"}, names(d.Controls()))
}

func TestBus_manualSubscription(t *testing.T) {
	b, f := newTestBus(t, Options{Manual: true})
	require.NoError(t, b.handle(connectEvent(testPad)))
	assert.False(t, f.isSubscribed("js0"))

	require.NoError(t, b.Subscribe("js0"))
	assert.True(t, f.isSubscribed("js0"))
	require.NoError(t, b.Unsubscribe("js0"))
	assert.False(t, f.isSubscribed("js0"))
}

func TestBus_buttons(t *testing.T) {
	b, _ := newTestBus(t, Options{})
	require.NoError(t, b.handle(connectEvent(testPad)))
	d, _ := b.Device("js0")

	initial := buttonEvent("js0", 1, 0)
	initial.Data = ControlEvent{Type: Button | InitialState, Index: 1}
	for _, e := range []*Event{
		initial,
		buttonEvent("js0", 1, 1),
		buttonEvent("js0", 1, 1),
		buttonEvent("js0", 2, 1),
		buttonEvent("js0", 1, 0),
	} {
		require.NoError(t, b.handle(e))
	}

	records := pollAll(d)
	require.Len(t, records, 3)
	assert.Equal(t, "button 1", records[0].Control)
	assert.Equal(t, controls.Press, records[0].Transition)
	assert.Equal(t, controls.GamepadButton(2), records[1].Code)
	assert.Equal(t, controls.Release, records[2].Transition)

	button, ok := d.BooleanControl(controls.GamepadButton(2))
	require.True(t, ok)
	assert.True(t, button.Pressed())
}

func TestBus_buttonOverflow(t *testing.T) {
	t.Run("grow", func(t *testing.T) {
		b, _ := newTestBus(t, Options{Buttons: 2})
		require.NoError(t, b.handle(connectEvent(testPad)))
		require.NoError(t, b.handle(buttonEvent("js0", 5, 1)))
		d, _ := b.Device("js0")
		assert.Equal(t, []string{"button 0", "button 1", "axis 0", "axis 1", "axis 2", "button 5"}, names(d.Controls()))
		assert.Equal(t, 1, d.EventQueueSize())
	})
	t.Run("drop", func(t *testing.T) {
		b, _ := newTestBus(t, Options{Buttons: 2, Overflow: controls.OverflowDrop})
		require.NoError(t, b.handle(connectEvent(testPad)))
		require.NoError(t, b.handle(buttonEvent("js0", 5, 1)))
		d, _ := b.Device("js0")
		assert.Equal(t, 0, d.EventQueueSize())
	})
	t.Run("error", func(t *testing.T) {
		b, _ := newTestBus(t, Options{Buttons: 2, Overflow: controls.OverflowError})
		require.NoError(t, b.handle(connectEvent(testPad)))
		err := b.handle(buttonEvent("js0", 5, 1))
		assert.ErrorIs(t, err, controls.ErrButtonOutOfRange)
	})
}

func TestBus_axes(t *testing.T) {
	b, _ := newTestBus(t, Options{Sticks: [][2]int{{0, 1}}, Deadzone: 0.1})
	require.NoError(t, b.handle(connectEvent(testPad)))
	d, _ := b.Device("js0")

	for _, e := range []*Event{
		axisEvent("js0", 0, axisMax),
		axisEvent("js0", 1, -axisMax),
		// inside the deadzone, twice
		axisEvent("js0", 2, 1000),
		axisEvent("js0", 2, -1000),
		// reported late, gets its own control
		axisEvent("js0", 7, math.MinInt16),
	} {
		require.NoError(t, b.handle(e))
	}

	records := pollAll(d)
	require.Len(t, records, 4)

	assert.Equal(t, "stick 0", records[0].Control)
	assert.Equal(t, 1.0, records[0].New[0])
	assert.True(t, controls.IsUnset(records[0].New[1]))

	assert.Equal(t, "stick 0", records[1].Control)
	assert.Equal(t, []float64{1, -1}, records[1].New)
	assert.Equal(t, 1.0, records[1].Old[0])

	assert.Equal(t, "axis 2", records[2].Control)
	assert.Equal(t, []float64{0}, records[2].New)

	assert.Equal(t, "axis 7", records[3].Control)
	assert.Equal(t, []float64{-1}, records[3].New)

	stick, ok := d.AnalogControl("stick 0")
	require.True(t, ok)
	assert.Equal(t, []float64{1, -1}, stick.Coords())
}

func TestBus_disconnectReleasesHeldButtons(t *testing.T) {
	var added int
	b, f := newTestBus(t, Options{
		OnDevice: func(*controls.Device) error { added++; return nil },
	})
	require.NoError(t, b.handle(connectEvent(testPad)))
	require.NoError(t, b.handle(buttonEvent("js0", 3, 1)))
	require.NoError(t, b.handle(buttonEvent("js0", 0, 1)))
	require.NoError(t, b.handle(&Event{Type: DisconnectEventType, ID: "js0"}))

	d, connected := b.Device("js0")
	assert.False(t, connected)
	records := pollAll(d)
	require.Len(t, records, 4)
	assert.Equal(t, controls.GamepadButton(0), records[2].Code)
	assert.Equal(t, controls.Release, records[2].Transition)
	assert.Equal(t, controls.GamepadButton(3), records[3].Code)
	assert.Equal(t, controls.Release, records[3].Transition)

	// the notifier drops its subscription on unplug
	require.NoError(t, f.unsubscribe("js0"))
	require.NoError(t, b.handle(connectEvent(testPad)))
	again, connected := b.Device("js0")
	assert.True(t, connected)
	assert.Same(t, d, again)
	assert.Equal(t, 1, added)
	assert.Len(t, b.Devices(), 1)
}

func TestBus_filters(t *testing.T) {
	b, _ := newTestBus(t, Options{Filters: []FilterFunc{ButtonsOnly, SkipInitialState}})
	require.NoError(t, b.handle(connectEvent(testPad)))
	d, _ := b.Device("js0")

	initialPress := buttonEvent("js0", 0, 1)
	initialPress.Data = ControlEvent{Type: Button | InitialState, Index: 0, Value: 1}
	require.NoError(t, b.handle(initialPress))
	require.NoError(t, b.handle(axisEvent("js0", 0, 100)))
	require.NoError(t, b.handle(buttonEvent("js0", 1, 1)))

	records := pollAll(d)
	require.Len(t, records, 1)
	assert.Equal(t, controls.GamepadButton(1), records[0].Code)
}

func TestBus_onDeviceError(t *testing.T) {
	refused := errors.New("refused")
	b, f := newTestBus(t, Options{
		OnDevice: func(*controls.Device) error { return refused },
	})
	assert.ErrorIs(t, b.handle(connectEvent(testPad)), refused)
	d, _ := b.Device("js0")
	assert.Nil(t, d)
	assert.False(t, f.isSubscribed("js0"))
}

func TestBus_unknownGamepad(t *testing.T) {
	b, _ := newTestBus(t, Options{})
	assert.NoError(t, b.handle(buttonEvent("js9", 0, 1)))
	assert.Empty(t, b.Devices())
}

func TestBus_runLoop(t *testing.T) {
	b, f := newTestBus(t, Options{})
	f.events <- connectEvent(testPad)
	f.events <- buttonEvent("js0", 0, 1)
	f.errs <- errors.New("boom")

	err := <-b.Errors()
	assert.EqualError(t, err, "boom")
	d, _ := b.Device("js0")
	require.NotNil(t, d)
	assert.Eventually(t, func() bool { return d.EventQueueSize() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, b.Close())
	_, open := <-b.Errors()
	assert.False(t, open)
	assert.True(t, f.stopped)
	require.NoError(t, b.Close())
}

func TestNew_invalidOptions(t *testing.T) {
	for name, options := range map[string]Options{
		"negative buttons":  {Buttons: -1},
		"negative deadzone": {Deadzone: -0.1},
		"full deadzone":     {Deadzone: 1},
		"shared axis":       {Sticks: [][2]int{{0, 1}, {1, 2}}},
		"same axis":         {Sticks: [][2]int{{3, 3}}},
		"negative axis":     {Sticks: [][2]int{{-1, 0}}},
	} {
		t.Run(name, func(t *testing.T) {
			f := new(fakeNotifier)
			_, err := newBus(context.Background(), options, f.open)
			assert.Error(t, err)
		})
	}
}

func TestNormalize(t *testing.T) {
	for _, tc := range []struct {
		raw      int16
		deadzone float64
		want     float64
	}{
		{0, 0, 0},
		{axisMax, 0, 1},
		{-axisMax, 0, -1},
		{math.MinInt16, 0, -1},
		{axisMax / 2, 0.5, 0},
		{axisMax, 0.5, 1},
		{-axisMax, 0.5, -1},
	} {
		assert.InDelta(t, tc.want, normalize(tc.raw, tc.deadzone), 1e-9, "%d %v", tc.raw, tc.deadzone)
	}
	// halfway through the live range
	assert.InDelta(t, 0.5, normalize(24575, 0.5), 1e-4)
}
