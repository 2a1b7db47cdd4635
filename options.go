package controls

import (
	"sync"

	"github.com/joeycumines/logiface"
)

// Option configures a Device or a Synchronizer. WithLocker and WithLogger
// apply to both, the rest only to devices and are ignored by synchronizers.
type Option func(c *config)

type config struct {
	locker  sync.Locker
	logger  *logiface.Logger[logiface.Event]
	clock   func() int64
	keyName func(KeyCode) string
	fixed   []Control

	// supplied is set when locker came from WithLocker.
	supplied bool
}

func resolveConfig(options []Option) config {
	var c config
	for _, o := range options {
		if o != nil {
			o(&c)
		}
	}
	c.supplied = c.locker != nil
	if c.locker == nil {
		c.locker = new(sync.Mutex)
	}
	if c.clock == nil {
		c.clock = monotonicMillis
	}
	if c.keyName == nil {
		c.keyName = DefaultKeyName
	}
	return c
}

// WithLocker supplies the lock, instead of a private mutex. Use it to
// serialise event handling with an unrelated critical section. A device
// built with its own lock can only join a synchronizer using that same lock.
func WithLocker(l sync.Locker) Option {
	return func(c *config) {
		c.locker = l
	}
}

// WithLogger attaches a structured logger, nil disables logging.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithClock replaces the millisecond clock returned by Device.Now.
func WithClock(now func() int64) Option {
	return func(c *config) {
		c.clock = now
	}
}

// WithKeyNamer names boolean controls discovered by EnsureControlForKeyCode.
func WithKeyNamer(name func(KeyCode) string) Option {
	return func(c *config) {
		c.keyName = name
	}
}

// WithFixedControls attaches controls that exist for the device's lifetime.
// The controls must not belong to another device.
func WithFixedControls(controls ...Control) Option {
	return func(c *config) {
		c.fixed = append(c.fixed, controls...)
	}
}
