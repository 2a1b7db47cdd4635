package gamepad

import (
	"context"

	"github.com/joeycumines/logiface"
)

// notify is implemented by the platform notifiers. A notifier reports
// connects, disconnects and, for subscribed gamepads, control events.
type notify interface {
	stop() (err error)
	gamepads() (devices []Info)
	subscribe(id string) (err error)
	unsubscribe(id string) (err error)
}

// notifierFunc starts a notifier. Sends on events and errs must give up once
// ctx is done.
type notifierFunc func(ctx context.Context, events chan<- *Event, errs chan<- error, log *logiface.Logger[logiface.Event]) (notify, error)

// send delivers e unless ctx is done first.
func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case <-ctx.Done():
		return false
	case ch <- v:
		return true
	}
}
