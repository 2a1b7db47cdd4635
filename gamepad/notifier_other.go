//go:build !linux

package gamepad

import (
	"context"

	"github.com/joeycumines/logiface"
)

func platformNotifier(context.Context, chan<- *Event, chan<- error, *logiface.Logger[logiface.Event]) (notify, error) {
	return nil, ErrOSNotSupported
}
