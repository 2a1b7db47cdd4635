package gamepad

import "errors"

var (
	ErrNotifierNotInitialized = errors.New("notifier not initialized")
	ErrOSNotSupported         = errors.New("os is not supported (yet)")
	ErrAlreadySubscribed      = errors.New("gamepad is already subscribed")
	ErrAlreadyUnsubscribed    = errors.New("gamepad is already unsubscribed")
	ErrGamepadNotFound        = errors.New("gamepad was not found")
	ErrInvalidStick           = errors.New("invalid stick axes")
)
