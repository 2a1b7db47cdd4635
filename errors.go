package controls

import "errors"

var (
	ErrInvalidSlot        = errors.New("event does not occupy a live slot of this pool")
	ErrNilControl         = errors.New("nil control")
	ErrForeignControl     = errors.New("control is not owned by this device")
	ErrControlOwned       = errors.New("control is already owned by a device")
	ErrDuplicateControl   = errors.New("control identity is already registered")
	ErrDegreesOfFreedom   = errors.New("invalid degrees of freedom")
	ErrDimension          = errors.New("value vector does not match the control's degrees of freedom")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrNilDevice          = errors.New("nil device")
	ErrDuplicateDevice    = errors.New("device is listed more than once")
	ErrDeviceSynchronized = errors.New("device belongs to another synchronizer")
	ErrLockerConflict     = errors.New("device lock was supplied by the caller and differs from the synchronizer lock")
	ErrButtonOutOfRange   = errors.New("button index out of range")
)
