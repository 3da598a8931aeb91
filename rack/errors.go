package rack

import "errors"

// Sentinel errors. Callers match them with errors.Is.
var (
	ErrUnitNotFound    = errors.New("rack: unit not found")
	ErrFixedUnit       = errors.New("rack: input and output units are fixed")
	ErrIndexOutOfRange = errors.New("rack: index out of range")
	ErrUnitExists      = errors.New("rack: unit already in rack")
	ErrForeignUnit     = errors.New("rack: unit belongs to another rack")
	ErrUnknownUnit     = errors.New("rack: unknown unit kind")
	ErrMissingHandler  = errors.New("rack: knob has no handler")
	ErrNoInput         = errors.New("rack: no input connected")
	ErrNoCaptureDevice = errors.New("rack: no capture device")
	ErrNoImpulses      = errors.New("rack: no impulse responses available")
	ErrNotActive       = errors.New("rack: reverb not active yet")
	ErrClosed          = errors.New("rack: closed")
)
