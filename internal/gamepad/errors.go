package gamepad

import "errors"

// Domain errors for the gamepad package.
var (
	// ErrSinkUnavailable is returned when the virtual-controller sink
	// cannot be reached, at connect time or after sustained update
	// failures.
	ErrSinkUnavailable = errors.New("gamepad: sink unavailable")

	// ErrUpdateFailed is returned when the sink rejects a single axis
	// update. Transient; the publisher retries on the next tick.
	ErrUpdateFailed = errors.New("gamepad: axis update failed")
)
