package dircon

import "errors"

// Domain errors for the Dircon codec package.
var (
	// ErrTruncated is returned when a message or characteristic payload has
	// fewer bytes than its header or flags imply.
	ErrTruncated = errors.New("dircon: truncated message")

	// ErrLengthMismatch is returned when the header's declared payload length
	// does not match the delimited message handed to the codec.
	ErrLengthMismatch = errors.New("dircon: payload length mismatch")

	// ErrUnknownMessage is returned when a message identifier is not
	// recognised. Callers should log and drop the message, not fail.
	ErrUnknownMessage = errors.New("dircon: unknown message identifier")

	// ErrInvalidResistance is returned when a resistance level is outside the
	// supported range.
	ErrInvalidResistance = errors.New("dircon: invalid resistance level")
)
