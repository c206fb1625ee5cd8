package trainer

import "errors"

// Domain errors for the trainer package. Each maps to one session fault
// class; errors.Is distinguishes them in status reporting and tests.
var (
	// ErrConnectFailed is returned when the transport endpoint is
	// unreachable or endpoint resolution fails.
	ErrConnectFailed = errors.New("trainer: connect failed")

	// ErrHandshakeFailed is returned when control takeover or the
	// notification subscription is refused or times out.
	ErrHandshakeFailed = errors.New("trainer: handshake failed")

	// ErrTimeout is returned when a streaming connection goes silent for
	// longer than the read timeout.
	ErrTimeout = errors.New("trainer: read timed out")

	// ErrConnectionClosed is returned when the peer closes or resets the
	// connection.
	ErrConnectionClosed = errors.New("trainer: connection closed by peer")

	// ErrProtocolDesync is returned when framing is lost (oversized or
	// malformed length field). The connection cannot be recovered and must
	// be re-established.
	ErrProtocolDesync = errors.New("trainer: protocol desync")

	// ErrNotStreaming is returned when a control write is attempted on a
	// session that has no live streaming connection.
	ErrNotStreaming = errors.New("trainer: session not streaming")

	// ErrNoEndpoint is returned when a slot has neither a static address
	// nor a resolvable instance name.
	ErrNoEndpoint = errors.New("trainer: no endpoint configured")
)
