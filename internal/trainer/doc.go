// Package trainer manages the streaming connections to smart trainers.
//
// Each configured slot (0-3) gets one Session owning one transport
// connection. A session runs a fixed lifecycle:
//
//	Disconnected → Connecting → Handshaking → Streaming → Faulted → (backoff) → Connecting
//
// The handshake takes control of the fitness machine and subscribes to
// Indoor Bike Data notifications; the streaming loop decodes each delimited
// Dircon message and overwrites the slot's latest-sample cell. Faults never
// stop a session: every failure leads back to Connecting after an
// exponential backoff, until the supervisor shuts the session down.
//
// The Supervisor runs all sessions concurrently and exposes a consistent,
// non-blocking read surface (Snapshot, Status). Slot failures are fully
// isolated: a trainer dropping off the network never affects another slot.
//
// # Thread Safety
//
// All exported types are safe for concurrent use. Only a slot's own session
// writes its state and latest-sample cell; everything else reads.
package trainer
