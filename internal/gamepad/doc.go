// Package gamepad turns trainer speed samples into virtual controller input.
//
// The Mapper is a pure function from a supervisor snapshot to an AxisVector:
// each slot's latest speed is normalised against a configured maximum and
// assigned to one analog axis via a configurable table. Missing or stale
// slots map to neutral 0.0 so a frozen reading is never mistaken for live
// pedalling.
//
// The Publisher recomputes the vector from the current snapshot at a fixed
// cadence and pushes it to a Sink. Publishing is stateless between ticks;
// transient sink errors are logged and skipped, and only a sustained run of
// failures escalates to a fatal error.
//
// The Sink interface is the process boundary: the virtual-controller driver
// lives outside this module. A LogSink ships for development.
package gamepad
