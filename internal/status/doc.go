// Package status publishes session and pipeline state over MQTT and accepts
// resistance commands.
//
// Per-slot status goes out retained on riderlink/status/slot/<n> whenever a
// session changes state and periodically in between, so dashboards see both
// transitions and heartbeats. Aggregated pipeline statistics go out on
// riderlink/status/pipeline.
//
// Inbound, the reporter subscribes to riderlink/command/+/resistance and
// forwards {"level": 1-12} payloads to the matching slot's session.
//
// The reporter is an observer: the axis pipeline runs identically with MQTT
// disabled.
package status
