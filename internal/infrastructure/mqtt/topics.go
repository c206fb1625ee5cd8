package mqtt

import "fmt"

// Topic prefixes for the RiderLink MQTT surface.
//
// All topics live under the flat scheme: riderlink/{category}/{...}
const (
	// TopicPrefix is the base for all RiderLink topics.
	TopicPrefix = "riderlink"

	// TopicPrefixStatus is the base for status topics.
	TopicPrefixStatus = "riderlink/status"

	// TopicPrefixCommand is the base for inbound command topics.
	TopicPrefixCommand = "riderlink/command"
)

// Topics provides builders for RiderLink MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	statusTopic := topics.SlotStatus(0)
//	// Returns: "riderlink/status/slot/0"
type Topics struct{}

// BridgeStatus returns the bridge liveness topic. Retained; also the LWT
// target so subscribers see "offline" after a crash.
//
// Example: riderlink/status/bridge
func (Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/bridge", TopicPrefixStatus)
}

// SlotStatus returns the per-slot session status topic.
//
// Example: riderlink/status/slot/0
func (Topics) SlotStatus(slot int) string {
	return fmt.Sprintf("%s/slot/%d", TopicPrefixStatus, slot)
}

// PipelineStatus returns the aggregated pipeline statistics topic.
//
// Example: riderlink/status/pipeline
func (Topics) PipelineStatus() string {
	return fmt.Sprintf("%s/pipeline", TopicPrefixStatus)
}

// SlotResistanceCommand returns the resistance command topic for one slot.
//
// Example: riderlink/command/0/resistance
func (Topics) SlotResistanceCommand(slot int) string {
	return fmt.Sprintf("%s/%d/resistance", TopicPrefixCommand, slot)
}

// AllResistanceCommands returns a pattern matching resistance commands for
// every slot.
//
// Pattern: riderlink/command/+/resistance
func (Topics) AllResistanceCommands() string {
	return fmt.Sprintf("%s/+/resistance", TopicPrefixCommand)
}

// AllTopics returns a pattern matching all RiderLink topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: riderlink/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
