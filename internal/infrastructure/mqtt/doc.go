// Package mqtt provides MQTT client connectivity for RiderLink.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// RiderLink uses MQTT as its observation and control side-channel: session
// status and pipeline statistics are published out, resistance commands come
// in. The axis pipeline itself never depends on the broker; MQTT can be
// disabled entirely in config.
//
//	Trainers ↔ RiderLink ↔ MQTT Broker ↔ Dashboards / automation
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to resistance commands for every slot
//	err = client.Subscribe(mqtt.Topics{}.AllResistanceCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish slot status
//	topic := mqtt.Topics{}.SlotStatus(0)
//	client.Publish(topic, []byte(`{"state":"streaming"}`), 1, true)
package mqtt
