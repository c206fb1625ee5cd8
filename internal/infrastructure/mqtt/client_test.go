package mqtt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/riderlink/riderlink-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "riderlink-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestTopics(t *testing.T) {
	topics := Topics{}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"bridge status", topics.BridgeStatus(), "riderlink/status/bridge"},
		{"slot status", topics.SlotStatus(2), "riderlink/status/slot/2"},
		{"pipeline status", topics.PipelineStatus(), "riderlink/status/pipeline"},
		{"resistance command", topics.SlotResistanceCommand(0), "riderlink/command/0/resistance"},
		{"all resistance commands", topics.AllResistanceCommands(), "riderlink/command/+/resistance"},
		{"all topics", topics.AllTopics(), "riderlink/#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "rider"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("len(Servers) = %d, want 1", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker URL = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != "riderlink-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "rider" {
		t.Errorf("Username = %q, want rider", opts.Username)
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if got := opts.Servers[0].Scheme; got != "ssl" {
		t.Errorf("broker scheme = %q, want ssl", got)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config missing or below minimum version")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, "riderlink-test")

	if !opts.WillEnabled {
		t.Fatal("WillEnabled = false, want true")
	}
	if opts.WillTopic != "riderlink/status/bridge" {
		t.Errorf("WillTopic = %q, want riderlink/status/bridge", opts.WillTopic)
	}
	if !opts.WillRetained {
		t.Error("WillRetained = false, want true")
	}

	var will map[string]any
	if err := json.Unmarshal(opts.WillPayload, &will); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if will["status"] != "offline" {
		t.Errorf("will status = %v, want offline", will["status"])
	}
}

func TestStatusPayloads(t *testing.T) {
	for _, payload := range []string{
		buildOnlinePayload("riderlink-test"),
		buildOfflinePayload("riderlink-test"),
	} {
		var m map[string]any
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			t.Fatalf("payload %q is not JSON: %v", payload, err)
		}
		if m["client_id"] != "riderlink-test" {
			t.Errorf("client_id = %v", m["client_id"])
		}
	}

	if !strings.Contains(buildOnlinePayload("x"), `"status":"online"`) {
		t.Error("online payload missing online status")
	}
	if !strings.Contains(buildOfflinePayload("x"), "graceful_shutdown") {
		t.Error("offline payload missing graceful_shutdown reason")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v, want nil", err)
	}
}
