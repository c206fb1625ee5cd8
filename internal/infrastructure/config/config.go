package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for RiderLink.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Slots     []SlotConfig    `yaml:"slots"`
	Transport TransportConfig `yaml:"transport"`
	Backoff   BackoffConfig   `yaml:"backoff"`
	Mapping   MappingConfig   `yaml:"mapping"`
	Publisher PublisherConfig `yaml:"publisher"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SlotConfig binds one trainer to one logical slot (0-3).
//
// Exactly one of Address or Instance must be set: Address pins a static
// endpoint, Instance names an mDNS service instance resolved at connect time.
type SlotConfig struct {
	Slot     int    `yaml:"slot"`
	Address  string `yaml:"address,omitempty"`
	Instance string `yaml:"instance,omitempty"`
}

// TransportConfig contains per-connection timeout settings (in seconds).
type TransportConfig struct {
	ConnectTimeout int `yaml:"connect_timeout"`
	ReadTimeout    int `yaml:"read_timeout"`
	WriteTimeout   int `yaml:"write_timeout"`
}

// BackoffConfig contains session retry settings (in seconds).
type BackoffConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	ResetAfter   int `yaml:"reset_after"`
}

// MappingConfig contains speed-to-axis settings.
type MappingConfig struct {
	// MaxSpeedKPH is the speed mapped to full axis deflection.
	MaxSpeedKPH float64 `yaml:"max_speed_kph"`

	// FreshnessMS is the maximum sample age in milliseconds before a slot
	// reads neutral.
	FreshnessMS int `yaml:"freshness_ms"`

	// Axes overrides the default slot-to-axis table. Slots not listed
	// keep their default assignment.
	Axes []AxisConfig `yaml:"axes,omitempty"`
}

// AxisConfig assigns one slot to one controller axis.
type AxisConfig struct {
	Slot int    `yaml:"slot"`
	Axis string `yaml:"axis"` // left_x, left_y, right_x, right_y
	Mode string `yaml:"mode"` // unipolar (default), bipolar
}

// PublisherConfig contains axis publish settings.
type PublisherConfig struct {
	// IntervalMS is the publish cadence in milliseconds.
	IntervalMS int `yaml:"interval_ms"`

	// FailureThreshold is how many consecutive sink failures are fatal.
	FailureThreshold int `yaml:"failure_threshold"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// StatusInterval is how often (in seconds) per-slot status is
	// republished even without a state change.
	StatusInterval int `yaml:"status_interval"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (in seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// DiscoveryConfig contains mDNS resolution settings.
type DiscoveryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
	Domain  string `yaml:"domain"`
	Timeout int    `yaml:"timeout"` // seconds
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: RIDERLINK_SECTION_KEY
// For example: RIDERLINK_MQTT_HOST, RIDERLINK_LOG_LEVEL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Transport: TransportConfig{
			ConnectTimeout: 10,
			ReadTimeout:    5,
			WriteTimeout:   5,
		},
		Backoff: BackoffConfig{
			InitialDelay: 1,
			MaxDelay:     30,
			ResetAfter:   30,
		},
		Mapping: MappingConfig{
			MaxSpeedKPH: 40.0,
			FreshnessMS: 3000,
		},
		Publisher: PublisherConfig{
			IntervalMS:       50,
			FailureThreshold: 50,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "riderlink-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			StatusInterval: 10,
		},
		Discovery: DiscoveryConfig{
			Service: "_wahoo-fitness-tnp._tcp",
			Domain:  "local.",
			Timeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: RIDERLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("RIDERLINK_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("RIDERLINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("RIDERLINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Logging
	if v := os.Getenv("RIDERLINK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// validAxes are the accepted axis names in mapping.axes.
var validAxes = map[string]bool{
	"left_x": true, "left_y": true, "right_x": true, "right_y": true,
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Slot validation
	if len(c.Slots) == 0 {
		errs = append(errs, "at least one slot is required")
	}
	if len(c.Slots) > 4 {
		errs = append(errs, "at most four slots are supported")
	}
	seen := map[int]bool{}
	for _, slot := range c.Slots {
		if slot.Slot < 0 || slot.Slot > 3 {
			errs = append(errs, fmt.Sprintf("slot %d: index must be 0-3", slot.Slot))
			continue
		}
		if seen[slot.Slot] {
			errs = append(errs, fmt.Sprintf("slot %d: configured more than once", slot.Slot))
		}
		seen[slot.Slot] = true

		switch {
		case slot.Address == "" && slot.Instance == "":
			errs = append(errs, fmt.Sprintf("slot %d: address or instance is required", slot.Slot))
		case slot.Address != "" && slot.Instance != "":
			errs = append(errs, fmt.Sprintf("slot %d: address and instance are mutually exclusive", slot.Slot))
		case slot.Instance != "" && !c.Discovery.Enabled:
			errs = append(errs, fmt.Sprintf("slot %d: instance requires discovery.enabled", slot.Slot))
		}
	}

	// Mapping validation
	if c.Mapping.MaxSpeedKPH <= 0 {
		errs = append(errs, "mapping.max_speed_kph must be positive")
	}
	if c.Mapping.FreshnessMS <= 0 {
		errs = append(errs, "mapping.freshness_ms must be positive")
	}
	for _, axis := range c.Mapping.Axes {
		if axis.Slot < 0 || axis.Slot > 3 {
			errs = append(errs, fmt.Sprintf("mapping.axes: slot %d out of range", axis.Slot))
		}
		if !validAxes[axis.Axis] {
			errs = append(errs, fmt.Sprintf("mapping.axes: unknown axis %q", axis.Axis))
		}
		if axis.Mode != "" && axis.Mode != "unipolar" && axis.Mode != "bipolar" {
			errs = append(errs, fmt.Sprintf("mapping.axes: unknown mode %q", axis.Mode))
		}
	}

	// Publisher validation
	if c.Publisher.IntervalMS < 1 {
		errs = append(errs, "publisher.interval_ms must be at least 1")
	}
	if c.Publisher.FailureThreshold < 1 {
		errs = append(errs, "publisher.failure_threshold must be at least 1")
	}

	// Transport validation
	if c.Transport.ConnectTimeout < 1 || c.Transport.ReadTimeout < 1 || c.Transport.WriteTimeout < 1 {
		errs = append(errs, "transport timeouts must be at least 1 second")
	}

	// Backoff validation
	if c.Backoff.InitialDelay < 1 {
		errs = append(errs, "backoff.initial_delay must be at least 1 second")
	}
	if c.Backoff.MaxDelay < c.Backoff.InitialDelay {
		errs = append(errs, "backoff.max_delay must be at least backoff.initial_delay")
	}

	// MQTT validation
	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
			errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
		}
	}

	// Discovery validation
	if c.Discovery.Enabled && c.Discovery.Service == "" {
		errs = append(errs, "discovery.service is required when discovery is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the transport connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Transport.ConnectTimeout) * time.Second
}

// GetReadTimeout returns the transport read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Transport.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the transport write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Transport.WriteTimeout) * time.Second
}

// GetBackoffInitial returns the initial session retry delay as a Duration.
func (c *Config) GetBackoffInitial() time.Duration {
	return time.Duration(c.Backoff.InitialDelay) * time.Second
}

// GetBackoffMax returns the session retry delay cap as a Duration.
func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.Backoff.MaxDelay) * time.Second
}

// GetBackoffResetAfter returns the healthy-streaming period that resets the
// retry schedule, as a Duration.
func (c *Config) GetBackoffResetAfter() time.Duration {
	return time.Duration(c.Backoff.ResetAfter) * time.Second
}

// GetFreshness returns the sample freshness threshold as a Duration.
func (c *Config) GetFreshness() time.Duration {
	return time.Duration(c.Mapping.FreshnessMS) * time.Millisecond
}

// GetPublishInterval returns the axis publish cadence as a Duration.
func (c *Config) GetPublishInterval() time.Duration {
	return time.Duration(c.Publisher.IntervalMS) * time.Millisecond
}

// GetStatusInterval returns the periodic status republish interval as a
// Duration.
func (c *Config) GetStatusInterval() time.Duration {
	return time.Duration(c.MQTT.StatusInterval) * time.Second
}

// GetDiscoveryTimeout returns the mDNS resolution timeout as a Duration.
func (c *Config) GetDiscoveryTimeout() time.Duration {
	return time.Duration(c.Discovery.Timeout) * time.Second
}
