// RiderLink - trainer-to-gamepad bridge
//
// This is the main entry point for the RiderLink bridge. RiderLink connects
// to up to four Dircon exercise trainers over TCP, decodes their FTMS Indoor
// Bike Data streams, and republishes each trainer's speed as an analog stick
// axis on a virtual game controller.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/riderlink/riderlink-core/internal/discovery"
	"github.com/riderlink/riderlink-core/internal/gamepad"
	"github.com/riderlink/riderlink-core/internal/infrastructure/config"
	"github.com/riderlink/riderlink-core/internal/infrastructure/logging"
	"github.com/riderlink/riderlink-core/internal/infrastructure/mqtt"
	"github.com/riderlink/riderlink-core/internal/status"
	"github.com/riderlink/riderlink-core/internal/trainer"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting RiderLink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// mDNS resolver (optional)
	var resolver *discovery.Resolver
	if cfg.Discovery.Enabled {
		resolver = discovery.NewResolver(cfg.Discovery.Service, cfg.Discovery.Domain, cfg.GetDiscoveryTimeout())
		resolver.SetLogger(log.With("component", "discovery"))
		log.Info("discovery enabled", "service", cfg.Discovery.Service)
	}

	// Build one session per configured slot
	sessions, err := buildSessions(cfg, resolver)
	if err != nil {
		return fmt.Errorf("building sessions: %w", err)
	}
	supervisor := trainer.NewSupervisor(sessions)
	supervisor.SetLogger(log.With("component", "trainer"))
	log.Info("sessions configured", "slots", len(sessions))

	// Connect the virtual-controller sink. An unreachable sink is an
	// unrecoverable startup failure (non-zero exit).
	sink := gamepad.NewLogSink(log.With("component", "sink"))
	if err := sink.Connect(); err != nil {
		return fmt.Errorf("connecting sink: %w", err)
	}
	defer func() {
		log.Info("disconnecting sink")
		sink.Disconnect()
	}()

	// Axis mapper and publisher
	mapper := gamepad.NewMapper(gamepad.MapperConfig{
		MaxSpeed:    cfg.Mapping.MaxSpeedKPH,
		Freshness:   cfg.GetFreshness(),
		Assignments: buildAssignments(cfg),
	})
	publisher := gamepad.NewPublisher(supervisor, mapper, sink, gamepad.PublisherConfig{
		Interval:         cfg.GetPublishInterval(),
		FailureThreshold: cfg.Publisher.FailureThreshold,
	})
	publisher.SetLogger(log.With("component", "publisher"))

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		// Status reporter: per-slot status on every transition plus a
		// periodic heartbeat, and resistance command routing.
		reporter := status.NewReporter(mqttClient, supervisor, byte(cfg.MQTT.QoS), cfg.GetStatusInterval())
		reporter.SetLogger(log.With("component", "status"))
		if err := reporter.Start(); err != nil {
			return fmt.Errorf("starting status reporter: %w", err)
		}
		for _, sess := range sessions {
			sess.SetOnTransition(reporter.PublishSlot)
		}
		go reporter.Run(ctx)
	} else {
		log.Info("MQTT disabled")
	}

	// Start the session supervisor
	supervisor.Start(ctx)
	defer func() {
		log.Info("stopping sessions")
		supervisor.Stop()
	}()

	// Run the publisher; a sustained sink failure ends the process
	pubErr := make(chan error, 1)
	go func() {
		pubErr <- publisher.Run(ctx)
	}()

	log.Info("initialisation complete, bridging")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
		if err := <-pubErr; err != nil {
			return fmt.Errorf("publisher: %w", err)
		}
	case err := <-pubErr:
		if err != nil {
			return fmt.Errorf("publisher: %w", err)
		}
	}

	log.Info("RiderLink stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RIDERLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RIDERLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildSessions creates one trainer session per configured slot.
//
// Parameters:
//   - cfg: Application configuration
//   - resolver: mDNS resolver (nil when discovery is disabled)
//
// Returns:
//   - []*trainer.Session: One session per slot entry
//   - error: If a slot names an instance but discovery is disabled
func buildSessions(cfg *config.Config, resolver *discovery.Resolver) ([]*trainer.Session, error) {
	tcpCfg := trainer.TCPConfig{
		ConnectTimeout: cfg.GetConnectTimeout(),
		ReadTimeout:    cfg.GetReadTimeout(),
		WriteTimeout:   cfg.GetWriteTimeout(),
	}
	sessionCfg := trainer.SessionConfig{
		BackoffInitial:    cfg.GetBackoffInitial(),
		BackoffMax:        cfg.GetBackoffMax(),
		BackoffResetAfter: cfg.GetBackoffResetAfter(),
	}

	sessions := make([]*trainer.Session, 0, len(cfg.Slots))
	for _, sc := range cfg.Slots {
		var endpoint trainer.EndpointResolver
		switch {
		case sc.Address != "":
			endpoint = trainer.StaticEndpoint(sc.Address)
		case resolver != nil:
			endpoint = resolver.Endpoint(sc.Instance)
		default:
			return nil, fmt.Errorf("slot %d: %w", sc.Slot, trainer.ErrNoEndpoint)
		}

		transport := trainer.NewTCPTransport(endpoint, tcpCfg)
		sessions = append(sessions, trainer.NewSession(trainer.Slot(sc.Slot), transport, sessionCfg))
	}
	return sessions, nil
}

// buildAssignments translates the config axis table into mapper assignments.
// Slots not listed keep their default slot-i-drives-axis-i binding.
func buildAssignments(cfg *config.Config) [trainer.NumSlots]gamepad.Assignment {
	assignments := gamepad.DefaultAssignments()
	for _, ac := range cfg.Mapping.Axes {
		if ac.Slot < 0 || ac.Slot >= trainer.NumSlots {
			continue
		}
		assignments[ac.Slot] = gamepad.Assignment{
			Axis: axisFromName(ac.Axis),
			Mode: modeFromName(ac.Mode),
		}
	}
	return assignments
}

// axisFromName maps a config axis name to its gamepad axis.
// Validation happens in config.Validate; unknown names fall back to leftX.
func axisFromName(name string) gamepad.Axis {
	switch name {
	case "left_y":
		return gamepad.AxisLeftY
	case "right_x":
		return gamepad.AxisRightX
	case "right_y":
		return gamepad.AxisRightY
	default:
		return gamepad.AxisLeftX
	}
}

// modeFromName maps a config mode name to its mapper mode.
func modeFromName(name string) gamepad.Mode {
	if name == "bipolar" {
		return gamepad.ModeBipolar
	}
	return gamepad.ModeUnipolar
}
