package status

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riderlink/riderlink-core/internal/infrastructure/mqtt"
	"github.com/riderlink/riderlink-core/internal/trainer"
)

// defaultInterval is the periodic republish cadence when none is configured.
const defaultInterval = 10 * time.Second

// Broker is the subset of the MQTT client the reporter needs.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Pipeline is the subset of the session supervisor the reporter needs.
type Pipeline interface {
	Status() []trainer.Status
	SetResistance(slot trainer.Slot, level int) error
}

// Logger is the minimal logging interface this package needs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// slotPayload is the JSON shape published per slot.
type slotPayload struct {
	Slot         int      `json:"slot"`
	State        string   `json:"state"`
	Reason       string   `json:"reason,omitempty"`
	Endpoint     string   `json:"endpoint,omitempty"`
	SpeedKPH     *float64 `json:"speed_kph,omitempty"`
	SampleAgeMS  *int64   `json:"sample_age_ms,omitempty"`
	FramesRx     uint64   `json:"frames_rx"`
	Samples      uint64   `json:"samples"`
	Drops        uint64   `json:"drops"`
	Reconnects   uint64   `json:"reconnects"`
	Timestamp    string   `json:"ts"`
}

// pipelinePayload is the JSON shape published for the whole pipeline.
type pipelinePayload struct {
	SlotsStreaming int    `json:"slots_streaming"`
	SlotsTotal     int    `json:"slots_total"`
	FramesRx       uint64 `json:"frames_rx"`
	Samples        uint64 `json:"samples"`
	Drops          uint64 `json:"drops"`
	Reconnects     uint64 `json:"reconnects"`
	Timestamp      string `json:"ts"`
}

// resistanceCommand is the JSON shape accepted on command topics.
type resistanceCommand struct {
	Level int `json:"level"`
}

// Reporter publishes pipeline state over MQTT and routes inbound commands.
//
// Thread Safety:
//   - PublishSlot may be called from session goroutines (wired as a
//     transition callback) concurrently with Run's periodic ticks.
type Reporter struct {
	broker   Broker
	pipeline Pipeline
	qos      byte
	interval time.Duration
	logger   Logger
}

// NewReporter creates a reporter. A zero interval takes the package default.
func NewReporter(broker Broker, pipeline Pipeline, qos byte, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Reporter{
		broker:   broker,
		pipeline: pipeline,
		qos:      qos,
		interval: interval,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for this reporter.
func (r *Reporter) SetLogger(logger Logger) {
	r.logger = logger
}

// Start subscribes to inbound command topics. Call once before Run.
func (r *Reporter) Start() error {
	topic := mqtt.Topics{}.AllResistanceCommands()
	if err := r.broker.Subscribe(topic, r.qos, r.handleResistance); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	r.logger.Info("status reporter started", "commands", topic)
	return nil
}

// Run republishes all statuses at the configured interval until ctx is
// cancelled. State-change publishes happen independently via PublishSlot.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.publishAll()
		}
	}
}

// PublishSlot publishes one slot's status immediately. Wire this as the
// session transition callback so state changes hit the broker without
// waiting for the next periodic tick.
func (r *Reporter) PublishSlot(st trainer.Status) {
	topic := mqtt.Topics{}.SlotStatus(int(st.Slot))
	payload, err := json.Marshal(buildSlotPayload(st, time.Now()))
	if err != nil {
		r.logger.Error("marshalling slot status", "error", err)
		return
	}
	if err := r.broker.Publish(topic, payload, r.qos, true); err != nil {
		r.logger.Warn("publishing slot status", "topic", topic, "error", err)
	}
}

// publishAll publishes every slot's status plus the pipeline aggregate.
func (r *Reporter) publishAll() {
	statuses := r.pipeline.Status()
	now := time.Now()

	agg := pipelinePayload{
		SlotsTotal: len(statuses),
		Timestamp:  now.UTC().Format(time.RFC3339),
	}
	for _, st := range statuses {
		r.PublishSlot(st)
		if st.State == trainer.StateStreaming {
			agg.SlotsStreaming++
		}
		agg.FramesRx += st.FramesRx
		agg.Samples += st.Samples
		agg.Drops += st.Drops
		agg.Reconnects += st.Reconnects
	}

	payload, err := json.Marshal(agg)
	if err != nil {
		r.logger.Error("marshalling pipeline status", "error", err)
		return
	}
	topic := mqtt.Topics{}.PipelineStatus()
	if err := r.broker.Publish(topic, payload, r.qos, true); err != nil {
		r.logger.Warn("publishing pipeline status", "topic", topic, "error", err)
	}
}

// handleResistance routes one resistance command to its slot's session.
func (r *Reporter) handleResistance(topic string, payload []byte) error {
	slot, err := slotFromCommandTopic(topic)
	if err != nil {
		return err
	}

	var cmd resistanceCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("parsing resistance command on %s: %w", topic, err)
	}

	if err := r.pipeline.SetResistance(slot, cmd.Level); err != nil {
		return fmt.Errorf("applying resistance %d to slot %d: %w", cmd.Level, slot, err)
	}

	r.logger.Info("resistance command applied", "slot", int(slot), "level", cmd.Level)
	return nil
}

// slotFromCommandTopic extracts the slot index from
// riderlink/command/<slot>/resistance.
func slotFromCommandTopic(topic string) (trainer.Slot, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 {
		return 0, fmt.Errorf("unexpected command topic %q", topic)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, fmt.Errorf("unexpected slot in command topic %q: %w", topic, err)
	}
	slot := trainer.Slot(n)
	if !slot.Valid() {
		return 0, fmt.Errorf("slot %d out of range in command topic %q", n, topic)
	}
	return slot, nil
}

// buildSlotPayload converts a session status to its published JSON shape.
func buildSlotPayload(st trainer.Status, now time.Time) slotPayload {
	p := slotPayload{
		Slot:       int(st.Slot),
		State:      st.State.String(),
		Reason:     st.Reason,
		Endpoint:   st.Endpoint,
		FramesRx:   st.FramesRx,
		Samples:    st.Samples,
		Drops:      st.Drops,
		Reconnects: st.Reconnects,
		Timestamp:  now.UTC().Format(time.RFC3339),
	}
	if st.Sample != nil {
		speed := st.Sample.Speed
		age := now.Sub(st.Sample.At).Milliseconds()
		p.SpeedKPH = &speed
		p.SampleAgeMS = &age
	}
	return p
}
