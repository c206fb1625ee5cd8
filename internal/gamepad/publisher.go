package gamepad

import (
	"context"
	"fmt"
	"time"

	"github.com/riderlink/riderlink-core/internal/trainer"
)

// Publisher defaults, overridable via PublisherConfig.
const (
	defaultInterval         = 50 * time.Millisecond
	defaultFailureThreshold = 50
)

// Snapshotter yields the latest sample per slot. Satisfied by
// trainer.Supervisor.
type Snapshotter interface {
	Snapshot() map[trainer.Slot]trainer.Sample
}

// PublisherConfig holds the publish cadence and failure escalation bound.
type PublisherConfig struct {
	// Interval is the time between axis updates.
	Interval time.Duration

	// FailureThreshold is how many consecutive sink failures escalate to
	// a fatal ErrSinkUnavailable. A single success resets the count.
	FailureThreshold int
}

// Publisher pushes the current axis vector to the sink at a fixed cadence.
type Publisher struct {
	snapshotter Snapshotter
	mapper      *Mapper
	sink        Sink
	cfg         PublisherConfig

	logger Logger
}

// NewPublisher creates a publisher. Zero config fields take the package
// defaults.
func NewPublisher(snapshotter Snapshotter, mapper *Mapper, sink Sink, cfg PublisherConfig) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaultFailureThreshold
	}
	return &Publisher{
		snapshotter: snapshotter,
		mapper:      mapper,
		sink:        sink,
		cfg:         cfg,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for this publisher.
func (p *Publisher) SetLogger(logger Logger) {
	p.logger = logger
}

// Run publishes until ctx is cancelled.
//
// Every tick recomputes the vector from the current snapshot, so a slow or
// failed update never accumulates drift. Individual sink errors are logged
// and skipped; FailureThreshold consecutive failures mean the driver is gone
// and Run returns ErrSinkUnavailable. On cancellation a final neutral vector
// re-centres the controller and Run returns nil.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.logger.Info("publisher started", "interval", p.cfg.Interval.String())

	failures := 0
	for {
		select {
		case <-ctx.Done():
			if err := p.sink.Update(AxisVector{}); err != nil {
				p.logger.Debug("neutral update on shutdown failed", "error", err)
			}
			p.logger.Info("publisher stopped")
			return nil

		case <-ticker.C:
			vector := p.mapper.Map(p.snapshotter.Snapshot())
			if err := p.sink.Update(vector); err != nil {
				failures++
				p.logger.Warn("axis update failed",
					"error", err, "consecutive", failures)
				if failures >= p.cfg.FailureThreshold {
					return fmt.Errorf("%w: %d consecutive update failures",
						ErrSinkUnavailable, failures)
				}
				continue
			}
			failures = 0
		}
	}
}
