package trainer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riderlink/riderlink-core/internal/dircon"
)

// Backoff defaults, overridable via SessionConfig.
const (
	defaultBackoffInitial    = 1 * time.Second
	defaultBackoffMax        = 30 * time.Second
	defaultBackoffResetAfter = 30 * time.Second

	// handshakeMaxReads bounds how many stray messages the handshake will
	// skip while waiting for its response.
	handshakeMaxReads = 8
)

// SessionConfig holds the retry parameters for one device session.
type SessionConfig struct {
	// BackoffInitial is the first retry delay after a fault.
	BackoffInitial time.Duration

	// BackoffMax caps the exponential backoff.
	BackoffMax time.Duration

	// BackoffResetAfter resets the backoff to BackoffInitial once a
	// streaming period has lasted at least this long.
	BackoffResetAfter time.Duration
}

// Session owns one transport connection to one trainer slot.
//
// Run drives the session state machine until its context is cancelled.
// Only the session itself mutates its state and latest-sample cell; all
// other components read through Latest and Status.
type Session struct {
	slot      Slot
	transport Transport
	cfg       SessionConfig

	// Lifecycle state, written only by Run's goroutine.
	stateMu sync.RWMutex
	state   State
	reason  string

	// Latest decoded sample; last-writer-wins, torn-read-free.
	latest atomic.Pointer[Sample]

	// Outbound sequence counter and write serialisation. Control writes
	// from other goroutines (resistance commands) share the transport with
	// the handshake.
	writeMu sync.Mutex
	seq     uint8

	// Statistics.
	framesRx     atomic.Uint64
	samples      atomic.Uint64
	drops        atomic.Uint64
	reconnects   atomic.Uint64
	lastActivity atomic.Int64 // unix nanos

	// onTransition is invoked after every state change (optional).
	onTransition func(Status)
	transitionMu sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// NewSession creates a session for the given slot and transport.
// Zero config fields take the package defaults.
func NewSession(slot Slot, transport Transport, cfg SessionConfig) *Session {
	if cfg.BackoffInitial == 0 {
		cfg.BackoffInitial = defaultBackoffInitial
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = defaultBackoffMax
	}
	if cfg.BackoffResetAfter == 0 {
		cfg.BackoffResetAfter = defaultBackoffResetAfter
	}
	return &Session{
		slot:      slot,
		transport: transport,
		cfg:       cfg,
		state:     StateDisconnected,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for this session.
func (s *Session) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

// SetOnTransition registers a callback invoked after every state change.
// The callback runs on the session goroutine and must not block.
func (s *Session) SetOnTransition(fn func(Status)) {
	s.transitionMu.Lock()
	s.onTransition = fn
	s.transitionMu.Unlock()
}

// Slot returns the session's logical position.
func (s *Session) Slot() Slot {
	return s.slot
}

// Latest returns a copy of the newest decoded sample, or nil if the session
// has not decoded one yet. Never blocks the session.
func (s *Session) Latest() *Sample {
	p := s.latest.Load()
	if p == nil {
		return nil
	}
	sample := *p
	return &sample
}

// Status returns a point-in-time view of the session.
func (s *Session) Status() Status {
	s.stateMu.RLock()
	state, reason := s.state, s.reason
	s.stateMu.RUnlock()

	return Status{
		Slot:         s.slot,
		State:        state,
		Reason:       reason,
		Endpoint:     s.transport.Endpoint(),
		Sample:       s.Latest(),
		FramesRx:     s.framesRx.Load(),
		Samples:      s.samples.Load(),
		Drops:        s.drops.Load(),
		Reconnects:   s.reconnects.Load(),
		LastActivity: time.Unix(0, s.lastActivity.Load()),
	}
}

// Run drives the session state machine until ctx is cancelled.
//
// Every fault transitions to Faulted, waits the current backoff, and retries
// from Connecting. A streaming period of at least BackoffResetAfter resets
// the backoff. Run closes the transport and returns when ctx is done.
func (s *Session) Run(ctx context.Context) {
	// Closing the transport on cancellation unblocks a pending read so
	// shutdown completes within one read timeout at worst.
	stop := context.AfterFunc(ctx, func() { _ = s.transport.Close() })
	defer stop()
	defer s.transport.Close()

	backoff := s.cfg.BackoffInitial

	for {
		if ctx.Err() != nil {
			s.setState(StateDisconnected, "")
			return
		}

		s.setState(StateConnecting, "")
		if err := s.transport.Connect(ctx); err != nil {
			if !s.fault(ctx, err, backoff) {
				return
			}
			backoff = nextBackoff(backoff, s.cfg.BackoffMax)
			continue
		}
		s.logInfo("connected", "endpoint", s.transport.Endpoint())

		s.setState(StateHandshaking, "")
		if err := s.handshake(ctx); err != nil {
			s.transport.Close()
			if !s.fault(ctx, err, backoff) {
				return
			}
			backoff = nextBackoff(backoff, s.cfg.BackoffMax)
			continue
		}

		s.setState(StateStreaming, "")
		s.reconnects.Add(1)
		started := time.Now()
		err := s.stream(ctx)
		s.transport.Close()

		if ctx.Err() != nil {
			s.setState(StateDisconnected, "")
			return
		}

		// A healthy streaming period earns a fresh backoff schedule.
		if time.Since(started) >= s.cfg.BackoffResetAfter {
			backoff = s.cfg.BackoffInitial
		}

		if !s.fault(ctx, err, backoff) {
			return
		}
		backoff = nextBackoff(backoff, s.cfg.BackoffMax)
	}
}

// fault records the failure, waits out the backoff, and reports whether the
// session should keep running (false = context cancelled).
func (s *Session) fault(ctx context.Context, err error, backoff time.Duration) bool {
	s.setState(StateFaulted, err.Error())
	s.logWarn("session faulted", "error", err, "backoff", backoff.String())

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		s.setState(StateDisconnected, "")
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff doubles the delay up to the cap.
func nextBackoff(d, limit time.Duration) time.Duration {
	d *= 2
	if d > limit {
		d = limit
	}
	return d
}

// handshake takes control of the fitness machine and subscribes to Indoor
// Bike Data notifications. Any refusal or timeout fails the handshake.
func (s *Session) handshake(ctx context.Context) error {
	takeover := dircon.NewWriteCharacteristicRequest(
		dircon.CharFitnessMachineControlPoint,
		s.nextSeq(),
		dircon.EncodeControlRequest(dircon.OpRequestControl),
	)
	if err := s.request(ctx, takeover, dircon.MsgWriteCharacteristic); err != nil {
		return fmt.Errorf("%w: control takeover: %w", ErrHandshakeFailed, err)
	}

	subscribe := dircon.NewEnableNotificationsRequest(dircon.CharIndoorBikeData, s.nextSeq(), true)
	if err := s.request(ctx, subscribe, dircon.MsgEnableNotifications); err != nil {
		return fmt.Errorf("%w: subscribe: %w", ErrHandshakeFailed, err)
	}

	return nil
}

// request writes a request packet and waits for the matching response,
// skipping any notifications that arrive in between.
func (s *Session) request(ctx context.Context, req dircon.Packet, wantID uint8) error {
	s.writeMu.Lock()
	err := s.transport.WriteMessage(req.Encode())
	s.writeMu.Unlock()
	if err != nil {
		return err
	}

	for i := 0; i < handshakeMaxReads; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg, err := s.transport.ReadMessage()
		if err != nil {
			return err
		}

		pkt, err := dircon.ParsePacket(msg)
		if err != nil {
			// Malformed or unknown messages during handshake are skipped,
			// same as in the streaming loop.
			s.drops.Add(1)
			continue
		}

		if pkt.ID == dircon.MsgError || (pkt.ID == wantID && !pkt.IsSuccess()) {
			return fmt.Errorf("device refused request 0x%02X (response 0x%02X)", wantID, pkt.RespCode)
		}
		if pkt.ID == wantID {
			return nil
		}
		// Unsolicited notification or unrelated response; keep waiting.
	}

	return fmt.Errorf("no response to request 0x%02X after %d messages", wantID, handshakeMaxReads)
}

// stream reads delimited messages until the connection fails, decoding
// notifications into the latest-sample cell. The returned error is the
// fault reason; codec problems are counted and skipped, never fatal.
func (s *Session) stream(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg, err := s.transport.ReadMessage()
		if err != nil {
			return err
		}
		s.framesRx.Add(1)
		s.lastActivity.Store(time.Now().UnixNano())

		pkt, err := dircon.ParsePacket(msg)
		if err != nil {
			if errors.Is(err, dircon.ErrUnknownMessage) {
				s.logDebug("dropping unrecognised message", "error", err)
			} else {
				s.logDebug("dropping malformed message", "error", err)
			}
			s.drops.Add(1)
			continue
		}

		if pkt.ID != dircon.MsgNotification || pkt.UUID != dircon.CharIndoorBikeData {
			continue
		}

		data, err := dircon.DecodeIndoorBikeData(pkt.Data)
		if err != nil {
			s.logDebug("dropping undecodable bike data", "error", err)
			s.drops.Add(1)
			continue
		}

		speed, ok := data.InstantaneousSpeed()
		if !ok {
			// Speed flag unset is valid per FTMS; nothing to publish.
			continue
		}

		s.latest.Store(&Sample{Slot: s.slot, Speed: speed, At: time.Now()})
		s.samples.Add(1)
	}
}

// SetResistance writes a resistance level (1-12) to the trainer's control
// point. Only valid while streaming; the device's acknowledgment arrives on
// the notification stream and is not awaited.
func (s *Session) SetResistance(level int) error {
	s.stateMu.RLock()
	streaming := s.state == StateStreaming
	s.stateMu.RUnlock()
	if !streaming {
		return ErrNotStreaming
	}

	value, err := dircon.EncodeResistanceRequest(level)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	req := dircon.NewWriteCharacteristicRequest(dircon.CharFitnessMachineControlPoint, s.seqLocked(), value)
	if err := s.transport.WriteMessage(req.Encode()); err != nil {
		return fmt.Errorf("resistance write: %w", err)
	}

	s.logInfo("resistance set", "level", level)
	return nil
}

// nextSeq advances the outbound sequence counter.
func (s *Session) nextSeq() uint8 {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.seqLocked()
}

// seqLocked advances the sequence counter; writeMu must be held.
func (s *Session) seqLocked() uint8 {
	s.seq++
	return s.seq
}

// setState records a state transition and notifies the transition callback.
func (s *Session) setState(state State, reason string) {
	s.stateMu.Lock()
	changed := s.state != state || s.reason != reason
	s.state = state
	s.reason = reason
	s.stateMu.Unlock()

	if !changed {
		return
	}
	s.logDebug("state transition", "state", state.String(), "reason", reason)

	s.transitionMu.RLock()
	fn := s.onTransition
	s.transitionMu.RUnlock()
	if fn != nil {
		fn(s.Status())
	}
}

func (s *Session) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

func (s *Session) logDebug(msg string, args ...any) {
	s.getLogger().Debug(msg, append([]any{"slot", s.slot.String()}, args...)...)
}

func (s *Session) logInfo(msg string, args ...any) {
	s.getLogger().Info(msg, append([]any{"slot", s.slot.String()}, args...)...)
}

func (s *Session) logWarn(msg string, args ...any) {
	s.getLogger().Warn(msg, append([]any{"slot", s.slot.String()}, args...)...)
}
