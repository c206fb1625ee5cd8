package trainer

import (
	"context"
	"fmt"
	"sync"
)

// Supervisor runs the configured device sessions concurrently and exposes a
// consistent, non-blocking read surface over their latest samples and
// states.
//
// Sessions never terminate on their own: each retries forever until the
// supervisor is stopped. A faulted or reconnecting slot never blocks or
// degrades the others.
type Supervisor struct {
	// sessions is indexed by slot; unconfigured slots are nil.
	sessions [NumSlots]*Session

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger Logger
}

// NewSupervisor creates a supervisor over the given sessions. Each session's
// slot determines its index; at most one session per slot.
func NewSupervisor(sessions []*Session) *Supervisor {
	s := &Supervisor{logger: noopLogger{}}
	for _, sess := range sessions {
		if sess == nil || !sess.Slot().Valid() {
			continue
		}
		s.sessions[sess.Slot()] = sess
	}
	return s
}

// SetLogger sets the logger for the supervisor and all its sessions.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
	for _, sess := range s.sessions {
		if sess != nil {
			sess.SetLogger(logger)
		}
	}
}

// Start launches one goroutine per configured session. Sessions run until
// ctx is cancelled or Stop is called.
func (s *Supervisor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	count := 0
	for _, sess := range s.sessions {
		if sess == nil {
			continue
		}
		count++
		s.wg.Add(1)
		go func(sess *Session) {
			defer s.wg.Done()
			sess.Run(ctx)
		}(sess)
	}
	s.logger.Info("supervisor started", "sessions", count)
}

// Stop signals all sessions to shut down and waits for them to close their
// transports and exit. Safe to call multiple times.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.wg.Wait()
		s.logger.Info("supervisor stopped")
	})
}

// Snapshot returns a copy of the latest sample per slot. Slots that never
// produced a sample are absent. Readers never stall session progress.
func (s *Supervisor) Snapshot() map[Slot]Sample {
	snap := make(map[Slot]Sample, NumSlots)
	for slot, sess := range s.sessions {
		if sess == nil {
			continue
		}
		if sample := sess.Latest(); sample != nil {
			snap[Slot(slot)] = *sample
		}
	}
	return snap
}

// Status returns the current status of every configured session, in slot
// order.
func (s *Supervisor) Status() []Status {
	statuses := make([]Status, 0, NumSlots)
	for _, sess := range s.sessions {
		if sess == nil {
			continue
		}
		statuses = append(statuses, sess.Status())
	}
	return statuses
}

// Session returns the session bound to the given slot, if configured.
func (s *Supervisor) Session(slot Slot) (*Session, bool) {
	if !slot.Valid() {
		return nil, false
	}
	sess := s.sessions[slot]
	return sess, sess != nil
}

// SetResistance forwards a resistance command to the slot's session.
func (s *Supervisor) SetResistance(slot Slot, level int) error {
	sess, ok := s.Session(slot)
	if !ok {
		return fmt.Errorf("%w: no session for slot %d", ErrNotStreaming, slot)
	}
	return sess.SetResistance(level)
}
