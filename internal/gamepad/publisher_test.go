package gamepad

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riderlink/riderlink-core/internal/trainer"
)

// fakeSnapshotter serves a fixed snapshot, refreshing timestamps so samples
// never go stale mid-test.
type fakeSnapshotter struct {
	speeds map[trainer.Slot]float64
}

func (f *fakeSnapshotter) Snapshot() map[trainer.Slot]trainer.Sample {
	snap := make(map[trainer.Slot]trainer.Sample, len(f.speeds))
	now := time.Now()
	for slot, speed := range f.speeds {
		snap[slot] = trainer.Sample{Slot: slot, Speed: speed, At: now}
	}
	return snap
}

// fakeSink records updates and fails the first errCount of them.
type fakeSink struct {
	mu       sync.Mutex
	updates  []AxisVector
	errCount int
}

func (s *fakeSink) Connect() error { return nil }
func (s *fakeSink) Disconnect()    {}

func (s *fakeSink) Update(v AxisVector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, v)
	if s.errCount > 0 {
		s.errCount--
		return errors.New("sink rejected update")
	}
	return nil
}

func (s *fakeSink) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

func (s *fakeSink) snapshot() []AxisVector {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AxisVector, len(s.updates))
	copy(out, s.updates)
	return out
}

func waitForUpdates(t *testing.T, sink *fakeSink, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if sink.updateCount() >= n {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("sink saw %d updates, want at least %d", sink.updateCount(), n)
}

func TestPublisherEmitsSteadyVector(t *testing.T) {
	// Slot 0 streams 20 km/h against a 40 km/h max; slots 1-3 never
	// connected. Every tick must carry {0.5, 0, 0, 0}.
	snap := &fakeSnapshotter{speeds: map[trainer.Slot]float64{0: 20.0}}
	sink := &fakeSink{}
	pub := NewPublisher(snap, NewMapper(MapperConfig{MaxSpeed: 40.0}), sink,
		PublisherConfig{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	waitForUpdates(t, sink, 5)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	updates := sink.snapshot()
	want := AxisVector{LeftX: 0.5}
	// The final update is the shutdown re-centre; everything before it is
	// the steady vector.
	for i, v := range updates[:len(updates)-1] {
		if v != want {
			t.Errorf("update #%d = %+v, want %+v", i, v, want)
		}
	}
	if last := updates[len(updates)-1]; last != (AxisVector{}) {
		t.Errorf("final update = %+v, want neutral", last)
	}
}

func TestPublisherSurvivesTransientSinkErrors(t *testing.T) {
	snap := &fakeSnapshotter{speeds: map[trainer.Slot]float64{0: 20.0}}
	sink := &fakeSink{errCount: 3}
	pub := NewPublisher(snap, NewMapper(MapperConfig{MaxSpeed: 40.0}), sink,
		PublisherConfig{Interval: 5 * time.Millisecond, FailureThreshold: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	// Three failures, then successes must keep flowing.
	waitForUpdates(t, sink, 8)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error after transient failures: %v", err)
	}
}

func TestPublisherEscalatesSustainedSinkFailure(t *testing.T) {
	snap := &fakeSnapshotter{speeds: map[trainer.Slot]float64{0: 20.0}}
	sink := &fakeSink{errCount: 1 << 30}
	pub := NewPublisher(snap, NewMapper(MapperConfig{MaxSpeed: 40.0}), sink,
		PublisherConfig{Interval: 2 * time.Millisecond, FailureThreshold: 5})

	done := make(chan error, 1)
	go func() { done <- pub.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSinkUnavailable) {
			t.Errorf("Run() error = %v, want ErrSinkUnavailable", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not escalate sustained sink failure")
	}

	if got := sink.updateCount(); got != 5 {
		t.Errorf("updates before escalation = %d, want 5", got)
	}
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(nil)
	if err := sink.Connect(); err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	// Repeated identical vectors and changed vectors are both accepted.
	for _, v := range []AxisVector{{LeftX: 0.5}, {LeftX: 0.5}, {LeftX: 0.7}, {}} {
		if err := sink.Update(v); err != nil {
			t.Fatalf("Update(%+v) error: %v", v, err)
		}
	}
	sink.Disconnect()
}
