package gamepad

import (
	"testing"
	"time"

	"github.com/riderlink/riderlink-core/internal/trainer"
)

func freshSample(slot trainer.Slot, speed float64, now time.Time) trainer.Sample {
	return trainer.Sample{Slot: slot, Speed: speed, At: now}
}

func TestMapperScaling(t *testing.T) {
	now := time.Now()
	mapper := NewMapper(MapperConfig{MaxSpeed: 40.0})

	tests := []struct {
		name  string
		speed float64
		want  float64
	}{
		{"at rest", 0.0, 0.0},
		{"half of max", 20.0, 0.5},
		{"exactly max", 40.0, 1.0},
		{"above max clamps", 55.0, 1.0},
		{"far above max clamps", 400.0, 1.0},
		{"negative clamps to rest", -3.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := map[trainer.Slot]trainer.Sample{
				0: freshSample(0, tt.speed, now),
			}
			got := mapper.MapAt(snap, now)
			if got.LeftX != tt.want {
				t.Errorf("leftX = %v, want %v", got.LeftX, tt.want)
			}
			if got.LeftY != 0 || got.RightX != 0 || got.RightY != 0 {
				t.Errorf("other axes = %+v, want neutral", got)
			}
		})
	}
}

func TestMapperMissingSlotIsNeutral(t *testing.T) {
	now := time.Now()
	mapper := NewMapper(MapperConfig{MaxSpeed: 40.0})

	// Slot 2 streamed earlier but is absent from this snapshot; its axis
	// must read neutral, not the last historical value.
	snap := map[trainer.Slot]trainer.Sample{
		0: freshSample(0, 20.0, now),
		1: freshSample(1, 40.0, now),
		3: freshSample(3, 10.0, now),
	}

	got := mapper.MapAt(snap, now)
	want := AxisVector{LeftX: 0.5, LeftY: 1.0, RightX: 0.0, RightY: 0.25}
	if got != want {
		t.Errorf("MapAt() = %+v, want %+v", got, want)
	}
}

func TestMapperStaleSampleDecaysToNeutral(t *testing.T) {
	now := time.Now()
	mapper := NewMapper(MapperConfig{MaxSpeed: 40.0, Freshness: 3 * time.Second})

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"fresh", time.Second, 0.5},
		{"at threshold", 3 * time.Second, 0.5},
		{"just past threshold", 3*time.Second + time.Millisecond, 0.0},
		{"long stale", time.Minute, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := map[trainer.Slot]trainer.Sample{
				0: freshSample(0, 20.0, now.Add(-tt.age)),
			}
			if got := mapper.MapAt(snap, now).LeftX; got != tt.want {
				t.Errorf("leftX at age %v = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestMapperBipolarMode(t *testing.T) {
	now := time.Now()
	assignments := DefaultAssignments()
	assignments[0].Mode = ModeBipolar
	mapper := NewMapper(MapperConfig{MaxSpeed: 40.0, Assignments: assignments})

	tests := []struct {
		speed float64
		want  float64
	}{
		{0.0, -1.0},
		{10.0, -0.5},
		{20.0, 0.0},
		{40.0, 1.0},
		{60.0, 1.0},
	}

	for _, tt := range tests {
		snap := map[trainer.Slot]trainer.Sample{0: freshSample(0, tt.speed, now)}
		if got := mapper.MapAt(snap, now).LeftX; got != tt.want {
			t.Errorf("bipolar leftX at %v km/h = %v, want %v", tt.speed, got, tt.want)
		}
	}

	// A missing slot is neutral 0.0 even in bipolar mode.
	if got := mapper.MapAt(nil, now).LeftX; got != 0.0 {
		t.Errorf("bipolar leftX for missing slot = %v, want 0", got)
	}
}

func TestMapperCustomAssignments(t *testing.T) {
	now := time.Now()
	mapper := NewMapper(MapperConfig{
		MaxSpeed: 40.0,
		Assignments: [trainer.NumSlots]Assignment{
			{Axis: AxisRightY},
			{Axis: AxisRightX},
			{Axis: AxisLeftY},
			{Axis: AxisLeftX},
		},
	})

	snap := map[trainer.Slot]trainer.Sample{
		0: freshSample(0, 40.0, now),
		3: freshSample(3, 20.0, now),
	}

	got := mapper.MapAt(snap, now)
	want := AxisVector{LeftX: 0.5, RightY: 1.0}
	if got != want {
		t.Errorf("MapAt() = %+v, want %+v", got, want)
	}
}

func TestMapperDefaults(t *testing.T) {
	mapper := NewMapper(MapperConfig{})
	now := time.Now()

	// Package defaults: 40 km/h full deflection, slot i drives axis i.
	snap := map[trainer.Slot]trainer.Sample{
		2: freshSample(2, 20.0, now),
	}
	if got := mapper.MapAt(snap, now).RightX; got != 0.5 {
		t.Errorf("rightX = %v, want 0.5", got)
	}
}

func TestAxisString(t *testing.T) {
	tests := []struct {
		axis Axis
		want string
	}{
		{AxisLeftX, "left_x"},
		{AxisLeftY, "left_y"},
		{AxisRightX, "right_x"},
		{AxisRightY, "right_y"},
		{Axis(7), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.axis.String(); got != tt.want {
			t.Errorf("Axis(%d).String() = %q, want %q", tt.axis, got, tt.want)
		}
	}
}
