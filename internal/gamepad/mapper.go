package gamepad

import (
	"time"

	"github.com/riderlink/riderlink-core/internal/trainer"
)

// Mapper defaults, overridable via MapperConfig.
const (
	// defaultMaxSpeed is the speed in km/h that maps to full axis
	// deflection.
	defaultMaxSpeed = 40.0

	// defaultFreshness is how old a sample may be before its slot decays
	// to neutral. Trainers notify several times per second, so three
	// seconds of silence means the reading is stale.
	defaultFreshness = 3 * time.Second
)

// Axis names one analog-stick dimension.
type Axis int

const (
	AxisLeftX Axis = iota
	AxisLeftY
	AxisRightX
	AxisRightY
)

// String returns the config-file spelling of the axis.
func (a Axis) String() string {
	switch a {
	case AxisLeftX:
		return "left_x"
	case AxisLeftY:
		return "left_y"
	case AxisRightX:
		return "right_x"
	case AxisRightY:
		return "right_y"
	default:
		return "unknown"
	}
}

// Mode selects how normalised speed maps onto the axis range.
type Mode int

const (
	// ModeUnipolar maps rest to 0.0 and max speed to +1.0.
	ModeUnipolar Mode = iota

	// ModeBipolar maps rest to -1.0 and max speed to +1.0, for games that
	// treat the stick's low end as "stopped". Missing and stale slots
	// still report neutral 0.0.
	ModeBipolar
)

// Assignment binds one trainer slot to one axis.
type Assignment struct {
	Axis Axis
	Mode Mode
}

// MapperConfig holds the speed-to-axis parameters.
type MapperConfig struct {
	// MaxSpeed is the km/h value normalised to full deflection.
	MaxSpeed float64

	// Freshness is the maximum sample age before a slot reads neutral.
	Freshness time.Duration

	// Assignments maps each slot to its axis. The zero value assigns
	// slot 0 to leftX, 1 to leftY, 2 to rightX, 3 to rightY, all
	// unipolar; NewMapper applies that default when every entry is the
	// leftX/unipolar zero value.
	Assignments [trainer.NumSlots]Assignment
}

// DefaultAssignments returns the slot-to-axis table used when none is
// configured: slot index i drives axis i, unipolar.
func DefaultAssignments() [trainer.NumSlots]Assignment {
	return [trainer.NumSlots]Assignment{
		{Axis: AxisLeftX}, {Axis: AxisLeftY}, {Axis: AxisRightX}, {Axis: AxisRightY},
	}
}

// Mapper converts supervisor snapshots into axis vectors.
type Mapper struct {
	cfg MapperConfig
}

// NewMapper creates a mapper. Zero config fields take the package defaults.
func NewMapper(cfg MapperConfig) *Mapper {
	if cfg.MaxSpeed <= 0 {
		cfg.MaxSpeed = defaultMaxSpeed
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = defaultFreshness
	}
	if cfg.Assignments == ([trainer.NumSlots]Assignment{}) {
		cfg.Assignments = DefaultAssignments()
	}
	return &Mapper{cfg: cfg}
}

// Map converts the snapshot to an axis vector as of now.
func (m *Mapper) Map(snapshot map[trainer.Slot]trainer.Sample) AxisVector {
	return m.MapAt(snapshot, time.Now())
}

// MapAt converts the snapshot to an axis vector as of the given instant.
//
// Each present, fresh sample is normalised against MaxSpeed, clamped, and
// written to its assigned axis. Slots that are absent from the snapshot or
// whose sample is older than Freshness contribute neutral 0.0.
func (m *Mapper) MapAt(snapshot map[trainer.Slot]trainer.Sample, now time.Time) AxisVector {
	var v AxisVector
	for slot := trainer.Slot(0); slot < trainer.NumSlots; slot++ {
		sample, ok := snapshot[slot]
		if !ok || now.Sub(sample.At) > m.cfg.Freshness {
			continue
		}

		a := m.cfg.Assignments[slot]
		value := scale(sample.Speed, m.cfg.MaxSpeed, a.Mode)
		switch a.Axis {
		case AxisLeftX:
			v.LeftX = value
		case AxisLeftY:
			v.LeftY = value
		case AxisRightX:
			v.RightX = value
		case AxisRightY:
			v.RightY = value
		}
	}
	return v
}

// scale normalises speed to the axis range for the given mode.
func scale(speed, maxSpeed float64, mode Mode) float64 {
	norm := speed / maxSpeed
	if norm < 0 {
		norm = 0
	}
	if norm > 1 {
		norm = 1
	}
	if mode == ModeBipolar {
		return norm*2 - 1
	}
	return norm
}
