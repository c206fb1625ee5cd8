package dircon

import (
	"encoding/binary"
	"fmt"
)

// Fitness Machine Control Point opcodes used by RiderLink.
const (
	// OpRequestControl asks the machine for control before any other
	// control-point operation.
	OpRequestControl byte = 0x00

	// OpSetResistance is the resistance write observed from the vendor app.
	// The payload layout is fixed; only the 16-bit resistance value varies.
	OpSetResistance byte = 0x11
)

// Resistance level bounds, matching the vendor app's level table
// (level n maps to resistance value n*50).
const (
	MinResistanceLevel = 1
	MaxResistanceLevel = 12

	resistancePerLevel = 50
)

// EncodeControlRequest builds a control-point value for the given opcode and
// arguments. The result is written to CharFitnessMachineControlPoint via a
// WriteCharacteristic request.
func EncodeControlRequest(op byte, args ...byte) []byte {
	return append([]byte{op}, args...)
}

// EncodeResistanceRequest builds the control-point value that sets the
// trainer's resistance to the given level (1-12).
//
// The surrounding bytes were captured from the vendor app and are carried
// verbatim; only the little-endian resistance value changes with the level.
func EncodeResistanceRequest(level int) ([]byte, error) {
	if level < MinResistanceLevel || level > MaxResistanceLevel {
		return nil, fmt.Errorf("%w: %d (valid range %d-%d)",
			ErrInvalidResistance, level, MinResistanceLevel, MaxResistanceLevel)
	}

	value := make([]byte, 2)
	binary.LittleEndian.PutUint16(value, uint16(level*resistancePerLevel))

	return EncodeControlRequest(OpSetResistance,
		0x00, 0x00, 0x4F, 0x01, value[0], value[1], 0x3C), nil
}
