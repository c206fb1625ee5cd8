package dircon

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Indoor Bike Data flags (FTMS characteristic 0x2AD2).
//
// Each bit marks an optional field as present, except flagMoreData: the
// instantaneous speed field is present when that bit is CLEAR. This inversion
// is part of the FTMS specification and trips up every first implementation.
const (
	flagMoreData            uint16 = 1 << 0 // set = speed absent
	flagAverageSpeed        uint16 = 1 << 1
	flagCadence             uint16 = 1 << 2
	flagAverageCadence      uint16 = 1 << 3
	flagTotalDistance       uint16 = 1 << 4
	flagResistanceLevel     uint16 = 1 << 5
	flagPower               uint16 = 1 << 6
	flagAveragePower        uint16 = 1 << 7
	flagTotalEnergy         uint16 = 1 << 8
	flagEnergyPerHour       uint16 = 1 << 9
	flagEnergyPerMinute     uint16 = 1 << 10
	flagHeartRate           uint16 = 1 << 11
	flagMetabolicEquivalent uint16 = 1 << 12
	flagElapsedTime         uint16 = 1 << 13
	flagRemainingTime       uint16 = 1 << 14
)

// Field resolutions (value = raw * resolution).
const (
	speedResolution   = 0.01 // km/h per raw unit
	cadenceResolution = 0.5  // rpm per raw unit
)

// BikeData holds a decoded Indoor Bike Data record.
//
// Every optional field comes with a Has flag; a zero value with the flag
// unset means the trainer did not transmit the field, not that it read zero.
type BikeData struct {
	// Flags is the raw flags word as received.
	Flags uint16

	Speed    float64 // instantaneous speed, km/h
	HasSpeed bool

	AverageSpeed    float64 // km/h
	HasAverageSpeed bool

	Cadence    float64 // instantaneous cadence, rpm
	HasCadence bool

	AverageCadence    float64 // rpm
	HasAverageCadence bool

	Distance    float64 // total distance, m
	HasDistance bool

	Resistance    float64 // unitless resistance level
	HasResistance bool

	Power    float64 // instantaneous power, W
	HasPower bool

	AveragePower    float64 // W
	HasAveragePower bool

	TotalEnergy    float64 // kcal
	HasTotalEnergy bool

	EnergyPerHour    float64 // kcal
	HasEnergyPerHour bool

	EnergyPerMinute    float64 // kcal
	HasEnergyPerMinute bool

	HeartRate    float64 // bpm
	HasHeartRate bool

	MetabolicEquivalent    float64
	HasMetabolicEquivalent bool

	ElapsedTime    float64 // s
	HasElapsedTime bool

	RemainingTime    float64 // s
	HasRemainingTime bool
}

// InstantaneousSpeed returns the speed field and whether it was present.
func (d BikeData) InstantaneousSpeed() (float64, bool) {
	return d.Speed, d.HasSpeed
}

// fieldReader walks the fixed-order optional fields of a payload, failing
// with ErrTruncated if a present field extends past the data.
type fieldReader struct {
	data []byte
	off  int
}

func (r *fieldReader) read(size int) (uint32, error) {
	if r.off+size > len(r.data) {
		return 0, fmt.Errorf("%w: field needs %d bytes at offset %d, payload is %d",
			ErrTruncated, size, r.off, len(r.data))
	}
	var v uint32
	switch size {
	case 1:
		v = uint32(r.data[r.off])
	case 2:
		v = uint32(binary.LittleEndian.Uint16(r.data[r.off:]))
	case 3:
		v = uint32(r.data[r.off]) | uint32(r.data[r.off+1])<<8 | uint32(r.data[r.off+2])<<16
	}
	r.off += size
	return v, nil
}

// DecodeIndoorBikeData decodes an Indoor Bike Data characteristic value.
//
// The payload starts with a little-endian uint16 flags word; the optional
// fields that follow appear in specification order, only when their flag bit
// marks them present. A payload shorter than its flags imply fails with
// ErrTruncated and never reads out of bounds.
//
// A payload whose speed flag marks speed absent is NOT an error: the caller
// receives a BikeData with HasSpeed false.
func DecodeIndoorBikeData(data []byte) (BikeData, error) {
	if len(data) < 2 {
		return BikeData{}, fmt.Errorf("%w: %d bytes, need at least 2 for flags", ErrTruncated, len(data))
	}

	flags := binary.LittleEndian.Uint16(data[0:2])
	d := BikeData{Flags: flags}
	r := &fieldReader{data: data, off: 2}

	// Instantaneous speed: present when the More Data bit is clear.
	if flags&flagMoreData == 0 {
		v, err := r.read(2)
		if err != nil {
			return BikeData{}, err
		}
		d.Speed = float64(v) * speedResolution
		d.HasSpeed = true
	}

	unsigned := []struct {
		flag  uint16
		size  int
		scale float64
		set   func(*BikeData, float64)
	}{
		{flagAverageSpeed, 2, speedResolution, func(d *BikeData, v float64) { d.AverageSpeed = v; d.HasAverageSpeed = true }},
		{flagCadence, 2, cadenceResolution, func(d *BikeData, v float64) { d.Cadence = v; d.HasCadence = true }},
		{flagAverageCadence, 2, cadenceResolution, func(d *BikeData, v float64) { d.AverageCadence = v; d.HasAverageCadence = true }},
		{flagTotalDistance, 3, 1, func(d *BikeData, v float64) { d.Distance = v; d.HasDistance = true }},
		{flagResistanceLevel, 2, 1, func(d *BikeData, v float64) { d.Resistance = v; d.HasResistance = true }},
		{flagPower, 2, 1, func(d *BikeData, v float64) { d.Power = v; d.HasPower = true }},
		{flagAveragePower, 2, 1, func(d *BikeData, v float64) { d.AveragePower = v; d.HasAveragePower = true }},
	}
	for _, f := range unsigned {
		if flags&f.flag == 0 {
			continue
		}
		v, err := r.read(f.size)
		if err != nil {
			return BikeData{}, err
		}
		f.set(&d, float64(v)*f.scale)
	}

	// Energy fields are signed 16-bit.
	signed := []struct {
		flag uint16
		set  func(*BikeData, float64)
	}{
		{flagTotalEnergy, func(d *BikeData, v float64) { d.TotalEnergy = v; d.HasTotalEnergy = true }},
		{flagEnergyPerHour, func(d *BikeData, v float64) { d.EnergyPerHour = v; d.HasEnergyPerHour = true }},
	}
	for _, f := range signed {
		if flags&f.flag == 0 {
			continue
		}
		v, err := r.read(2)
		if err != nil {
			return BikeData{}, err
		}
		f.set(&d, float64(int16(v)))
	}

	bytes := []struct {
		flag uint16
		set  func(*BikeData, float64)
	}{
		{flagEnergyPerMinute, func(d *BikeData, v float64) { d.EnergyPerMinute = v; d.HasEnergyPerMinute = true }},
		{flagHeartRate, func(d *BikeData, v float64) { d.HeartRate = v; d.HasHeartRate = true }},
		{flagMetabolicEquivalent, func(d *BikeData, v float64) { d.MetabolicEquivalent = v; d.HasMetabolicEquivalent = true }},
	}
	for _, f := range bytes {
		if flags&f.flag == 0 {
			continue
		}
		v, err := r.read(1)
		if err != nil {
			return BikeData{}, err
		}
		f.set(&d, float64(v))
	}

	times := []struct {
		flag uint16
		set  func(*BikeData, float64)
	}{
		{flagElapsedTime, func(d *BikeData, v float64) { d.ElapsedTime = v; d.HasElapsedTime = true }},
		{flagRemainingTime, func(d *BikeData, v float64) { d.RemainingTime = v; d.HasRemainingTime = true }},
	}
	for _, f := range times {
		if flags&f.flag == 0 {
			continue
		}
		v, err := r.read(2)
		if err != nil {
			return BikeData{}, err
		}
		f.set(&d, float64(v))
	}

	return d, nil
}

// Encode serialises the record back to characteristic-value bytes.
//
// The flags word is computed from the Has fields, so a decode/encode pair
// round-trips exactly for any record the decoder produced. Used by tests and
// trainer simulators; RiderLink itself only decodes.
func (d BikeData) Encode() []byte {
	flags := flagMoreData // start with speed marked absent
	if d.HasSpeed {
		flags &^= flagMoreData
	}

	buf := make([]byte, 2, 2+26)
	put16 := func(v float64, scale float64) {
		raw := uint16(math.Round(v / scale))
		buf = binary.LittleEndian.AppendUint16(buf, raw)
	}

	if d.HasSpeed {
		put16(d.Speed, speedResolution)
	}
	if d.HasAverageSpeed {
		flags |= flagAverageSpeed
		put16(d.AverageSpeed, speedResolution)
	}
	if d.HasCadence {
		flags |= flagCadence
		put16(d.Cadence, cadenceResolution)
	}
	if d.HasAverageCadence {
		flags |= flagAverageCadence
		put16(d.AverageCadence, cadenceResolution)
	}
	if d.HasDistance {
		flags |= flagTotalDistance
		raw := uint32(math.Round(d.Distance))
		buf = append(buf, byte(raw), byte(raw>>8), byte(raw>>16))
	}
	if d.HasResistance {
		flags |= flagResistanceLevel
		put16(d.Resistance, 1)
	}
	if d.HasPower {
		flags |= flagPower
		put16(d.Power, 1)
	}
	if d.HasAveragePower {
		flags |= flagAveragePower
		put16(d.AveragePower, 1)
	}
	if d.HasTotalEnergy {
		flags |= flagTotalEnergy
		buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(math.Round(d.TotalEnergy))))
	}
	if d.HasEnergyPerHour {
		flags |= flagEnergyPerHour
		buf = binary.LittleEndian.AppendUint16(buf, uint16(int16(math.Round(d.EnergyPerHour))))
	}
	if d.HasEnergyPerMinute {
		flags |= flagEnergyPerMinute
		buf = append(buf, byte(math.Round(d.EnergyPerMinute)))
	}
	if d.HasHeartRate {
		flags |= flagHeartRate
		buf = append(buf, byte(math.Round(d.HeartRate)))
	}
	if d.HasMetabolicEquivalent {
		flags |= flagMetabolicEquivalent
		buf = append(buf, byte(math.Round(d.MetabolicEquivalent)))
	}
	if d.HasElapsedTime {
		flags |= flagElapsedTime
		put16(d.ElapsedTime, 1)
	}
	if d.HasRemainingTime {
		flags |= flagRemainingTime
		put16(d.RemainingTime, 1)
	}

	binary.LittleEndian.PutUint16(buf[0:2], flags)
	return buf
}
