package dircon

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestDecodeIndoorBikeDataSpeed(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		wantSpeed float64
		wantHas   bool
	}{
		{
			name: "speed only (flags clear)",
			// flags=0x0000 (More Data clear → speed present), speed raw 2000 = 20.00 km/h
			data:      []byte{0x00, 0x00, 0xD0, 0x07},
			wantSpeed: 20.0,
			wantHas:   true,
		},
		{
			name: "speed absent (More Data set)",
			// flags=0x0001, no fields follow
			data:    []byte{0x01, 0x00},
			wantHas: false,
		},
		{
			name: "speed with cadence and power",
			// flags: cadence(bit2)|power(bit6) = 0x0044
			// speed 3550 = 35.50 km/h, cadence 180 = 90 rpm, power 250 W
			data:      []byte{0x44, 0x00, 0xDE, 0x0D, 0xB4, 0x00, 0xFA, 0x00},
			wantSpeed: 35.5,
			wantHas:   true,
		},
		{
			name: "zero speed at rest",
			data:      []byte{0x00, 0x00, 0x00, 0x00},
			wantSpeed: 0,
			wantHas:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := DecodeIndoorBikeData(tt.data)
			if err != nil {
				t.Fatalf("DecodeIndoorBikeData() error: %v", err)
			}
			speed, ok := d.InstantaneousSpeed()
			if ok != tt.wantHas {
				t.Fatalf("speed present = %v, want %v", ok, tt.wantHas)
			}
			if ok && speed != tt.wantSpeed {
				t.Errorf("speed = %v, want %v", speed, tt.wantSpeed)
			}
		})
	}
}

func TestDecodeIndoorBikeDataFields(t *testing.T) {
	// flags: speed present, avg speed, cadence, distance, power, heart rate,
	// elapsed time = 0x0002|0x0004|0x0010|0x0040|0x0800|0x2000
	flags := uint16(flagAverageSpeed | flagCadence | flagTotalDistance | flagPower | flagHeartRate | flagElapsedTime)
	data := make([]byte, 0, 20)
	data = binary.LittleEndian.AppendUint16(data, flags)
	data = binary.LittleEndian.AppendUint16(data, 2510)  // speed 25.10
	data = binary.LittleEndian.AppendUint16(data, 2400)  // avg speed 24.00
	data = binary.LittleEndian.AppendUint16(data, 170)   // cadence 85 rpm
	data = append(data, 0x10, 0x27, 0x00)                // distance 10000 m
	data = binary.LittleEndian.AppendUint16(data, 210)   // power 210 W
	data = append(data, 152)                             // heart rate 152 bpm
	data = binary.LittleEndian.AppendUint16(data, 1800)  // elapsed 1800 s

	d, err := DecodeIndoorBikeData(data)
	if err != nil {
		t.Fatalf("DecodeIndoorBikeData() error: %v", err)
	}

	checks := []struct {
		name string
		has  bool
		got  float64
		want float64
	}{
		{"speed", d.HasSpeed, d.Speed, 25.1},
		{"average speed", d.HasAverageSpeed, d.AverageSpeed, 24.0},
		{"cadence", d.HasCadence, d.Cadence, 85},
		{"distance", d.HasDistance, d.Distance, 10000},
		{"power", d.HasPower, d.Power, 210},
		{"heart rate", d.HasHeartRate, d.HeartRate, 152},
		{"elapsed time", d.HasElapsedTime, d.ElapsedTime, 1800},
	}
	for _, c := range checks {
		if !c.has {
			t.Errorf("%s not decoded", c.name)
			continue
		}
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if d.HasAveragePower || d.HasResistance || d.HasRemainingTime {
		t.Errorf("decoded fields the flags did not declare")
	}
}

func TestDecodeIndoorBikeDataTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"one byte", []byte{0x00}},
		{"flags only but speed expected", []byte{0x00, 0x00}},
		{"speed cut mid-field", []byte{0x00, 0x00, 0xD0}},
		{"cadence flag set but missing", []byte{0x04, 0x00, 0xD0, 0x07}},
		{"distance cut after two of three bytes", []byte{0x10, 0x00, 0xD0, 0x07, 0x10, 0x27}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeIndoorBikeData(tt.data); !errors.Is(err, ErrTruncated) {
				t.Errorf("DecodeIndoorBikeData() error = %v, want ErrTruncated", err)
			}
		})
	}
}

func TestBikeDataEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   BikeData
	}{
		{"speed only", BikeData{Speed: 32.47, HasSpeed: true}},
		{"no speed", BikeData{Cadence: 90, HasCadence: true}},
		{
			"full record",
			BikeData{
				Speed: 41.25, HasSpeed: true,
				AverageSpeed: 38.5, HasAverageSpeed: true,
				Cadence: 92.5, HasCadence: true,
				Distance: 12345, HasDistance: true,
				Power: 310, HasPower: true,
				HeartRate: 161, HasHeartRate: true,
				ElapsedTime: 900, HasElapsedTime: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeIndoorBikeData(tt.in.Encode())
			if err != nil {
				t.Fatalf("DecodeIndoorBikeData() error: %v", err)
			}

			if got.HasSpeed != tt.in.HasSpeed {
				t.Fatalf("HasSpeed = %v, want %v", got.HasSpeed, tt.in.HasSpeed)
			}
			if got.HasSpeed && got.Speed != tt.in.Speed {
				t.Errorf("Speed = %v, want %v (must round-trip exactly)", got.Speed, tt.in.Speed)
			}
			if got.HasCadence && got.Cadence != tt.in.Cadence {
				t.Errorf("Cadence = %v, want %v", got.Cadence, tt.in.Cadence)
			}
			if got.HasDistance && got.Distance != tt.in.Distance {
				t.Errorf("Distance = %v, want %v", got.Distance, tt.in.Distance)
			}
		})
	}
}
