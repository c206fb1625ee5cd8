package dircon

import (
	"bytes"
	"errors"
	"testing"
)

// notification builds a wire-format notification message for a characteristic.
func notification(uuid uint16, value []byte) []byte {
	return Packet{ID: MsgNotification, UUID: uuid, Data: value}.Encode()
}

func TestParsePacket(t *testing.T) {
	tests := []struct {
		name    string
		msg     []byte
		want    Packet
		wantErr error
	}{
		{
			name: "notification with bike data value",
			msg:  notification(CharIndoorBikeData, []byte{0x74, 0x08, 0xD0, 0x07}),
			want: Packet{
				Version: 1,
				ID:      MsgNotification,
				UUID:    CharIndoorBikeData,
				Data:    []byte{0x74, 0x08, 0xD0, 0x07},
			},
		},
		{
			name: "enable notifications response",
			msg: Packet{
				ID:   MsgEnableNotifications,
				Seq:  1,
				UUID: CharIndoorBikeData,
			}.Encode(),
			want: Packet{
				Version: 1,
				ID:      MsgEnableNotifications,
				Seq:     1,
				UUID:    CharIndoorBikeData,
			},
		},
		{
			name: "write characteristic failure response",
			msg: Packet{
				ID:       MsgWriteCharacteristic,
				Seq:      2,
				RespCode: RespWriteFailed,
				UUID:     CharFitnessMachineControlPoint,
			}.Encode(),
			want: Packet{
				Version:  1,
				ID:       MsgWriteCharacteristic,
				Seq:      2,
				RespCode: RespWriteFailed,
				UUID:     CharFitnessMachineControlPoint,
			},
		},
		{
			name: "discover services request has no payload",
			msg:  []byte{0x01, 0x01, 0x01, 0x00, 0x00, 0x00},
			want: Packet{Version: 1, ID: MsgDiscoverServices, Seq: 1},
		},
		{
			name:    "unknown identifier",
			msg:     []byte{0x01, 0x42, 0x00, 0x00, 0x00, 0x00},
			wantErr: ErrUnknownMessage,
		},
		{
			name:    "shorter than header",
			msg:     []byte{0x01, 0x06, 0x00},
			wantErr: ErrTruncated,
		},
		{
			name:    "payload shorter than declared",
			msg:     []byte{0x01, 0x06, 0x00, 0x00, 0x00, 0x11, 0xAA},
			wantErr: ErrTruncated,
		},
		{
			name:    "payload longer than declared",
			msg:     []byte{0x01, 0x06, 0x00, 0x00, 0x00, 0x00, 0xAA},
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "empty",
			msg:     nil,
			wantErr: ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePacket(tt.msg)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParsePacket() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePacket() unexpected error: %v", err)
			}

			if got.ID != tt.want.ID {
				t.Errorf("ID = 0x%02X, want 0x%02X", got.ID, tt.want.ID)
			}
			if got.Seq != tt.want.Seq {
				t.Errorf("Seq = %d, want %d", got.Seq, tt.want.Seq)
			}
			if got.RespCode != tt.want.RespCode {
				t.Errorf("RespCode = 0x%02X, want 0x%02X", got.RespCode, tt.want.RespCode)
			}
			if got.UUID != tt.want.UUID {
				t.Errorf("UUID = 0x%04X, want 0x%04X", got.UUID, tt.want.UUID)
			}
			if !bytes.Equal(got.Data, tt.want.Data) {
				t.Errorf("Data = %X, want %X", got.Data, tt.want.Data)
			}
		})
	}
}

func TestParsePacketCopiesData(t *testing.T) {
	msg := notification(CharIndoorBikeData, []byte{0x74, 0x08, 0xD0, 0x07})
	pkt, err := ParsePacket(msg)
	if err != nil {
		t.Fatalf("ParsePacket() error: %v", err)
	}

	// Corrupt the source buffer; the packet must be unaffected.
	for i := range msg {
		msg[i] = 0xEE
	}
	if !bytes.Equal(pkt.Data, []byte{0x74, 0x08, 0xD0, 0x07}) {
		t.Errorf("Data aliases the input buffer: %X", pkt.Data)
	}
}

func TestMessageLength(t *testing.T) {
	msg := notification(CharIndoorBikeData, []byte{0x74, 0x08})
	n, err := MessageLength(msg[:HeaderLength])
	if err != nil {
		t.Fatalf("MessageLength() error: %v", err)
	}
	if n != len(msg) {
		t.Errorf("MessageLength() = %d, want %d", n, len(msg))
	}

	if _, err := MessageLength([]byte{0x01, 0x06}); !errors.Is(err, ErrTruncated) {
		t.Errorf("MessageLength(short) error = %v, want ErrTruncated", err)
	}
}

func TestRequestEncodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pkt  Packet
	}{
		{"enable notifications", NewEnableNotificationsRequest(CharIndoorBikeData, 1, true)},
		{"disable notifications", NewEnableNotificationsRequest(CharIndoorBikeData, 3, false)},
		{"write control point", NewWriteCharacteristicRequest(CharFitnessMachineControlPoint, 2, []byte{OpRequestControl})},
		{"read characteristic", NewReadCharacteristicRequest(CharFitnessMachineFeature, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePacket(tt.pkt.Encode())
			if err != nil {
				t.Fatalf("ParsePacket() error: %v", err)
			}
			if got.ID != tt.pkt.ID || got.Seq != tt.pkt.Seq || got.UUID != tt.pkt.UUID {
				t.Errorf("round trip = %v, want %v", got, tt.pkt)
			}
			if !bytes.Equal(got.Data, tt.pkt.Data) {
				t.Errorf("Data = %X, want %X", got.Data, tt.pkt.Data)
			}
		})
	}
}

func TestEncodeResistanceRequest(t *testing.T) {
	// Level 6 maps to resistance value 300 (0x012C little-endian).
	got, err := EncodeResistanceRequest(6)
	if err != nil {
		t.Fatalf("EncodeResistanceRequest() error: %v", err)
	}
	want := []byte{0x11, 0x00, 0x00, 0x4F, 0x01, 0x2C, 0x01, 0x3C}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeResistanceRequest(6) = %X, want %X", got, want)
	}

	for _, level := range []int{0, 13, -1} {
		if _, err := EncodeResistanceRequest(level); !errors.Is(err, ErrInvalidResistance) {
			t.Errorf("EncodeResistanceRequest(%d) error = %v, want ErrInvalidResistance", level, err)
		}
	}
}
