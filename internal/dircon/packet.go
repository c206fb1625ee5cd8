package dircon

import (
	"encoding/binary"
	"fmt"
)

// Dircon message identifiers.
const (
	// MsgError marks an uninitialised or error packet.
	MsgError uint8 = 0xFF

	// MsgDiscoverServices requests the list of GATT services.
	MsgDiscoverServices uint8 = 0x01

	// MsgDiscoverCharacteristics requests a service's characteristics.
	MsgDiscoverCharacteristics uint8 = 0x02

	// MsgReadCharacteristic reads a characteristic value.
	MsgReadCharacteristic uint8 = 0x03

	// MsgWriteCharacteristic writes a characteristic value.
	MsgWriteCharacteristic uint8 = 0x04

	// MsgEnableNotifications subscribes to characteristic notifications.
	MsgEnableNotifications uint8 = 0x05

	// MsgNotification is an unsolicited characteristic notification pushed
	// by the device (an FTMS indication carrying telemetry).
	MsgNotification uint8 = 0x06
)

// Dircon response codes.
const (
	RespSuccess                uint8 = 0x00
	RespUnexpectedError        uint8 = 0x02
	RespServiceNotFound        uint8 = 0x03
	RespCharacteristicNotFound uint8 = 0x04
	RespOperationNotSupported  uint8 = 0x05
	RespWriteFailed            uint8 = 0x06
	RespUnknownProtocol        uint8 = 0x07
)

// Framing constants.
const (
	// HeaderLength is the fixed Dircon message header size.
	HeaderLength = 6

	// uuidBlockLength is the size of the Bluetooth base UUID block that
	// prefixes characteristic-bearing payloads.
	uuidBlockLength = 16

	// messageVersion is the only protocol version in the wild.
	messageVersion uint8 = 1

	// Positions of the 16-bit short UUID inside the base UUID block.
	posUUIDHigh = 2
	posUUIDLow  = 3
)

// baseUUID is the Bluetooth base UUID template. Bytes 2-3 are replaced with
// the 16-bit short UUID when encoding.
var baseUUID = [uuidBlockLength]byte{
	0x00, 0x00, 0x18, 0x26, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
}

// Packet represents a single decoded Dircon message.
//
// For characteristic-bearing messages, UUID holds the 16-bit short UUID and
// Data holds the characteristic value bytes (which may be empty).
type Packet struct {
	// Version is the protocol version (always 1).
	Version uint8

	// ID is the message identifier (MsgNotification etc).
	ID uint8

	// Seq is the sequence number. Requests carry the client's counter;
	// unsolicited notifications carry 0.
	Seq uint8

	// RespCode is the response code (RespSuccess for requests and
	// notifications).
	RespCode uint8

	// UUID is the 16-bit characteristic or service UUID, if the message
	// carries one.
	UUID uint16

	// Data is the characteristic value after the UUID block.
	Data []byte
}

// IsSuccess reports whether the packet carries a success response code.
func (p Packet) IsSuccess() bool {
	return p.RespCode == RespSuccess
}

// String returns a human-readable representation for logs.
func (p Packet) String() string {
	return fmt.Sprintf("Packet{ID:0x%02X, Seq:%d, Resp:0x%02X, UUID:0x%04X, Data:%X}",
		p.ID, p.Seq, p.RespCode, p.UUID, p.Data)
}

// MessageLength returns the total length of the Dircon message whose first
// HeaderLength bytes are in header. Transports use it to delimit messages on
// a byte stream before handing them to ParsePacket.
func MessageLength(header []byte) (int, error) {
	if len(header) < HeaderLength {
		return 0, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderLength, len(header))
	}
	payloadLen := int(binary.BigEndian.Uint16(header[4:6]))
	return HeaderLength + payloadLen, nil
}

// ParsePacket decodes one already-delimited Dircon message.
//
// The input must be exactly one message: header plus the payload length the
// header declares. Messages with an unknown identifier return
// ErrUnknownMessage; callers should log and drop those rather than treat them
// as fatal.
//
// Returns:
//   - Packet: Decoded message with Data copied out of the input buffer
//   - error: ErrTruncated, ErrLengthMismatch, or ErrUnknownMessage
func ParsePacket(msg []byte) (Packet, error) {
	if len(msg) < HeaderLength {
		return Packet{}, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncated, len(msg), HeaderLength)
	}

	p := Packet{
		Version:  msg[0],
		ID:       msg[1],
		Seq:      msg[2],
		RespCode: msg[3],
	}

	payloadLen := int(binary.BigEndian.Uint16(msg[4:6]))
	switch {
	case len(msg) < HeaderLength+payloadLen:
		return Packet{}, fmt.Errorf("%w: header declares %d payload bytes, have %d",
			ErrTruncated, payloadLen, len(msg)-HeaderLength)
	case len(msg) > HeaderLength+payloadLen:
		return Packet{}, fmt.Errorf("%w: header declares %d payload bytes, have %d",
			ErrLengthMismatch, payloadLen, len(msg)-HeaderLength)
	}

	switch p.ID {
	case MsgDiscoverServices, MsgDiscoverCharacteristics, MsgReadCharacteristic,
		MsgWriteCharacteristic, MsgEnableNotifications, MsgNotification, MsgError:
		// Recognised identifier.
	default:
		return Packet{}, fmt.Errorf("%w: 0x%02X", ErrUnknownMessage, p.ID)
	}

	payload := msg[HeaderLength:]
	if len(payload) >= uuidBlockLength {
		p.UUID = uint16(payload[posUUIDHigh])<<8 | uint16(payload[posUUIDLow])
		if len(payload) > uuidBlockLength {
			// Copy so the packet never aliases the transport's read buffer.
			p.Data = make([]byte, len(payload)-uuidBlockLength)
			copy(p.Data, payload[uuidBlockLength:])
		}
	}

	return p, nil
}

// Encode serialises the packet to Dircon wire format.
//
// Messages that carry a characteristic (everything except DiscoverServices
// and Error) are encoded as UUID block + Data. The sequence number must be
// set by the caller; unsolicited notifications use 0.
func (p Packet) Encode() []byte {
	var payload []byte
	switch p.ID {
	case MsgDiscoverServices, MsgError:
		// No payload.
	default:
		payload = make([]byte, uuidBlockLength+len(p.Data))
		copy(payload, baseUUID[:])
		payload[posUUIDHigh] = byte(p.UUID >> 8)
		payload[posUUIDLow] = byte(p.UUID)
		copy(payload[uuidBlockLength:], p.Data)
	}

	buf := make([]byte, HeaderLength+len(payload))
	buf[0] = messageVersion
	buf[1] = p.ID
	buf[2] = p.Seq
	buf[3] = p.RespCode
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(payload)))
	copy(buf[HeaderLength:], payload)
	return buf
}

// NewEnableNotificationsRequest builds a subscribe request for the given
// characteristic. The trailing flag byte selects enable (0x01) or disable.
func NewEnableNotificationsRequest(uuid uint16, seq uint8, enable bool) Packet {
	flag := byte(0x00)
	if enable {
		flag = 0x01
	}
	return Packet{
		Version: messageVersion,
		ID:      MsgEnableNotifications,
		Seq:     seq,
		UUID:    uuid,
		Data:    []byte{flag},
	}
}

// NewWriteCharacteristicRequest builds a characteristic write request.
func NewWriteCharacteristicRequest(uuid uint16, seq uint8, data []byte) Packet {
	return Packet{
		Version: messageVersion,
		ID:      MsgWriteCharacteristic,
		Seq:     seq,
		UUID:    uuid,
		Data:    data,
	}
}

// NewReadCharacteristicRequest builds a characteristic read request.
func NewReadCharacteristicRequest(uuid uint16, seq uint8) Packet {
	return Packet{
		Version: messageVersion,
		ID:      MsgReadCharacteristic,
		Seq:     seq,
		UUID:    uuid,
	}
}
