// Package dircon implements the Dircon wire protocol used by smart trainers
// that tunnel Bluetooth fitness-machine characteristics over TCP.
//
// Dircon wraps GATT-style operations (read, write, enable notifications) in a
// compact framed message format. The interesting payload for RiderLink is the
// FTMS Indoor Bike Data characteristic (0x2AD2), whose notifications carry the
// trainer's instantaneous speed.
//
// # Message Format
//
// Every Dircon message starts with a 6-byte header:
//
//	Byte 0:   Message version (always 1)
//	Byte 1:   Message identifier
//	Byte 2:   Sequence number
//	Byte 3:   Response code (0x00 = success)
//	Byte 4-5: Payload length (big-endian)
//
// Characteristic-bearing payloads begin with a 16-byte Bluetooth base UUID
// block; bytes 2-3 of the block carry the 16-bit short UUID. Any remaining
// bytes are the characteristic value.
//
// # Statelessness
//
// The package performs no I/O and holds no state. Callers hand it one
// already-delimited message at a time; stream buffering and delimiting is the
// transport's job (see internal/trainer).
package dircon
