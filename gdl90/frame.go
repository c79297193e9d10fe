package gdl90

import (
	"errors"
	"fmt"
)

const (
	FlagByte   = 0x7E
	EscapeByte = 0x7D
	escapeXor  = 0x20
)

var (
	ErrShort   = errors.New("gdl90: frame too short")
	ErrBadCRC  = errors.New("gdl90: bad crc")
	ErrTooLong = errors.New("gdl90: frame exceeds buffer")
	// ErrDanglingEscape means the last byte before the closing flag was an escape.
	ErrDanglingEscape = errors.New("gdl90: escape at end of frame")
)

// Frame appends the CRC to msg, escapes flag and escape bytes and wraps the
// result in flag bytes.
func Frame(msg []byte) []byte {
	crc := CRC16(msg)
	body := append(append([]byte{}, msg...), byte(crc&0xFF), byte(crc>>8))

	out := make([]byte, 0, len(body)+8)
	out = append(out, FlagByte)
	for _, b := range body {
		if b == FlagByte || b == EscapeByte {
			out = append(out, EscapeByte, b^escapeXor)
			continue
		}
		out = append(out, b)
	}
	return append(out, FlagByte)
}

// Unstuff copies the raw bytes found between two flag bytes into dst,
// removing byte stuffing. It returns the number of bytes written.
func Unstuff(dst, raw []byte) (int, error) {
	n := 0
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b == EscapeByte {
			i++
			if i == len(raw) {
				return n, ErrDanglingEscape
			}
			b = raw[i] ^ escapeXor
		}
		if n == len(dst) {
			return n, ErrTooLong
		}
		dst[n] = b
		n++
	}
	return n, nil
}

// CheckCRC verifies the trailing little-endian CRC of an unstuffed frame and
// returns the message without it.
func CheckCRC(frame []byte) ([]byte, error) {
	if len(frame) < 3 {
		return nil, ErrShort
	}
	msg := frame[:len(frame)-2]
	got := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	if want := CRC16(msg); got != want {
		return nil, fmt.Errorf("%w: message id 0x%02X, got 0x%04X want 0x%04X", ErrBadCRC, msg[0], got, want)
	}
	return msg, nil
}
