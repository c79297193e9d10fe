package gdl90

import "strings"

// Base-40 alphabet of the UAT mode status call sign. Codes 36 to 39 carry
// no character and render as blanks.
const rad40Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ    "

// DecodeRAD40 decodes the 6 byte call sign group of a UAT mode status
// element into up to 8 characters, trailing blanks removed. The first 16 bit
// word also holds the emitter category (its most significant base-40 digit),
// which is not part of the call sign. An all-zero group means no call sign
// was transmitted and decodes to "".
func DecodeRAD40(b []byte) string {
	if len(b) < 6 {
		return ""
	}
	zero := true
	for _, v := range b[:6] {
		if v != 0 {
			zero = false
			break
		}
	}
	if zero {
		return ""
	}

	var sb strings.Builder
	sb.Grow(8)
	for i := 0; i < 6; i += 2 {
		v := uint16(b[i])<<8 | uint16(b[i+1])
		if i > 0 {
			sb.WriteByte(rad40Alphabet[(v/1600)%40])
		}
		sb.WriteByte(rad40Alphabet[(v/40)%40])
		sb.WriteByte(rad40Alphabet[v%40])
	}
	return strings.TrimRight(sb.String(), " ")
}

// EmitterCategory extracts the emitter category from the first word of the
// call sign group.
func EmitterCategory(b []byte) int {
	if len(b) < 2 {
		return 0
	}
	v := uint16(b[0])<<8 | uint16(b[1])
	return int((v / 1600) % 40)
}
