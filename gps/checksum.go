// Package gps decodes the NMEA-0183 sentences received from GPS and
// ADS-B receivers.
package gps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrChecksum  = errors.New("gps: nmea checksum mismatch")
	ErrMalformed = errors.New("gps: malformed nmea sentence")
)

// Checksum is the XOR of all bytes of body.
func Checksum(body string) byte {
	cs := byte(0)
	for i := 0; i < len(body); i++ {
		cs ^= body[i]
	}
	return cs
}

// ValidateChecksum checks a "$...*hh" sentence. The returned body is the
// text between "$" and "*".
func ValidateChecksum(s string) (string, error) {
	if !strings.HasPrefix(s, "$") {
		return "", fmt.Errorf("%w: missing $", ErrMalformed)
	}
	star := strings.LastIndexByte(s, '*')
	if star < 0 {
		return "", fmt.Errorf("%w: missing checksum", ErrMalformed)
	}
	body, trailer := s[1:star], strings.TrimRight(s[star+1:], "\r\n")
	if len(trailer) != 2 {
		return "", fmt.Errorf("%w: checksum is %q", ErrMalformed, trailer)
	}
	cs, err := strconv.ParseUint(trailer, 16, 8)
	if err != nil {
		return "", fmt.Errorf("%w: checksum is %q", ErrMalformed, trailer)
	}
	if calc := Checksum(body); calc != byte(cs) {
		return "", fmt.Errorf("%w: calculated %#02X, expected %#02X", ErrChecksum, calc, cs)
	}
	return body, nil
}
