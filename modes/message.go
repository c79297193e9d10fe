// Package modes decodes Mode S extended squitter (1090ES ADS-B) frames.
package modes

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	ShortFrameLen = 7
	LongFrameLen  = 14

	// 6 bit ADS-B character set; '#' marks codes that carry no character.
	callsignCharset = "#ABCDEFGHIJKLMNOPQRSTUVWXYZ##### ###############0123456789######"

	feetPerMeter = 3.28084
)

var (
	ErrLength      = errors.New("modes: bad frame length")
	ErrParity      = errors.New("modes: parity error")
	ErrUnsupported = errors.New("modes: unsupported message")
)

// Frame is a raw Mode S reply.
type Frame []byte

func (f Frame) DF() int { return int(f[0]>>3) & 0x1f }

// ICAO returns the 24 bit address of an extended squitter.
func (f Frame) ICAO() uint32 {
	return uint32(f[1])<<16 | uint32(f[2])<<8 | uint32(f[3])
}

func (f Frame) me() uint64 {
	var v uint64
	for _, b := range f[4:11] {
		v = v<<8 | uint64(b)
	}
	return v
}

// TypeCode of the ME field.
func (f Frame) TypeCode() int { return int(f[4]>>3) & 0x1f }

// Message is one of Identification, AirbornePosition, AirborneVelocity or
// Other.
type Message interface {
	Address() uint32
}

type header struct {
	ICAO     uint32
	TypeCode int
}

func (h header) Address() uint32 { return h.ICAO }

type Identification struct {
	header
	Category int
	Callsign string
}

type AirbornePosition struct {
	header
	AltValid bool
	AltFt    float64
	GNSS     bool // altitude is GNSS height rather than barometric
	Odd      bool
	LatCPR   uint32
	LonCPR   uint32
}

type AirborneVelocity struct {
	header
	SpeedValid   bool
	SpeedKt      float64
	HeadingValid bool
	HeadingDeg   float64
	ClimbValid   bool
	ClimbFpm     float64
	Airspeed     bool // speed is air rather than ground speed
}

// Other is a correctly framed extended squitter whose contents are not
// decoded: surface position, aircraft status, target state and operational
// status.
type Other struct {
	header
}

// Decode checks the parity of an extended squitter and decodes its ME field.
// Short frames and other downlink formats return ErrUnsupported.
func Decode(raw []byte) (Message, error) {
	switch len(raw) {
	case ShortFrameLen:
		return nil, fmt.Errorf("%w: DF%d short reply", ErrUnsupported, Frame(raw).DF())
	case LongFrameLen:
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrLength, len(raw))
	}
	f := Frame(raw)
	df := f.DF()
	if df != 17 && df != 18 {
		return nil, fmt.Errorf("%w: DF%d", ErrUnsupported, df)
	}
	if err := checkParity(f); err != nil {
		return nil, err
	}

	h := header{ICAO: f.ICAO(), TypeCode: f.TypeCode()}
	me := f.me()
	switch tc := h.TypeCode; {
	case tc >= 1 && tc <= 4:
		return decodeIdentification(h, me), nil
	case tc >= 9 && tc <= 18, tc >= 20 && tc <= 22:
		return decodeAirbornePosition(h, me), nil
	case tc == 19:
		return decodeAirborneVelocity(h, me)
	case tc >= 5 && tc <= 8, tc == 28, tc == 29, tc == 31:
		return Other{h}, nil
	default:
		return nil, fmt.Errorf("%w: type code %d", ErrUnsupported, tc)
	}
}

func decodeIdentification(h header, me uint64) Identification {
	id := Identification{header: h, Category: int(me>>48) & 0x07}
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		c := callsignCharset[(me>>(42-6*uint(i)))&0x3f]
		if c != '#' {
			sb.WriteByte(c)
		}
	}
	id.Callsign = strings.TrimRight(sb.String(), " ")
	return id
}

func decodeAirbornePosition(h header, me uint64) AirbornePosition {
	p := AirbornePosition{
		header: h,
		GNSS:   h.TypeCode >= 20,
		Odd:    (me>>34)&1 == 1,
		LatCPR: uint32(me>>17) & 0x1ffff,
		LonCPR: uint32(me) & 0x1ffff,
	}
	alt := int(me>>36) & 0xfff
	switch {
	case alt == 0:
	case p.GNSS:
		p.AltValid = true
		p.AltFt = float64(alt) * feetPerMeter
	case alt&0x10 != 0:
		// Q bit set: 25 ft increments with the Q bit removed.
		n := (alt&0xfe0)>>1 | alt&0x0f
		p.AltValid = true
		p.AltFt = float64(n*25 - 1000)
	default:
		// Gillham coded 100 ft increments are not decoded.
	}
	return p
}

func decodeAirborneVelocity(h header, me uint64) (Message, error) {
	v := AirborneVelocity{header: h}
	subtype := int(me>>48) & 0x07
	switch subtype {
	case 1, 2:
		ew := int(me>>32) & 0x3ff
		ns := int(me>>21) & 0x3ff
		if ew != 0 && ns != 0 {
			vew := float64(ew - 1)
			vns := float64(ns - 1)
			if subtype == 2 {
				vew *= 4
				vns *= 4
			}
			if (me>>42)&1 == 1 {
				vew = -vew
			}
			if (me>>31)&1 == 1 {
				vns = -vns
			}
			v.SpeedValid = true
			v.SpeedKt = math.Hypot(vew, vns)
			v.HeadingValid = true
			v.HeadingDeg = math.Mod(math.Atan2(vew, vns)*180/math.Pi+360, 360)
		}
	case 3, 4:
		v.Airspeed = true
		if (me>>42)&1 == 1 {
			v.HeadingValid = true
			v.HeadingDeg = float64(int(me>>32)&0x3ff) * 360 / 1024
		}
		if as := int(me>>21) & 0x3ff; as != 0 {
			v.SpeedValid = true
			v.SpeedKt = float64(as - 1)
			if subtype == 4 {
				v.SpeedKt *= 4
			}
		}
	default:
		return nil, fmt.Errorf("%w: velocity subtype %d", ErrUnsupported, subtype)
	}
	if vr := int(me>>10) & 0x1ff; vr != 0 {
		v.ClimbValid = true
		v.ClimbFpm = float64((vr - 1) * 64)
		if (me>>19)&1 == 1 {
			v.ClimbFpm = -v.ClimbFpm
		}
	}
	return v, nil
}
