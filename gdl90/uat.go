package gdl90

import (
	"fmt"
	"math"
	"time"

	"github.com/b3nn0/linkdecoder/report"
)

const (
	// UAT ADS-B payload lengths, DO-282B 2.2.4.
	UATBasicPayloadLen = 18
	UATLongPayloadLen  = 34

	// SquawkSuffix marks a call sign whose mode status element flags it as a
	// flight plan id rather than a call sign.
	SquawkSuffix = ":SQUAWK"

	airGroundSubsonic   = 0
	airGroundSupersonic = 1
	airGroundGround     = 2
)

// AltitudeConverter turns pressure altitude into true altitude. report.Reporter
// satisfies it.
type AltitudeConverter interface {
	ConvertPressureAltitudeToTrue(lat, lon, pressureAltFt float64) float64
}

// UATReport is a decoded UAT ADS-B payload as found in the GDL-90 Basic
// (0x1E) and Long (0x1F) reports and in dump978 downlink frames.
type UATReport struct {
	PayloadType   int
	AddressType   int
	Address       uint32
	PositionValid bool
	Lat           float64
	Lon           float64
	AltValid      bool
	AltGeometric  bool
	AltFt         float64
	OnGround      bool
	HeadingValid  bool
	HeadingDeg    float64
	SpeedValid    bool
	SpeedKt       float64
	ClimbFpm      float64
	Emitter       int
	Callsign      string
}

// DecodeUATReport decodes msg, which holds a 4 byte message header (message
// id and time of reception) followed by the UAT payload.
func DecodeUATReport(msg []byte) (UATReport, error) {
	if len(msg) < MsgHeaderLen+UATBasicPayloadLen {
		return UATReport{}, fmt.Errorf("%w: uat report length %d", ErrShort, len(msg))
	}
	frame := msg[MsgHeaderLen:]
	var r UATReport

	r.PayloadType = int(frame[0]>>3) & 0x1f
	r.AddressType = int(frame[0] & 0x07)
	r.Address = uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])

	nic := frame[11] & 0x0f
	rawLat := uint32(frame[4])<<15 | uint32(frame[5])<<7 | uint32(frame[6])>>1
	rawLon := uint32(frame[6]&0x01)<<23 | uint32(frame[7])<<15 | uint32(frame[8])<<7 | uint32(frame[9])>>1
	if nic != 0 || rawLat != 0 || rawLon != 0 {
		r.PositionValid = true
		r.Lat = float64(rawLat) * 360.0 / 16777216.0
		if r.Lat > 90 {
			r.Lat -= 180
		}
		r.Lon = float64(rawLon) * 360.0 / 16777216.0
		if r.Lon > 180 {
			r.Lon -= 360
		}
	}

	rawAlt := int(frame[10])<<4 | int(frame[11]&0xf0)>>4
	if rawAlt != 0 {
		r.AltValid = true
		r.AltGeometric = frame[9]&0x01 != 0
		r.AltFt = float64((rawAlt-1)*25 - 1000)
	}

	switch airGround := (frame[12] >> 6) & 0x03; airGround {
	case airGroundSubsonic, airGroundSupersonic:
		ns, nsOK := uatVelocity(int(frame[12]&0x1f)<<6 | int(frame[13]&0xfc)>>2)
		ew, ewOK := uatVelocity(int(frame[13]&0x03)<<9 | int(frame[14])<<1 | int(frame[15]&0x80)>>7)
		if airGround == airGroundSupersonic {
			ns *= 2
			ew *= 2
		}
		if nsOK && ewOK {
			r.SpeedValid = true
			r.SpeedKt = math.Hypot(ns, ew)
			if ns != 0 || ew != 0 {
				r.HeadingValid = true
				r.HeadingDeg = normalizeHeading(math.Atan2(ew, ns) * 180 / math.Pi)
			}
		}
		rawVvel := int(frame[15]&0x7f)<<4 | int(frame[16]&0xf0)>>4
		if rawVvel&0x1ff != 0 {
			r.ClimbFpm = float64((rawVvel&0x1ff - 1) * 64)
			if rawVvel&0x200 != 0 {
				r.ClimbFpm = -r.ClimbFpm
			}
		}
	case airGroundGround:
		r.OnGround = true
		rawGs := int(frame[12]&0x1f)<<6 | int(frame[13]&0xfc)>>2
		if rawGs&0x3ff != 0 {
			r.SpeedValid = true
			r.SpeedKt = float64(rawGs&0x3ff - 1)
		}
		rawTrack := int(frame[13]&0x03)<<9 | int(frame[14])<<1 | int(frame[15]&0x80)>>7
		r.HeadingValid = true
		r.HeadingDeg = float64(rawTrack&0x1ff) * 360.0 / 512.0
	default:
		// Reserved state: no velocity.
	}

	// Payload types 1 and 3 carry the mode status element.
	if (r.PayloadType == 1 || r.PayloadType == 3) && len(frame) >= UATLongPayloadLen {
		r.Emitter = EmitterCategory(frame[17:19])
		r.Callsign = DecodeRAD40(frame[17:23])
		if msg[30]&0x02 != 0 {
			r.Callsign += SquawkSuffix
		}
	}
	return r, nil
}

// uatVelocity decodes an 11 bit sign-magnitude velocity component.
func uatVelocity(raw int) (float64, bool) {
	if raw&0x3ff == 0 {
		return 0, false
	}
	v := float64(raw&0x3ff - 1)
	if raw&0x400 != 0 {
		v = -v
	}
	return v, true
}

// Traffic converts the report into a traffic event. Barometric altitudes go
// through conv.
func (r UATReport) Traffic(t time.Time, conv AltitudeConverter) report.Traffic {
	alt := math.NaN()
	if r.AltValid {
		alt = r.AltFt
		if !r.AltGeometric {
			alt = conv.ConvertPressureAltitudeToTrue(r.Lat, r.Lon, r.AltFt)
		}
	}
	hdg, spd := math.NaN(), math.NaN()
	if r.HeadingValid {
		hdg = r.HeadingDeg
	}
	if r.SpeedValid {
		spd = r.SpeedKt
	}
	return report.Traffic{
		Time:       t,
		TrueAltFt:  alt,
		HeadingDeg: hdg,
		Lat:        r.Lat,
		Lon:        r.Lon,
		SpeedKt:    spd,
		ClimbFpm:   r.ClimbFpm,
		Address:    r.Address,
		Callsign:   r.Callsign,
		OnGround:   r.OnGround,
	}
}

// Traffic converts a GDL-90 traffic report into a traffic event. The
// report's altitude is always pressure altitude.
func (r TrafficReport) Traffic(t time.Time, conv AltitudeConverter) report.Traffic {
	alt := math.NaN()
	if r.AltValid {
		alt = conv.ConvertPressureAltitudeToTrue(r.Lat, r.Lon, r.PressureAltFt)
	}
	hdg, spd, climb := math.NaN(), math.NaN(), 0.0
	if r.TrackType != 0 {
		hdg = r.TrackDeg
	}
	if r.SpeedValid {
		spd = r.SpeedKt
	}
	if r.ClimbValid {
		climb = r.ClimbFpm
	}
	return report.Traffic{
		Time:       t,
		TrueAltFt:  alt,
		HeadingDeg: hdg,
		Lat:        r.Lat,
		Lon:        r.Lon,
		SpeedKt:    spd,
		ClimbFpm:   climb,
		Address:    r.Address,
		Callsign:   r.Callsign,
		OnGround:   !r.Airborne,
	}
}
