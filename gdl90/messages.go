package gdl90

import (
	"fmt"
	"math"
	"strings"
)

// Message ids, GDL 90 Data Interface Specification p.8, plus the Stratux and
// ForeFlight extensions.
const (
	MsgHeartbeat         = 0x00
	MsgInitialization    = 0x02
	MsgUplink            = 0x07
	MsgHeightAboveTerr   = 0x09
	MsgOwnship           = 0x0A
	MsgOwnshipGeoAlt     = 0x0B
	MsgTraffic           = 0x14
	MsgBasicReport       = 0x1E
	MsgLongReport        = 0x1F
	MsgStratuxAHRS       = 0x4C
	MsgStratuxStatus     = 0x53
	MsgForeFlight        = 0x65
	MsgStratuxHeartbeat  = 0xCC
	MsgHeaderLen         = 4 // message id plus 3 bytes time of reception
	UplinkMsgLen         = MsgHeaderLen + 432
	TrafficReportLen     = 28
	foreFlightID         = 0x00
	foreFlightAHRS       = 0x01
	invalidAHRS          = 0x7FFF
	invalidFFHeading     = 0xFFFF
	vfomNotAvailable     = 0x7FFF
	altitudeNotAvailable = 0xFFF
)

// MaxGeoAltVFOM is the largest vertical figure of merit, in meters, for which
// an ownship geometric altitude is accepted.
const MaxGeoAltVFOM = 100

type Heartbeat struct {
	PositionValid bool
	UTCOK         bool
	SecondsOfDay  int
}

func DecodeHeartbeat(msg []byte) (Heartbeat, error) {
	if len(msg) < 7 {
		return Heartbeat{}, fmt.Errorf("%w: heartbeat length %d", ErrShort, len(msg))
	}
	// Bit 16 of the timestamp lives in the top bit of status byte 2.
	secs := int(msg[2]>>7)<<16 | int(msg[4])<<8 | int(msg[3])
	return Heartbeat{
		PositionValid: msg[1]&0x80 != 0,
		UTCOK:         msg[2]&0x01 != 0,
		SecondsOfDay:  secs,
	}, nil
}

// TrafficReport is the 28 byte layout shared by the Ownship (0x0A) and
// Traffic (0x14) reports. See p.17.
type TrafficReport struct {
	AlertStatus   int
	AddressType   int
	Address       uint32
	Lat           float64
	Lon           float64
	PressureAltFt float64
	AltValid      bool
	Airborne      bool
	TrackType     int
	NIC           int
	NACp          int
	SpeedKt       float64
	SpeedValid    bool
	ClimbFpm      float64
	ClimbValid    bool
	TrackDeg      float64
	Emitter       int
	Callsign      string
	Priority      int
}

// signed24 scales a 24 bit two's complement value to degrees, 180/2^23 per unit.
func signed24(b []byte) float64 {
	v := int32(uint32(b[0])<<24|uint32(b[1])<<16|uint32(b[2])<<8) >> 8
	return float64(v) * 180.0 / float64(1<<23)
}

func DecodeTrafficReport(msg []byte) (TrafficReport, error) {
	if len(msg) < TrafficReportLen {
		return TrafficReport{}, fmt.Errorf("%w: traffic report length %d", ErrShort, len(msg))
	}
	var r TrafficReport
	r.AlertStatus = int(msg[1] >> 4)
	r.AddressType = int(msg[1] & 0x0F)
	r.Address = uint32(msg[2])<<16 | uint32(msg[3])<<8 | uint32(msg[4])
	r.Lat = signed24(msg[5:8])
	r.Lon = signed24(msg[8:11])

	alt := int(msg[11])<<4 | int(msg[12])>>4
	if alt != altitudeNotAvailable {
		r.AltValid = true
		r.PressureAltFt = float64(alt*25 - 1000)
	}
	misc := msg[12] & 0x0F
	r.Airborne = misc&0x08 != 0
	r.TrackType = int(misc & 0x03)
	r.NIC = int(msg[13] >> 4)
	r.NACp = int(msg[13] & 0x0F)

	hvel := int(msg[14])<<4 | int(msg[15])>>4
	if hvel != 0xFFF {
		r.SpeedValid = true
		r.SpeedKt = float64(hvel)
	}
	vvel := int(msg[15]&0x0F)<<8 | int(msg[16])
	if vvel != 0x800 {
		if vvel&0x800 != 0 {
			vvel -= 0x1000
		}
		r.ClimbValid = true
		r.ClimbFpm = float64(vvel * 64)
	}
	r.TrackDeg = float64(msg[17]) * 360.0 / 256.0
	r.Emitter = int(msg[18])
	r.Callsign = strings.TrimRight(string(msg[19:27]), " \x00")
	r.Priority = int(msg[27] >> 4)
	return r, nil
}

// DecodeGeoAltitude decodes an Ownship Geometric Altitude message (p.28).
// ok is false when the vertical figure of merit is unavailable or worse than
// MaxGeoAltVFOM.
func DecodeGeoAltitude(msg []byte) (altFt float64, vfom int, ok bool, err error) {
	if len(msg) < 5 {
		return 0, 0, false, fmt.Errorf("%w: geo altitude length %d", ErrShort, len(msg))
	}
	altFt = float64(int16(uint16(msg[1])<<8|uint16(msg[2]))) * 5
	vfom = int(uint16(msg[3]&0x7F)<<8 | uint16(msg[4]))
	ok = vfom != vfomNotAvailable && vfom <= MaxGeoAltVFOM
	return altFt, vfom, ok, nil
}

// Attitude from one of the AHRS extension messages. A field is NaN when the
// sender flagged it invalid.
type Attitude struct {
	RollDeg    float64
	PitchDeg   float64
	HeadingDeg float64
}

func tenths(hi, lo byte) float64 {
	v := int16(uint16(hi)<<8 | uint16(lo))
	if v == invalidAHRS {
		return math.NaN()
	}
	return float64(v) / 10
}

// DecodeStratuxAHRS decodes the 0x4C 0x45 AHRS report.
func DecodeStratuxAHRS(msg []byte) (Attitude, error) {
	if len(msg) < 10 {
		return Attitude{}, fmt.Errorf("%w: stratux ahrs length %d", ErrShort, len(msg))
	}
	if msg[1] != 0x45 {
		return Attitude{}, fmt.Errorf("gdl90: unknown stratux sub id 0x%02X", msg[1])
	}
	return Attitude{
		RollDeg:    tenths(msg[4], msg[5]),
		PitchDeg:   tenths(msg[6], msg[7]),
		HeadingDeg: normalizeHeading(tenths(msg[8], msg[9])),
	}, nil
}

// StratuxHeartbeat carries the validity bits of the 0xCC message.
type StratuxHeartbeat struct {
	AHRSValid bool
	GPSValid  bool
}

func DecodeStratuxHeartbeat(msg []byte) (StratuxHeartbeat, error) {
	if len(msg) < 2 {
		return StratuxHeartbeat{}, fmt.Errorf("%w: stratux heartbeat length %d", ErrShort, len(msg))
	}
	return StratuxHeartbeat{
		AHRSValid: msg[1]&0x01 != 0,
		GPSValid:  msg[1]&0x02 != 0,
	}, nil
}

// Status is the 'S' device status message:
//
//	[1]     version
//	[2:6]   firmware major, minor, hotfix, build
//	[6:10]  hardware revision
//	[10]    flags: bit0 GPS valid, bit1 AHRS valid, bit2 pressure sensor, bit3 battery present
//	[11]    battery percent
//	[12]    battery flags: bit0 charging
type Status struct {
	Version         int
	Firmware        string
	GPSValid        bool
	AHRSValid       bool
	PressureValid   bool
	BatteryPresent  bool
	BatteryPercent  int
	BatteryCharging bool
}

func DecodeStatus(msg []byte) (Status, error) {
	if len(msg) < 11 {
		return Status{}, fmt.Errorf("%w: status length %d", ErrShort, len(msg))
	}
	s := Status{
		Version:       int(msg[1]),
		Firmware:      fmt.Sprintf("%d.%d.%d-%d", msg[2], msg[3], msg[4], msg[5]),
		GPSValid:      msg[10]&0x01 != 0,
		AHRSValid:     msg[10]&0x02 != 0,
		PressureValid: msg[10]&0x04 != 0,
	}
	if msg[10]&0x08 != 0 && len(msg) >= 13 {
		s.BatteryPresent = true
		s.BatteryPercent = int(msg[11])
		s.BatteryCharging = msg[12]&0x01 != 0
	}
	return s, nil
}

// BatteryLevel is the human readable form handed to the battery report.
func (s Status) BatteryLevel() string {
	if s.BatteryCharging {
		return fmt.Sprintf("%d%% charging", s.BatteryPercent)
	}
	return fmt.Sprintf("%d%%", s.BatteryPercent)
}

// ForeFlight is a decoded 0x65 message. Exactly one of Device and Attitude is
// meaningful, according to SubID.
type ForeFlight struct {
	SubID    int
	Device   string
	Serial   uint64
	Attitude Attitude
}

func DecodeForeFlight(msg []byte) (ForeFlight, error) {
	if len(msg) < 2 {
		return ForeFlight{}, fmt.Errorf("%w: foreflight length %d", ErrShort, len(msg))
	}
	ff := ForeFlight{SubID: int(msg[1])}
	switch ff.SubID {
	case foreFlightID:
		if len(msg) < 19 {
			return ff, fmt.Errorf("%w: foreflight id length %d", ErrShort, len(msg))
		}
		for _, b := range msg[3:11] {
			ff.Serial = ff.Serial<<8 | uint64(b)
		}
		ff.Device = strings.TrimRight(string(msg[11:19]), " \x00")
	case foreFlightAHRS:
		if len(msg) < 8 {
			return ff, fmt.Errorf("%w: foreflight ahrs length %d", ErrShort, len(msg))
		}
		ff.Attitude.RollDeg = tenths(msg[2], msg[3])
		ff.Attitude.PitchDeg = tenths(msg[4], msg[5])
		hdg := uint16(msg[6])<<8 | uint16(msg[7])
		if hdg == invalidFFHeading {
			ff.Attitude.HeadingDeg = math.NaN()
		} else {
			// Top bit flags a magnetic heading; the rest is a 15 bit signed value in tenths.
			v := int16(hdg<<1) >> 1
			ff.Attitude.HeadingDeg = normalizeHeading(float64(v) / 10)
		}
	default:
		return ff, fmt.Errorf("gdl90: unknown foreflight sub id 0x%02X", ff.SubID)
	}
	return ff, nil
}

func normalizeHeading(h float64) float64 {
	if math.IsNaN(h) {
		return h
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
