package gps

import (
	"fmt"
	"strconv"
	"strings"

	nmea "github.com/adrianmo/go-nmea"

	"github.com/b3nn0/linkdecoder/report"
)

const (
	metersToFeet = 3.28084

	fixQualityInvalid = "0"
	rmcValid          = "A"
)

// Clock is the UTC time of day carried by a sentence.
type Clock struct {
	Hour, Minute, Second, Millisecond int
}

func clockOf(t nmea.Time) (Clock, bool) {
	return Clock{t.Hour, t.Minute, t.Second, t.Millisecond}, t.Valid
}

// Sentence is the result of Parse. It is one of *Position, *Velocity,
// *SatellitesInView, *Battery, *Attitude or *Ignored.
type Sentence interface {
	Type() string
}

// Position comes from GGA (with altitude) or RMC (with velocity).
type Position struct {
	Kind        string
	Clock       Clock
	ClockValid  bool
	Lat         float64
	Lon         float64
	HasAlt      bool
	AltFt       float64 // above mean sea level
	HasVelocity bool
	TrackDeg    float64
	SpeedKt     float64
}

type Velocity struct {
	TrackDeg float64
	SpeedKt  float64
}

// SatellitesInView is one sentence of a GSV group.
type SatellitesInView struct {
	Total      int
	Index      int
	Satellites []report.Satellite
}

func (s *SatellitesInView) Last() bool { return s.Index >= s.Total }

type Battery struct {
	Percent  int
	Charging bool
}

func (b *Battery) Level() string {
	if b.Charging {
		return fmt.Sprintf("%d%% charging", b.Percent)
	}
	return fmt.Sprintf("%d%%", b.Percent)
}

type Attitude struct {
	Clock      Clock
	ClockValid bool
	RollDeg    float64
	PitchDeg   float64
	HeadingDeg float64
}

// Ignored is a well formed sentence that carries nothing of interest: an
// unsupported type, or a fix the receiver marked invalid.
type Ignored struct {
	Kind   string
	Reason string
}

func (p *Position) Type() string       { return p.Kind }
func (*Velocity) Type() string         { return nmea.TypeVTG }
func (*SatellitesInView) Type() string { return nmea.TypeGSV }
func (*Battery) Type() string          { return "PWR" }
func (*Attitude) Type() string         { return "RTM" }
func (i *Ignored) Type() string        { return i.Kind }

// Parse validates the checksum of a complete sentence and decodes it.
func Parse(s string) (Sentence, error) {
	body, err := ValidateChecksum(s)
	if err != nil {
		return nil, err
	}
	fields := strings.Split(body, ",")
	if len(fields[0]) < 3 {
		return nil, fmt.Errorf("%w: address %q", ErrMalformed, fields[0])
	}
	kind := fields[0][len(fields[0])-3:]

	switch kind {
	case nmea.TypeGGA:
		if len(fields) < 7 || fields[6] == "" || fields[6] == fixQualityInvalid {
			return &Ignored{Kind: kind, Reason: "no fix"}, nil
		}
		return parseGGA(s)
	case nmea.TypeRMC:
		if len(fields) < 3 || fields[2] != rmcValid {
			return &Ignored{Kind: kind, Reason: "no fix"}, nil
		}
		return parseRMC(s)
	case nmea.TypeVTG:
		return parseVTG(s)
	case nmea.TypeGSV:
		return parseGSV(s)
	case "PWR":
		return parsePWR(fields)
	case "RTM":
		return parseRTM(fields)
	default:
		return &Ignored{Kind: kind, Reason: "unsupported"}, nil
	}
}

func parseWith(s string) (nmea.Sentence, error) {
	sent, err := nmea.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return sent, nil
}

func parseGGA(s string) (Sentence, error) {
	sent, err := parseWith(s)
	if err != nil {
		return nil, err
	}
	gga, ok := sent.(nmea.GGA)
	if !ok {
		return nil, fmt.Errorf("%w: not GGA", ErrMalformed)
	}
	p := &Position{Kind: nmea.TypeGGA, Lat: gga.Latitude, Lon: gga.Longitude, HasAlt: true, AltFt: gga.Altitude * metersToFeet}
	p.Clock, p.ClockValid = clockOf(gga.Time)
	return p, nil
}

func parseRMC(s string) (Sentence, error) {
	sent, err := parseWith(s)
	if err != nil {
		return nil, err
	}
	rmc, ok := sent.(nmea.RMC)
	if !ok {
		return nil, fmt.Errorf("%w: not RMC", ErrMalformed)
	}
	p := &Position{Kind: nmea.TypeRMC, Lat: rmc.Latitude, Lon: rmc.Longitude, HasVelocity: true, TrackDeg: rmc.Course, SpeedKt: rmc.Speed}
	p.Clock, p.ClockValid = clockOf(rmc.Time)
	return p, nil
}

func parseVTG(s string) (Sentence, error) {
	sent, err := parseWith(s)
	if err != nil {
		return nil, err
	}
	vtg, ok := sent.(nmea.VTG)
	if !ok {
		return nil, fmt.Errorf("%w: not VTG", ErrMalformed)
	}
	return &Velocity{TrackDeg: vtg.TrueTrack, SpeedKt: vtg.GroundSpeedKnots}, nil
}

func parseGSV(s string) (Sentence, error) {
	sent, err := parseWith(s)
	if err != nil {
		return nil, err
	}
	gsv, ok := sent.(nmea.GSV)
	if !ok {
		return nil, fmt.Errorf("%w: not GSV", ErrMalformed)
	}
	ret := &SatellitesInView{Total: int(gsv.TotalMessages), Index: int(gsv.MessageNumber)}
	for _, info := range gsv.Info {
		sv := int(info.SVPRNNumber)
		ret.Satellites = append(ret.Satellites, report.Satellite{
			ID:        SatelliteID(sv),
			PRN:       sv,
			Elevation: int(info.Elevation),
			Azimuth:   int(info.Azimuth),
			SNR:       int(info.SNR),
		})
	}
	return ret, nil
}

// SatelliteID maps an NMEA satellite number to a constellation letter and
// that constellation's own PRN.
func SatelliteID(sv int) string {
	switch {
	case sv <= 32:
		return fmt.Sprintf("G%d", sv) // GPS 1-32
	case sv <= 64:
		return fmt.Sprintf("S%d", sv+87) // SBAS 33-64, 33 = SBAS PRN 120
	case sv <= 96:
		return fmt.Sprintf("R%d", sv-64) // GLONASS 65-96
	case sv <= 158:
		return fmt.Sprintf("S%d", sv) // SBAS 152-158
	case sv <= 202:
		return fmt.Sprintf("Q%d", sv-192) // QZSS 193-202
	case sv <= 336:
		return fmt.Sprintf("E%d", sv-300) // Galileo 301-336
	case sv <= 463:
		return fmt.Sprintf("B%d", sv-400) // Beidou 401-463
	default:
		return fmt.Sprintf("U%d", sv)
	}
}

// parsePWR decodes $xxPWR,<percent>[,C|D].
func parsePWR(fields []string) (Sentence, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: PWR has %d fields", ErrMalformed, len(fields))
	}
	pct, err := strconv.Atoi(fields[1])
	if err != nil || pct < 0 || pct > 100 {
		return nil, fmt.Errorf("%w: PWR level %q", ErrMalformed, fields[1])
	}
	b := &Battery{Percent: pct}
	if len(fields) > 2 {
		b.Charging = fields[2] == "C"
	}
	return b, nil
}

// parseRTM decodes $xxRTM,<hhmmss.ss>,<roll>,<pitch>,<heading>.
func parseRTM(fields []string) (Sentence, error) {
	if len(fields) < 5 {
		return nil, fmt.Errorf("%w: RTM has %d fields", ErrMalformed, len(fields))
	}
	t, err := nmea.ParseTime(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: RTM time %q", ErrMalformed, fields[1])
	}
	a := &Attitude{}
	a.Clock, a.ClockValid = clockOf(t)
	vals := make([]float64, 3)
	for i, f := range fields[2:5] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: RTM field %d %q", ErrMalformed, i+2, f)
		}
		vals[i] = v
	}
	a.RollDeg, a.PitchDeg, a.HeadingDeg = vals[0], vals[1], vals[2]
	return a, nil
}
