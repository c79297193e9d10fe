package decoder

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/b3nn0/linkdecoder/common"
	"github.com/b3nn0/linkdecoder/modes"
	"github.com/b3nn0/linkdecoder/report"
)

// Even and odd position frames further apart than this are not combined.
const cprPairWindow = 10 * time.Second

type cprHalf struct {
	frame modes.CPRFrame
	at    time.Time
	valid bool
}

// aircraft is what is known about one ICAO address. Entries live as long as
// the decoder.
type aircraft struct {
	callsign  string
	even, odd cprHalf
	alt       common.Optional[float64]
	altGNSS   bool
	speed     common.Optional[float64]
	heading   common.Optional[float64]
	climb     common.Optional[float64]
}

// dump1090 recognizes "*<hex>;\n" AVR frames.
type dump1090 struct {
	scanner
	aircraft map[uint32]*aircraft
}

func newDump1090(d *Decoder) *dump1090 {
	return &dump1090{scanner: scanner{d: d}, aircraft: make(map[uint32]*aircraft)}
}

func (r *dump1090) locateMarker() bool {
	return r.seek('*')
}

func (r *dump1090) decodeOne() bool {
	d := r.d
	buf := d.rx[:d.insert]
	i := r.start + 1
	for i < len(buf) && isHex(buf[i]) && i-r.start-1 < 2*modes.LongFrameLen {
		i++
	}
	if i == len(buf) {
		return false
	}
	digits := i - r.start - 1
	if digits != 2*modes.ShortFrameLen && digits != 2*modes.LongFrameLen || buf[i] != ';' {
		r.start++
		return false
	}
	if i+1 == len(buf) {
		return false
	}
	if buf[i+1] != '\n' {
		r.start++
		return false
	}

	var raw [modes.LongFrameLen]byte
	frame := raw[:digits/2]
	for j := range frame {
		frame[j] = unhex(buf[r.start+1+2*j])<<4 | unhex(buf[r.start+2+2*j])
	}
	r.consume(FormatDump1090, i+2, false)
	d.tag(TagDump1090)

	// Surveillance and Comm-B replies carry no position; Decode reports them
	// as unsupported.
	msg, err := modes.Decode(frame)
	if err != nil {
		if !errors.Is(err, modes.ErrUnsupported) {
			d.stats.Malformed[FormatDump1090]++
		}
		d.rep.LogMessage(fmt.Sprintf("dump1090 %X", frame), err)
		return true
	}
	r.handle(msg)
	return true
}

func (r *dump1090) lookup(addr uint32) *aircraft {
	ac, ok := r.aircraft[addr]
	if !ok {
		ac = &aircraft{}
		r.aircraft[addr] = ac
	}
	return ac
}

func (r *dump1090) handle(msg modes.Message) {
	now := r.d.now()
	ac := r.lookup(msg.Address())
	switch m := msg.(type) {
	case modes.Identification:
		ac.callsign = m.Callsign

	case modes.AirbornePosition:
		if m.AltValid {
			ac.alt.Set(m.AltFt)
			ac.altGNSS = m.GNSS
		}
		half := cprHalf{
			frame: modes.CPRFrame{Odd: m.Odd, LatCPR: m.LatCPR, LonCPR: m.LonCPR},
			at:    now,
			valid: true,
		}
		if m.Odd {
			ac.odd = half
		} else {
			ac.even = half
		}
		r.reportPosition(msg.Address(), ac, m.Odd, now)

	case modes.AirborneVelocity:
		if m.SpeedValid {
			ac.speed.Set(m.SpeedKt)
		}
		if m.HeadingValid {
			ac.heading.Set(m.HeadingDeg)
		}
		if m.ClimbValid {
			ac.climb.Set(m.ClimbFpm)
		}

	case modes.Other:
	}
}

func (r *dump1090) reportPosition(addr uint32, ac *aircraft, oddIsNewer bool, now time.Time) {
	if !ac.even.valid || !ac.odd.valid {
		return
	}
	if gap := ac.even.at.Sub(ac.odd.at); gap > cprPairWindow || gap < -cprPairWindow {
		return
	}
	lat, lon, ok := modes.GlobalDecode(ac.even.frame, ac.odd.frame, oddIsNewer)
	if !ok {
		return
	}

	alt := math.NaN()
	if ac.alt.Known {
		alt = ac.alt.Value
		if !ac.altGNSS {
			alt = r.d.rep.ConvertPressureAltitudeToTrue(lat, lon, alt)
		}
	}
	r.d.rep.ReportTraffic(report.Traffic{
		Time:       now,
		TrueAltFt:  alt,
		HeadingDeg: common.OrNaN(ac.heading),
		Lat:        lat,
		Lon:        lon,
		SpeedKt:    common.OrNaN(ac.speed),
		ClimbFpm:   ac.climb.Value,
		Address:    addr,
		Callsign:   ac.callsign,
	})
}
