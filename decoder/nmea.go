package decoder

import (
	"github.com/b3nn0/linkdecoder/common"
	"github.com/b3nn0/linkdecoder/gps"
	"github.com/b3nn0/linkdecoder/report"
)

// Longest sentence considered. NMEA-0183 allows 82 characters; some
// receivers exceed that with proprietary sentences.
const maxSentenceLen = 160

type nmeaRecognizer struct {
	scanner

	clock      common.Optional[gps.Clock]
	own        ownship
	reported   bool
	satellites []report.Satellite
}

func (r *nmeaRecognizer) locateMarker() bool {
	return r.seek('$')
}

func (r *nmeaRecognizer) decodeOne() bool {
	d := r.d
	buf := d.rx[:d.insert]
	end := r.start + 1
	for ; end < len(buf); end++ {
		b := buf[end]
		if b == '\r' || b == '\n' {
			break
		}
		if b == '$' {
			// A new sentence began before this one ended.
			r.start = end
			return false
		}
		if b < 0x20 || b > 0x7e || end-r.start >= maxSentenceLen {
			// Binary data, not a sentence.
			r.start++
			return false
		}
	}
	if end == len(buf) {
		return false
	}
	line := string(buf[r.start:end])
	r.consume(FormatNMEA, end+1, false)
	d.tag(TagNMEA)

	s, err := gps.Parse(line)
	if err != nil {
		d.stats.Malformed[FormatNMEA]++
		d.rep.LogMessage("NMEA "+line, err)
		return true
	}
	r.handle(s)
	return true
}

func (r *nmeaRecognizer) handle(s gps.Sentence) {
	d := r.d
	switch s := s.(type) {
	case *gps.Position:
		if s.ClockValid {
			r.newClock(s.Clock)
		}
		r.own.lat.Set(s.Lat)
		r.own.lon.Set(s.Lon)
		if s.HasAlt {
			r.own.alt.Set(s.AltFt)
		}
		if s.HasVelocity {
			r.own.heading.Set(s.TrackDeg)
			r.own.speed.Set(s.SpeedKt)
		}
		r.maybeReportOwnship()

	case *gps.Velocity:
		r.own.heading.Set(s.TrackDeg)
		r.own.speed.Set(s.SpeedKt)
		r.maybeReportOwnship()

	case *gps.SatellitesInView:
		if s.Index <= 1 {
			r.satellites = r.satellites[:0]
		}
		r.satellites = append(r.satellites, s.Satellites...)
		if s.Last() {
			d.rep.ReportSatellitesInView(r.satellites)
			r.satellites = nil
		}

	case *gps.Battery:
		d.rep.ReportBattery(s.Level())

	case *gps.Attitude:
		t := d.now()
		if s.ClockValid {
			t = common.TimeOfDay(t, s.Clock.Hour, s.Clock.Minute, s.Clock.Second, s.Clock.Millisecond)
		}
		d.rep.ReportAHRS(report.Attitude{Time: t, BankDeg: s.RollDeg, HeadingDeg: s.HeadingDeg, PitchDeg: s.PitchDeg})

	case *gps.Ignored:
	}
}

// newClock starts a new fix cycle when a sentence carries a time other than
// the current one.
func (r *nmeaRecognizer) newClock(c gps.Clock) {
	if r.clock.Known && r.clock.Value == c {
		return
	}
	r.clock.Set(c)
	r.own.reset()
	r.reported = false
}

func (r *nmeaRecognizer) maybeReportOwnship() {
	o := &r.own
	if r.reported || !o.lat.Known || !o.lon.Known || !o.alt.Known || !o.heading.Known || !o.speed.Known {
		return
	}
	t := r.d.now()
	if r.clock.Known {
		c := r.clock.Value
		t = common.TimeOfDay(t, c.Hour, c.Minute, c.Second, c.Millisecond)
	}
	r.d.rep.ReportOwnship(o.report(t))
	r.reported = true
}
