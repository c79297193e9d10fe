package decoder

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/b3nn0/linkdecoder/common"
	"github.com/b3nn0/linkdecoder/gdl90"
	"github.com/b3nn0/linkdecoder/report"
)

// Content between two flags shorter than this is taken to be noise. The
// shortest message, the Stratux heartbeat, is 2 bytes plus the CRC.
const minGDL90Content = 4

// ownship accumulates the fields of one own-ship report.
type ownship struct {
	lat, lon, alt, heading, speed common.Optional[float64]
}

func (o *ownship) reset() {
	*o = ownship{}
}

func (o *ownship) report(t time.Time) report.Ownship {
	return report.Ownship{
		Time:       t,
		TrueAltFt:  o.alt.Value,
		HeadingDeg: common.OrNaN(o.heading),
		Lat:        o.lat.Value,
		Lon:        common.OrNaN(o.lon),
		SpeedKt:    common.OrNaN(o.speed),
	}
}

type gdl90Recognizer struct {
	scanner

	gotGeoAltLastCycle     bool
	gotGeoAltThisCycle     bool
	heartbeatPositionValid bool
	heartbeatSeconds       common.Optional[int]
	ahrsValid              bool
	own                    ownship
}

func (r *gdl90Recognizer) locateMarker() bool {
	return r.seek(gdl90.FlagByte)
}

func (r *gdl90Recognizer) decodeOne() bool {
	d := r.d
	buf := d.rx[:d.insert]
	end := r.start + 1
	for end < len(buf) && buf[end] != gdl90.FlagByte {
		end++
	}
	if end == len(buf) {
		return false
	}
	if end-r.start-1 < minGDL90Content {
		// Most likely the closing flag of a frame we missed: start again
		// from the second flag.
		r.start = end
		return false
	}
	consumed := end + 1

	n, err := gdl90.Unstuff(d.scratch[:], buf[r.start+1:end])
	if err != nil {
		d.rep.LogMessage("GDL-90 frame", err)
		return r.consume(FormatGDL90, consumed, true)
	}
	msg, err := gdl90.CheckCRC(d.scratch[:n])
	if err != nil {
		d.rep.LogMessage("GDL-90 frame", err)
		return r.consume(FormatGDL90, consumed, true)
	}
	r.consume(FormatGDL90, consumed, false)
	if err := r.handle(msg); err != nil {
		if !isUnsupported(err) {
			d.stats.Malformed[FormatGDL90]++
		}
		d.rep.LogMessage(fmt.Sprintf("GDL-90 message 0x%02X", msg[0]), err)
	}
	return true
}

func (r *gdl90Recognizer) handle(msg []byte) error {
	d := r.d
	switch id := msg[0]; id {
	case gdl90.MsgHeartbeat:
		d.tag(TagGDL90)
		hb, err := gdl90.DecodeHeartbeat(msg)
		if err != nil {
			return err
		}
		r.own.reset()
		r.heartbeatPositionValid = hb.PositionValid
		r.heartbeatSeconds.Set(hb.SecondsOfDay)
		r.gotGeoAltLastCycle = r.gotGeoAltThisCycle
		r.gotGeoAltThisCycle = false

	case gdl90.MsgInitialization, gdl90.MsgHeightAboveTerr:
		d.tag(TagGDL90)

	case gdl90.MsgUplink:
		d.tag(TagGDL90)
		if len(msg) < gdl90.UplinkMsgLen {
			return fmt.Errorf("%w: uplink length %d", gdl90.ErrShort, len(msg))
		}
		return d.uat.DecodeUplink(msg[gdl90.MsgHeaderLen:gdl90.UplinkMsgLen], d.now())

	case gdl90.MsgOwnship:
		d.tag(TagGDL90)
		tr, err := gdl90.DecodeTrafficReport(msg)
		if err != nil {
			return err
		}
		r.own.lat.Set(tr.Lat)
		r.own.lon.Set(tr.Lon)
		if tr.SpeedValid {
			r.own.speed.Set(tr.SpeedKt)
		}
		if tr.TrackType != 0 {
			r.own.heading.Set(tr.TrackDeg)
		}
		if tr.AltValid && !r.gotGeoAltThisCycle && !r.gotGeoAltLastCycle {
			r.own.alt.Set(d.rep.ConvertPressureAltitudeToTrue(tr.Lat, tr.Lon, tr.PressureAltFt))
		}
		r.maybeReportOwnship()

	case gdl90.MsgOwnshipGeoAlt:
		d.tag(TagGDL90)
		alt, _, ok, err := gdl90.DecodeGeoAltitude(msg)
		if err != nil {
			return err
		}
		r.gotGeoAltThisCycle = true
		if ok {
			r.own.alt.Set(alt)
		}
		r.maybeReportOwnship()

	case gdl90.MsgTraffic:
		d.tag(TagGDL90)
		tr, err := gdl90.DecodeTrafficReport(msg)
		if err != nil {
			return err
		}
		d.rep.ReportTraffic(tr.Traffic(d.now(), d.rep))

	case gdl90.MsgBasicReport, gdl90.MsgLongReport:
		d.tag(TagGDL90)
		d.reportUAT(msg)

	case gdl90.MsgStratuxAHRS:
		d.tag(TagGDL90Stratux)
		att, err := gdl90.DecodeStratuxAHRS(msg)
		if err != nil {
			return err
		}
		if r.ahrsValid {
			d.rep.ReportAHRS(attitude(d.now(), att))
		}

	case gdl90.MsgStratuxStatus:
		d.tag(TagGDL90Stratux)
		s, err := gdl90.DecodeStatus(msg)
		if err != nil {
			return err
		}
		r.ahrsValid = s.AHRSValid
		if s.BatteryPresent {
			d.rep.ReportBattery(s.BatteryLevel())
		}

	case gdl90.MsgStratuxHeartbeat:
		d.tag(TagGDL90Stratux)
		hb, err := gdl90.DecodeStratuxHeartbeat(msg)
		if err != nil {
			return err
		}
		r.ahrsValid = hb.AHRSValid

	case gdl90.MsgForeFlight:
		d.tag(TagGDL90ForeFlight)
		ff, err := gdl90.DecodeForeFlight(msg)
		if err != nil {
			return err
		}
		if ff.SubID == 0 {
			d.rep.LogMessage(fmt.Sprintf("ForeFlight device %q serial %016X", ff.Device, ff.Serial), nil)
			break
		}
		if !math.IsNaN(ff.Attitude.RollDeg) && !math.IsNaN(ff.Attitude.PitchDeg) {
			d.rep.ReportAHRS(attitude(d.now(), ff.Attitude))
		}

	default:
		d.tag(TagGDL90)
		return fmt.Errorf("%w: id 0x%02X", ErrUnsupportedMessage, id)
	}
	return nil
}

// maybeReportOwnship emits an own-ship fix once the heartbeat vouched for
// the position and both altitude and latitude arrived. Those two are then
// required afresh for the next fix.
func (r *gdl90Recognizer) maybeReportOwnship() {
	if !r.heartbeatPositionValid || !r.own.alt.Known || !r.own.lat.Known {
		return
	}
	t := r.d.now()
	if r.heartbeatSeconds.Known {
		t = common.SecondsOfDay(t, r.heartbeatSeconds.Value)
	}
	r.d.rep.ReportOwnship(r.own.report(t))
	r.own.alt.Clear()
	r.own.lat.Clear()
}

func attitude(t time.Time, a gdl90.Attitude) report.Attitude {
	return report.Attitude{Time: t, BankDeg: a.RollDeg, HeadingDeg: a.HeadingDeg, PitchDeg: a.PitchDeg}
}

// isUnsupported reports whether err marks a message type that is skipped on
// purpose rather than a broken one.
func isUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedMessage)
}
