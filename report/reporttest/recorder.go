// Package reporttest provides a Reporter that records every call, for use
// in tests of the decoders.
package reporttest

import (
	"fmt"
	"strings"

	"github.com/b3nn0/linkdecoder/report"
)

// Call is one recorded Reporter invocation.
type Call struct {
	Method string
	Arg    interface{}
	Err    error
}

// Recorder implements report.Reporter. AltitudeOffset is added to every
// pressure altitude passed to ConvertPressureAltitudeToTrue.
type Recorder struct {
	Calls          []Call
	AltitudeOffset float64
}

var _ report.Reporter = (*Recorder)(nil)

func (r *Recorder) add(method string, arg interface{}) {
	r.Calls = append(r.Calls, Call{Method: method, Arg: arg})
}

func (r *Recorder) LogMessage(msg string, err error) {
	r.Calls = append(r.Calls, Call{Method: "LogMessage", Arg: msg, Err: err})
}

func (r *Recorder) ReportTraffic(t report.Traffic)           { r.add("ReportTraffic", t) }
func (r *Recorder) ReportOwnship(o report.Ownship)           { r.add("ReportOwnship", o) }
func (r *Recorder) ReportAHRS(a report.Attitude)             { r.add("ReportAHRS", a) }
func (r *Recorder) ReportBattery(level string)               { r.add("ReportBattery", level) }
func (r *Recorder) ReportInstanceTag(tag string)             { r.add("ReportInstanceTag", tag) }
func (r *Recorder) ReportMetar(b report.TextBulletin)        { r.add("ReportMetar", b) }
func (r *Recorder) ReportNexradImage(img report.NexradImage) { r.add("ReportNexradImage", img) }
func (r *Recorder) ReportNexradClear(c report.NexradClear)   { r.add("ReportNexradClear", c) }

func (r *Recorder) ReportSatellitesInView(sats []report.Satellite) {
	cp := make([]report.Satellite, len(sats))
	copy(cp, sats)
	r.add("ReportSatellitesInView", cp)
}

func (r *Recorder) ConvertPressureAltitudeToTrue(lat, lon, pressureAltFt float64) float64 {
	return pressureAltFt + r.AltitudeOffset
}

// Methods returns the method names of all calls, in order.
func (r *Recorder) Methods() []string {
	ret := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ret[i] = c.Method
	}
	return ret
}

// Only returns the arguments of all calls to the named method.
func (r *Recorder) Only(method string) []interface{} {
	var ret []interface{}
	for _, c := range r.Calls {
		if c.Method == method {
			ret = append(ret, c.Arg)
		}
	}
	return ret
}

func (r *Recorder) Traffic() []report.Traffic {
	var ret []report.Traffic
	for _, a := range r.Only("ReportTraffic") {
		ret = append(ret, a.(report.Traffic))
	}
	return ret
}

func (r *Recorder) Ownship() []report.Ownship {
	var ret []report.Ownship
	for _, a := range r.Only("ReportOwnship") {
		ret = append(ret, a.(report.Ownship))
	}
	return ret
}

// Logs returns every logged message text.
func (r *Recorder) Logs() []string {
	var ret []string
	for _, a := range r.Only("LogMessage") {
		ret = append(ret, a.(string))
	}
	return ret
}

// LogsContaining counts logged messages containing substr.
func (r *Recorder) LogsContaining(substr string) int {
	n := 0
	for _, l := range r.Logs() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

// Transcript renders all calls as text, suitable for comparing two runs.
func (r *Recorder) Transcript() []string {
	ret := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		ret[i] = fmt.Sprintf("%s %+v %v", c.Method, c.Arg, c.Err)
	}
	return ret
}

func (r *Recorder) Reset() {
	r.Calls = nil
}
