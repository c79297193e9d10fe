package main

import (
	"github.com/b3nn0/linkdecoder/report"
)

// fanout hands every decoder event to each sink in turn. It owns the
// altimeter setting used to turn pressure altitudes into true altitudes.
type fanout struct {
	sinks         []report.Reporter
	altimeterInHg float64
}

var _ report.Reporter = (*fanout)(nil)

func newFanout(altimeterInHg float64, sinks ...report.Reporter) *fanout {
	return &fanout{sinks: sinks, altimeterInHg: altimeterInHg}
}

func (f *fanout) add(sink report.Reporter) {
	f.sinks = append(f.sinks, sink)
}

// ConvertPressureAltitudeToTrue applies the standard 1000 ft per inch of
// mercury correction for the configured altimeter setting.
func (f *fanout) ConvertPressureAltitudeToTrue(lat, lon, pressureAltFt float64) float64 {
	return pressureAltFt + (f.altimeterInHg-standardAltimeterInHg)*1000
}

func (f *fanout) LogMessage(msg string, err error) {
	for _, s := range f.sinks {
		s.LogMessage(msg, err)
	}
}

func (f *fanout) ReportTraffic(t report.Traffic) {
	for _, s := range f.sinks {
		s.ReportTraffic(t)
	}
}

func (f *fanout) ReportOwnship(o report.Ownship) {
	for _, s := range f.sinks {
		s.ReportOwnship(o)
	}
}

func (f *fanout) ReportAHRS(a report.Attitude) {
	for _, s := range f.sinks {
		s.ReportAHRS(a)
	}
}

func (f *fanout) ReportBattery(level string) {
	for _, s := range f.sinks {
		s.ReportBattery(level)
	}
}

func (f *fanout) ReportInstanceTag(tag string) {
	for _, s := range f.sinks {
		s.ReportInstanceTag(tag)
	}
}

func (f *fanout) ReportMetar(b report.TextBulletin) {
	for _, s := range f.sinks {
		s.ReportMetar(b)
	}
}

func (f *fanout) ReportNexradImage(img report.NexradImage) {
	for _, s := range f.sinks {
		s.ReportNexradImage(img)
	}
}

func (f *fanout) ReportNexradClear(c report.NexradClear) {
	for _, s := range f.sinks {
		s.ReportNexradClear(c)
	}
}

func (f *fanout) ReportSatellitesInView(sats []report.Satellite) {
	for _, s := range f.sinks {
		s.ReportSatellitesInView(sats)
	}
}
