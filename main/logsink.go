package main

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/b3nn0/linkdecoder/decoder"
	"github.com/b3nn0/linkdecoder/modes"
	"github.com/b3nn0/linkdecoder/report"
	"github.com/b3nn0/linkdecoder/uatparse"
)

// logSink writes decoder events to the daemon log. Decoder diagnostics are
// warnings; decoded data only shows up at debug level.
type logSink struct {
	report.Nop
	logger *logrus.Logger
}

func newLogSink(logger *logrus.Logger) *logSink {
	return &logSink{logger: logger}
}

func (l *logSink) LogMessage(msg string, err error) {
	entry := l.logger.WithField("component", "decoder")
	if err == nil {
		entry.Info(msg)
		return
	}
	entry = entry.WithError(err)
	// Unsupported messages are normal on a busy link.
	if isUnsupported(err) {
		entry.Debug(msg)
		return
	}
	entry.Warn(msg)
}

func (l *logSink) ReportTraffic(t report.Traffic) {
	l.logger.WithFields(logrus.Fields{
		"icao":     hexAddress(t.Address),
		"callsign": t.Callsign,
		"lat":      t.Lat,
		"lon":      t.Lon,
		"alt":      t.TrueAltFt,
		"speed":    nanToNil(t.SpeedKt),
		"track":    nanToNil(t.HeadingDeg),
	}).Debug("traffic")
}

func (l *logSink) ReportOwnship(o report.Ownship) {
	l.logger.WithFields(logrus.Fields{
		"lat":   o.Lat,
		"lon":   o.Lon,
		"alt":   o.TrueAltFt,
		"speed": o.SpeedKt,
		"track": o.HeadingDeg,
	}).Debug("ownship")
}

func (l *logSink) ReportAHRS(a report.Attitude) {
	l.logger.WithFields(logrus.Fields{
		"bank":    a.BankDeg,
		"pitch":   a.PitchDeg,
		"heading": nanToNil(a.HeadingDeg),
	}).Debug("ahrs")
}

func (l *logSink) ReportBattery(level string) {
	l.logger.WithField("level", level).Info("battery")
}

func (l *logSink) ReportInstanceTag(tag string) {
	l.logger.WithField("tag", tag).Debug("input changed")
}

func (l *logSink) ReportMetar(b report.TextBulletin) {
	l.logger.WithFields(logrus.Fields{
		"type":     b.ProductType,
		"location": b.Location,
	}).Debug(b.Body)
}

func (l *logSink) ReportNexradImage(img report.NexradImage) {
	l.logger.WithFields(logrus.Fields{
		"block": img.Block,
		"conus": img.Conus,
	}).Debug("nexrad image")
}

func (l *logSink) ReportNexradClear(c report.NexradClear) {
	l.logger.WithFields(logrus.Fields{
		"blocks": len(c.Blocks),
		"conus":  c.Conus,
	}).Debug("nexrad clear")
}

func (l *logSink) ReportSatellitesInView(sats []report.Satellite) {
	l.logger.WithField("count", len(sats)).Debug("satellites in view")
}

func isUnsupported(err error) bool {
	return errors.Is(err, decoder.ErrUnsupportedMessage) ||
		errors.Is(err, uatparse.ErrUnsupported) ||
		errors.Is(err, modes.ErrUnsupported)
}

// nanToNil keeps unknown values out of the text formatter's output.
func nanToNil(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func hexAddress(addr uint32) string {
	return fmt.Sprintf("%06X", addr)
}
