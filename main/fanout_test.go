package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b3nn0/linkdecoder/decoder"
	"github.com/b3nn0/linkdecoder/gdl90"
	"github.com/b3nn0/linkdecoder/report"
	"github.com/b3nn0/linkdecoder/report/reporttest"
)

func TestPressureAltitudeCorrection(t *testing.T) {
	tests := []struct {
		altimeter float64
		pressure  float64
		want      float64
	}{
		{29.92, 5000, 5000},
		{30.92, 5000, 6000},
		{28.92, 5000, 4000},
		{30.12, -300, -100},
	}
	for _, tt := range tests {
		f := newFanout(tt.altimeter)
		assert.InDelta(t, tt.want, f.ConvertPressureAltitudeToTrue(45, -90, tt.pressure), 1e-6)
	}
}

func TestFanoutDeliversToEverySink(t *testing.T) {
	a, b := &reporttest.Recorder{}, &reporttest.Recorder{}
	f := newFanout(standardAltimeterInHg, a)
	f.add(b)

	now := time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)
	f.ReportInstanceTag(decoder.TagNMEA)
	f.ReportTraffic(report.Traffic{Time: now, Address: 0xAB4549})
	f.ReportOwnship(report.Ownship{Time: now})
	f.ReportAHRS(report.Attitude{Time: now})
	f.ReportBattery("87%")
	f.ReportMetar(report.TextBulletin{Time: now, ProductType: "METAR"})
	f.ReportNexradImage(report.NexradImage{Time: now, Block: 1000})
	f.ReportNexradClear(report.NexradClear{Time: now, Blocks: []int{1}})
	f.ReportSatellitesInView([]report.Satellite{{ID: "G12"}})
	f.LogMessage("receive overflow", decoder.ErrOverflow)

	want := []string{
		"ReportInstanceTag", "ReportTraffic", "ReportOwnship", "ReportAHRS", "ReportBattery",
		"ReportMetar", "ReportNexradImage", "ReportNexradClear", "ReportSatellitesInView", "LogMessage",
	}
	assert.Equal(t, want, a.Methods())
	assert.Equal(t, a.Transcript(), b.Transcript())
}

// The decoder asks the fanout, not the sinks, for true altitudes.
func TestDecoderUsesAltimeterSetting(t *testing.T) {
	rec := &reporttest.Recorder{AltitudeOffset: 12345}
	f := newFanout(30.92, rec)
	d := decoder.New(f)

	// GDL-90 traffic report from the GDL 90 ICD, 5000 ft pressure altitude.
	msg := []byte{
		0x14, 0x00, 0xAB, 0x45, 0x49, 0x1F, 0xEF, 0x15, 0xA8, 0x89, 0x78, 0x0F,
		0x09, 0xA9, 0x07, 0xB0, 0x01, 0x20, 0x01, 0x4E, 0x38, 0x32, 0x35, 0x56,
		0x20, 0x20, 0x20, 0x00,
	}
	d.Write(gdl90.Frame(msg))

	traffic := rec.Traffic()
	require.Len(t, traffic, 1)
	assert.InDelta(t, 6000, traffic[0].TrueAltFt, 1e-6)
	assert.Equal(t, "N825V", traffic[0].Callsign)
}
