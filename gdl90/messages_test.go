package gdl90

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeartbeat(t *testing.T) {
	hb, err := DecodeHeartbeat(heartbeat)
	require.NoError(t, err)
	assert.True(t, hb.PositionValid)
	assert.True(t, hb.UTCOK)
	assert.Equal(t, 0xD0DB, hb.SecondsOfDay)

	hb, err = DecodeHeartbeat([]byte{0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	assert.False(t, hb.PositionValid)
	assert.Equal(t, 1<<16, hb.SecondsOfDay)

	_, err = DecodeHeartbeat(heartbeat[:3])
	assert.ErrorIs(t, err, ErrShort)
}

// Traffic report example from the GDL 90 Data Interface Specification, p.19.
var trafficExample = []byte{
	0x14, 0x00, 0xAB, 0x45, 0x49, 0x1F, 0xEF, 0x15, 0xA8, 0x89, 0x78, 0x0F,
	0x09, 0xA9, 0x07, 0xB0, 0x01, 0x20, 0x01, 0x4E, 0x38, 0x32, 0x35, 0x56,
	0x20, 0x20, 0x20, 0x00,
}

func TestDecodeTrafficReport(t *testing.T) {
	r, err := DecodeTrafficReport(trafficExample)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xAB4549), r.Address)
	assert.InDelta(t, 44.90708, r.Lat, 1e-4)
	assert.InDelta(t, -122.99488, r.Lon, 1e-4)
	assert.True(t, r.AltValid)
	assert.Equal(t, 5000.0, r.PressureAltFt)
	assert.True(t, r.Airborne)
	assert.Equal(t, 1, r.TrackType)
	assert.Equal(t, 10, r.NIC)
	assert.Equal(t, 9, r.NACp)
	assert.True(t, r.SpeedValid)
	assert.Equal(t, 123.0, r.SpeedKt)
	assert.True(t, r.ClimbValid)
	assert.Equal(t, 64.0, r.ClimbFpm)
	assert.InDelta(t, 45.0, r.TrackDeg, 0.01)
	assert.Equal(t, 1, r.Emitter)
	assert.Equal(t, "N825V", r.Callsign)
}

func TestDecodeGeoAltitude(t *testing.T) {
	alt, vfom, ok, err := DecodeGeoAltitude([]byte{0x0B, 0x01, 0xF4, 0x00, 0x0A})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, alt)
	assert.Equal(t, 10, vfom)
	assert.True(t, ok)

	_, _, ok, err = DecodeGeoAltitude([]byte{0x0B, 0x01, 0xF4, 0x7F, 0xFF})
	require.NoError(t, err)
	assert.False(t, ok, "vfom not available")

	_, _, ok, err = DecodeGeoAltitude([]byte{0x0B, 0xFF, 0xF6, 0x00, 0x65})
	require.NoError(t, err)
	assert.False(t, ok, "vfom 101 m")
}

func TestDecodeStratuxAHRS(t *testing.T) {
	msg := []byte{0x4C, 0x45, 0x01, 0x01, 0x00, 0x64, 0xFF, 0x9C, 0x7F, 0xFF}
	a, err := DecodeStratuxAHRS(msg)
	require.NoError(t, err)
	assert.Equal(t, 10.0, a.RollDeg)
	assert.Equal(t, -10.0, a.PitchDeg)
	assert.True(t, math.IsNaN(a.HeadingDeg))

	msg[1] = 0x46
	_, err = DecodeStratuxAHRS(msg)
	assert.Error(t, err)
}

func TestDecodeStatus(t *testing.T) {
	msg := []byte{0x53, 0x01, 1, 6, 0, 12, 0, 0, 0, 3, 0x0B, 87, 0x01}
	s, err := DecodeStatus(msg)
	require.NoError(t, err)
	assert.True(t, s.GPSValid)
	assert.True(t, s.AHRSValid)
	assert.False(t, s.PressureValid)
	assert.True(t, s.BatteryPresent)
	assert.Equal(t, "87% charging", s.BatteryLevel())
	assert.Equal(t, "1.6.0-12", s.Firmware)
}

func TestDecodeForeFlight(t *testing.T) {
	id := append([]byte{0x65, 0x00, 0x01, 0, 0, 0, 0, 0, 0, 0x12, 0x34}, []byte("Stratux ")...)
	ff, err := DecodeForeFlight(id)
	require.NoError(t, err)
	assert.Equal(t, "Stratux", ff.Device)
	assert.Equal(t, uint64(0x1234), ff.Serial)

	ahrs := []byte{0x65, 0x01, 0xFF, 0xCE, 0x00, 0x32, 0x03, 0x84}
	ff, err = DecodeForeFlight(ahrs)
	require.NoError(t, err)
	assert.Equal(t, -5.0, ff.Attitude.RollDeg)
	assert.Equal(t, 5.0, ff.Attitude.PitchDeg)
	assert.Equal(t, 90.0, ff.Attitude.HeadingDeg)

	ahrs[6], ahrs[7] = 0xFF, 0xFF
	ff, err = DecodeForeFlight(ahrs)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ff.Attitude.HeadingDeg))
}
