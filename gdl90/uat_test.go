package gdl90

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Long UAT payload, type 1: address A1B2C3, 45N 90W, 5000 ft barometric,
// 100 kt due north, climbing 640 fpm, call sign N825V.
var uatLong = []byte{
	0x08, 0xA1, 0xB2, 0xC3, 0x40, 0x00, 0x01, 0x80, 0x00, 0x00, 0x0F, 0x18,
	0x01, 0x94, 0x00, 0x80, 0xB0, 0x09, 0xE0, 0x0D, 0x67, 0xE6, 0xC4, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

func uatMsg(id byte, payload []byte) []byte {
	return append([]byte{id, 0, 0, 0}, payload...)
}

type offsetConverter float64

func (o offsetConverter) ConvertPressureAltitudeToTrue(lat, lon, alt float64) float64 {
	return alt + float64(o)
}

func TestDecodeUATReportLong(t *testing.T) {
	r, err := DecodeUATReport(uatMsg(MsgLongReport, uatLong))
	require.NoError(t, err)
	assert.Equal(t, 1, r.PayloadType)
	assert.Equal(t, uint32(0xA1B2C3), r.Address)
	assert.True(t, r.PositionValid)
	assert.Equal(t, 45.0, r.Lat)
	assert.Equal(t, -90.0, r.Lon)
	assert.True(t, r.AltValid)
	assert.False(t, r.AltGeometric)
	assert.Equal(t, 5000.0, r.AltFt)
	assert.False(t, r.OnGround)
	assert.Equal(t, 100.0, r.SpeedKt)
	assert.Equal(t, 0.0, r.HeadingDeg)
	assert.Equal(t, 640.0, r.ClimbFpm)
	assert.Equal(t, 1, r.Emitter)
	assert.Equal(t, "N825V", r.Callsign)

	tr := r.Traffic(time.Unix(0, 0), offsetConverter(120))
	assert.Equal(t, 5120.0, tr.TrueAltFt)
	assert.Equal(t, uint32(0xA1B2C3), tr.Address)
}

func TestDecodeUATReportSquawk(t *testing.T) {
	p := append([]byte{}, uatLong...)
	p[26] = 0x02
	r, err := DecodeUATReport(uatMsg(MsgLongReport, p))
	require.NoError(t, err)
	assert.Equal(t, "N825V"+SquawkSuffix, r.Callsign)
}

func TestDecodeUATReportSupersonic(t *testing.T) {
	p := append([]byte{}, uatLong...)
	p[12] |= airGroundSupersonic << 6
	r, err := DecodeUATReport(uatMsg(MsgLongReport, p))
	require.NoError(t, err)
	assert.Equal(t, 200.0, r.SpeedKt)
}

func TestDecodeUATReportBasicHasNoCallsign(t *testing.T) {
	p := append([]byte{}, uatLong[:UATBasicPayloadLen]...)
	p[0] = 0 // payload type 0
	r, err := DecodeUATReport(uatMsg(MsgBasicReport, p))
	require.NoError(t, err)
	assert.Equal(t, "", r.Callsign)
	assert.Equal(t, 45.0, r.Lat)

	_, err = DecodeUATReport(uatMsg(MsgBasicReport, p[:10]))
	assert.ErrorIs(t, err, ErrShort)
}

func TestDecodeUATReportUnknowns(t *testing.T) {
	p := append([]byte{}, uatLong...)
	p[10], p[11] = 0, 0x08 // no altitude
	p[12], p[13], p[14], p[15] = 0, 0, 0, 0x00
	r, err := DecodeUATReport(uatMsg(MsgLongReport, p))
	require.NoError(t, err)
	assert.False(t, r.AltValid)
	assert.False(t, r.SpeedValid)

	tr := r.Traffic(time.Unix(0, 0), offsetConverter(0))
	assert.True(t, math.IsNaN(tr.TrueAltFt))
	assert.True(t, math.IsNaN(tr.SpeedKt))
	assert.True(t, math.IsNaN(tr.HeadingDeg))
}

func TestDecodeUATReportGround(t *testing.T) {
	p := append([]byte{}, uatLong...)
	// Ground state, 11 kt, track 256 of 512.
	gs := 12
	track := 256
	p[12] = airGroundGround<<6 | byte(gs>>6)
	p[13] = byte(gs&0x3f)<<2 | byte(track>>9)
	p[14] = byte(track >> 1)
	p[15] = byte(track&1) << 7
	r, err := DecodeUATReport(uatMsg(MsgLongReport, p))
	require.NoError(t, err)
	assert.True(t, r.OnGround)
	assert.Equal(t, 11.0, r.SpeedKt)
	assert.Equal(t, 180.0, r.HeadingDeg)
}
