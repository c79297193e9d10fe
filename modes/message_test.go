package modes

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestParity(t *testing.T) {
	for _, s := range []string{
		"8D4840D6202CC371C32CE0576098",
		"8D40621D58C382D690C8AC2863A7",
		"8D485020994409940838175B284F",
	} {
		assert.Zero(t, Parity(frame(t, s)), s)
	}
}

func TestDecodeRejectsBadParity(t *testing.T) {
	b := frame(t, "8D40621D58C382D690C8AC2863A7")
	b[5] ^= 0x01
	_, err := Decode(b)
	assert.ErrorIs(t, err, ErrParity)
}

func TestDecodeIdentification(t *testing.T) {
	msg, err := Decode(frame(t, "8D4840D6202CC371C32CE0576098"))
	require.NoError(t, err)
	id, ok := msg.(Identification)
	require.True(t, ok)
	assert.Equal(t, uint32(0x4840D6), id.Address())
	assert.Equal(t, 4, id.TypeCode)
	assert.Equal(t, "KLM1023", id.Callsign)
}

func TestDecodeAirbornePosition(t *testing.T) {
	msg, err := Decode(frame(t, "8D40621D58C382D690C8AC2863A7"))
	require.NoError(t, err)
	p, ok := msg.(AirbornePosition)
	require.True(t, ok)
	assert.Equal(t, uint32(0x40621D), p.Address())
	assert.True(t, p.AltValid)
	assert.False(t, p.GNSS)
	assert.Equal(t, 38000.0, p.AltFt)
	assert.False(t, p.Odd)

	msg, err = Decode(frame(t, "8D40621D58C386435CC412692AD6"))
	require.NoError(t, err)
	assert.True(t, msg.(AirbornePosition).Odd)
}

func TestDecodeAirborneVelocity(t *testing.T) {
	msg, err := Decode(frame(t, "8D485020994409940838175B284F"))
	require.NoError(t, err)
	v, ok := msg.(AirborneVelocity)
	require.True(t, ok)
	assert.True(t, v.SpeedValid)
	assert.InDelta(t, 159.20, v.SpeedKt, 0.01)
	assert.InDelta(t, 182.88, v.HeadingDeg, 0.01)
	assert.True(t, v.ClimbValid)
	assert.Equal(t, -832.0, v.ClimbFpm)
	assert.False(t, v.Airspeed)
}

func TestDecodeUnsupported(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"short reply", []byte{0x5D, 0x48, 0x40, 0xD6, 0x00, 0x00, 0x00}, ErrUnsupported},
		{"comm-b", append([]byte{0xA0}, make([]byte, 13)...), ErrUnsupported},
		{"odd length", []byte{0x8D, 0x48}, ErrLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
