package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b3nn0/linkdecoder/modes"
)

func TestDump1090Position(t *testing.T) {
	d, rec := newTestDecoder()
	feed(d, concat(avr(adsbOdd), avr(adsbEven)), 1)
	tr := rec.Traffic()
	require.Len(t, tr, 1)
	assert.InDelta(t, 52.25720, tr[0].Lat, 1e-4)
	assert.InDelta(t, 3.91937, tr[0].Lon, 1e-4)
	assert.Equal(t, 38100.0, tr[0].TrueAltFt)
	assert.Equal(t, testNow, tr[0].Time)
}

// The address is assembled from all three address bytes. Reusing the first
// byte as the low byte would give 0x406240.
func TestDump1090AddressUsesAllThreeBytes(t *testing.T) {
	d, rec := newTestDecoder()
	feed(d, concat(avr(adsbOdd), avr(adsbEven)), 64)
	tr := rec.Traffic()
	require.Len(t, tr, 1)
	assert.Equal(t, uint32(0x40621D), tr[0].Address)
	assert.NotEqual(t, uint32(0x406240), tr[0].Address)
}

func TestDump1090CombinesIdentAndVelocity(t *testing.T) {
	d, rec := newTestDecoder()
	// Velocity and identification of the same aircraft reuse the position
	// pair's address.
	ident := "8D40621D202CC371C32CE0"
	vel := "8D40621D99440994083817"
	feed(d, concat(avr(withParity(t, ident)), avr(withParity(t, vel)), avr(adsbOdd), avr(adsbEven)), 64)
	tr := rec.Traffic()
	require.Len(t, tr, 1)
	assert.Equal(t, "KLM1023", tr[0].Callsign)
	assert.InDelta(t, 159.2, tr[0].SpeedKt, 0.01)
	assert.InDelta(t, 182.88, tr[0].HeadingDeg, 0.01)
	assert.Equal(t, -832.0, tr[0].ClimbFpm)
}

func TestDump1090OtherFormatsUnsupported(t *testing.T) {
	d, rec := newTestDecoder()
	feed(d, concat(
		avr("5D4840D6E4F1A8"),               // DF11 all call reply
		avr("A0001838CA3E51F0A8000047A36A"), // DF20 Comm-B
		avr(adsbIdent),
		avr(adsbVelocity),
	), 64)
	assert.Empty(t, rec.Traffic())
	// The DF11 and DF20 replies are logged as unsupported, not malformed.
	var errs []error
	for _, c := range rec.Calls {
		if c.Method == "LogMessage" {
			errs = append(errs, c.Err)
		}
	}
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, modes.ErrUnsupported)
	}
	assert.ErrorContains(t, errs[0], "DF11")
	assert.ErrorContains(t, errs[1], "DF20")
	assert.Zero(t, d.Stats().Malformed[FormatDump1090])
	assert.Equal(t, uint64(4), d.Stats().Messages[FormatDump1090])
}

func TestDump1090ParityErrorLogged(t *testing.T) {
	d, rec := newTestDecoder()
	feed(d, avr("8D40621D58C382D690C8AC2863A8"), 64)
	assert.Empty(t, rec.Traffic())
	assert.Len(t, rec.Logs(), 1)
	assert.Equal(t, uint64(1), d.Stats().Malformed[FormatDump1090])
}

func TestDump1090NotCandidates(t *testing.T) {
	for _, in := range []string{
		"*8D4840D6;\n",
		"*8D4840D6202CC371C32CE0576098\n",
		"*8D4840D6202CC371C32CE0576098;;\n",
		"*8D4840D6202CX371C32CE0576098;\n",
	} {
		d, rec := newTestDecoder()
		feed(d, append([]byte(in), line(pwr)...), 1)
		assert.Empty(t, rec.Logs(), in)
		assert.Len(t, rec.Only("ReportBattery"), 1, in)
		assert.Zero(t, d.Stats().Messages[FormatDump1090], in)
	}
}
