package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b3nn0/linkdecoder/report"
)

func TestDump978Downlink(t *testing.T) {
	d, rec := newTestDecoder()
	feed(d, dump978Frame('-', uatLong, "rs=3;"), 7)
	tr := rec.Traffic()
	require.Len(t, tr, 1)
	assert.Equal(t, uint32(0xA1B2C3), tr[0].Address)
	assert.Equal(t, "N825V", tr[0].Callsign)
	assert.Equal(t, 5100.0, tr[0].TrueAltFt)
	assert.Equal(t, 45.0, tr[0].Lat)
	assert.Equal(t, -90.0, tr[0].Lon)
	assert.Equal(t, 100.0, tr[0].SpeedKt)
	assert.Equal(t, []interface{}{TagDump978}, rec.Only("ReportInstanceTag"))
}

func TestDump978LowerCaseHex(t *testing.T) {
	d, rec := newTestDecoder()
	f := dump978Frame('-', uatLong, "")
	for i, b := range f {
		if b >= 'A' && b <= 'F' {
			f[i] = b + 'a' - 'A'
		}
	}
	feed(d, f, 64)
	assert.Len(t, rec.Traffic(), 1)
}

func TestDump978UplinkNexrad(t *testing.T) {
	for _, rle := range []bool{true, false} {
		d, rec := newTestDecoder()
		feed(d, dump978Frame('+', nexradUplink(rle), "rs=12;ss=201;"), 13)
		images := rec.Only("ReportNexradImage")
		clears := rec.Only("ReportNexradClear")
		if rle {
			require.Len(t, images, 1)
			assert.Empty(t, clears)
			img := images[0].(report.NexradImage)
			assert.True(t, img.Conus)
			assert.Equal(t, 1000, img.Block)
			assert.Equal(t, []uint8{20, 20, 30, 30, 0}, img.Pixels[:5])
		} else {
			assert.Empty(t, images)
			require.Len(t, clears, 1)
		}
		assert.Empty(t, rec.Logs())
	}
}

func TestDump978ShortUplink(t *testing.T) {
	d, rec := newTestDecoder()
	feed(d, dump978Frame('+', nexradUplink(true)[:200], ""), 64)
	assert.Empty(t, rec.Only("ReportNexradImage"))
	assert.Empty(t, rec.Only("ReportNexradClear"))
	assert.Equal(t, 1, rec.LogsContaining("short"))
	assert.Zero(t, d.Buffered())
}

func TestDump978ShortDownlink(t *testing.T) {
	d, rec := newTestDecoder()
	feed(d, dump978Frame('-', uatLong[:10], ""), 64)
	assert.Empty(t, rec.Traffic())
	assert.Equal(t, 1, rec.LogsContaining("short"))
}

func TestDump978NotConsumed(t *testing.T) {
	tests := map[string]string{
		"non hex":          "-0A1G;\n",
		"odd digit count":  "-0A1;\n",
		"too many rs errs": "-" + "00112233445566778899AABBCCDDEEFF0011223344" + ";rs=100;\n",
		"bad suffix":       "-0A1B;rs=x;\n",
		"no digits":        "+;\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			d, rec := newTestDecoder()
			// A sentence after the rejected frame still decodes.
			feed(d, append([]byte(in), line(pwr)...), 1)
			assert.Empty(t, rec.Traffic())
			assert.Empty(t, rec.Logs())
			assert.Len(t, rec.Only("ReportBattery"), 1)
			assert.Zero(t, d.Stats().Messages[FormatDump978])
		})
	}
}

func TestDump978MarkerInsideSentence(t *testing.T) {
	d, rec := newTestDecoder()
	// Negative numbers in an attitude sentence are not downlinks.
	feed(d, lines(rtm, rtm), 1)
	assert.Len(t, rec.Only("ReportAHRS"), 2)
	assert.Empty(t, rec.Logs())
}
