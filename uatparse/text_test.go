package uatparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDLAC(t *testing.T) {
	assert.Equal(t, "METAR KSEA", DecodeDLAC(encodeDLAC("METAR KSEA")))

	// Tab code followed by a count of three.
	var w bitWriter
	for _, c := range []uint32{1, dlacTab, 3, 2} {
		w.put(c, 6)
	}
	assert.Equal(t, "A   B", DecodeDLAC(w.buf))
}

func TestParseTextBulletin(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		product  string
		location string
		body     string
	}{
		{"metar", "METAR KBFI 011853Z 16004KT", "METAR", "BFI", "011853Z 16004KT"},
		{"non K location", "METAR PANC 011853Z 00000KT", "METAR", "PANC", "011853Z 00000KT"},
		{"corrected taf", "TAF COR KSEA 011720Z 0118/0218", "TAF.COR", "SEA", "011720Z 0118/0218"},
		{"pirep reorder", "PIREP FINALRUNWAY 1845 KBFI UA /OV BFI", "PIREP", "BFI", "1845 UA /OV BFI"},
		{"leading blanks", "\n  WINDS KSEA 011200Z", "WINDS", "SEA", "011200Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseTextBulletin(tt.in, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.product, b.ProductType)
			assert.Equal(t, tt.location, b.Location)
			assert.Equal(t, tt.body, b.Body)
		})
	}
}

func TestParseTextBulletinRunt(t *testing.T) {
	for _, in := range []string{"", "METAR", "METAR KSEA", "METAR KSEA   "} {
		_, err := ParseTextBulletin(in, nil)
		assert.ErrorIs(t, err, ErrRuntBulletin, "%q", in)
	}
}

func TestDecodeTextRuntIsLogged(t *testing.T) {
	rec := newRecorder()
	d := NewDecoder(rec)
	d.decodeText(encodeDLAC("METAR\x1e KSEA 011853Z"), testNow)
	assert.Empty(t, rec.Only("ReportMetar"))
	assert.Equal(t, 1, rec.LogsContaining("FIS-B text"))
}
