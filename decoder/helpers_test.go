package decoder

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/b3nn0/linkdecoder/gdl90"
	"github.com/b3nn0/linkdecoder/modes"
	"github.com/b3nn0/linkdecoder/report/reporttest"
)

var testNow = time.Date(2024, 5, 1, 14, 0, 0, 0, time.UTC)

func newTestDecoder() (*Decoder, *reporttest.Recorder) {
	rec := &reporttest.Recorder{AltitudeOffset: 100}
	return New(rec, WithClock(func() time.Time { return testNow })), rec
}

// feed writes stream to d in pieces of at most chunk bytes.
func feed(d *Decoder, stream []byte, chunk int) {
	for len(stream) > 0 {
		n := chunk
		if n > len(stream) {
			n = len(stream)
		}
		d.Write(stream[:n])
		stream = stream[n:]
	}
}

// ingest feeds through Buffer and Ingest, the way a transport does.
func ingest(d *Decoder, stream []byte, chunk int) {
	for len(stream) > 0 {
		buf := d.Buffer()
		if chunk < len(buf) {
			buf = buf[:chunk]
		}
		n := copy(buf, stream)
		d.Ingest(n)
		stream = stream[n:]
	}
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func line(s string) []byte { return []byte(s + "\r\n") }

// NMEA sentences with valid checksums.
const (
	ggaFix    = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	rmcA      = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"
	rmcV      = "$GPRMC,123519,V,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*7D"
	rmcBadSum = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6B"
	gga2      = "$GPGGA,123520,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*4D"
	rmc2      = "$GPRMC,123520,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*60"
	gsv1      = "$GPGSV,2,1,08,01,40,083,46,02,17,308,41,12,07,344,39,14,22,228,45*75"
	gsv2      = "$GPGSV,2,2,08,33,40,083,46,70,17,308,41,194,07,344,39,305,22,228,45*7E"
	pwr       = "$GPPWR,87,C*0E"
	rtm       = "$GPRTM,123519.50,-3.5,2.0,271.3*7A"
)

// GDL-90 messages.
var (
	heartbeat  = []byte{0x00, 0x81, 0x41, 0xDB, 0xD0, 0x08, 0x02}
	trafficMsg = []byte{
		0x14, 0x00, 0xAB, 0x45, 0x49, 0x1F, 0xEF, 0x15, 0xA8, 0x89, 0x78, 0x0F,
		0x09, 0xA9, 0x07, 0xB0, 0x01, 0x20, 0x01, 0x4E, 0x38, 0x32, 0x35, 0x56,
		0x20, 0x20, 0x20, 0x00,
	}
	geoAlt      = []byte{0x0B, 0x01, 0xF4, 0x00, 0x0A}
	stratuxHB   = []byte{0xCC, 0x03}
	stratuxAHRS = []byte{0x4C, 0x45, 0x01, 0x01, 0x00, 0x64, 0xFF, 0x9C, 0x03, 0x84}
)

func ownshipMsg() []byte {
	m := append([]byte{}, trafficMsg...)
	m[0] = gdl90.MsgOwnship
	return m
}

// Long UAT payload: address A1B2C3, 45N 90W, 5000 ft, 100 kt north, N825V.
var uatLong = []byte{
	0x08, 0xA1, 0xB2, 0xC3, 0x40, 0x00, 0x01, 0x80, 0x00, 0x00, 0x0F, 0x18,
	0x01, 0x94, 0x00, 0x80, 0xB0, 0x09, 0xE0, 0x0D, 0x67, 0xE6, 0xC4, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

func dump978Frame(marker byte, payload []byte, suffix string) []byte {
	return []byte(fmt.Sprintf("%c%s;%s\n", marker, strings.ToUpper(hex.EncodeToString(payload)), suffix))
}

func avr(s string) []byte { return []byte("*" + s + ";\n") }

// Mode S frames: identification of 4840D6 (KLM1023), an even/odd position
// pair for 40621D and a velocity for 485020.
const (
	adsbIdent    = "8D4840D6202CC371C32CE0576098"
	adsbOdd      = "8D40621D58C386435CC412692AD6"
	adsbEven     = "8D40621D58C382D690C8AC2863A7"
	adsbVelocity = "8D485020994409940838175B284F"
)

// withParity completes the first 11 bytes of an extended squitter with its
// parity field.
func withParity(t *testing.T, s string) string {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, b, 11)
	p := modes.Parity(b)
	b = append(b, byte(p>>16), byte(p>>8), byte(p))
	return strings.ToUpper(hex.EncodeToString(b))
}

// bitWriter packs fields MSB first.
type bitWriter struct {
	buf  []byte
	nbit uint
}

func (w *bitWriter) put(v uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		if w.nbit%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v&(1<<uint(i)) != 0 {
			w.buf[len(w.buf)-1] |= 0x80 >> (w.nbit % 8)
		}
		w.nbit++
	}
}

// nexradUplink is a 432 byte uplink holding one CONUS NEXRAD frame for
// block 1000.
func nexradUplink(rle bool) []byte {
	var w bitWriter
	w.put(0, 3)
	w.put(64, 11)
	w.put(0, 1)
	w.put(0, 2)
	w.put(13, 5)
	w.put(45, 6)
	payload := []byte{0x00, 0x03, 0xE8, 0x01}
	if rle {
		payload = []byte{0x80, 0x03, 0xE8, 0x0A, 0x0B}
	}
	f := append(w.buf, payload...)

	up := make([]byte, 432)
	up[8] = byte(len(f) >> 1)
	up[9] = byte(len(f)&1) << 7
	copy(up[10:], f)
	return up
}
