package decoder

import (
	"fmt"
	"strconv"

	"github.com/b3nn0/linkdecoder/gdl90"
)

const (
	dump978Uplink   = '+'
	dump978Downlink = '-'

	// Largest Reed-Solomon error count of a usable frame.
	maxRSErrors = 99

	minUplinkLen   = gdl90.UplinkMsgLen
	minDownlinkLen = gdl90.MsgHeaderLen + gdl90.UATBasicPayloadLen
)

// dump978 recognizes "+<hex>;[key=value;]...\n" uplinks and the matching
// "-" downlinks.
type dump978 struct {
	scanner
}

func (r *dump978) locateMarker() bool {
	return r.seek(dump978Uplink, dump978Downlink)
}

// notCandidate skips the marker under the cursor; the bytes may belong to
// another format.
func (r *dump978) notCandidate() bool {
	r.start++
	return false
}

func (r *dump978) decodeOne() bool {
	d := r.d
	buf := d.rx[:d.insert]
	i := r.start + 1
	for i < len(buf) && isHex(buf[i]) {
		i++
	}
	if i == len(buf) {
		return false
	}
	digits := i - r.start - 1
	if buf[i] != ';' || digits == 0 || digits%2 != 0 || digits/2 > ScratchSize-gdl90.MsgHeaderLen {
		return r.notCandidate()
	}

	// Suffix fields up to the newline.
	rs := 0
	for i++; ; {
		if i == len(buf) {
			return false
		}
		if buf[i] == '\n' {
			break
		}
		key, value, next, ok := suffixField(buf, i)
		if next == len(buf) {
			return false
		}
		if !ok {
			return r.notCandidate()
		}
		if key == "rs" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return r.notCandidate()
			}
			rs = n
		}
		i = next
	}
	if rs > maxRSErrors {
		return r.notCandidate()
	}
	end := i + 1

	// Lay the payload out like a GDL-90 uplink or UAT report so both paths
	// share their decoders.
	hex := buf[r.start+1 : r.start+1+digits]
	msg := d.scratch[:gdl90.MsgHeaderLen+digits/2]
	for j := range msg[:gdl90.MsgHeaderLen] {
		msg[j] = 0
	}
	for j := 0; j < digits/2; j++ {
		msg[gdl90.MsgHeaderLen+j] = unhex(hex[2*j])<<4 | unhex(hex[2*j+1])
	}
	uplink := buf[r.start] == dump978Uplink
	d.tag(TagDump978)

	if uplink {
		msg[0] = gdl90.MsgUplink
		if len(msg) < minUplinkLen {
			d.rep.LogMessage(fmt.Sprintf("dump978 uplink short (%d bytes)", digits/2), ErrMalformed)
			return r.consume(FormatDump978, end, true)
		}
		if err := d.uat.DecodeUplink(msg[gdl90.MsgHeaderLen:minUplinkLen], d.now()); err != nil {
			d.rep.LogMessage("dump978 uplink", err)
		}
		return r.consume(FormatDump978, end, false)
	}

	msg[0] = gdl90.MsgBasicReport
	if digits/2 >= gdl90.UATLongPayloadLen {
		msg[0] = gdl90.MsgLongReport
	}
	if len(msg) < minDownlinkLen {
		d.rep.LogMessage(fmt.Sprintf("dump978 downlink short (%d bytes)", digits/2), ErrMalformed)
		return r.consume(FormatDump978, end, true)
	}
	d.reportUAT(msg)
	return r.consume(FormatDump978, end, false)
}

// suffixField parses "key=value;" at i. next is the index after the
// semicolon, or len(buf) when the field is incomplete.
func suffixField(buf []byte, i int) (key, value string, next int, ok bool) {
	k := i
	for k < len(buf) && buf[k] >= 'a' && buf[k] <= 'z' {
		k++
	}
	if k == len(buf) {
		return "", "", k, false
	}
	if k == i || buf[k] != '=' {
		return "", "", k, false
	}
	v := k + 1
	for v < len(buf) && (buf[v] >= '0' && buf[v] <= '9' || buf[v] == '.' || buf[v] == '-') {
		v++
	}
	if v == len(buf) {
		return "", "", v, false
	}
	if buf[v] != ';' {
		return "", "", v, false
	}
	return string(buf[i:k]), string(buf[k+1 : v]), v + 1, true
}

// reportUAT decodes a UAT ADS-B payload behind a 4 byte header, as found in
// GDL-90 Basic and Long reports and dump978 downlinks.
func (d *Decoder) reportUAT(msg []byte) {
	r, err := gdl90.DecodeUATReport(msg)
	if err != nil {
		d.rep.LogMessage("UAT report", err)
		return
	}
	if !r.PositionValid {
		return
	}
	d.rep.ReportTraffic(r.Traffic(d.now(), d.rep))
}

func isHex(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

func unhex(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}
