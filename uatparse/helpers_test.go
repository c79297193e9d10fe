package uatparse

import "strings"

// bitWriter packs fields MSB first, the inverse of BitReader.
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

func encodeDLAC(s string) []byte {
	var w bitWriter
	for i := 0; i < len(s); i++ {
		w.put(uint32(strings.IndexByte(dlac_alpha, s[i])), 6)
	}
	return w.buf
}

// frameHeader builds an APDU header without application method or geo
// locator, with hour and minute only.
func frameHeader(product, hour, minute int) []byte {
	var w bitWriter
	w.put(0, 3)
	w.put(uint32(product), 11)
	w.put(0, 1) // not segmented
	w.put(0, 2) // time option: hours and minutes
	w.put(uint32(hour), 5)
	w.put(uint32(minute), 6)
	return w.buf
}

// uplink packs information frames into a 432 byte uplink.
func uplink(frames ...[]byte) []byte {
	out := make([]byte, UPLINK_FRAME_DATA_BYTES)
	pos := UPLINK_HEADER_BYTES
	for _, f := range frames {
		out[pos] = byte(len(f) >> 1)
		out[pos+1] = byte(len(f)&1) << 7
		copy(out[pos+2:], f)
		pos += 2 + len(f)
	}
	return out
}

func infoFrame(product int, payload []byte) []byte {
	return append(frameHeader(product, 18, 53), payload...)
}
