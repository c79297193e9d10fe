/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	crc.go: GDL-90 frame check sequence.
*/

package gdl90

// CRC-16/CCITT as used by the GDL-90 frame check sequence: polynomial 0x1021,
// initial value 0, no reflection. See the GDL 90 Data Interface Specification
// (560-1058-00 Rev A), p.7.
var crc16Table = func() (t [256]uint16) {
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}()

// CRC16 computes the GDL-90 CRC over b.
func CRC16(b []byte) uint16 {
	crc := uint16(0)
	for _, v := range b {
		crc = crc16Table[crc>>8] ^ (crc << 8) ^ uint16(v)
	}
	return crc
}
