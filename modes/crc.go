package modes

import "fmt"

// Mode S CRC-24 generator polynomial.
const generatorPoly = 0xfff409

var crcTable = func() (t [256]uint32) {
	for i := 0; i < 256; i++ {
		c := uint32(i) << 16
		for j := 0; j < 8; j++ {
			if c&0x800000 != 0 {
				c = (c << 1) ^ generatorPoly
			} else {
				c <<= 1
			}
		}
		t[i] = c & 0xffffff
	}
	return t
}()

// Parity computes the CRC-24 remainder over data. For an extended squitter
// including its parity field the remainder is zero.
func Parity(data []byte) uint32 {
	var rem uint32
	for _, b := range data {
		rem = (rem << 8) ^ crcTable[uint32(b)^(rem&0xff0000)>>16]
		rem &= 0xffffff
	}
	return rem
}

func checkParity(msg []byte) error {
	if rem := Parity(msg); rem != 0 {
		return fmt.Errorf("%w: remainder %06X", ErrParity, rem)
	}
	return nil
}
