package uatparse

import "errors"

var (
	// ErrBufferExhausted means the bitstream ended before the requested
	// field. Callers treat it as incomplete input.
	ErrBufferExhausted = errors.New("uatparse: bit reader exhausted")
	ErrTooManyBits     = errors.New("uatparse: at most 32 bits per read")
)

// BitReader extracts big-endian bit fields from a byte slice.
type BitReader struct {
	data     []byte
	pos      int
	end      int
	acc      uint64
	nacc     uint
	consumed int
}

// NewBitReader reads bits from data[offset : offset+length].
func NewBitReader(data []byte, offset, length int) *BitReader {
	end := offset + length
	if end > len(data) {
		end = len(data)
	}
	return &BitReader{data: data, pos: offset, end: end}
}

// TakeBits returns the next n bits, most significant first.
func (r *BitReader) TakeBits(n uint) (uint32, error) {
	if n > 32 {
		return 0, ErrTooManyBits
	}
	for r.nacc < n {
		if r.pos >= r.end {
			return 0, ErrBufferExhausted
		}
		r.acc = r.acc<<8 | uint64(r.data[r.pos])
		r.pos++
		r.nacc += 8
	}
	r.nacc -= n
	v := uint32(r.acc >> r.nacc)
	if n < 32 {
		v &= 1<<n - 1
	}
	r.acc &= 1<<r.nacc - 1
	r.consumed += int(n)
	return v, nil
}

func (r *BitReader) TakeBit() (bool, error) {
	v, err := r.TakeBits(1)
	return v == 1, err
}

// BitsConsumed is the number of bits read so far, rounded up to a whole
// number of bytes.
func (r *BitReader) BitsConsumed() int {
	return (r.consumed + 7) / 8 * 8
}

// BytesConsumed is BitsConsumed in bytes: the offset, relative to the start
// of the reader, at which byte aligned parsing can resume.
func (r *BitReader) BytesConsumed() int {
	return r.BitsConsumed() / 8
}
