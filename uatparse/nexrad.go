package uatparse

import (
	"fmt"
	"time"

	"github.com/b3nn0/linkdecoder/report"
)

const (
	BLOCK_WIDTH      = float64(48.0 / 60.0)
	WIDE_BLOCK_WIDTH = float64(96.0 / 60.0)
	BLOCK_HEIGHT     = float64(4.0 / 60.0)
	BLOCK_THRESHOLD  = 405000
	BLOCKS_PER_RING  = 450

	// A block is 32 bins wide and 4 high.
	NEXRAD_BLOCK_PIXELS = 128
)

// nexradIntensity maps the 3 bit encoded level to the lower bound of its
// reflectivity band in dBZ.
var nexradIntensity = [8]uint8{0, 5, 20, 30, 40, 45, 50, 55}

// BlockLocation returns the north west corner and size in degrees of a block.
func BlockLocation(block int, southern bool, scale int) (lat, lon, height, width float64) {
	realScale := 1.0
	switch scale {
	case 1:
		realScale = 5.0
	case 2:
		realScale = 9.0
	}

	if block >= BLOCK_THRESHOLD {
		block &^= 1
	}

	lat = BLOCK_HEIGHT * float64(block/BLOCKS_PER_RING)
	lon = float64(block%BLOCKS_PER_RING) * BLOCK_WIDTH

	width = BLOCK_WIDTH * realScale
	if block >= BLOCK_THRESHOLD {
		width = WIDE_BLOCK_WIDTH * realScale
	}
	height = BLOCK_HEIGHT * realScale

	if southern {
		lat = -lat
	} else {
		lat += BLOCK_HEIGHT
	}
	if lon > 180.0 {
		lon -= 360.0
	}
	return lat, lon, height, width
}

func (d *Decoder) decodeNexrad(payload []byte, conus bool, t time.Time) {
	if len(payload) < 3 {
		d.rep.LogMessage(fmt.Sprintf("NEXRAD frame short (%d bytes)", len(payload)), ErrBufferExhausted)
		return
	}
	rle := payload[0]&0x80 != 0
	southern := payload[0]&0x40 != 0
	scale := int(payload[0]&0x30) >> 4
	block := int(payload[0]&0x0f)<<16 | int(payload[1])<<8 | int(payload[2])

	if rle {
		d.rep.ReportNexradImage(report.NexradImage{
			Time:       t,
			Conus:      conus,
			Block:      block,
			NorthSouth: southern,
			Scale:      scale,
			Pixels:     DecodeNexradRLE(payload[3:]),
		})
		return
	}

	blocks, err := DecodeNexradClear(block, payload[3:])
	if err != nil {
		d.rep.LogMessage(fmt.Sprintf("NEXRAD clear bitmap for block %d", block), err)
		return
	}
	d.rep.ReportNexradClear(report.NexradClear{Time: t, Conus: conus, Blocks: blocks})
}

// DecodeNexradRLE expands run length encoded bins: the top 5 bits of each
// byte are the run length minus one, the low 3 bits the intensity level.
// Bins past the end of the data stay at the lowest intensity; runs past the
// end of the block are cut off.
func DecodeNexradRLE(data []byte) []uint8 {
	pixels := make([]uint8, NEXRAD_BLOCK_PIXELS)
	i := 0
	for _, v := range data {
		intensity := nexradIntensity[v&0x07]
		for run := int(v>>3) + 1; run > 0 && i < len(pixels); run-- {
			pixels[i] = intensity
			i++
		}
	}
	for ; i < len(pixels); i++ {
		pixels[i] = nexradIntensity[0]
	}
	return pixels
}

// DecodeNexradClear returns the blocks flagged in the bitmap that follows a
// non RLE block header. The low nibble of the first byte is the bitmap
// length in bytes; its high nibble holds the first four bits, and bit 3 stands
// for the reference block itself.
func DecodeNexradClear(block int, data []byte) ([]int, error) {
	if len(data) < 1 {
		return nil, ErrBufferExhausted
	}
	l := int(data[0] & 0x0f)
	if len(data) < l {
		return nil, fmt.Errorf("%w: bitmap of %d bytes, have %d", ErrBufferExhausted, l, len(data))
	}

	rowStart, rowSize := block-block%BLOCKS_PER_RING, BLOCKS_PER_RING
	if block >= BLOCK_THRESHOLD {
		rowStart, rowSize = block-(block-BLOCK_THRESHOLD)%225, 225
	}
	rowOffset := block - rowStart

	blocks := make([]int, 0, l*8)
	for i := 0; i < l; i++ {
		bb := int(data[i])
		if i == 0 {
			bb = bb&0xf0 | 0x08
		}
		for j := 0; j < 8; j++ {
			if bb&(1<<uint(j)) == 0 {
				continue
			}
			x := ((rowOffset+8*i+j-3)%rowSize + rowSize) % rowSize
			blocks = append(blocks, rowStart+x)
		}
	}
	return blocks, nil
}
