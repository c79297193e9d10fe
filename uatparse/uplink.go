// Package uatparse decodes the FIS-B products carried in UAT uplink frames.
package uatparse

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slices"

	"github.com/b3nn0/linkdecoder/common"
	"github.com/b3nn0/linkdecoder/report"
)

const (
	UPLINK_HEADER_BYTES     = 8
	UPLINK_FRAME_DATA_BYTES = 432
	UPLINK_APP_DATA_BYTES   = UPLINK_FRAME_DATA_BYTES - UPLINK_HEADER_BYTES

	// Smallest information frame: 2 header bytes and a 4 byte APDU header.
	UPLINK_MAX_INFO_FRAMES = UPLINK_APP_DATA_BYTES / 6

	frameTypeFISB = 0
)

var (
	ErrShortUplink = errors.New("uatparse: short uplink")
	ErrSegmented   = errors.New("uatparse: segmented products not supported")
	ErrUnsupported = errors.New("uatparse: unsupported product")
	ErrBadTime     = errors.New("uatparse: invalid product time")
)

// Decoder turns UAT uplink frames into report calls.
type Decoder struct {
	rep report.Reporter

	// LocationValid reports whether a 4 character location token is known
	// as is. Tokens it rejects have a leading K removed. When nil every
	// token is rejected.
	LocationValid func(string) bool
}

func NewDecoder(rep report.Reporter) *Decoder {
	return &Decoder{rep: rep}
}

// DecodeUplink splits the application data of a 432 byte UAT uplink frame
// into information frames and decodes each one. now anchors the partial
// timestamps the products carry.
func (d *Decoder) DecodeUplink(frame []byte, now time.Time) error {
	if len(frame) < UPLINK_FRAME_DATA_BYTES {
		return fmt.Errorf("%w: %d bytes", ErrShortUplink, len(frame))
	}
	appData := frame[UPLINK_HEADER_BYTES:UPLINK_FRAME_DATA_BYTES]

	pos := 0
	for n := 0; n < UPLINK_MAX_INFO_FRAMES && pos+2 <= len(appData); n++ {
		frameLength := int(appData[pos])<<1 | int(appData[pos+1])>>7
		frameType := appData[pos+1] & 0x0f
		if frameLength == 0 || frameType != frameTypeFISB {
			break
		}
		if pos+2+frameLength > len(appData) {
			d.rep.LogMessage(fmt.Sprintf("FIS-B frame overruns uplink (%d bytes at %d)", frameLength, pos), ErrShortUplink)
			break
		}
		d.decodeInfoFrame(appData[pos+2:pos+2+frameLength], now)
		pos += 2 + frameLength
	}
	return nil
}

// FrameHeader is the APDU header at the start of an information frame.
type FrameHeader struct {
	ProductID  int
	Segmented  bool
	TimeOption int
	Month      int
	Day        int
	Hour       int
	Minute     int
	Second     int

	// PayloadOffset is where the product data starts, in bytes from the
	// beginning of the frame.
	PayloadOffset int
}

func (h FrameHeader) hasDate() bool    { return h.TimeOption&0x02 != 0 }
func (h FrameHeader) hasSeconds() bool { return h.TimeOption&0x01 != 0 }

// ParseFrameHeader reads the APDU header: A, G and P flags, product id,
// optional application method and geo locator, segmentation flag, time
// option and the time fields it selects.
func ParseFrameHeader(data []byte) (FrameHeader, error) {
	var h FrameHeader
	r := NewBitReader(data, 0, len(data))
	var err error
	take := func(n uint) int {
		if err != nil {
			return 0
		}
		var v uint32
		v, err = r.TakeBits(n)
		return int(v)
	}

	aFlag := take(1) == 1
	gFlag := take(1) == 1
	take(1) // provider flag
	h.ProductID = take(11)
	if aFlag {
		take(8) // application method
	}
	if gFlag {
		take(20) // geo locator
	}
	h.Segmented = take(1) == 1
	h.TimeOption = take(2)
	if h.hasDate() {
		h.Month = take(4)
		h.Day = take(5)
	}
	h.Hour = take(5)
	h.Minute = take(6)
	if h.hasSeconds() {
		h.Second = take(6)
	}
	if err != nil {
		return h, err
	}
	h.PayloadOffset = r.BytesConsumed()
	return h, nil
}

// Time reconciles the header's partial timestamp against now.
func (h FrameHeader) Time(now time.Time) (time.Time, error) {
	if h.Hour > 23 || h.Minute > 59 || h.Second > 59 {
		return time.Time{}, fmt.Errorf("%w: %02d:%02d:%02d", ErrBadTime, h.Hour, h.Minute, h.Second)
	}
	if !h.hasDate() {
		return common.TimeOfDay(now, h.Hour, h.Minute, h.Second, 0), nil
	}
	if h.Month < 1 || h.Month > 12 || h.Day < 1 || h.Day > 31 {
		return time.Time{}, fmt.Errorf("%w: month %d day %d", ErrBadTime, h.Month, h.Day)
	}
	return common.DayOfYear(now, h.Month, h.Day, h.Hour, h.Minute, h.Second), nil
}

func (d *Decoder) decodeInfoFrame(data []byte, now time.Time) {
	h, err := ParseFrameHeader(data)
	if err != nil {
		d.rep.LogMessage("FIS-B frame header truncated", err)
		return
	}
	if h.Segmented {
		return
	}
	t, err := h.Time(now)
	if err != nil {
		d.rep.LogMessage(fmt.Sprintf("FIS-B %s frame time", ProductName(h.ProductID)), err)
		return
	}
	payload := data[h.PayloadOffset:]

	switch {
	case h.ProductID == ProductNexradRegional || h.ProductID == ProductNexradConus:
		d.decodeNexrad(payload, h.ProductID == ProductNexradConus, t)
	case h.ProductID == ProductText:
		d.decodeText(payload, t)
	case slices.Contains(notImplementedProducts, h.ProductID):
		d.rep.LogMessage(fmt.Sprintf("FIS-B product %d (%s) not implemented", h.ProductID, ProductName(h.ProductID)), ErrUnsupported)
	default:
		d.rep.LogMessage(fmt.Sprintf("FIS-B unsupported product %d (%s)", h.ProductID, ProductName(h.ProductID)), ErrUnsupported)
	}
}
