// Package decoder splits a receiver byte stream carrying interleaved
// dump1090, dump978, GDL-90 and NMEA traffic into messages and reports what
// they contain.
package decoder

import (
	"errors"
	"fmt"
	"time"

	"github.com/b3nn0/linkdecoder/report"
	"github.com/b3nn0/linkdecoder/uatparse"
)

const (
	RxBufferSize = 4096
	ScratchSize  = 1024
)

var (
	ErrOverflow           = errors.New("decoder: receive overflow")
	ErrMalformed          = errors.New("decoder: malformed message")
	ErrUnsupportedMessage = errors.New("decoder: unsupported message")
)

// Format identifies one of the wire formats the decoder recognizes.
type Format int

const (
	FormatDump1090 Format = iota
	FormatDump978
	FormatGDL90
	FormatNMEA
	numFormats
)

func (f Format) String() string {
	switch f {
	case FormatDump1090:
		return "dump1090"
	case FormatDump978:
		return "dump978"
	case FormatGDL90:
		return "gdl90"
	case FormatNMEA:
		return "nmea"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Instance tags passed to Reporter.ReportInstanceTag.
const (
	TagDump1090        = "dump1090"
	TagDump978         = "dump978"
	TagGDL90           = "gdl90"
	TagGDL90Stratux    = "gdl90-stratux"
	TagGDL90ForeFlight = "gdl90-foreflight"
	TagNMEA            = "nmea"
)

// Stats counts what a Decoder has seen since it was created.
type Stats struct {
	Bytes     uint64
	Messages  [numFormats]uint64
	Malformed [numFormats]uint64
	Overflows uint64
}

// recognizer finds and decodes messages of one format in the receive buffer.
//
// locateMarker moves the cursor to the next start marker at or after its
// current position, or to insert, and reports whether one was found.
// decodeOne is called with the cursor on a marker. It returns true when it
// consumed a byte range, good or malformed; the cursor is then past that
// range and every other cursor has been pushed past it too. Otherwise it
// returns false, possibly having moved the cursor to a later candidate.
type recognizer interface {
	locateMarker() bool
	decodeOne() bool
	cursor() *int
}

// scanner is the part every recognizer shares: the owning decoder and a
// read cursor into its receive buffer.
type scanner struct {
	d     *Decoder
	start int
}

func (s *scanner) cursor() *int { return &s.start }

// seek moves the cursor to the first occurrence of any of markers.
func (s *scanner) seek(markers ...byte) bool {
	d := s.d
	for ; s.start < d.insert; s.start++ {
		b := d.rx[s.start]
		for _, m := range markers {
			if b == m {
				return true
			}
		}
	}
	return false
}

// consume finishes a message occupying [start, end).
func (s *scanner) consume(f Format, end int, malformed bool) bool {
	s.start = end
	s.d.validMessageEndsAt(end)
	s.d.stats.Messages[f]++
	if malformed {
		s.d.stats.Malformed[f]++
	}
	return true
}

// Decoder owns the receive buffer shared by the four recognizers. It is not
// safe for concurrent use.
type Decoder struct {
	rep report.Reporter
	now func() time.Time

	rx      [RxBufferSize]byte
	insert  int
	scratch [ScratchSize]byte

	// dump1090, dump978, gdl90, nmea. order is the same set sorted by
	// cursor.
	recognizers [numFormats]recognizer
	order       [numFormats]recognizer

	uat     *uatparse.Decoder
	lastTag string
	stats   Stats
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithClock replaces time.Now as the source of the current time, against
// which the partial timestamps of received messages are placed.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) { d.now = now }
}

// WithLocationValidator installs the hook deciding whether a 4 character
// FIS-B text location keeps its leading K.
func WithLocationValidator(valid func(string) bool) Option {
	return func(d *Decoder) { d.uat.LocationValid = valid }
}

func New(rep report.Reporter, opts ...Option) *Decoder {
	d := &Decoder{
		rep: rep,
		now: time.Now,
		uat: uatparse.NewDecoder(rep),
	}
	d.recognizers = [numFormats]recognizer{
		newDump1090(d),
		&dump978{scanner: scanner{d: d}},
		&gdl90Recognizer{scanner: scanner{d: d}},
		&nmeaRecognizer{scanner: scanner{d: d}},
	}
	d.order = d.recognizers
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Buffer returns the free part of the receive buffer. Fill a prefix of it
// and pass the byte count to Ingest.
func (d *Decoder) Buffer() []byte {
	return d.rx[d.insert:]
}

// Buffered is the number of bytes held waiting for the rest of a message.
func (d *Decoder) Buffered() int {
	return d.insert
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// Write implements io.Writer. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		n := copy(d.Buffer(), p)
		p = p[n:]
		d.Ingest(n)
	}
	return total, nil
}

// Ingest processes n bytes that were copied into Buffer().
func (d *Decoder) Ingest(n int) {
	if n <= 0 {
		return
	}
	if n > len(d.rx)-d.insert {
		d.overflow()
		return
	}
	d.insert += n
	d.stats.Bytes += uint64(n)

	for d.decodePass() {
	}
	if d.insert == len(d.rx) {
		d.compact()
	}
}

// decodePass runs one round of the demultiplexing loop and reports whether
// another round may make progress.
func (d *Decoder) decodePass() bool {
	found := false
	for _, r := range d.recognizers {
		if r.locateMarker() {
			found = true
		}
	}
	if !found {
		d.reset()
		return false
	}

	d.sortByCursor()
	for _, r := range d.order {
		c := r.cursor()
		if *c >= d.insert {
			continue
		}
		before := *c
		if r.decodeOne() || *c != before {
			return true
		}
	}
	return false
}

// sortByCursor is a stable insertion sort of order by ascending cursor.
func (d *Decoder) sortByCursor() {
	for i := 1; i < len(d.order); i++ {
		r := d.order[i]
		j := i
		for ; j > 0 && *d.order[j-1].cursor() > *r.cursor(); j-- {
			d.order[j] = d.order[j-1]
		}
		d.order[j] = r
	}
}

// validMessageEndsAt moves every cursor still before end to end, so bytes
// claimed by one format are never examined by another.
func (d *Decoder) validMessageEndsAt(end int) {
	for _, r := range d.recognizers {
		if c := r.cursor(); *c < end {
			*c = end
		}
	}
}

func (d *Decoder) compact() {
	earliest := d.insert
	for _, r := range d.recognizers {
		if c := *r.cursor(); c < earliest {
			earliest = c
		}
	}
	if earliest == 0 {
		d.overflow()
		return
	}
	copy(d.rx[:], d.rx[earliest:d.insert])
	d.insert -= earliest
	for _, r := range d.recognizers {
		*r.cursor() -= earliest
	}
}

func (d *Decoder) overflow() {
	d.stats.Overflows++
	d.rep.LogMessage("receive overflow", ErrOverflow)
	d.reset()
}

func (d *Decoder) reset() {
	d.insert = 0
	for _, r := range d.recognizers {
		*r.cursor() = 0
	}
}

// tag reports which sub-decoder handled the current message when it differs
// from the last one.
func (d *Decoder) tag(t string) {
	if t == d.lastTag {
		return
	}
	d.lastTag = t
	d.rep.ReportInstanceTag(t)
}
