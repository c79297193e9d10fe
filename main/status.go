package main

import (
	"fmt"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/b3nn0/linkdecoder/decoder"
)

// statusLine summarizes decoder statistics for the periodic log line, e.g.
// "1.2 MB received, 3,456 messages (dump1090 3,000 dump978 12 gdl90 0 nmea 444), 7 malformed, 0 overflows".
func statusLine(s decoder.Stats) string {
	var total, malformed uint64
	perFormat := ""
	for _, f := range formats {
		total += s.Messages[f]
		malformed += s.Malformed[f]
		perFormat += fmt.Sprintf(" %s %s", f, humanize.Comma(int64(s.Messages[f])))
	}
	return fmt.Sprintf("%s received, %s messages (%s), %s malformed, %s overflows",
		humanize.Bytes(s.Bytes),
		humanize.Comma(int64(total)),
		perFormat[1:],
		humanize.Comma(int64(malformed)),
		humanize.Comma(int64(s.Overflows)))
}

// statusTracker remembers when the message count last moved, for the
// "last message" part of the status line.
type statusTracker struct {
	last     decoder.Stats
	lastSeen time.Time
}

func (t *statusTracker) update(s decoder.Stats, now time.Time) string {
	var before, after uint64
	for _, f := range formats {
		before += t.last.Messages[f]
		after += s.Messages[f]
	}
	if after != before || t.lastSeen.IsZero() {
		t.lastSeen = now
	}
	t.last = s
	if after == 0 {
		return statusLine(s) + ", no messages yet"
	}
	return statusLine(s) + ", last message " + humanize.RelTime(t.lastSeen, now, "ago", "from now")
}
