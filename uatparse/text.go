package uatparse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/b3nn0/linkdecoder/report"
)

const (
	dlac_alpha = "\x03ABCDEFGHIJKLMNOPQRSTUVWXYZ\x1A\t\x1E\n| !\"#$%&'()*+,-./0123456789:;<=>?"

	dlacTab         = 28
	recordSeparator = '\x1E'
	endOfText       = '\x03'
)

var ErrRuntBulletin = errors.New("uatparse: runt text bulletin")

// DecodeDLAC expands 6 bit DLAC codes, four to every three bytes. A tab code
// is followed by a code holding the number of spaces it stands for.
func DecodeDLAC(data []byte) string {
	r := NewBitReader(data, 0, len(data))
	var sb strings.Builder
	sb.Grow(len(data) * 4 / 3)
	tab := false
	for {
		v, err := r.TakeBits(6)
		if err != nil {
			break
		}
		switch {
		case tab:
			sb.WriteString(strings.Repeat(" ", int(v)))
			tab = false
		case v == dlacTab:
			tab = true
		default:
			sb.WriteByte(dlac_alpha[v])
		}
	}
	return sb.String()
}

func (d *Decoder) decodeText(payload []byte, t time.Time) {
	text := DecodeDLAC(payload)
	if i := strings.IndexByte(text, recordSeparator); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimRight(text, string(endOfText)+" \n")

	b, err := ParseTextBulletin(text, d.LocationValid)
	if err != nil {
		d.rep.LogMessage(fmt.Sprintf("FIS-B text %q", text), err)
		return
	}
	b.Time = t
	d.rep.ReportMetar(b)
}

// ParseTextBulletin splits decoded text into product type, location and body
// after normalizing PIREP and corrected TAF headers.
func ParseTextBulletin(text string, locationValid func(string) bool) (report.TextBulletin, error) {
	text = strings.TrimLeft(text, " \n")
	if strings.HasPrefix(text, "PIREP FINALRUNWAY ") {
		// PIREP FINALRUNWAY <time> <aptid> ... becomes PIREP <aptid> <time> ...
		parts := strings.SplitN(text, " ", 5)
		if len(parts) >= 4 {
			reordered := []string{"PIREP", parts[3], parts[2]}
			text = strings.Join(append(reordered, parts[4:]...), " ")
		}
	}
	if strings.HasPrefix(text, "TAF COR ") {
		text = "TAF.COR " + text[len("TAF COR "):]
	}

	productType, rest := nextToken(text)
	location, body := nextToken(rest)
	body = strings.TrimSpace(body)
	if productType == "" || location == "" || body == "" {
		return report.TextBulletin{}, ErrRuntBulletin
	}

	if len(location) == 4 && location[0] == 'K' && (locationValid == nil || !locationValid(location)) {
		location = location[1:]
	}
	return report.TextBulletin{ProductType: productType, Location: location, Body: body}, nil
}

func nextToken(s string) (tok, rest string) {
	s = strings.TrimLeft(s, " \t\n")
	if i := strings.IndexAny(s, " \t\n"); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}
