/*
	Copyright (c) 2023 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	replay.go: feed a recorded receiver trace back through the decoder
*/

package main

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

const (
	CONTEXT_RAW       = "raw"
	CONTEXT_NMEA      = "nmea"
	CONTEXT_DUMP1090  = "dump1090"
	CONTEXT_GODUMP978 = "godump978"
)

// traceClock is the decoder clock during a replay: the timestamp of the
// trace row being decoded.
type traceClock struct {
	t time.Time
}

func (c *traceClock) Now() time.Time {
	if c.t.IsZero() {
		return time.Now().UTC()
	}
	return c.t
}

// traceRow is one line of a trace: when it was received, the input it came
// from and the bytes to hand to the decoder.
type traceRow struct {
	ts      time.Time
	context string
	data    []byte
}

// parseTraceRow decodes a timestamp,context,data CSV record. Context raw
// carries base64; every other context is one text line.
func parseTraceRow(fields []string) (traceRow, error) {
	if len(fields) != 3 {
		return traceRow{}, fmt.Errorf("trace line has %d fields", len(fields))
	}
	ts, err := time.Parse(time.RFC3339Nano, fields[0])
	if err != nil {
		return traceRow{}, fmt.Errorf("trace timestamp %q: %w", fields[0], err)
	}
	row := traceRow{ts: ts, context: fields[1]}
	if row.context == CONTEXT_RAW {
		row.data, err = base64.StdEncoding.DecodeString(fields[2])
		if err != nil {
			return traceRow{}, fmt.Errorf("trace raw data: %w", err)
		}
		return row, nil
	}
	row.data = append([]byte(fields[2]), '\n')
	return row, nil
}

// ctxReader stops a raw replay once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// replay feeds l.cfg.Replay.File to the decoder. A gzip file is a CSV trace
// paced by its timestamps; anything else is streamed as raw receiver bytes.
func (l *link) replay(ctx context.Context) error {
	cfg := l.cfg.Replay
	fhandle, err := os.Open(cfg.File)
	if err != nil {
		return fmt.Errorf("failed to open trace file %s: %w", cfg.File, err)
	}
	defer fhandle.Close()

	br := bufio.NewReader(fhandle)
	magic, _ := br.Peek(2)
	if !bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		l.logger.WithField("file", cfg.File).Info("replaying raw capture")
		_, err := io.Copy(l.dec, statsReader{ctxReader{ctx, br}, l})
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}

	gzReader, err := gzip.NewReader(br)
	if err != nil {
		return fmt.Errorf("failed to open gzip stream for file %s: %w", cfg.File, err)
	}
	defer gzReader.Close()

	l.logger.WithFields(logrus.Fields{
		"file":  cfg.File,
		"speed": cfg.Speed,
		"skip":  cfg.Skip,
	}).Info("replaying trace")

	csvReader := csv.NewReader(gzReader)
	csvReader.FieldsPerRecord = -1
	var (
		first     time.Time
		startWall time.Time
		skip      = time.Duration(cfg.Skip) * time.Minute
	)
	for {
		fields, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			l.logger.Info("trace replay finished")
			return nil
		}
		if err != nil {
			return fmt.Errorf("trace replay stopped: %w", err)
		}
		row, err := parseTraceRow(fields)
		if err != nil {
			l.logger.WithError(err).Warn("failed to parse trace line")
			continue
		}
		if len(cfg.Contexts) > 0 && !slices.Contains(cfg.Contexts, row.context) {
			continue
		}
		if first.IsZero() {
			first = row.ts
		}
		offset := row.ts.Sub(first) - skip
		if offset < 0 {
			continue
		}
		if startWall.IsZero() {
			startWall = time.Now()
		}

		toWait := time.Until(startWall.Add(time.Duration(float64(offset) / cfg.Speed)))
		if toWait > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(toWait):
			}
		} else if ctx.Err() != nil {
			return nil
		}

		if l.clock != nil {
			l.clock.t = row.ts
		}
		l.dec.Write(row.data)
		l.stats()
	}
}
