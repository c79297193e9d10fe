package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/b3nn0/linkdecoder/decoder"
)

const (
	reconnectDelay = 5 * time.Second
	statsInterval  = 10 * time.Second
	maxDatagram    = 65536
)

// link feeds one decoder from one receiver connection. The decoder is only
// touched by the goroutine running the link.
type link struct {
	cfg     *Config
	dec     *decoder.Decoder
	logger  *logrus.Logger
	onStats func(decoder.Stats)
	clock   *traceClock

	lastStats time.Time
}

func openSerial(device string, baud int) (io.ReadCloser, error) {
	serialConfig := &serial.Config{Name: device, Baud: baud, ReadTimeout: 0} // blocking read
	p, err := serial.OpenPort(serialConfig)
	if err != nil {
		return nil, fmt.Errorf("open %s at %d baud: %w", device, baud, err)
	}
	return p, nil
}

func openTCP(ctx context.Context, address string) (io.ReadCloser, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", address, err)
	}
	return conn, nil
}

// datagramReader makes every datagram a separate Read, so a datagram never
// gets truncated to the space left in the decoder buffer.
type datagramReader struct {
	conn net.PacketConn
	buf  []byte
}

func openUDP(listen string) (*datagramReader, error) {
	conn, err := net.ListenPacket("udp", listen)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", listen, err)
	}
	return &datagramReader{conn: conn, buf: make([]byte, maxDatagram)}, nil
}

func (r *datagramReader) Read(p []byte) (int, error) {
	n, _, err := r.conn.ReadFrom(r.buf)
	return copy(p, r.buf[:n]), err
}

func (r *datagramReader) Close() error {
	return r.conn.Close()
}

func (l *link) open(ctx context.Context) (io.ReadCloser, error) {
	switch l.cfg.Transport {
	case TransportSerial:
		return openSerial(l.cfg.Serial.Device, l.cfg.Serial.Baud)
	case TransportTCP:
		return openTCP(ctx, l.cfg.TCP.Address)
	case TransportUDP:
		return openUDP(l.cfg.UDP.Listen)
	}
	return nil, fmt.Errorf("transport %q cannot be opened as a stream", l.cfg.Transport)
}

// run reads until ctx is cancelled, reopening the connection after errors.
func (l *link) run(ctx context.Context) error {
	if l.cfg.Transport == TransportReplay {
		return l.replay(ctx)
	}
	for {
		r, err := l.open(ctx)
		if err == nil {
			l.logger.WithField("transport", l.cfg.Transport).Info("receiver connected")
			err = l.pump(ctx, r)
		}
		if ctx.Err() != nil {
			return nil
		}
		l.logger.WithError(err).Warnf("receiver link lost, retrying in %s", reconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// pump moves bytes from r straight into the decoder's receive buffer.
func (l *link) pump(ctx context.Context, r io.ReadCloser) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		r.Close()
	}()

	if _, ok := r.(*datagramReader); ok {
		_, err := io.CopyBuffer(l.dec, statsReader{r, l}, make([]byte, maxDatagram))
		return err
	}
	for {
		n, err := r.Read(l.dec.Buffer())
		l.dec.Ingest(n)
		l.stats()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("receiver closed the connection: %w", err)
			}
			return err
		}
	}
}

// stats hands a statistics snapshot to onStats every statsInterval.
func (l *link) stats() {
	if l.onStats == nil || time.Since(l.lastStats) < statsInterval {
		return
	}
	l.lastStats = time.Now()
	l.onStats(l.dec.Stats())
}

type statsReader struct {
	r io.Reader
	l *link
}

func (s statsReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.l.stats()
	return n, err
}
