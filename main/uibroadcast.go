package main

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	geo "github.com/kellydunn/golang-geo"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"

	"github.com/b3nn0/linkdecoder/report"
)

const kmToNM = 0.539957

type uibroadcaster struct {
	sockets    []*websocket.Conn
	sockets_mu *sync.Mutex
	messages   chan []byte
	done       chan struct{}
}

func NewUIBroadcaster() *uibroadcaster {
	ret := &uibroadcaster{
		sockets:    make([]*websocket.Conn, 0),
		sockets_mu: &sync.Mutex{},
		messages:   make(chan []byte, 1024),
		done:       make(chan struct{}),
	}
	go ret.writer()
	return ret
}

// Send queues msg for all sockets. It drops msg when the queue is full so a
// slow client never stalls the decoder.
func (u *uibroadcaster) Send(msg []byte) bool {
	select {
	case u.messages <- msg:
		return true
	default:
		return false
	}
}

func (u *uibroadcaster) AddSocket(sock *websocket.Conn) {
	u.sockets_mu.Lock()
	u.sockets = append(u.sockets, sock)
	u.sockets_mu.Unlock()
}

func (u *uibroadcaster) Count() int {
	u.sockets_mu.Lock()
	defer u.sockets_mu.Unlock()
	return len(u.sockets)
}

func (u *uibroadcaster) Close() {
	close(u.done)
}

func (u *uibroadcaster) writer() {
	for {
		var msg []byte
		select {
		case <-u.done:
			return
		case msg = <-u.messages:
		}
		// Send to all.
		p := make([]*websocket.Conn, 0) // Keep a list of the writeable sockets.
		u.sockets_mu.Lock()
		for _, sock := range u.sockets {
			err := sock.SetWriteDeadline(time.Now().Add(time.Second))
			_, err2 := sock.Write(msg)
			if err == nil && err2 == nil {
				p = append(p, sock)
			}
		}
		u.sockets = p // Save the list of writeable sockets.
		u.sockets_mu.Unlock()
	}
}

// Handler registers each websocket client and holds the connection open
// until the client goes away.
func (u *uibroadcaster) Handler() websocket.Handler {
	return func(conn *websocket.Conn) {
		u.AddSocket(conn)
		buf := make([]byte, 512)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}
}

// uiEvent is the JSON sent to websocket clients. Unknown values are null.
type uiEvent struct {
	Type      string    `json:"type"`
	Time      time.Time `json:"time"`
	Icao      string    `json:"icao,omitempty"`
	Callsign  string    `json:"callsign,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lon       *float64  `json:"lon,omitempty"`
	Alt       *float64  `json:"alt,omitempty"`
	Track     *float64  `json:"track,omitempty"`
	Speed     *float64  `json:"speed,omitempty"`
	Vvel      *float64  `json:"vvel,omitempty"`
	Bank      *float64  `json:"bank,omitempty"`
	Pitch     *float64  `json:"pitch,omitempty"`
	OnGround  bool      `json:"on_ground,omitempty"`
	Distance  *float64  `json:"distance_nm,omitempty"`
	Bearing   *float64  `json:"bearing,omitempty"`
	Product   string    `json:"product,omitempty"`
	Location  string    `json:"location,omitempty"`
	Text      string    `json:"text,omitempty"`
	Battery   string    `json:"battery,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	Block     *int      `json:"block,omitempty"`
	Conus     bool      `json:"conus,omitempty"`
	Blocks    []int     `json:"blocks,omitempty"`
	Pixels    []int     `json:"pixels,omitempty"`
	Satellite []string  `json:"satellites,omitempty"`
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// eventSink turns decoder events into uiEvents and hands them to emit.
// Traffic carries range and bearing from the latest own-ship fix.
type eventSink struct {
	report.Nop
	emit    func(uiEvent)
	ownship *geo.Point
}

func (s *eventSink) send(ev uiEvent) {
	s.emit(ev)
}

// newUISink feeds the websocket broadcaster.
func newUISink(ui *uibroadcaster, logger *logrus.Logger) *eventSink {
	dropped := 0
	return &eventSink{emit: func(ev uiEvent) {
		msg, err := json.Marshal(ev)
		if err != nil {
			logger.WithError(err).Warn("ui event marshal failed")
			return
		}
		if !ui.Send(msg) {
			dropped++
			if dropped%1000 == 1 {
				logger.WithField("dropped", dropped).Warn("ui queue full")
			}
		}
	}}
}

// relative returns the distance in nautical miles and the true bearing from
// the own-ship to lat/lon, or nils while no own-ship fix is known.
func (s *eventSink) relative(lat, lon float64) (*float64, *float64) {
	if s.ownship == nil {
		return nil, nil
	}
	target := geo.NewPoint(lat, lon)
	dist := s.ownship.GreatCircleDistance(target) * kmToNM
	brg := math.Mod(s.ownship.BearingTo(target)+360, 360)
	return &dist, &brg
}

func (s *eventSink) ReportTraffic(t report.Traffic) {
	dist, brg := s.relative(t.Lat, t.Lon)
	s.send(uiEvent{
		Type:     "traffic",
		Time:     t.Time,
		Icao:     hexAddress(t.Address),
		Callsign: t.Callsign,
		Lat:      num(t.Lat),
		Lon:      num(t.Lon),
		Alt:      num(t.TrueAltFt),
		Track:    num(t.HeadingDeg),
		Speed:    num(t.SpeedKt),
		Vvel:     num(t.ClimbFpm),
		OnGround: t.OnGround,
		Distance: dist,
		Bearing:  brg,
	})
}

func (s *eventSink) ReportOwnship(o report.Ownship) {
	s.ownship = geo.NewPoint(o.Lat, o.Lon)
	s.send(uiEvent{
		Type:  "ownship",
		Time:  o.Time,
		Lat:   num(o.Lat),
		Lon:   num(o.Lon),
		Alt:   num(o.TrueAltFt),
		Track: num(o.HeadingDeg),
		Speed: num(o.SpeedKt),
	})
}

func (s *eventSink) ReportAHRS(a report.Attitude) {
	s.send(uiEvent{
		Type:  "ahrs",
		Time:  a.Time,
		Bank:  num(a.BankDeg),
		Pitch: num(a.PitchDeg),
		Track: num(a.HeadingDeg),
	})
}

func (s *eventSink) ReportBattery(level string) {
	s.send(uiEvent{Type: "battery", Time: time.Now().UTC(), Battery: level})
}

func (s *eventSink) ReportInstanceTag(tag string) {
	s.send(uiEvent{Type: "tag", Time: time.Now().UTC(), Tag: tag})
}

func (s *eventSink) ReportMetar(b report.TextBulletin) {
	s.send(uiEvent{
		Type:     "text",
		Time:     b.Time,
		Product:  b.ProductType,
		Location: b.Location,
		Text:     b.Body,
	})
}

func (s *eventSink) ReportNexradImage(img report.NexradImage) {
	block := img.Block
	pixels := make([]int, len(img.Pixels))
	for i, p := range img.Pixels {
		pixels[i] = int(p)
	}
	s.send(uiEvent{
		Type:   "nexrad",
		Time:   img.Time,
		Block:  &block,
		Conus:  img.Conus,
		Pixels: pixels,
	})
}

func (s *eventSink) ReportNexradClear(c report.NexradClear) {
	s.send(uiEvent{
		Type:   "nexrad_clear",
		Time:   c.Time,
		Conus:  c.Conus,
		Blocks: c.Blocks,
	})
}

func (s *eventSink) ReportSatellitesInView(sats []report.Satellite) {
	ids := make([]string, len(sats))
	for i, sat := range sats {
		ids[i] = sat.ID
	}
	s.send(uiEvent{Type: "satellites", Time: time.Now().UTC(), Satellite: ids})
}
