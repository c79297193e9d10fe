// Package report defines the events produced by the link decoders and the
// Reporter sink that receives them.
package report

import "time"

// Traffic is one decoded position report for another aircraft.
type Traffic struct {
	Time       time.Time
	TrueAltFt  float64
	HeadingDeg float64 // NaN when unknown
	Lat        float64
	Lon        float64
	SpeedKt    float64 // NaN when unknown
	ClimbFpm   float64
	Address    uint32
	Callsign   string
	OnGround   bool
}

// Ownship is a complete own-ship position fix.
type Ownship struct {
	Time       time.Time
	TrueAltFt  float64
	HeadingDeg float64
	Lat        float64
	Lon        float64
	SpeedKt    float64
}

type Attitude struct {
	Time       time.Time
	BankDeg    float64
	HeadingDeg float64
	PitchDeg   float64
}

// TextBulletin is one FIS-B text product (METAR, TAF, PIREP, WINDS, ...).
type TextBulletin struct {
	Time        time.Time
	ProductType string
	Location    string
	Body        string
}

// NexradImage carries the pixel intensities for one NEXRAD block, row major.
type NexradImage struct {
	Time       time.Time
	Conus      bool
	Block      int
	NorthSouth bool
	Scale      int
	Pixels     []uint8
}

// NexradClear lists blocks whose previous image must be discarded.
type NexradClear struct {
	Time   time.Time
	Conus  bool
	Blocks []int
}

type Satellite struct {
	ID        string // constellation letter and PRN, e.g. "G12"
	PRN       int
	Elevation int
	Azimuth   int
	SNR       int
}

// Reporter receives everything the decoders produce. It is implemented by
// the host; all calls happen on the goroutine that feeds the decoder.
type Reporter interface {
	LogMessage(msg string, err error)
	ReportTraffic(t Traffic)
	ReportOwnship(o Ownship)
	ReportAHRS(a Attitude)
	ReportBattery(level string)
	ReportInstanceTag(tag string)
	ReportMetar(b TextBulletin)
	ReportNexradImage(img NexradImage)
	ReportNexradClear(c NexradClear)
	ReportSatellitesInView(sats []Satellite)

	// ConvertPressureAltitudeToTrue maps a pressure altitude to a true
	// altitude using the host's altimeter setting model.
	ConvertPressureAltitudeToTrue(lat, lon, pressureAltFt float64) float64
}

// Nop implements Reporter by discarding everything. Pressure altitudes are
// returned unchanged. Embed it to implement only part of the interface.
type Nop struct{}

func (Nop) LogMessage(string, error)           {}
func (Nop) ReportTraffic(Traffic)              {}
func (Nop) ReportOwnship(Ownship)              {}
func (Nop) ReportAHRS(Attitude)                {}
func (Nop) ReportBattery(string)               {}
func (Nop) ReportInstanceTag(string)           {}
func (Nop) ReportMetar(TextBulletin)           {}
func (Nop) ReportNexradImage(NexradImage)      {}
func (Nop) ReportNexradClear(NexradClear)      {}
func (Nop) ReportSatellitesInView([]Satellite) {}

func (Nop) ConvertPressureAltitudeToTrue(_, _, alt float64) float64 { return alt }
