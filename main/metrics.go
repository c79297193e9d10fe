package main

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/b3nn0/linkdecoder/decoder"
	"github.com/b3nn0/linkdecoder/report"
)

var formats = []decoder.Format{decoder.FormatDump1090, decoder.FormatDump978, decoder.FormatGDL90, decoder.FormatNMEA}

// metricsSink counts decoder events and mirrors the decoder statistics into
// Prometheus collectors.
type metricsSink struct {
	report.Nop

	events        *prometheus.CounterVec
	logMessages   *prometheus.CounterVec
	instanceTag   *prometheus.GaugeVec
	satellites    prometheus.Gauge
	receivedBytes prometheus.Gauge
	messages      *prometheus.GaugeVec
	malformed     *prometheus.GaugeVec
	overflows     prometheus.Gauge
	tags          map[string]bool
}

func newMetricsSink(reg prometheus.Registerer) *metricsSink {
	m := &metricsSink{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkdecoder_events_total",
				Help: "Decoded events by kind.",
			},
			[]string{"kind"},
		),
		logMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkdecoder_log_messages_total",
				Help: "Decoder diagnostics by class.",
			},
			[]string{"class"},
		),
		instanceTag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "linkdecoder_instance_tag",
			Help: "1 for the input format that produced the latest message.",
		}, []string{"tag"}),
		satellites: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkdecoder_satellites_in_view",
			Help: "Satellites in the latest GSV group.",
		}),
		receivedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkdecoder_received_bytes",
			Help: "Bytes handed to the decoder.",
		}),
		messages: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "linkdecoder_messages",
			Help: "Messages recognized, by format.",
		}, []string{"format"}),
		malformed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "linkdecoder_malformed_messages",
			Help: "Messages rejected as malformed, by format.",
		}, []string{"format"}),
		overflows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linkdecoder_receive_overflows",
			Help: "Receive buffer resets.",
		}),
		tags: make(map[string]bool),
	}
	reg.MustRegister(m.events, m.logMessages, m.instanceTag, m.satellites,
		m.receivedBytes, m.messages, m.malformed, m.overflows)
	return m
}

func (m *metricsSink) count(kind string) {
	m.events.With(prometheus.Labels{"kind": kind}).Inc()
}

func (m *metricsSink) LogMessage(msg string, err error) {
	class := "info"
	switch {
	case err == nil:
	case errors.Is(err, decoder.ErrOverflow):
		class = "overflow"
	case isUnsupported(err):
		class = "unsupported"
	default:
		class = "error"
	}
	m.logMessages.With(prometheus.Labels{"class": class}).Inc()
}

func (m *metricsSink) ReportTraffic(report.Traffic)         { m.count("traffic") }
func (m *metricsSink) ReportOwnship(report.Ownship)         { m.count("ownship") }
func (m *metricsSink) ReportAHRS(report.Attitude)           { m.count("ahrs") }
func (m *metricsSink) ReportBattery(string)                 { m.count("battery") }
func (m *metricsSink) ReportMetar(report.TextBulletin)      { m.count("text") }
func (m *metricsSink) ReportNexradImage(report.NexradImage) { m.count("nexrad_image") }
func (m *metricsSink) ReportNexradClear(report.NexradClear) { m.count("nexrad_clear") }

func (m *metricsSink) ReportSatellitesInView(sats []report.Satellite) {
	m.count("satellites")
	m.satellites.Set(float64(len(sats)))
}

func (m *metricsSink) ReportInstanceTag(tag string) {
	for t := range m.tags {
		m.instanceTag.With(prometheus.Labels{"tag": t}).Set(0)
	}
	m.tags[tag] = true
	m.instanceTag.With(prometheus.Labels{"tag": tag}).Set(1)
}

// updateStats copies a decoder statistics snapshot into the gauges.
func (m *metricsSink) updateStats(s decoder.Stats) {
	m.receivedBytes.Set(float64(s.Bytes))
	m.overflows.Set(float64(s.Overflows))
	for _, f := range formats {
		m.messages.With(prometheus.Labels{"format": f.String()}).Set(float64(s.Messages[f]))
		m.malformed.With(prometheus.Labels{"format": f.String()}).Set(float64(s.Malformed[f]))
	}
}

func metricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
