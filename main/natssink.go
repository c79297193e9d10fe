package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// publisher is the part of *nats.Conn the sink needs.
type publisher interface {
	Publish(subj string, data []byte) error
}

func connectNATS(url string, logger *logrus.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("linkdecoder"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.WithError(err).Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.WithField("url", c.ConnectedUrl()).Info("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	return nc, nil
}

// newNATSSink publishes each event as JSON on <subject>.<type>, using the
// same documents the websocket clients get.
func newNATSSink(conn publisher, subject string, logger *logrus.Logger) *eventSink {
	failures := 0
	return &eventSink{emit: func(ev uiEvent) {
		msg, err := json.Marshal(ev)
		if err != nil {
			logger.WithError(err).Warn("nats event marshal failed")
			return
		}
		if err := conn.Publish(subject+"."+ev.Type, msg); err != nil {
			failures++
			if failures%1000 == 1 {
				logger.WithError(err).WithField("failures", failures).Warn("nats publish failed")
			}
		}
	}}
}
