package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/board"
	"github.com/itohio/rtlab/pkg/config"
	"github.com/itohio/rtlab/pkg/metrics"
	"github.com/itohio/rtlab/pkg/mqtt"
	"github.com/itohio/rtlab/pkg/pipeline"
	"github.com/itohio/rtlab/pkg/report"
)

// session is one connected board with its pipeline, sinks and metrics.
type session struct {
	cfg      *config.Config
	device   board.Device
	pipeline *pipeline.Pipeline
	metrics  *metrics.Server
	closers  []io.Closer
}

// openDevice creates and connects the mocked or serial board.
func openDevice(cfg *config.Config, mock bool) (board.Device, error) {
	var dev board.Device
	if mock {
		dev = board.NewMock(&cfg.Mock)
	} else {
		s := board.New(cfg.Serial.Port, cfg.Serial.BaudRate)
		s.OnLine(func(line string) {
			log.Printf("Board: %s", line)
		})
		dev = s
	}

	if err := dev.Connect(); err != nil {
		if mock {
			return nil, fmt.Errorf("failed to connect to mocked board: %w", err)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Serial.Port, err)
	}
	return dev, nil
}

// newSession wires dev into a pipeline that reports to stdout and to the
// optional serial and MQTT sinks.
func newSession(cfg *config.Config, dev board.Device, stdout io.Writer) (*session, error) {
	s := &session{cfg: cfg, device: dev}

	sinks := report.NewFanout()
	sinks.Add("stdout", stdout)
	if cfg.Serial.ReportPort != "" {
		w, err := board.OpenSink(cfg.Serial.ReportPort, cfg.Serial.BaudRate)
		if err != nil {
			s.Close()
			return nil, err
		}
		sinks.Add(cfg.Serial.ReportPort, w)
		s.closers = append(s.closers, w)
	}
	if cfg.MQTT.Broker != "" {
		w, err := mqtt.Dial(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			QoS:      cfg.MQTT.QoS,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		sinks.Add("mqtt", w)
		s.closers = append(s.closers, w)
	}

	var out actuate.Output
	if cfg.Mapper.DriveOutputs {
		out = dev
	}

	s.pipeline = pipeline.New(cfg.Options(), dev, sinks, out)
	if cfg.Metrics.Addr != "" {
		s.metrics = metrics.New(s.pipeline)
	}
	return s, nil
}

// Run runs the pipeline and the metrics server until ctx is done.
func (s *session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.pipeline.Run(ctx) })
	if s.metrics != nil {
		g.Go(func() error {
			return s.metrics.ListenAndServe(ctx, s.cfg.Metrics.Addr, os.Stdout)
		})
	}
	return g.Wait()
}

// Close closes the sinks and the board.
func (s *session) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Printf("Error closing sink: %v", err)
		}
	}
	s.closers = nil

	if s.device != nil {
		if err := s.device.Close(); err != nil {
			log.Printf("Error closing board: %v", err)
		}
	}
}
