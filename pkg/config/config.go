package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/report"
)

const (
	// MaxHistorySize bounds history_size so slot sums stay exact.
	MaxHistorySize = 1 << 16
	// MaxQueueSize bounds queue_size.
	MaxQueueSize = 1 << 16
)

// Config represents the application configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Scale    adc.Scale      `yaml:"scale"`
	Mapper   MapperConfig   `yaml:"mapper"`
	Report   ReportConfig   `yaml:"report"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Mock     MockConfig     `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	// ReportPort optionally mirrors report lines to a second serial port.
	ReportPort string `yaml:"report_port,omitempty"`
}

// PipelineConfig contains task periods and buffer sizes.
type PipelineConfig struct {
	SamplePeriod      time.Duration `yaml:"sample_period"`
	AggregatePeriod   time.Duration `yaml:"aggregate_period"`
	HistorySize       int           `yaml:"history_size"`
	QueueSize         int           `yaml:"queue_size"`
	ConversionTimeout time.Duration `yaml:"conversion_timeout"` // Bound on the wait for one conversion
}

// MapperConfig contains the actuation table and output settings.
type MapperConfig struct {
	Enabled       bool `yaml:"enabled"`
	actuate.Table `yaml:",inline"`
	PWMTop        uint32 `yaml:"pwm_top"`       // PWM period in counts
	DriveOutputs  bool   `yaml:"drive_outputs"` // Forward results to the board
}

// ReportConfig selects the optional report lines.
type ReportConfig struct {
	report.Options `yaml:",inline"`
}

// MQTTConfig contains the MQTT report sink configuration. An empty broker
// disables the sink.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"` // Generated when empty
	QoS      byte   `yaml:"qos"`
}

// MetricsConfig contains the HTTP metrics endpoint configuration. An empty
// address disables the endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// MockConfig contains mock board configuration.
type MockConfig struct {
	Min        uint32        `yaml:"min"`         // Lowest simulated code
	Max        uint32        `yaml:"max"`         // Highest simulated code
	Period     time.Duration `yaml:"period"`      // Waveform period
	Noise      uint32        `yaml:"noise"`       // Peak noise in codes
	FaultEvery int           `yaml:"fault_every"` // Fail every n-th conversion (0 = never)
	Latency    time.Duration `yaml:"latency"`     // Conversion completion latency
	Values     []uint32      `yaml:"values,omitempty"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0", // "COM3" on Windows
			BaudRate: 115200,
		},
		Pipeline: PipelineConfig{
			SamplePeriod:      500 * time.Millisecond,
			AggregatePeriod:   500 * time.Millisecond,
			HistorySize:       10,
			QueueSize:         10,
			ConversionTimeout: 100 * time.Millisecond, // Serial round trip
		},
		Scale: adc.Scale{
			VRef:      3.3,
			FullScale: adc.FullScale12,
		},
		Mapper: MapperConfig{
			Enabled: true,
			Table: actuate.Table{
				Mode:       actuate.Stepped,
				Thresholds: []adc.Reading{3000, 3500, 4000},
				Fractions:  []float32{0, 0.25, 0.5, 0.75},
			},
			PWMTop: 1000,
		},
		MQTT: MQTTConfig{
			Topic: "rtlab/report",
		},
		Mock: MockConfig{
			Min:     2500,
			Max:     4095,
			Period:  20 * time.Second,
			Noise:   40,
			Latency: time.Millisecond,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks ranges and the actuation table.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.SamplePeriod <= 0 {
		return fmt.Errorf("%w: sample_period must be positive", ErrInvalid)
	}
	if p.AggregatePeriod <= 0 {
		return fmt.Errorf("%w: aggregate_period must be positive", ErrInvalid)
	}
	if p.HistorySize < 1 || p.HistorySize > MaxHistorySize {
		return fmt.Errorf("%w: history_size %d out of range 1..%d", ErrInvalid, p.HistorySize, MaxHistorySize)
	}
	if p.QueueSize < 1 || p.QueueSize > MaxQueueSize {
		return fmt.Errorf("%w: queue_size %d out of range 1..%d", ErrInvalid, p.QueueSize, MaxQueueSize)
	}
	if p.ConversionTimeout < 0 {
		return fmt.Errorf("%w: conversion_timeout must not be negative", ErrInvalid)
	}

	if c.Scale.UnitsPerVolt < 0 || c.Scale.VRef < 0 {
		return fmt.Errorf("%w: scale must not be negative", ErrInvalid)
	}

	if c.Mapper.Enabled {
		if err := c.Mapper.Table.Validate(); err != nil {
			return fmt.Errorf("invalid mapper: %w", err)
		}
	}

	if c.Report.Decimals < 0 || c.Report.Decimals > report.MaxDecimals {
		return fmt.Errorf("%w: decimals %d out of range 0..%d", ErrInvalid, c.Report.Decimals, report.MaxDecimals)
	}

	if c.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt qos %d out of range 0..2", ErrInvalid, c.MQTT.QoS)
	}

	if c.Mock.Min > c.Mock.Max {
		return fmt.Errorf("%w: mock min %d exceeds max %d", ErrInvalid, c.Mock.Min, c.Mock.Max)
	}
	if c.Mock.FaultEvery < 0 {
		return fmt.Errorf("%w: mock fault_every must not be negative", ErrInvalid)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Pipeline.SamplePeriod == 0 {
		c.Pipeline.SamplePeriod = def.Pipeline.SamplePeriod
	}
	if c.Pipeline.AggregatePeriod == 0 {
		c.Pipeline.AggregatePeriod = def.Pipeline.AggregatePeriod
	}
	if c.Pipeline.HistorySize == 0 {
		c.Pipeline.HistorySize = def.Pipeline.HistorySize
	}
	if c.Pipeline.QueueSize == 0 {
		c.Pipeline.QueueSize = def.Pipeline.QueueSize
	}
	if c.Pipeline.ConversionTimeout == 0 {
		c.Pipeline.ConversionTimeout = def.Pipeline.ConversionTimeout
	}

	if c.Mapper.Mode == actuate.Stepped && len(c.Mapper.Thresholds) == 0 && len(c.Mapper.Fractions) == 0 {
		c.Mapper.Thresholds = def.Mapper.Thresholds
		c.Mapper.Fractions = def.Mapper.Fractions
	}
	if c.Mapper.PWMTop == 0 {
		c.Mapper.PWMTop = def.Mapper.PWMTop
	}

	if c.MQTT.Topic == "" {
		c.MQTT.Topic = def.MQTT.Topic
	}

	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.Max == 0 {
		c.Mock.Max = def.Mock.Max
	}
}
