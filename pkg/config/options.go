package config

import (
	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/pipeline"
)

// Options maps the configuration onto pipeline options.
func (c *Config) Options() pipeline.Options {
	opts := pipeline.Options{
		SamplePeriod:      c.Pipeline.SamplePeriod,
		AggregatePeriod:   c.Pipeline.AggregatePeriod,
		ConversionTimeout: c.Pipeline.ConversionTimeout,
		HistorySize:       c.Pipeline.HistorySize,
		QueueSize:         c.Pipeline.QueueSize,
		Scale:             c.Scale,
		PWMTop:            c.Mapper.PWMTop,
		Report:            c.Report.Options,
	}

	if c.Mapper.Enabled {
		table := actuate.Table{
			Mode:       c.Mapper.Mode,
			Thresholds: append([]adc.Reading(nil), c.Mapper.Thresholds...),
			Fractions:  append([]float32(nil), c.Mapper.Fractions...),
			Min:        c.Mapper.Min,
			Max:        c.Mapper.Max,
		}
		opts.Table = &table
	}

	return opts
}
