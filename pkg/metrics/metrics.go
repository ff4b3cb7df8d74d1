// Package metrics exposes pipeline counters to Prometheus and serves a small
// HTTP status API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/itohio/rtlab/pkg/pipeline"
	"github.com/itohio/rtlab/pkg/report"
)

const namespace = "rtlab"

// Collectors holds the gauges updated from the report stream.
type Collectors struct {
	Mean     prometheus.Gauge
	Tier     prometheus.Gauge
	Duty     prometheus.Gauge
	Reported prometheus.Gauge
}

func counter(name, help string, f func() uint64) prometheus.CounterFunc {
	return prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, func() float64 { return float64(f()) })
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// Register registers the pipeline collectors on reg and returns the gauges
// fed by Observe.
func Register(reg prometheus.Registerer, p *pipeline.Pipeline) *Collectors {
	s := p.Stats
	reg.MustRegister(
		counter("samples_total", "Readings written to the history.", s.Samples.Load),
		counter("faults_total", "Conversions skipped after a fault.", s.Faults.Load),
		counter("aggregates_total", "Aggregation ticks computed.", s.Aggregates.Load),
		counter("dropped_total", "Results discarded on a full queue.", s.Dropped.Load),
		counter("reports_total", "Records written to the sink.", s.Reports.Load),
		counter("sink_errors_total", "Failed sink writes.", s.SinkErrors.Load),
		counter("output_errors_total", "Failed output updates.", s.OutputErrors.Load),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_length",
			Help:      "Results waiting for the reporter.",
		}, func() float64 { return float64(p.Queue.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_written",
			Help:      "Readings written since start, including overwritten ones.",
		}, func() float64 { return float64(p.History.Written()) }),
	)

	c := &Collectors{
		Mean:     gauge("mean", "Last reported mean."),
		Tier:     gauge("tier", "Last actuation tier."),
		Duty:     gauge("duty_fraction", "Last actuation duty fraction."),
		Reported: gauge("last_report_timestamp_seconds", "Time of the last report."),
	}
	reg.MustRegister(c.Mean, c.Tier, c.Duty, c.Reported)
	return c
}

// Observe updates the gauges from rec.
func (c *Collectors) Observe(rec report.Record) {
	c.Mean.Set(float64(rec.Aggregate.Value()))
	if rec.Actuated {
		c.Tier.Set(float64(rec.Actuation.Tier))
		c.Duty.Set(float64(rec.Actuation.Fraction))
	}
	c.Reported.Set(float64(rec.Time.UnixNano()) / 1e9)
}
