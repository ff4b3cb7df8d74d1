package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/history"
	"github.com/itohio/rtlab/pkg/queue"
	"github.com/itohio/rtlab/pkg/report"
)

// Aggregator averages the history once per period and hands the result to
// the Reporter without waiting.
type Aggregator struct {
	hist   *history.Buffer
	out    *queue.Queue[report.Record]
	period time.Duration
	stats  *Stats

	// Optional actuation: classify the mean and drive the outputs.
	table  *actuate.Table
	output actuate.Output

	now func() time.Time
}

// NewAggregator creates an Aggregator. table may be nil to skip actuation;
// output may be nil to classify without driving anything.
func NewAggregator(hist *history.Buffer, out *queue.Queue[report.Record], period time.Duration, table *actuate.Table, output actuate.Output, stats *Stats) *Aggregator {
	if period <= 0 {
		period = DefaultAggregatePeriod
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &Aggregator{
		hist:   hist,
		out:    out,
		period: period,
		stats:  stats,
		table:  table,
		output: output,
		now:    time.Now,
	}
}

// Tick computes one mean over all history slots and tries to enqueue it.
// It returns the record and whether it was enqueued; a record that did not
// fit is dropped and never retried.
func (a *Aggregator) Tick() (report.Record, bool) {
	rec := report.Record{
		Time:      a.now(),
		Aggregate: history.Mean(a.hist.Snapshot()),
	}

	if a.table != nil {
		rec.Actuation = actuate.Classify(rec.Aggregate.Value(), *a.table)
		rec.Actuated = true
		if a.output != nil {
			if err := a.output.Apply(rec.Actuation); err != nil {
				a.stats.OutputErrors.Add(1)
				log.Printf("Failed to apply outputs: %v", err)
			}
		}
	}

	a.stats.Aggregates.Add(1)
	if !a.out.TryPush(rec) {
		a.stats.Dropped.Add(1)
		return rec, false
	}
	return rec, true
}

// Run ticks until ctx is done.
func (a *Aggregator) Run(ctx context.Context) error {
	for {
		a.Tick()
		if !sleep(ctx, a.period) {
			return nil
		}
	}
}
