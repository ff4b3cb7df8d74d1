// Package pipeline runs the sampling pipeline as three independent tasks:
//
//	Sampler -> history.Buffer -> Aggregator -> queue.Queue -> Reporter -> sink
//
// The Sampler and the Aggregator run on their own periods and share only the
// history lock. The Aggregator never waits on the Reporter: a full queue drops
// the result. The Reporter blocks on the queue. Faults and drops are counted in
// Stats and never stop a task.
package pipeline

import (
	"context"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/history"
	"github.com/itohio/rtlab/pkg/queue"
	"github.com/itohio/rtlab/pkg/report"
)

const (
	DefaultSamplePeriod    = 500 * time.Millisecond
	DefaultAggregatePeriod = 500 * time.Millisecond
)

// Options configures a Pipeline.
type Options struct {
	SamplePeriod      time.Duration
	AggregatePeriod   time.Duration
	ConversionTimeout time.Duration
	HistorySize       int
	QueueSize         int
	Scale             adc.Scale

	// Table enables actuation when non-nil.
	Table *actuate.Table
	// PWMTop is the PWM period in counts, used for the duty report line.
	PWMTop uint32
	Report report.Options
}

// Pipeline wires the three tasks around a shared history and queue.
type Pipeline struct {
	History    *history.Buffer
	Queue      *queue.Queue[report.Record]
	Stats      *Stats
	Sampler    *Sampler
	Aggregator *Aggregator
	Reporter   *Reporter
}

// New builds a Pipeline reading from src, reporting to sink and, when
// opts.Table is set, driving out (which may be nil).
func New(opts Options, src adc.Source, sink io.Writer, out actuate.Output) *Pipeline {
	stats := &Stats{}
	hist := history.New(opts.HistorySize)
	q := queue.New[report.Record](opts.QueueSize)

	return &Pipeline{
		History:    hist,
		Queue:      q,
		Stats:      stats,
		Sampler:    NewSampler(src, hist, opts.SamplePeriod, opts.ConversionTimeout, opts.Scale, stats),
		Aggregator: NewAggregator(hist, q, opts.AggregatePeriod, opts.Table, out, stats),
		Reporter:   NewReporter(q, sink, report.NewFormatter(opts.Report, opts.PWMTop), stats),
	}
}

// Run starts the three tasks and blocks until ctx is done and all of them
// have returned.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Sampler.Run(ctx) })
	g.Go(func() error { return p.Aggregator.Run(ctx) })
	g.Go(func() error { return p.Reporter.Run(ctx) })
	return g.Wait()
}
