package pipeline

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/itohio/rtlab/pkg/queue"
	"github.com/itohio/rtlab/pkg/report"
)

// Reporter drains the queue and writes each record to the sink.
type Reporter struct {
	in     *queue.Queue[report.Record]
	sink   io.Writer
	format *report.Formatter
	stats  *Stats
	buf    []byte

	// Callbacks receive every emitted record after the sink write.
	callbacks []func(report.Record)
	cbMu      sync.RWMutex
}

// NewReporter creates a Reporter writing to sink.
func NewReporter(in *queue.Queue[report.Record], sink io.Writer, format *report.Formatter, stats *Stats) *Reporter {
	if stats == nil {
		stats = &Stats{}
	}
	return &Reporter{
		in:     in,
		sink:   sink,
		format: format,
		stats:  stats,
		buf:    make([]byte, 0, 256),
	}
}

// OnReport registers a callback invoked for each emitted record.
// The callback runs on the Reporter goroutine and should return quickly.
func (r *Reporter) OnReport(callback func(rec report.Record)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// Emit formats rec and writes it to the sink in a single Write.
// Each record counts once, in Reports when the write succeeded and in
// SinkErrors otherwise. The sink owns retry.
func (r *Reporter) Emit(rec report.Record) {
	r.buf = r.format.Append(r.buf[:0], rec)
	if _, err := r.sink.Write(r.buf); err != nil {
		r.stats.SinkErrors.Add(1)
		log.Printf("Failed to write report: %v", err)
	} else {
		r.stats.Reports.Add(1)
	}

	r.cbMu.RLock()
	callbacks := make([]func(report.Record), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(rec)
		}
	}
}

// Run blocks on the queue and emits records until ctx is done.
func (r *Reporter) Run(ctx context.Context) error {
	for {
		rec, err := r.in.Pop(ctx)
		if err != nil {
			return nil
		}
		r.Emit(rec)
	}
}
