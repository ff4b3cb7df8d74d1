package pipeline

import "sync/atomic"

// Stats counts pipeline events. Every failure path in the pipeline is
// non-propagating; these counters are the only trace of skipped samples and
// dropped results besides the log.
type Stats struct {
	Samples      atomic.Uint64 // readings written to history
	Faults       atomic.Uint64 // conversions skipped
	Aggregates   atomic.Uint64 // ticks computed
	Dropped      atomic.Uint64 // results discarded on a full queue
	Reports      atomic.Uint64 // records written to the sink
	SinkErrors   atomic.Uint64 // records whose sink write failed
	OutputErrors atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Samples      uint64 `json:"samples"`
	Faults       uint64 `json:"faults"`
	Aggregates   uint64 `json:"aggregates"`
	Dropped      uint64 `json:"dropped"`
	Reports      uint64 `json:"reports"`
	SinkErrors   uint64 `json:"sink_errors"`
	OutputErrors uint64 `json:"output_errors"`
}

// Snapshot copies the current counter values.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Samples:      s.Samples.Load(),
		Faults:       s.Faults.Load(),
		Aggregates:   s.Aggregates.Load(),
		Dropped:      s.Dropped.Load(),
		Reports:      s.Reports.Load(),
		SinkErrors:   s.SinkErrors.Load(),
		OutputErrors: s.OutputErrors.Load(),
	}
}
