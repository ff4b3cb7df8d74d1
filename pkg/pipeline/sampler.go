package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/history"
)

// Sampler acquires one reading per period and writes it to the history.
type Sampler struct {
	src     adc.Source
	hist    *history.Buffer
	scale   adc.Scale
	timeout time.Duration
	period  time.Duration
	stats   *Stats
}

// NewSampler creates a Sampler. timeout bounds the wait for conversion
// completion; scale may be the zero Scale to keep raw codes.
func NewSampler(src adc.Source, hist *history.Buffer, period, timeout time.Duration, scale adc.Scale, stats *Stats) *Sampler {
	if period <= 0 {
		period = DefaultSamplePeriod
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &Sampler{
		src:     src,
		hist:    hist,
		scale:   scale,
		timeout: timeout,
		period:  period,
		stats:   stats,
	}
}

// Sample performs one conversion and stores the reading.
// On error nothing is written.
func (s *Sampler) Sample() (adc.Reading, error) {
	raw, err := adc.Convert(s.src, s.timeout)
	if err != nil {
		s.stats.Faults.Add(1)
		return 0, err
	}

	r := s.scale.Apply(raw)
	s.hist.Write(r)
	s.stats.Samples.Add(1)
	return r, nil
}

// Run samples until ctx is done. A failed conversion skips that period only.
func (s *Sampler) Run(ctx context.Context) error {
	for {
		if _, err := s.Sample(); err != nil {
			log.Printf("Sample skipped: %v", err)
		}
		if !sleep(ctx, s.period) {
			return nil
		}
	}
}

// sleep waits for d or until ctx is done. It returns false if ctx is done.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
