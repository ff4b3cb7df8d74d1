package pipeline

import (
	"errors"
	"sync"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
)

// scriptSource returns scripted values in order, then repeats the last one.
// A value of faultValue makes that conversion fail.
type scriptSource struct {
	mu     sync.Mutex
	values []adc.Reading
	next   int
	cur    adc.Reading
}

const faultValue = adc.Reading(1<<32 - 1)

func (s *scriptSource) StartConversion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return errors.New("no values")
	}
	idx := s.next
	if idx >= len(s.values) {
		idx = len(s.values) - 1
	} else {
		s.next++
	}
	s.cur = s.values[idx]
	return nil
}

func (s *scriptSource) IsReady() bool { return true }

func (s *scriptSource) Read() (adc.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == faultValue {
		return 0, adc.ErrConversion
	}
	return s.cur, nil
}

// recordingOutput records every applied result.
type recordingOutput struct {
	mu      sync.Mutex
	applied []actuate.Result
	err     error
}

func (o *recordingOutput) Apply(r actuate.Result) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.applied = append(o.applied, r)
	return o.err
}

func (o *recordingOutput) results() []actuate.Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]actuate.Result, len(o.applied))
	copy(out, o.applied)
	return out
}

// lockedBuffer is a concurrency-safe sink.
type lockedBuffer struct {
	mu  sync.Mutex
	buf []byte
	err error
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return 0, b.err
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func (b *lockedBuffer) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}
