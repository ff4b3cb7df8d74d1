package report

import (
	"errors"
	"fmt"
	"io"
)

type namedSink struct {
	name string
	w    io.Writer
}

// Fanout writes every record to each of its sinks. Unlike io.MultiWriter a
// failing sink does not stop the ones after it.
type Fanout struct {
	sinks []namedSink
}

// NewFanout returns an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add appends a sink. The name labels its errors.
func (f *Fanout) Add(name string, w io.Writer) {
	f.sinks = append(f.sinks, namedSink{name: name, w: w})
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Write writes p to every sink. The error joins one entry per failed sink;
// n is len(p) when at least one sink took the whole record.
func (f *Fanout) Write(p []byte) (int, error) {
	var (
		errs      []error
		delivered bool
	)
	for _, s := range f.sinks {
		n, err := s.w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		delivered = true
	}

	n := 0
	if delivered {
		n = len(p)
	}
	return n, errors.Join(errs...)
}
