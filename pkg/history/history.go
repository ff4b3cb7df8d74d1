// Package history holds the most recent sensor readings in a fixed-capacity
// ring guarded by a single mutex.
package history

import (
	"sync"

	"github.com/itohio/rtlab/pkg/adc"
)

// DefaultSize is the ring capacity used when none is configured.
const DefaultSize = 10

// Buffer is a fixed-capacity circular store of readings.
// Writes overwrite the slot under the cursor and advance it modulo the
// capacity. Unwritten slots read as zero.
// The lock is held only while slots are touched, never across I/O.
type Buffer struct {
	mu      sync.Mutex
	slots   []adc.Reading
	cursor  int
	written uint64
}

// New creates a Buffer with n slots. n <= 0 uses DefaultSize.
func New(n int) *Buffer {
	if n <= 0 {
		n = DefaultSize
	}
	return &Buffer{
		slots: make([]adc.Reading, n),
	}
}

// Cap returns the number of slots.
func (b *Buffer) Cap() int {
	return len(b.slots)
}

// Write stores r in the oldest slot.
func (b *Buffer) Write(r adc.Reading) {
	b.mu.Lock()
	b.slots[b.cursor] = r
	b.cursor = (b.cursor + 1) % len(b.slots)
	b.written++
	b.mu.Unlock()
}

// Written returns the total number of writes since creation.
// Written() < Cap() means the buffer is still warming up.
func (b *Buffer) Written() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.written
}

// Snapshot returns a copy of all slots in write order, oldest first.
func (b *Buffer) Snapshot() []adc.Reading {
	return b.SnapshotInto(nil)
}

// SnapshotInto copies all slots into dst in write order, oldest first.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
func (b *Buffer) SnapshotInto(dst []adc.Reading) []adc.Reading {
	n := len(b.slots)
	if cap(dst) >= n {
		dst = dst[:n]
	} else {
		dst = make([]adc.Reading, n)
	}

	b.mu.Lock()
	// The cursor points at the oldest slot.
	k := copy(dst, b.slots[b.cursor:])
	copy(dst[k:], b.slots[:b.cursor])
	b.mu.Unlock()

	return dst
}
