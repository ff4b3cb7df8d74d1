package history

import (
	"math/rand"
	"runtime"
	"sync"
	"testing"

	"github.com/itohio/rtlab/pkg/adc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultSize(t *testing.T) {
	assert.Equal(t, DefaultSize, New(0).Cap())
	assert.Equal(t, DefaultSize, New(-3).Cap())
	assert.Equal(t, 4, New(4).Cap())
}

func TestBuffer_EmptySnapshot(t *testing.T) {
	b := New(5)
	assert.Equal(t, []adc.Reading{0, 0, 0, 0, 0}, b.Snapshot())
	assert.Equal(t, uint64(0), b.Written())
}

func TestBuffer_FIFOEviction(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		writes []adc.Reading
		want   []adc.Reading
	}{
		{
			name:   "exactly N writes",
			size:   4,
			writes: []adc.Reading{1, 2, 3, 4},
			want:   []adc.Reading{1, 2, 3, 4},
		},
		{
			name:   "N+1 writes evicts oldest",
			size:   4,
			writes: []adc.Reading{1, 2, 3, 4, 5},
			want:   []adc.Reading{2, 3, 4, 5},
		},
		{
			name:   "two full wraps",
			size:   3,
			writes: []adc.Reading{1, 2, 3, 4, 5, 6, 7},
			want:   []adc.Reading{5, 6, 7},
		},
		{
			name:   "warm-up keeps default zeros oldest",
			size:   5,
			writes: []adc.Reading{7, 8},
			want:   []adc.Reading{0, 0, 0, 7, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.size)
			for _, w := range tt.writes {
				b.Write(w)
			}
			assert.Equal(t, tt.want, b.Snapshot())
			assert.Equal(t, uint64(len(tt.writes)), b.Written())
		})
	}
}

func TestBuffer_LastNWrites(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 1; n <= 12; n++ {
		b := New(n)
		var all []adc.Reading
		writes := n + rng.Intn(3*n)
		for i := 0; i < writes; i++ {
			v := adc.Reading(rng.Intn(4096))
			all = append(all, v)
			b.Write(v)
		}
		assert.Equal(t, all[len(all)-n:], b.Snapshot(), "capacity %d after %d writes", n, writes)
	}
}

func TestBuffer_SnapshotInto(t *testing.T) {
	b := New(3)
	b.Write(1)
	b.Write(2)

	dst := make([]adc.Reading, 0, 8)
	got := b.SnapshotInto(dst)
	assert.Equal(t, []adc.Reading{0, 1, 2}, got)
	assert.Same(t, &dst[:1][0], &got[0], "should reuse dst backing array")

	small := make([]adc.Reading, 1)
	got = b.SnapshotInto(small)
	assert.Len(t, got, 3)
}

func TestBuffer_SnapshotIsCopy(t *testing.T) {
	b := New(2)
	b.Write(10)
	snap := b.Snapshot()
	snap[0] = 99
	assert.Equal(t, []adc.Reading{0, 10}, b.Snapshot())
}

func TestMean(t *testing.T) {
	tests := []struct {
		name  string
		slots []adc.Reading
		want  adc.Reading
		sum   uint64
	}{
		{name: "empty", slots: nil, want: 0},
		{name: "uniform", slots: []adc.Reading{5, 5, 5, 5}, want: 5, sum: 20},
		{name: "integer division", slots: []adc.Reading{1, 2}, want: 1, sum: 3},
		{name: "large values do not overflow", slots: []adc.Reading{4_000_000_000, 4_000_000_000}, want: 4_000_000_000, sum: 8_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := Mean(tt.slots)
			assert.Equal(t, tt.want, agg.Value())
			assert.Equal(t, tt.sum, agg.Sum)
			assert.Equal(t, len(tt.slots), agg.Count)
		})
	}
}

// Five real writes into a ten-slot ring average over all ten slots.
func TestMean_WarmUpGap(t *testing.T) {
	b := New(10)
	for range 5 {
		b.Write(5)
	}

	agg := Mean(b.Snapshot())
	assert.Equal(t, uint64(25), agg.Sum)
	assert.Equal(t, 10, agg.Count)
	assert.Equal(t, adc.Reading(2), agg.Value())
}

func TestMean_WarmUpLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 10
	for w := 0; w < n; w++ {
		b := New(n)
		var sum uint64
		for i := 0; i < w; i++ {
			v := adc.Reading(rng.Intn(4096))
			sum += uint64(v)
			b.Write(v)
		}
		assert.Equal(t, adc.Reading(sum/n), Mean(b.Snapshot()).Value(), "after %d writes", w)
	}
}

// Concurrent writers and snapshotters never observe a value that was not
// written (or the zero default).
func TestBuffer_ConcurrentNoTornReads(t *testing.T) {
	const (
		size     = 10
		writers  = 4
		readers  = 4
		perTask  = 2000
		valueTag = 0xA5A5_0000
	)

	b := New(size)
	written := make(map[adc.Reading]struct{})
	var writtenMu sync.Mutex

	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(w)))
			for i := range perTask {
				v := adc.Reading(valueTag | uint32(w)<<12 | uint32(i&0xfff))
				writtenMu.Lock()
				written[v] = struct{}{}
				writtenMu.Unlock()
				b.Write(v)
				if rng.Intn(4) == 0 {
					runtime.Gosched()
				}
			}
		}(w)
	}

	snapshots := make(chan []adc.Reading, readers*perTask)
	for r := range readers {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(100 + r)))
			var dst []adc.Reading
			for range perTask {
				dst = b.SnapshotInto(dst)
				cp := make([]adc.Reading, len(dst))
				copy(cp, dst)
				snapshots <- cp
				if rng.Intn(4) == 0 {
					runtime.Gosched()
				}
			}
		}(r)
	}

	wg.Wait()
	close(snapshots)

	for snap := range snapshots {
		require.Len(t, snap, size)
		for _, v := range snap {
			if v == 0 {
				continue
			}
			_, ok := written[v]
			require.True(t, ok, "snapshot observed value %#x that was never written", uint32(v))
		}
	}
	assert.Equal(t, uint64(writers*perTask), b.Written())
}
