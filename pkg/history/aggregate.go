package history

import "github.com/itohio/rtlab/pkg/adc"

// Aggregate is one averaging result handed from the Aggregator to the
// Reporter. It is not mutated after creation.
type Aggregate struct {
	Sum   uint64
	Count int
	// Slots is the snapshot the mean was computed over, oldest first.
	Slots []adc.Reading
}

// Mean computes the arithmetic mean over every slot, including slots that were
// never written and still hold zero. During warm-up this under-reports: five
// writes of 5 in a ten-slot ring average to 2, not 5.
// A populated-only mean is Sum / min(Buffer.Written, Buffer.Cap).
func Mean(slots []adc.Reading) Aggregate {
	var sum uint64
	for _, r := range slots {
		sum += uint64(r)
	}
	return Aggregate{
		Sum:   sum,
		Count: len(slots),
		Slots: slots,
	}
}

// Value returns Sum / Count with integer division. An empty aggregate is zero.
func (a Aggregate) Value() adc.Reading {
	if a.Count == 0 {
		return 0
	}
	return adc.Reading(a.Sum / uint64(a.Count))
}
