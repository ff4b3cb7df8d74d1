// Package queue provides the bounded FIFO used to hand results from one task
// to another: producers never block, the consumer blocks until an item arrives.
package queue

import "context"

// DefaultCapacity is used when a non-positive capacity is requested.
const DefaultCapacity = 10

// Queue is a bounded FIFO with non-blocking push and blocking pop.
// Each pushed item is delivered at most once.
type Queue[T any] struct {
	items chan T
}

// New creates a Queue holding up to capacity items.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue[T]{items: make(chan T, capacity)}
}

// TryPush enqueues v without waiting. It returns false when the queue is
// full; the queue content is unchanged in that case.
func (q *Queue[T]) TryPush(v T) bool {
	select {
	case q.items <- v:
		return true
	default:
		return false
	}
}

// Pop blocks until an item is available and returns it.
// It returns ctx.Err() if ctx is done first.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	select {
	case v := <-q.items:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return cap(q.items)
}
