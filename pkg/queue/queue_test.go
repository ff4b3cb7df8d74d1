package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New[int](0).Cap())
	assert.Equal(t, 3, New[int](3).Cap())
}

func TestQueue_FIFO(t *testing.T) {
	q := New[int](5)
	for i := 1; i <= 5; i++ {
		require.True(t, q.TryPush(i))
	}
	assert.Equal(t, 5, q.Len())

	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		v, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_TryPushFull(t *testing.T) {
	q := New[string](2)
	require.True(t, q.TryPush("a"))
	require.True(t, q.TryPush("b"))

	assert.False(t, q.TryPush("c"), "push on a full queue must fail")
	assert.Equal(t, 2, q.Len())

	ctx := context.Background()
	v, err := q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	v, err = q.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", v, "rejected push must not overwrite queued items")
}

func TestQueue_TryPushNeverBlocks(t *testing.T) {
	q := New[int](1)
	q.TryPush(0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 1000 {
			q.TryPush(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TryPush blocked on a full queue")
	}
}

func TestQueue_PopBlocksUntilPush(t *testing.T) {
	q := New[int](1)
	got := make(chan int, 1)

	go func() {
		v, err := q.Pop(context.Background())
		if err == nil {
			got <- v
		}
	}()

	select {
	case <-got:
		t.Fatal("Pop returned before any push")
	case <-time.After(50 * time.Millisecond):
	}

	require.True(t, q.TryPush(42))

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after push")
	}
}

func TestQueue_PopContextDone(t *testing.T) {
	q := New[int](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Pop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_ProducerConsumerOrder(t *testing.T) {
	const n = 500
	q := New[int](10)

	received := make(chan []int, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		var out []int
		for len(out) < n {
			v, err := q.Pop(ctx)
			if err != nil {
				break
			}
			out = append(out, v)
		}
		received <- out
	}()

	for i := 0; i < n; {
		if q.TryPush(i) {
			i++
		}
	}

	select {
	case out := <-received:
		require.Len(t, out, n)
		for i, v := range out {
			assert.Equal(t, i, v)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not receive all items")
	}
}
