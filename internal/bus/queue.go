package bus

import (
	"sync/atomic"

	"main/internal/schema"
	"main/pkg/exception"
)

// Queue is a bounded, non-blocking queue of exchange events. The adapter
// publishes completions here; the scheduler drains it at the start of every
// tick so asynchronous notifications behave like queued events.
type Queue struct {
	ch     chan schema.ExchangeEvent
	closed uint32
	drops  uint64
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan schema.ExchangeEvent, capacity)}
}

// TryPublish enqueues an event without blocking.
func (q *Queue) TryPublish(e schema.ExchangeEvent) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return exception.ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		atomic.AddUint64(&q.drops, 1)
		return exception.ErrQueueFull
	}
}

// Drops returns the number of events refused because the queue was full.
func (q *Queue) Drops() uint64 {
	return atomic.LoadUint64(&q.drops)
}

// Drain returns every queued event without blocking.
func (q *Queue) Drain() []schema.ExchangeEvent {
	var out []schema.ExchangeEvent
	for {
		select {
		case e, ok := <-q.ch:
			if !ok {
				return out
			}
			out = append(out, e)
		default:
			return out
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}
