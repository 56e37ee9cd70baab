package bus

import (
	"errors"
	"testing"

	"main/internal/schema"
	"main/pkg/exception"
)

func TestQueuePublishDrain(t *testing.T) {
	q := NewQueue(4)

	for i := uint64(1); i <= 3; i++ {
		err := q.TryPublish(schema.ExchangeEvent{
			Kind: schema.ExchangeEventFill,
			Fill: schema.Fill{OrderID: i},
		})
		if err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if q.Len() != 3 {
		t.Fatalf("len mismatch! should be 3 but got %d", q.Len())
	}

	events := q.Drain()
	if len(events) != 3 {
		t.Fatalf("drain mismatch! should be 3 but got %d", len(events))
	}
	for i, e := range events {
		if e.Fill.OrderID != uint64(i+1) {
			t.Fatalf("order preserved mismatch at %d: %d", i, e.Fill.OrderID)
		}
	}

	if events := q.Drain(); len(events) != 0 {
		t.Fatalf("second drain should be empty, got %d", len(events))
	}
}

func TestQueueFull(t *testing.T) {
	q := NewQueue(1)

	if err := q.TryPublish(schema.ExchangeEvent{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := q.TryPublish(schema.ExchangeEvent{}); !errors.Is(err, exception.ErrQueueFull) {
		t.Fatalf("expected queue full, got %v", err)
	}

	q.Drain()
	if err := q.TryPublish(schema.ExchangeEvent{}); err != nil {
		t.Fatalf("publish after drain: %v", err)
	}
}

func TestQueueCountsDrops(t *testing.T) {
	q := NewQueue(1)

	if err := q.TryPublish(schema.ExchangeEvent{}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if q.Drops() != 0 {
		t.Fatalf("drops mismatch! should be 0 but got %d", q.Drops())
	}

	q.TryPublish(schema.ExchangeEvent{})
	q.TryPublish(schema.ExchangeEvent{})
	if q.Drops() != 2 {
		t.Fatalf("drops mismatch! should be 2 but got %d", q.Drops())
	}

	// Draining frees capacity but the counter keeps its history.
	q.Drain()
	if err := q.TryPublish(schema.ExchangeEvent{}); err != nil {
		t.Fatalf("publish after drain: %v", err)
	}
	if q.Drops() != 2 {
		t.Fatalf("drops mismatch! should be 2 but got %d", q.Drops())
	}
}

func TestQueueClosed(t *testing.T) {
	q := NewQueue(2)
	q.TryPublish(schema.ExchangeEvent{})
	q.Close()
	q.Close()

	if err := q.TryPublish(schema.ExchangeEvent{}); !errors.Is(err, exception.ErrQueueClosed) {
		t.Fatalf("expected queue closed, got %v", err)
	}
	// Events queued before the close still drain.
	if events := q.Drain(); len(events) != 1 {
		t.Fatalf("drain after close mismatch: %d", len(events))
	}
}
