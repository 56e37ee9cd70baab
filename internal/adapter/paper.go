package adapter

import (
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/schema"
	"main/pkg/exception"
)

// WalkConfig shapes the paper venue's deterministic mid-price walk: a
// triangle wave stepping by Step and flipping direction every FlipEvery
// advances.
type WalkConfig struct {
	Step      schema.Price
	FlipEvery int
}

type paperOrder struct {
	intent schema.OrderIntent
	leaves schema.Quantity
}

// Paper is an in-process simulated venue. Orders rest until the walked
// market crosses their limit price; completions are published to the event
// queue the same way a live connector would.
type Paper struct {
	pair  schema.Pair
	queue *bus.Queue
	walk  WalkConfig

	mid        schema.Price
	halfSpread schema.Price
	direction  int64
	sinceFlip  int
	now        int64

	open   map[uint64]*paperOrder
	filled map[uint64]bool
}

// NewPaper creates a paper venue around the given starting mid price.
func NewPaper(pair schema.Pair, queue *bus.Queue, mid, halfSpread schema.Price, walk WalkConfig) *Paper {
	return &Paper{
		pair:       pair,
		queue:      queue,
		walk:       walk,
		mid:        mid,
		halfSpread: halfSpread,
		direction:  1,
		open:       make(map[uint64]*paperOrder),
		filled:     make(map[uint64]bool),
	}
}

// Place registers an order and acknowledges it asynchronously. A limit
// that already crosses the book executes immediately as taker; otherwise
// the order rests until the walked market reaches it.
func (p *Paper) Place(intent schema.OrderIntent) error {
	if intent.Price <= 0 {
		return errors.Wrapf(exception.ErrAdapterRejected, "price: %d", intent.Price)
	}
	if intent.Qty <= 0 {
		return errors.Wrapf(exception.ErrAdapterRejected, "qty: %d", intent.Qty)
	}
	o := &paperOrder{intent: intent, leaves: intent.Qty}
	p.open[intent.OrderID] = o
	p.publish(schema.ExchangeEvent{
		Kind: schema.ExchangeEventAck,
		Ack: schema.OrderAck{
			OrderID: intent.OrderID,
			PairID:  intent.PairID,
			Status:  schema.OrderAckStatusAccepted,
		},
		Ts: p.now,
	})
	if p.crossed(o) {
		p.fill(intent.OrderID, o, o.leaves, schema.LiquidityTaker)
	}
	return nil
}

// Cancel confirms cancellation unless the order already fully filled, in
// which case the caller learns it lost the race.
func (p *Paper) Cancel(orderID uint64) error {
	o, ok := p.open[orderID]
	if !ok {
		status := schema.OrderAckStatusCanceled
		reason := schema.OrderAckReasonUnknownOrder
		if p.filled[orderID] {
			status = schema.OrderAckStatusAlreadyFilled
			reason = schema.OrderAckReasonNone
		}
		p.publish(schema.ExchangeEvent{
			Kind: schema.ExchangeEventAck,
			Ack: schema.OrderAck{
				OrderID: orderID,
				PairID:  uint32(p.pair.ID),
				Status:  status,
				Reason:  reason,
			},
			Ts: p.now,
		})
		return nil
	}
	delete(p.open, orderID)
	p.publish(schema.ExchangeEvent{
		Kind: schema.ExchangeEventAck,
		Ack: schema.OrderAck{
			OrderID: orderID,
			PairID:  o.intent.PairID,
			Status:  schema.OrderAckStatusCanceled,
		},
		Ts: p.now,
	})
	return nil
}

// Snapshot returns the current market view.
func (p *Paper) Snapshot() schema.MarketSnapshot {
	return schema.MarketSnapshot{
		PairID:  uint32(p.pair.ID),
		Mid:     p.mid,
		BestBid: p.mid - p.halfSpread,
		BestAsk: p.mid + p.halfSpread,
		Ts:      p.now,
	}
}

// Advance walks the mid price one step and fills any resting order the
// market crossed.
func (p *Paper) Advance(now int64) {
	p.now = now
	if p.walk.Step > 0 {
		p.mid += schema.Price(p.direction) * p.walk.Step
		p.sinceFlip++
		if p.walk.FlipEvery > 0 && p.sinceFlip >= p.walk.FlipEvery {
			p.direction = -p.direction
			p.sinceFlip = 0
		}
	}

	for id, o := range p.open {
		if !p.crossed(o) {
			continue
		}
		p.fill(id, o, o.leaves, schema.LiquidityMaker)
	}
}

func (p *Paper) crossed(o *paperOrder) bool {
	return (o.intent.Side == schema.OrderSideBuy && o.intent.Price >= p.mid+p.halfSpread) ||
		(o.intent.Side == schema.OrderSideSell && o.intent.Price <= p.mid-p.halfSpread)
}

// ForceFill executes qty of a resting order at its limit price, bypassing
// the walk. Used by the trader's scenario hooks and tests.
func (p *Paper) ForceFill(orderID uint64, qty schema.Quantity) bool {
	o, ok := p.open[orderID]
	if !ok {
		return false
	}
	if qty <= 0 || qty > o.leaves {
		qty = o.leaves
	}
	p.fill(orderID, o, qty, schema.LiquidityMaker)
	return true
}

// SetMid overrides the mid price without filling.
func (p *Paper) SetMid(mid schema.Price) {
	p.mid = mid
}

// Mid returns the current mid price.
func (p *Paper) Mid() schema.Price {
	return p.mid
}

// OpenOrders returns the number of resting orders.
func (p *Paper) OpenOrders() int {
	return len(p.open)
}

func (p *Paper) fill(id uint64, o *paperOrder, qty schema.Quantity, liquidity schema.Liquidity) {
	o.leaves -= qty
	if o.leaves <= 0 {
		delete(p.open, id)
		p.filled[id] = true
	}
	p.publish(schema.ExchangeEvent{
		Kind: schema.ExchangeEventFill,
		Fill: schema.Fill{
			OrderID:   id,
			PairID:    o.intent.PairID,
			Side:      o.intent.Side,
			Price:     o.intent.Price,
			Qty:       qty,
			Liquidity: liquidity,
			Ts:        p.now,
		},
		Ts: p.now,
	})
}

func (p *Paper) publish(e schema.ExchangeEvent) {
	if err := p.queue.TryPublish(e); err != nil {
		logs.Warnf("paper venue dropped event: %v", err)
	}
}
