package strategy

import (
	"time"

	"main/internal/og"
	"main/internal/schema"
)

// TwapConfig defines the slicer parameters for one pair.
type TwapConfig struct {
	PairID         schema.PairID
	Side           schema.OrderSide
	TargetQty      schema.Quantity
	StepQty        schema.Quantity
	OrderDelay     time.Duration
	CancelWait     time.Duration
	PriceOffsetBps schema.Bps
}

// Twap slices a target quantity into time-distributed child orders. One
// child order is in flight at a time; an expired child is cancelled and the
// unfilled remainder is re-priced on a later tick.
type Twap struct {
	id  uint32
	cfg TwapConfig

	remaining  schema.Quantity
	pendingID  uint64
	lastStep   int64
	firstOrder bool
	steps      int
}

// NewTwap creates a slicer with remaining = target.
func NewTwap(id uint32, cfg TwapConfig) *Twap {
	return &Twap{
		id:         id,
		cfg:        cfg,
		remaining:  cfg.TargetQty,
		firstOrder: true,
	}
}

func (t *Twap) Name() string { return "twap" }

func (t *Twap) ID() uint32 { return t.id }

// Done reports completion: the full target has been filled.
func (t *Twap) Done() bool { return t.remaining <= 0 }

// Remaining returns the unfilled target quantity.
func (t *Twap) Remaining() schema.Quantity { return t.remaining }

// Steps returns the number of child orders submitted so far.
func (t *Twap) Steps() int { return t.steps }

// Candidates proposes the next child order when no child is pending, the
// step delay has elapsed (the first order skips the delay) and quantity
// remains.
func (t *Twap) Candidates(view View) []schema.OrderIntent {
	if t.remaining <= 0 || t.pendingID != 0 {
		return nil
	}
	if !t.firstOrder && view.Now-t.lastStep < int64(t.cfg.OrderDelay) {
		return nil
	}
	mid := view.Market.Mid
	if mid <= 0 {
		return nil
	}

	amount := t.cfg.StepQty
	if amount > t.remaining {
		amount = t.remaining
	}

	offset := t.cfg.PriceOffsetBps
	if t.cfg.Side == schema.OrderSideBuy {
		offset = -offset
	}
	price := schema.Price(schema.ApplyBps(int64(mid), offset))

	var expireAt int64
	if t.cfg.CancelWait > 0 {
		expireAt = view.Now + int64(t.cfg.CancelWait)
	}

	return []schema.OrderIntent{{
		StrategyID: t.id,
		PairID:     uint32(t.cfg.PairID),
		Side:       t.cfg.Side,
		Price:      price,
		Qty:        amount,
		ExpireAt:   expireAt,
	}}
}

// OnSubmitted marks the child order as pending and advances the step clock.
func (t *Twap) OnSubmitted(o og.Order) {
	t.pendingID = o.ID
	t.lastStep = o.CreatedAt
	t.firstOrder = false
	t.steps++
}

// OnFill decrements the remaining target. Fills win over expiry: remaining
// only ever moves on confirmed executions, so the total filled equals the
// target exactly with no overshoot.
func (t *Twap) OnFill(fill schema.Fill) {
	if fill.OrderID != t.pendingID {
		return
	}
	t.remaining -= fill.Qty
	if t.remaining < 0 {
		t.remaining = 0
	}
}

// OnOrderRetired clears the pending slot so the next tick re-evaluates the
// market for any unfilled remainder.
func (t *Twap) OnOrderRetired(o og.Order) {
	if o.ID == t.pendingID {
		t.pendingID = 0
	}
}
