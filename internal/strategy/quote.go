package strategy

import (
	"time"

	"main/internal/og"
	"main/internal/schema"
)

// QuoteConfig defines the pure market-making parameters for one pair.
type QuoteConfig struct {
	PairID          schema.PairID
	PriceScale      schema.Scale
	BidSpreadBps    schema.Bps
	AskSpreadBps    schema.Bps
	OrderSize       schema.Quantity
	RefreshInterval time.Duration
	MaxOrderAge     time.Duration
	Inventory       InventoryConfig
}

// QuoteEngine quotes one bid and one ask around the mid price each refresh.
// It never stacks: while either side has a live order, no new quotes are
// proposed.
type QuoteEngine struct {
	id  uint32
	cfg QuoteConfig

	liveBuyID  uint64
	liveSellID uint64
	lastQuote  int64
}

// NewQuoteEngine creates a quote engine.
func NewQuoteEngine(id uint32, cfg QuoteConfig) *QuoteEngine {
	return &QuoteEngine{id: id, cfg: cfg}
}

func (q *QuoteEngine) Name() string { return "quote" }

func (q *QuoteEngine) ID() uint32 { return q.id }

// Done always reports false: quoting has no terminal condition.
func (q *QuoteEngine) Done() bool { return false }

// Candidates proposes at most one buy and one sell order. A tick before the
// refresh interval elapses is a quoting no-op.
func (q *QuoteEngine) Candidates(view View) []schema.OrderIntent {
	if q.liveBuyID != 0 || q.liveSellID != 0 {
		return nil
	}
	if q.lastQuote > 0 && view.Now-q.lastQuote < int64(q.cfg.RefreshInterval) {
		return nil
	}
	mid := view.Market.Mid
	if mid <= 0 {
		return nil
	}

	buySize, sellSize := q.cfg.OrderSize, q.cfg.OrderSize
	if q.cfg.Inventory.TargetRatioBps > 0 && q.cfg.Inventory.RangeMultBps > 0 {
		skew := Skew(view.BaseAvailable, view.QuoteAvailable, mid, q.cfg.PriceScale, q.cfg.Inventory)
		buySize, sellSize = SkewedSizes(q.cfg.OrderSize, skew)
	}

	bid := schema.Price(schema.ApplyBps(int64(mid), -q.cfg.BidSpreadBps))
	ask := schema.Price(schema.ApplyBps(int64(mid), q.cfg.AskSpreadBps))

	var expireAt int64
	if q.cfg.MaxOrderAge > 0 {
		expireAt = view.Now + int64(q.cfg.MaxOrderAge)
	}

	out := make([]schema.OrderIntent, 0, 2)
	if buySize > 0 {
		out = append(out, schema.OrderIntent{
			StrategyID: q.id,
			PairID:     uint32(q.cfg.PairID),
			Side:       schema.OrderSideBuy,
			Price:      bid,
			Qty:        buySize,
			ExpireAt:   expireAt,
		})
	}
	if sellSize > 0 {
		out = append(out, schema.OrderIntent{
			StrategyID: q.id,
			PairID:     uint32(q.cfg.PairID),
			Side:       schema.OrderSideSell,
			Price:      ask,
			Qty:        sellSize,
			ExpireAt:   expireAt,
		})
	}
	return out
}

// OnSubmitted records the live order for its side and starts the refresh
// window.
func (q *QuoteEngine) OnSubmitted(o og.Order) {
	switch o.Side {
	case schema.OrderSideBuy:
		q.liveBuyID = o.ID
	case schema.OrderSideSell:
		q.liveSellID = o.ID
	}
	q.lastQuote = o.CreatedAt
}

func (q *QuoteEngine) OnFill(fill schema.Fill) {}

// OnOrderRetired frees the side held by the retired order.
func (q *QuoteEngine) OnOrderRetired(o og.Order) {
	switch o.ID {
	case q.liveBuyID:
		q.liveBuyID = 0
	case q.liveSellID:
		q.liveSellID = 0
	}
}

// LiveOrders reports the live order ids per side, zero when none.
func (q *QuoteEngine) LiveOrders() (buyID, sellID uint64) {
	return q.liveBuyID, q.liveSellID
}
