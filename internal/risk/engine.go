package risk

import (
	"main/internal/schema"
)

// Config defines the guard limits for one trading pair. FeeBps is the
// worst-case fee rate charged on a fill; buys must leave headroom for it
// so an approved order can never drive the quote balance negative.
type Config struct {
	MaxOrderQty       schema.Quantity `json:"maxOrderQty"`
	MaxExposure       schema.Quantity `json:"maxExposure"`
	PriceDeviationBps schema.Bps      `json:"priceDeviationBps"`
	MinQuoteBuffer    schema.Quantity `json:"minQuoteBuffer"`
	FeeBps            schema.Bps      `json:"feeBps"`
}

// View provides the ledger and order-book state needed for one evaluation.
type View struct {
	BaseAvailable  schema.Quantity
	QuoteAvailable schema.Quantity
	ActiveNotional schema.Quantity
	PriceScale     schema.Scale
}

// Engine evaluates candidate orders against the configured limits. All
// rejections are values; the engine never returns an error.
type Engine struct {
	cfg     Config
	lastMid schema.Price
	paused  bool
}

// NewEngine creates a guard with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// CheckPrice gates a tick on the price-anomaly band. A mid price deviating
// from the last accepted mid by more than the configured threshold pauses
// the whole tick; the reference mid only advances on accepted snapshots, so
// trading resumes the first tick prices are back in band.
func (e *Engine) CheckPrice(snapshot schema.MarketSnapshot) schema.RiskDecision {
	decision := schema.RiskDecision{
		PairID: snapshot.PairID,
		Action: schema.RiskActionAllow,
		Reason: schema.RiskReasonNone,
	}
	if snapshot.Mid <= 0 {
		decision.Action = schema.RiskActionPause
		decision.Reason = schema.RiskReasonPriceAnomaly
		e.paused = true
		return decision
	}
	if e.cfg.PriceDeviationBps > 0 && e.lastMid > 0 {
		diff := int64(snapshot.Mid) - int64(e.lastMid)
		if diff < 0 {
			diff = -diff
		}
		if schema.RatioBps(diff, int64(e.lastMid)) > e.cfg.PriceDeviationBps {
			decision.Action = schema.RiskActionPause
			decision.Reason = schema.RiskReasonPriceAnomaly
			e.paused = true
			return decision
		}
	}
	e.lastMid = snapshot.Mid
	e.paused = false
	return decision
}

// Paused reports whether the last CheckPrice paused trading.
func (e *Engine) Paused() bool {
	return e.paused
}

// Evaluate applies balance, exposure and size checks to one candidate.
func (e *Engine) Evaluate(intent schema.OrderIntent, view View) schema.RiskDecision {
	decision := schema.RiskDecision{
		OrderID:       intent.OrderID,
		StrategyID:    intent.StrategyID,
		PairID:        intent.PairID,
		Action:        schema.RiskActionAllow,
		Reason:        schema.RiskReasonNone,
		ProposedQty:   intent.Qty,
		ProposedPrice: intent.Price,
	}

	if e.paused {
		decision.Action = schema.RiskActionPause
		decision.Reason = schema.RiskReasonPriceAnomaly
		return decision
	}

	if e.cfg.MaxOrderQty > 0 && intent.Qty > e.cfg.MaxOrderQty {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonMaxQty
		return decision
	}

	quoteQty, overflow := schema.QuoteQty(intent.Price, intent.Qty, view.PriceScale)
	if overflow {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonExposureLimit
		return decision
	}

	switch intent.Side {
	case schema.OrderSideBuy:
		fee := schema.Quantity(schema.PortionBps(int64(quoteQty), e.cfg.FeeBps))
		if view.QuoteAvailable-e.cfg.MinQuoteBuffer < quoteQty+fee {
			decision.Action = schema.RiskActionDeny
			decision.Reason = schema.RiskReasonInsufficientBalance
			return decision
		}
	case schema.OrderSideSell:
		if view.BaseAvailable < intent.Qty {
			decision.Action = schema.RiskActionDeny
			decision.Reason = schema.RiskReasonInsufficientBalance
			return decision
		}
	}

	if e.cfg.MaxExposure > 0 && view.ActiveNotional+quoteQty > e.cfg.MaxExposure {
		decision.Action = schema.RiskActionDeny
		decision.Reason = schema.RiskReasonExposureLimit
		return decision
	}

	return decision
}
