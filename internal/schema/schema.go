package schema

// Price is a scaled integer. The scale is defined per trading pair.
type Price int64

// Quantity is a scaled integer. The scale is defined per trading pair.
type Quantity int64

// Notional is a scaled integer carrying price scale + quantity scale.
type Notional int64

// Fee is a scaled integer. Fees are charged in the quote asset.
type Fee int64

// Bps is a ratio in basis points. 10000 = 1.0.
type Bps int64

// BpsUnit is the number of basis points in a whole.
const BpsUnit int64 = 10000

// OrderSide describes order direction.
type OrderSide uint16

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "buy"
	case OrderSideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// MarketSnapshot is the immutable per-tick market view consumed by the core.
type MarketSnapshot struct {
	PairID  uint32
	Mid     Price
	BestBid Price
	BestAsk Price
	Ts      int64
}

// OrderIntent is a candidate order proposed by a strategy.
type OrderIntent struct {
	OrderID    uint64
	StrategyID uint32
	PairID     uint32
	Side       OrderSide
	Price      Price
	Qty        Quantity
	ExpireAt   int64
}

// OrderAckStatus describes the outcome reported by the exchange adapter.
type OrderAckStatus uint16

const (
	OrderAckStatusUnknown OrderAckStatus = iota
	OrderAckStatusAccepted
	OrderAckStatusRejected
	OrderAckStatusCanceled
	OrderAckStatusAlreadyFilled
)

// OrderAckReason describes the reason for an order acknowledgment.
type OrderAckReason uint16

const (
	OrderAckReasonNone OrderAckReason = iota
	OrderAckReasonExchangeReject
	OrderAckReasonInvalidPrice
	OrderAckReasonInvalidQty
	OrderAckReasonUnknownOrder
)

// OrderAck is an asynchronous acceptance/rejection/cancel notification.
type OrderAck struct {
	OrderID uint64
	PairID  uint32
	Status  OrderAckStatus
	Reason  OrderAckReason
}

// Liquidity tags whether a fill rested on the book or crossed it. The
// fee rate charged depends on it.
type Liquidity uint16

const (
	LiquidityMaker Liquidity = iota
	LiquidityTaker
)

func (l Liquidity) String() string {
	if l == LiquidityTaker {
		return "taker"
	}
	return "maker"
}

// Fill reports a partial or full execution of an order.
type Fill struct {
	OrderID   uint64
	PairID    uint32
	Side      OrderSide
	Price     Price
	Qty       Quantity
	Fee       Fee
	Liquidity Liquidity
	Ts        int64
}

// RiskAction is the outcome of a risk decision.
type RiskAction uint16

const (
	RiskActionUnknown RiskAction = iota
	RiskActionAllow
	RiskActionDeny
	RiskActionPause
)

// RiskReason is a coarse reason code for risk decisions.
type RiskReason uint16

const (
	RiskReasonNone RiskReason = iota
	RiskReasonPriceAnomaly
	RiskReasonInsufficientBalance
	RiskReasonExposureLimit
	RiskReasonMaxQty
)

func (r RiskReason) String() string {
	switch r {
	case RiskReasonNone:
		return "none"
	case RiskReasonPriceAnomaly:
		return "price_anomaly"
	case RiskReasonInsufficientBalance:
		return "insufficient_balance"
	case RiskReasonExposureLimit:
		return "exposure_limit"
	case RiskReasonMaxQty:
		return "max_qty"
	default:
		return "unknown"
	}
}

// RiskDecision is the machine-readable result of guarding one candidate.
type RiskDecision struct {
	OrderID       uint64
	StrategyID    uint32
	PairID        uint32
	Action        RiskAction
	Reason        RiskReason
	ProposedQty   Quantity
	ProposedPrice Price
}

// ExchangeEventKind tags an asynchronous adapter notification.
type ExchangeEventKind uint16

const (
	ExchangeEventUnknown ExchangeEventKind = iota
	ExchangeEventFill
	ExchangeEventAck
)

// ExchangeEvent is the unit delivered by the adapter's inbound stream.
type ExchangeEvent struct {
	Kind ExchangeEventKind
	Fill Fill
	Ack  OrderAck
	Ts   int64
}
