package og

import (
	"errors"

	"main/internal/schema"
)

var (
	ErrDuplicateOrder    = errors.New("order already exists")
	ErrUnknownOrder      = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order state transition")
	ErrInvalidFill       = errors.New("invalid fill quantity")
)

// OrderState tracks the lifecycle of an order.
type OrderState uint16

const (
	OrderStateUnknown OrderState = iota
	OrderStatePending
	OrderStateOpen
	OrderStatePartFilled
	OrderStateFilled
	OrderStateCanceled
	OrderStateRejected
	OrderStateExpired
)

func (s OrderState) String() string {
	switch s {
	case OrderStatePending:
		return "pending"
	case OrderStateOpen:
		return "open"
	case OrderStatePartFilled:
		return "part_filled"
	case OrderStateFilled:
		return "filled"
	case OrderStateCanceled:
		return "canceled"
	case OrderStateRejected:
		return "rejected"
	case OrderStateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state never regresses.
func (s OrderState) IsTerminal() bool {
	switch s {
	case OrderStateFilled, OrderStateCanceled, OrderStateRejected, OrderStateExpired:
		return true
	default:
		return false
	}
}

// Order holds the manager's authoritative view of an order.
type Order struct {
	ID         uint64
	StrategyID uint32
	PairID     uint32
	Side       schema.OrderSide
	Price      schema.Price
	Qty        schema.Quantity
	FilledQty  schema.Quantity
	LeavesQty  schema.Quantity
	State      OrderState
	Reason     schema.OrderAckReason
	CreatedAt  int64
	ExpireAt   int64

	cancelRequested bool
	expireRequested bool
}

// StateMachine updates orders from intent/ack/fill events.
type StateMachine struct {
	orders map[uint64]*Order
}

// NewStateMachine creates an empty state machine.
func NewStateMachine() *StateMachine {
	return &StateMachine{orders: make(map[uint64]*Order)}
}

// Order returns the current order state.
func (m *StateMachine) Order(id uint64) (*Order, bool) {
	o, ok := m.orders[id]
	return o, ok
}

// ApplyIntent registers a new order in Pending state.
func (m *StateMachine) ApplyIntent(intent schema.OrderIntent, now int64) (*Order, error) {
	if intent.OrderID == 0 {
		return nil, ErrUnknownOrder
	}
	if _, ok := m.orders[intent.OrderID]; ok {
		return nil, ErrDuplicateOrder
	}
	o := &Order{
		ID:         intent.OrderID,
		StrategyID: intent.StrategyID,
		PairID:     intent.PairID,
		Side:       intent.Side,
		Price:      intent.Price,
		Qty:        intent.Qty,
		LeavesQty:  intent.Qty,
		State:      OrderStatePending,
		CreatedAt:  now,
		ExpireAt:   intent.ExpireAt,
	}
	m.orders[o.ID] = o
	return o, nil
}

// MarkOpen transitions a pending order to Open on adapter acceptance.
func (m *StateMachine) MarkOpen(id uint64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.State.IsTerminal() {
		return o, ErrInvalidTransition
	}
	if o.State == OrderStatePending {
		o.State = OrderStateOpen
	}
	return o, nil
}

// MarkRejected transitions a pending order to Rejected.
func (m *StateMachine) MarkRejected(id uint64, reason schema.OrderAckReason) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.State.IsTerminal() {
		return o, ErrInvalidTransition
	}
	o.State = OrderStateRejected
	o.Reason = reason
	return o, nil
}

// ApplyFill increases the filled quantity. A fill that covers the remaining
// quantity transitions to Filled. Fills are accepted even after a cancel has
// been requested: fills win the race.
func (m *StateMachine) ApplyFill(fill schema.Fill) (*Order, error) {
	o, ok := m.orders[fill.OrderID]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.State.IsTerminal() {
		return o, ErrInvalidTransition
	}
	qty := int64(fill.Qty)
	if qty <= 0 {
		return o, ErrInvalidFill
	}
	if qty > int64(o.LeavesQty) {
		return o, ErrInvalidFill
	}
	o.FilledQty += fill.Qty
	o.LeavesQty -= fill.Qty
	if o.LeavesQty == 0 {
		o.State = OrderStateFilled
	} else {
		o.State = OrderStatePartFilled
	}
	return o, nil
}

// ApplyCancel retires an order on a confirmed cancellation. The final state
// is Expired when the cancel was requested by the expiry sweep, Canceled
// otherwise. Any filled quantity already applied is retained.
func (m *StateMachine) ApplyCancel(id uint64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.State.IsTerminal() {
		return o, ErrInvalidTransition
	}
	if o.expireRequested {
		o.State = OrderStateExpired
	} else {
		o.State = OrderStateCanceled
	}
	return o, nil
}

// RequestCancel flags an order as cancel-pending. The transition to a
// terminal state happens only on ApplyCancel. Returns false when a cancel
// is already in flight or the order is terminal.
func (m *StateMachine) RequestCancel(id uint64, viaExpiry bool) (*Order, bool) {
	o, ok := m.orders[id]
	if !ok {
		return nil, false
	}
	if o.State.IsTerminal() || o.cancelRequested {
		return o, false
	}
	o.cancelRequested = true
	o.expireRequested = viaExpiry
	return o, true
}

// Remove drops an order from the active set.
func (m *StateMachine) Remove(id uint64) {
	delete(m.orders, id)
}

// Each calls fn for every tracked order.
func (m *StateMachine) Each(fn func(*Order)) {
	for _, o := range m.orders {
		fn(o)
	}
}

// Count returns the number of tracked orders.
func (m *StateMachine) Count() int {
	return len(m.orders)
}
