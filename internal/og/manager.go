package og

import (
	"errors"
	"sort"

	"github.com/yanun0323/logs"

	"main/internal/schema"
)

const defaultRetiredCap = 256

// Dispatcher sends order requests to the exchange adapter. Both calls only
// dispatch; acceptance, cancellation and fills arrive asynchronously as
// exchange events.
type Dispatcher interface {
	Place(intent schema.OrderIntent) error
	Cancel(orderID uint64) error
}

// Hooks are invoked by the manager during reconciliation.
type Hooks struct {
	// OnFill runs after a fill is applied to an order. A returned error is
	// treated as fatal by the caller (ledger invariant violations).
	OnFill func(o *Order, fill schema.Fill) error
	// OnRetire runs once when an order reaches a terminal state.
	OnRetire func(o *Order)
}

// Manager owns every order from submission to its terminal state. Terminal
// orders are retired from the active set and retained in a bounded ring for
// audit.
type Manager struct {
	sm         *StateMachine
	dispatcher Dispatcher
	hooks      Hooks
	nextID     uint64
	retired    []Order
	retiredCap int
}

// NewManager creates a manager over the given dispatcher.
func NewManager(dispatcher Dispatcher, hooks Hooks) *Manager {
	return &Manager{
		sm:         NewStateMachine(),
		dispatcher: dispatcher,
		hooks:      hooks,
		retiredCap: defaultRetiredCap,
	}
}

// NextOrderID allocates a new order identifier.
func (m *Manager) NextOrderID() uint64 {
	m.nextID++
	return m.nextID
}

// Submit registers the order as Pending and dispatches it. A synchronous
// dispatch refusal retires the order as Rejected; that is a reportable
// outcome, not an error.
func (m *Manager) Submit(intent schema.OrderIntent, now int64) (*Order, error) {
	o, err := m.sm.ApplyIntent(intent, now)
	if err != nil {
		return nil, err
	}
	if err := m.dispatcher.Place(intent); err != nil {
		logs.Warnf("order %d rejected on dispatch: %v", intent.OrderID, err)
		if _, err := m.sm.MarkRejected(o.ID, schema.OrderAckReasonExchangeReject); err == nil {
			m.retire(o)
		}
	}
	return o, nil
}

// RequestCancel dispatches a best-effort cancellation. The order stays
// active until the adapter confirms; a fill racing the cancel wins.
func (m *Manager) RequestCancel(id uint64) {
	m.requestCancel(id, false)
}

// SweepExpired requests cancellation of every active order whose expiry has
// elapsed. Idempotent: orders with a cancel already in flight are skipped.
func (m *Manager) SweepExpired(now int64) int {
	var ids []uint64
	m.sm.Each(func(o *Order) {
		if o.ExpireAt > 0 && now >= o.ExpireAt && !o.State.IsTerminal() {
			ids = append(ids, o.ID)
		}
	})
	swept := 0
	for _, id := range ids {
		if m.requestCancel(id, true) {
			swept++
		}
	}
	return swept
}

func (m *Manager) requestCancel(id uint64, viaExpiry bool) bool {
	if _, ok := m.sm.RequestCancel(id, viaExpiry); !ok {
		return false
	}
	if err := m.dispatcher.Cancel(id); err != nil {
		logs.Warnf("cancel dispatch for order %d failed: %v", id, err)
	}
	return true
}

// Reconcile applies queued exchange events. Fills are processed before acks
// so that a fill and a cancel confirmation arriving in the same tick always
// resolve to Filled when the order was fully executed.
func (m *Manager) Reconcile(events []schema.ExchangeEvent) error {
	for _, e := range events {
		if e.Kind != schema.ExchangeEventFill {
			continue
		}
		if err := m.applyFill(e.Fill); err != nil {
			return err
		}
	}
	for _, e := range events {
		if e.Kind != schema.ExchangeEventAck {
			continue
		}
		m.applyAck(e.Ack)
	}
	return nil
}

func (m *Manager) applyFill(fill schema.Fill) error {
	o, err := m.sm.ApplyFill(fill)
	switch {
	case errors.Is(err, ErrUnknownOrder):
		// Exchange events may arrive after local retirement.
		logs.Warnf("fill for unknown order %d ignored", fill.OrderID)
		return nil
	case errors.Is(err, ErrInvalidTransition):
		logs.Warnf("fill for terminal order %d (%s) ignored", o.ID, o.State)
		return nil
	case errors.Is(err, ErrInvalidFill):
		logs.Warnf("invalid fill qty %d for order %d ignored", fill.Qty, fill.OrderID)
		return nil
	case err != nil:
		return err
	}
	if m.hooks.OnFill != nil {
		if err := m.hooks.OnFill(o, fill); err != nil {
			return err
		}
	}
	if o.State.IsTerminal() {
		m.retire(o)
	}
	return nil
}

func (m *Manager) applyAck(ack schema.OrderAck) {
	switch ack.Status {
	case schema.OrderAckStatusAccepted:
		if _, err := m.sm.MarkOpen(ack.OrderID); err != nil {
			logs.Warnf("accept ack for order %d ignored: %v", ack.OrderID, err)
		}
	case schema.OrderAckStatusRejected:
		o, err := m.sm.MarkRejected(ack.OrderID, ack.Reason)
		if err != nil {
			logs.Warnf("reject ack for order %d ignored: %v", ack.OrderID, err)
			return
		}
		m.retire(o)
	case schema.OrderAckStatusCanceled:
		o, err := m.sm.ApplyCancel(ack.OrderID)
		if errors.Is(err, ErrInvalidTransition) {
			// A fill earlier in this tick already retired the order.
			logs.Warnf("cancel confirmation for order %d lost race to fill", ack.OrderID)
			return
		}
		if err != nil {
			logs.Warnf("cancel ack for order %d ignored: %v", ack.OrderID, err)
			return
		}
		m.retire(o)
	case schema.OrderAckStatusAlreadyFilled:
		logs.Warnf("cancel for order %d refused: already filled", ack.OrderID)
	default:
		logs.Warnf("unknown ack status %d for order %d", ack.Status, ack.OrderID)
	}
}

func (m *Manager) retire(o *Order) {
	m.sm.Remove(o.ID)
	if len(m.retired) >= m.retiredCap {
		m.retired = m.retired[1:]
	}
	m.retired = append(m.retired, *o)
	if m.hooks.OnRetire != nil {
		m.hooks.OnRetire(o)
	}
}

// Order returns the active order with the given id.
func (m *Manager) Order(id uint64) (*Order, bool) {
	return m.sm.Order(id)
}

// ActiveOrders returns a stable copy of the active set, ordered by id.
func (m *Manager) ActiveOrders() []Order {
	out := make([]Order, 0, m.sm.Count())
	m.sm.Each(func(o *Order) {
		out = append(out, *o)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ActiveCount returns the number of active orders.
func (m *Manager) ActiveCount() int {
	return m.sm.Count()
}

// ActiveNotional sums the remaining quote-asset exposure of active orders.
func (m *Manager) ActiveNotional(priceScale schema.Scale) schema.Quantity {
	var total schema.Quantity
	m.sm.Each(func(o *Order) {
		qty, overflow := schema.QuoteQty(o.Price, o.LeavesQty, priceScale)
		if !overflow {
			total += qty
		}
	})
	return total
}

// Retired returns the retained terminal orders, oldest first.
func (m *Manager) Retired() []Order {
	out := make([]Order, len(m.retired))
	copy(out, m.retired)
	return out
}
