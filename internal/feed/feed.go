package feed

import (
	"sync"

	"github.com/shopspring/decimal"

	"main/internal/schema"
)

// OrderView is the read-only projection of one active order.
type OrderView struct {
	ID     uint64 `json:"id"`
	Side   string `json:"side"`
	Price  string `json:"price"`
	Qty    string `json:"qty"`
	Filled string `json:"filled"`
	Status string `json:"status"`
}

// RiskView is the last risk decision of the tick.
type RiskView struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

// TickSnapshot is the per-tick state pushed to the monitoring layer. The
// feed is one-way: no inbound commands are accepted.
type TickSnapshot struct {
	Ts            int64             `json:"ts"`
	Pair          string            `json:"pair"`
	Mid           string            `json:"mid"`
	Paused        bool              `json:"paused"`
	Risk          RiskView          `json:"risk"`
	Orders        []OrderView       `json:"orders"`
	Balances      map[string]string `json:"balances"`
	FeesPaid      string            `json:"feesPaid"`
	TwapRemaining string            `json:"twapRemaining,omitempty"`
}

// Render formats a scaled integer as a decimal string.
func Render(v int64, scale schema.Scale) string {
	return decimal.New(v, -int32(scale)).String()
}

// RenderRisk converts a risk decision into its feed view.
func RenderRisk(d schema.RiskDecision) RiskView {
	var action string
	switch d.Action {
	case schema.RiskActionAllow:
		action = "approved"
	case schema.RiskActionDeny:
		action = "denied"
	case schema.RiskActionPause:
		action = "paused"
	default:
		action = "unknown"
	}
	return RiskView{Action: action, Reason: d.Reason.String()}
}

// Publisher fans tick snapshots out to in-process subscribers and, when a
// hub is attached, to websocket clients.
type Publisher struct {
	mu   sync.Mutex
	subs []chan TickSnapshot
	hub  *Hub
}

// NewPublisher creates a publisher. hub may be nil.
func NewPublisher(hub *Hub) *Publisher {
	return &Publisher{hub: hub}
}

// Subscribe registers an in-process observer. The returned cancel removes
// the subscription.
func (p *Publisher) Subscribe(buffer int) (<-chan TickSnapshot, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan TickSnapshot, buffer)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, sub := range p.subs {
			if sub == ch {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

// Publish pushes a snapshot to every subscriber. Slow subscribers drop
// snapshots instead of blocking the tick.
func (p *Publisher) Publish(snap TickSnapshot) {
	p.mu.Lock()
	subs := p.subs
	p.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}
	if p.hub != nil {
		p.hub.Broadcast(snap)
	}
}
