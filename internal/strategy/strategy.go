/*
Package strategy holds the decision side of the execution core: the pure
market-making quote engine and the TWAP slicer.

Each strategy is an explicit state struct. Candidate generation is a pure
function of the state plus a per-tick view; mutations happen only through
the scheduler's notifications (submitted / filled / retired), so the state
machine is testable without a live event loop.
*/
package strategy

import (
	"main/internal/og"
	"main/internal/schema"
)

// View is the immutable per-tick input handed to a strategy.
type View struct {
	Market         schema.MarketSnapshot
	BaseAvailable  schema.Quantity
	QuoteAvailable schema.Quantity
	Now            int64
}

// Strategy proposes candidate orders and reacts to order lifecycle events.
type Strategy interface {
	Name() string
	ID() uint32

	// Candidates returns 0..N desired orders for this tick. OrderID is left
	// unset; the scheduler allocates ids for candidates that pass the risk
	// guard.
	Candidates(view View) []schema.OrderIntent

	// OnSubmitted notifies the strategy that one of its candidates was
	// registered with the lifecycle manager.
	OnSubmitted(o og.Order)

	// OnFill notifies the strategy of a confirmed execution.
	OnFill(fill schema.Fill)

	// OnOrderRetired notifies the strategy that one of its orders reached a
	// terminal state.
	OnOrderRetired(o og.Order)

	// Done reports that the strategy has reached its terminal condition and
	// will not emit further candidates.
	Done() bool
}
