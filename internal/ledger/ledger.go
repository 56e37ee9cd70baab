package ledger

import (
	"sync"

	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/pkg/exception"
)

// Ledger tracks available asset balances. Balances are mutated only through
// ApplyFill; strategies read them but never write. A single mutex serializes
// mutations so schedulers for different pairs can share one ledger.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]schema.Quantity
	feesPaid map[string]schema.Fee
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances: make(map[string]schema.Quantity),
		feesPaid: make(map[string]schema.Fee),
	}
}

// Set seeds the available balance for an asset.
func (l *Ledger) Set(asset string, qty schema.Quantity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[asset] = qty
}

// Get returns the available balance for an asset.
func (l *Ledger) Get(asset string) schema.Quantity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[asset]
}

// FeesPaid returns the cumulative fees paid in the given asset.
func (l *Ledger) FeesPaid(asset string) schema.Fee {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.feesPaid[asset]
}

// ApplyFill moves balances for a confirmed fill and returns the fee charged
// in the quote asset. A buy adds base and subtracts quote plus fee; a sell
// does the inverse. A resulting negative balance is a programming-invariant
// violation and returns ErrBalanceViolation with the ledger untouched.
func (l *Ledger) ApplyFill(pair schema.Pair, fill schema.Fill, feeRate schema.Bps) (schema.Fee, error) {
	if fill.Qty <= 0 {
		return 0, errors.Wrapf(exception.ErrInvalidFill, "qty: %d", fill.Qty)
	}

	quoteQty, overflow := schema.QuoteQty(fill.Price, fill.Qty, pair.Scale.PriceScale)
	if overflow {
		return 0, errors.Wrapf(exception.ErrInvalidFill, "notional overflow, price: %d, qty: %d", fill.Price, fill.Qty)
	}
	fee := schema.Fee(schema.PortionBps(int64(quoteQty), feeRate))

	l.mu.Lock()
	defer l.mu.Unlock()

	base := l.balances[pair.Base]
	quote := l.balances[pair.Quote]

	switch fill.Side {
	case schema.OrderSideBuy:
		base += fill.Qty
		quote -= quoteQty + schema.Quantity(fee)
	case schema.OrderSideSell:
		base -= fill.Qty
		quote += quoteQty - schema.Quantity(fee)
	default:
		return 0, errors.Wrapf(exception.ErrInvalidFill, "side: %d", fill.Side)
	}

	if base < 0 || quote < 0 {
		return 0, errors.Wrapf(exception.ErrBalanceViolation,
			"pair: %s, side: %s, base: %d, quote: %d", pair.Name, fill.Side, base, quote)
	}

	l.balances[pair.Base] = base
	l.balances[pair.Quote] = quote
	l.feesPaid[pair.Quote] += fee
	return fee, nil
}
