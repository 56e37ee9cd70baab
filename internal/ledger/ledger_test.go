package ledger

import (
	"testing"

	"github.com/yanun0323/errors"

	"main/internal/schema"
	"main/pkg/exception"
)

func testPair() schema.Pair {
	return schema.Pair{
		ID:    1,
		Name:  "BTCUSDT",
		Base:  "BTC",
		Quote: "USDT",
		Scale: schema.ScaleSpec{PriceScale: 2, QuantityScale: 4},
	}
}

// Round-trips one market-making cycle: start 500 BTC / 50000 USDT at mid
// 100, buy 1 at 99 then sell 1 at 101 with zero fees.
func TestApplyFillRoundTrip(t *testing.T) {
	pair := testPair()
	l := New()
	l.Set("BTC", 5_000_000)
	l.Set("USDT", 500_000_000)

	if _, err := l.ApplyFill(pair, schema.Fill{
		OrderID: 1,
		Side:    schema.OrderSideBuy,
		Price:   9900,
		Qty:     10000,
	}, 0); err != nil {
		t.Fatalf("buy fill: %v", err)
	}
	if got := l.Get("BTC"); got != 5_010_000 {
		t.Fatalf("base after buy mismatch! should be 5010000 but got %d", got)
	}
	if got := l.Get("USDT"); got != 499_010_000 {
		t.Fatalf("quote after buy mismatch! should be 499010000 but got %d", got)
	}

	if _, err := l.ApplyFill(pair, schema.Fill{
		OrderID: 2,
		Side:    schema.OrderSideSell,
		Price:   10100,
		Qty:     10000,
	}, 0); err != nil {
		t.Fatalf("sell fill: %v", err)
	}
	if got := l.Get("BTC"); got != 5_000_000 {
		t.Fatalf("base after sell mismatch! should be 5000000 but got %d", got)
	}
	if got := l.Get("USDT"); got != 500_020_000 {
		t.Fatalf("quote after sell mismatch! should be 500020000 but got %d", got)
	}
}

func TestApplyFillFees(t *testing.T) {
	pair := testPair()
	l := New()
	l.Set("BTC", 5_000_000)
	l.Set("USDT", 500_000_000)

	// 10 bps maker fee on a 99.0000 notional is 0.0990 USDT.
	fee, err := l.ApplyFill(pair, schema.Fill{
		OrderID: 1,
		Side:    schema.OrderSideBuy,
		Price:   9900,
		Qty:     10000,
	}, 10)
	if err != nil {
		t.Fatalf("buy fill: %v", err)
	}
	if fee != 990 {
		t.Fatalf("buy fee mismatch! should be 990 but got %d", fee)
	}

	fee, err = l.ApplyFill(pair, schema.Fill{
		OrderID: 2,
		Side:    schema.OrderSideSell,
		Price:   10100,
		Qty:     10000,
	}, 10)
	if err != nil {
		t.Fatalf("sell fill: %v", err)
	}
	if fee != 1010 {
		t.Fatalf("sell fee mismatch! should be 1010 but got %d", fee)
	}

	// Total fees are 0.2000 USDT, deducted from the quote balance.
	if got := l.FeesPaid("USDT"); got != 2000 {
		t.Fatalf("fees paid mismatch! should be 2000 but got %d", got)
	}
	if got := l.Get("USDT"); got != 500_018_000 {
		t.Fatalf("quote mismatch! should be 500018000 but got %d", got)
	}
	if got := l.Get("BTC"); got != 5_000_000 {
		t.Fatalf("base mismatch! should be 5000000 but got %d", got)
	}
}

func TestApplyFillBalanceViolation(t *testing.T) {
	pair := testPair()

	testCases := []struct {
		desc        string
		base, quote schema.Quantity
		side        schema.OrderSide
		price       schema.Price
		qty         schema.Quantity
	}{
		{"sell without base", 5000, 500_000_000, schema.OrderSideSell, 10100, 10000},
		{"buy without quote", 5_000_000, 100, schema.OrderSideBuy, 9900, 10000},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			l := New()
			l.Set("BTC", tc.base)
			l.Set("USDT", tc.quote)

			_, err := l.ApplyFill(pair, schema.Fill{
				OrderID: 1,
				Side:    tc.side,
				Price:   tc.price,
				Qty:     tc.qty,
			}, 0)
			if !errors.Is(err, exception.ErrBalanceViolation) {
				t.Fatalf("expected balance violation, got %v", err)
			}
			// Ledger stays untouched on a rejected fill.
			if l.Get("BTC") != tc.base || l.Get("USDT") != tc.quote {
				t.Fatalf("balances mutated! got %d / %d", l.Get("BTC"), l.Get("USDT"))
			}
		})
	}
}

func TestApplyFillRejectsInvalid(t *testing.T) {
	pair := testPair()
	l := New()
	l.Set("BTC", 5_000_000)
	l.Set("USDT", 500_000_000)

	if _, err := l.ApplyFill(pair, schema.Fill{OrderID: 1, Side: schema.OrderSideBuy, Price: 9900, Qty: 0}, 0); !errors.Is(err, exception.ErrInvalidFill) {
		t.Fatalf("expected invalid fill for zero qty, got %v", err)
	}
	if _, err := l.ApplyFill(pair, schema.Fill{OrderID: 1, Price: 9900, Qty: 10000}, 0); !errors.Is(err, exception.ErrInvalidFill) {
		t.Fatalf("expected invalid fill for unknown side, got %v", err)
	}
}
