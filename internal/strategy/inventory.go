package strategy

import "main/internal/schema"

// InventoryConfig defines the target base/quote balance and how aggressively
// sizes are skewed when the balance drifts from it.
type InventoryConfig struct {
	TargetRatioBps schema.Bps `json:"targetRatioBps"`
	RangeMultBps   schema.Bps `json:"rangeMultBps"`
}

const skewMid = schema.Bps(schema.BpsUnit / 2)

// Skew returns the inventory skew factor in basis points, always within
// [0, 10000]. 5000 is balanced; above it the book is over-weight in base
// asset and sells should grow.
func Skew(base, quote schema.Quantity, mid schema.Price, priceScale schema.Scale, cfg InventoryConfig) schema.Bps {
	if cfg.TargetRatioBps <= 0 || cfg.RangeMultBps <= 0 || mid <= 0 {
		return skewMid
	}
	baseValue, overflow := schema.QuoteQty(mid, base, priceScale)
	if overflow {
		return skewMid
	}
	total := int64(baseValue) + int64(quote)
	if total <= 0 {
		return skewMid
	}
	current := schema.RatioBps(int64(baseValue), total)
	deviation := current - cfg.TargetRatioBps
	denom := schema.PortionBps(int64(cfg.RangeMultBps), cfg.TargetRatioBps)
	if denom == 0 {
		return skewMid
	}
	return schema.ClampBps(skewMid+schema.RatioBps(int64(deviation), denom), 0, schema.Bps(schema.BpsUnit))
}

// SkewedSizes splits the configured order size into buy and sell sizes using
// the skew factor. Neither side exceeds the configured size and their sum
// never exceeds twice the configured size.
func SkewedSizes(orderSize schema.Quantity, skew schema.Bps) (buy, sell schema.Quantity) {
	buy = schema.Quantity(schema.PortionBps(int64(orderSize), schema.Bps(schema.BpsUnit)-skew))
	sell = schema.Quantity(schema.PortionBps(int64(orderSize), skew))
	return buy, sell
}
