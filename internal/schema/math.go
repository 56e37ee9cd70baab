package schema

const maxInt64 = int64(^uint64(0) >> 1)

// Pow10 returns 10^scale for scales up to 18.
func Pow10(scale Scale) int64 {
	v := int64(1)
	for i := Scale(0); i < scale && i < 19; i++ {
		v *= 10
	}
	return v
}

// NotionalOf multiplies price by quantity with an overflow guard.
func NotionalOf(price Price, qty Quantity) (Notional, bool) {
	p := int64(price)
	q := int64(qty)
	if p == 0 || q == 0 {
		return 0, false
	}
	if p < 0 {
		p = -p
	}
	if q < 0 {
		q = -q
	}
	if p > maxInt64/q {
		return 0, true
	}
	return Notional(int64(price) * int64(qty)), false
}

// QuoteQty converts a price*qty notional into a quote-asset quantity by
// stripping the price scale. The result keeps the quantity scale.
func QuoteQty(price Price, qty Quantity, priceScale Scale) (Quantity, bool) {
	n, overflow := NotionalOf(price, qty)
	if overflow {
		return 0, true
	}
	return Quantity(int64(n) / Pow10(priceScale)), false
}

// ApplyBps scales v by (BpsUnit+bps)/BpsUnit. Negative bps shifts down.
// Saturates on overflow; callers treat saturated values as anomalous.
func ApplyBps(v int64, bps Bps) int64 {
	factor := BpsUnit + int64(bps)
	if factor < 0 {
		factor = 0
	}
	return mulDiv(v, factor, BpsUnit)
}

// PortionBps returns v*bps/BpsUnit.
func PortionBps(v int64, bps Bps) int64 {
	return mulDiv(v, int64(bps), BpsUnit)
}

// RatioBps returns num/den expressed in basis points.
func RatioBps(num, den int64) Bps {
	if den == 0 {
		return 0
	}
	return Bps(mulDiv(num, BpsUnit, den))
}

func mulDiv(v, num, den int64) int64 {
	if den == 0 {
		return 0
	}
	neg := false
	if v < 0 {
		v = -v
		neg = !neg
	}
	if num < 0 {
		num = -num
		neg = !neg
	}
	var out int64
	if num != 0 && v > maxInt64/num {
		// Lose precision instead of overflowing.
		out = v / den * num
	} else {
		out = v * num / den
	}
	if neg {
		return -out
	}
	return out
}

// ClampBps bounds a bps value to [lo, hi].
func ClampBps(v, lo, hi Bps) Bps {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
