package money

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// RoundHalfAwayFromZero rounds to a whole minor unit: 100.5 -> 101, -0.5 -> -1.
func RoundHalfAwayFromZero(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// RoundHalfUp rounds ties toward positive infinity: 2.5 -> 3, -2.5 -> -2.
func RoundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

// PercentOf returns amount * pct / 100 without rounding.
func PercentOf(amount int64, pct decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(amount).Mul(pct).Shift(-2)
}

// Scale returns amount * (100 + pct) / 100 without rounding.
// A negative pct scales down.
func Scale(amount int64, pct decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(amount).Mul(hundred.Add(pct)).Shift(-2)
}

// ApplyMultiplier returns amount * multiplier / 100, where multiplier 100 means 1.0x.
func ApplyMultiplier(amount int64, multiplier int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Mul(decimal.NewFromInt(multiplier)).Shift(-2)
}

// ValidPercent reports whether pct lies within [0, 100].
func ValidPercent(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(hundred)
}
