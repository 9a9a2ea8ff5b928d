package pricing

import (
	"github.com/shopspring/decimal"

	"rentme-pricing/internal/domain/shared/daterange"
	"rentme-pricing/internal/domain/shared/money"
)

// ServiceFeePercent is the storefront service fee charged on base + cleaning.
// It is unrelated to the broker platform fee used by CalculateSplit.
const ServiceFeePercent = 12

var serviceFeeRate = decimal.NewFromInt(ServiceFeePercent)

// Override pins the price of single nights ahead of rule resolution. Calendar
// periods implement it.
type Override interface {
	Override(date daterange.Date, base int64) (price int64, label string, ok bool)
}

// CalculateBreakdown prices a stay. ok is false when the stay cannot be
// priced yet: a nightly listing without a check-out, or a check-out that is
// not after check-in.
func CalculateBreakdown(stay Stay, pc Context) (breakdown Breakdown, ok bool) {
	return CalculateBreakdownWith(stay, pc, nil)
}

// CalculateBreakdownWith is CalculateBreakdown where ov, when non-nil, takes
// precedence over rules for the nights it covers. Only per_night pricing
// consults it.
func CalculateBreakdownWith(stay Stay, pc Context, ov Override) (breakdown Breakdown, ok bool) {
	if !stay.CheckOut.IsZero() && stay.Nights() <= 0 {
		return Breakdown{}, false
	}

	var (
		nights  int
		base    int64
		applied []string
	)
	switch pc.Model.Normalize() {
	case ModelPerPerson:
		nights = 1
		base = pc.BasePrice * int64(stay.Guests)
	case ModelFixed:
		nights = 1
		base = pc.BasePrice
	default:
		if stay.CheckOut.IsZero() {
			return Breakdown{}, false
		}
		nights = stay.Nights()
		base, applied = nightlyTotal(NightlyPricesWith(stay, pc, ov))
	}

	cleaning := pc.CleaningFee
	if cleaning < 0 {
		cleaning = 0
	}
	service := money.RoundHalfAwayFromZero(money.PercentOf(base+cleaning, serviceFeeRate))

	return Breakdown{
		Nights:       nights,
		BaseTotal:    base,
		CleaningFee:  cleaning,
		ServiceFee:   service,
		Total:        base + cleaning + service,
		AppliedRules: applied,
		Currency:     pc.Currency,
	}, true
}

// NightlyPrices lists the resolved price for every night of the stay.
func NightlyPrices(stay Stay, pc Context) []NightlyRate {
	return NightlyPricesWith(stay, pc, nil)
}

func NightlyPricesWith(stay Stay, pc Context, ov Override) []NightlyRate {
	nights := stay.Nights()
	if nights <= 0 {
		return nil
	}
	out := make([]NightlyRate, 0, nights)
	for i := 0; i < nights; i++ {
		date := stay.CheckIn.AddDays(i)
		if ov != nil {
			if price, label, ok := ov.Override(date, pc.BasePrice); ok {
				out = append(out, NightlyRate{Date: date, Price: price, Rule: label, Overridden: true})
				continue
			}
		}
		rate := ResolveNightlyRate(date, pc)
		rate.Date = date
		out = append(out, rate)
	}
	return out
}

func nightlyTotal(rates []NightlyRate) (int64, []string) {
	var (
		total   int64
		applied []string
		seen    = make(map[string]struct{})
	)
	for _, rate := range rates {
		total += rate.Price
		if rate.Rule == "" {
			continue
		}
		if _, dup := seen[rate.Rule]; dup {
			continue
		}
		seen[rate.Rule] = struct{}{}
		applied = append(applied, rate.Rule)
	}
	return total, applied
}
