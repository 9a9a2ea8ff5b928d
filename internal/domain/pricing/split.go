package pricing

import (
	"github.com/shopspring/decimal"

	"rentme-pricing/internal/domain/shared/money"
)

// SplitInput carries already-rounded totals in minor units plus the broker
// percentages (0..100).
type SplitInput struct {
	Nightly            int64
	AdditionalCosts    int64
	Extras             int64
	CityTax            int64
	PlatformFeePercent decimal.Decimal
	WithholdingPercent decimal.Decimal
}

// Split decomposes what the guest pays into the platform's share and the
// host payout.
type Split struct {
	TaxableBase    int64 `json:"taxable_base"`
	PlatformFee    int64 `json:"platform_fee"`
	WithholdingTax int64 `json:"withholding_tax"`
	ApplicationFee int64 `json:"application_fee"`
	GuestTotal     int64 `json:"guest_total"`
	HostPayout     int64 `json:"host_payout"`
}

// CalculateSplit computes the revenue split. Extras and city tax are passed
// through to the guest total and never enter the taxable base. Only the
// platform fee and withholding are rounded (half up); everything else is
// exact integer arithmetic.
func CalculateSplit(in SplitInput) Split {
	taxable := in.Nightly + in.AdditionalCosts
	fee := money.RoundHalfUp(money.PercentOf(taxable, in.PlatformFeePercent))
	withholding := money.RoundHalfUp(money.PercentOf(taxable, in.WithholdingPercent))
	application := fee + withholding
	guest := in.Nightly + in.AdditionalCosts + in.Extras + in.CityTax
	return Split{
		TaxableBase:    taxable,
		PlatformFee:    fee,
		WithholdingTax: withholding,
		ApplicationFee: application,
		GuestTotal:     guest,
		HostPayout:     guest - application,
	}
}

// Reconciles reports whether the split satisfies its exact identities for in.
func (s Split) Reconciles(in SplitInput) bool {
	return s.GuestTotal == in.Nightly+in.AdditionalCosts+in.Extras+in.CityTax &&
		s.ApplicationFee == s.PlatformFee+s.WithholdingTax &&
		s.HostPayout == s.GuestTotal-s.ApplicationFee
}

// ApplyChannelMarkup simulates distribution through a third-party channel.
// BaseTotal and ServiceFee are scaled by (1 + markup/100) and rounded
// independently; the cleaning fee is a pass-through and stays untouched.
func ApplyChannelMarkup(b Breakdown, markupPercent decimal.Decimal) Breakdown {
	out := b.Copy()
	out.BaseTotal = money.RoundHalfAwayFromZero(money.Scale(b.BaseTotal, markupPercent))
	out.ServiceFee = money.RoundHalfAwayFromZero(money.Scale(b.ServiceFee, markupPercent))
	out.Total = out.BaseTotal + out.CleaningFee + out.ServiceFee
	return out
}
