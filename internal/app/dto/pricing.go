package dto

import (
	"github.com/shopspring/decimal"

	"rentme-pricing/internal/domain/costs"
	domainperiods "rentme-pricing/internal/domain/periods"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/shared/daterange"
)

const (
	PriceSourceBase   = "base"
	PriceSourceRule   = "rule"
	PriceSourcePeriod = "period"
)

type NightlyPrice struct {
	Date   daterange.Date `json:"date"`
	Price  int64          `json:"price"`
	Label  string         `json:"label,omitempty"`
	Source string         `json:"source"`
}

func MapNightlyPrices(rates []domainpricing.NightlyRate) []NightlyPrice {
	out := make([]NightlyPrice, 0, len(rates))
	for _, rate := range rates {
		source := PriceSourceBase
		switch {
		case rate.Overridden:
			source = PriceSourcePeriod
		case rate.RuleID != "":
			source = PriceSourceRule
		}
		out = append(out, NightlyPrice{Date: rate.Date, Price: rate.Price, Label: rate.Rule, Source: source})
	}
	return out
}

type ChannelQuote struct {
	MarkupPercent decimal.Decimal         `json:"markup_percent"`
	Breakdown     domainpricing.Breakdown `json:"breakdown"`
}

// Quote is everything checkout needs to show and charge a stay.
//
// Total is what the guest pays: Split.GuestTotal plus ServiceFee. The service
// fee is retained by the storefront and sits outside the broker split, so it
// appears in neither Split.ApplicationFee nor Split.HostPayout.
type Quote struct {
	ListingID       string                  `json:"listing_id"`
	Currency        string                  `json:"currency"`
	CheckIn         daterange.Date          `json:"check_in"`
	CheckOut        daterange.Date          `json:"check_out,omitempty"`
	Guests          int                     `json:"guests"`
	Breakdown       domainpricing.Breakdown `json:"breakdown"`
	Nights          []NightlyPrice          `json:"nights,omitempty"`
	AdditionalCosts []costs.Line            `json:"additional_costs"`
	Extras          []costs.Line            `json:"extras"`
	ServiceFee      int64                   `json:"service_fee"`
	Total           int64                   `json:"total"`
	Split           domainpricing.Split     `json:"split"`
	Channel         *ChannelQuote           `json:"channel,omitempty"`
}

type CostPreview struct {
	ListingID       string       `json:"listing_id"`
	Currency        string       `json:"currency"`
	AdditionalCosts []costs.Line `json:"additional_costs"`
	Extras          []costs.Line `json:"extras"`
}

type PriceCalendar struct {
	ListingID string         `json:"listing_id"`
	Currency  string         `json:"currency"`
	From      daterange.Date `json:"from"`
	To        daterange.Date `json:"to"`
	Days      []NightlyPrice `json:"days"`
}

type PeriodList struct {
	ListingID string                 `json:"listing_id"`
	Version   int64                  `json:"version"`
	Periods   []domainperiods.Period `json:"periods"`
}

type PeriodPlan struct {
	ListingID string                 `json:"listing_id"`
	Version   int64                  `json:"version"`
	DryRun    bool                   `json:"dry_run"`
	Plan      domainperiods.Plan     `json:"plan"`
	Periods   []domainperiods.Period `json:"periods"`
}

type Payout struct {
	BrokerID           string              `json:"broker_id"`
	PlatformFeePercent decimal.Decimal     `json:"platform_fee_percent"`
	WithholdingPercent decimal.Decimal     `json:"withholding_percent"`
	Split              domainpricing.Split `json:"split"`
}

type PricingRules struct {
	ListingID string               `json:"listing_id"`
	Version   int64                `json:"version"`
	Rules     []domainpricing.Rule `json:"rules"`
}
