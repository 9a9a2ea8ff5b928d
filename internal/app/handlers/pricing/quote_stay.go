package pricing

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"rentme-pricing/internal/app/dto"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/policies"
	"rentme-pricing/internal/app/queries"
	"rentme-pricing/internal/app/uow"
	"rentme-pricing/internal/domain/costs"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/shared/daterange"
)

const quoteStayKey = "pricing.quote"

// ErrCannotPrice means the stay lacks what the pricing model needs.
var ErrCannotPrice = errors.New("pricing: select valid dates")

var maxMarkup = decimal.NewFromInt(100)

type QuoteStayQuery struct {
	ListingID     string
	CheckIn       daterange.Date
	CheckOut      daterange.Date
	Guests        int
	Participants  int
	Extras        []string
	MarkupPercent *decimal.Decimal
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

func (q QuoteStayQuery) Validate() error {
	if strings.TrimSpace(q.ListingID) == "" {
		return support.Invalid("listing id is required")
	}
	if q.CheckIn.IsZero() {
		return support.Invalid("check_in is required")
	}
	if q.Guests < 1 {
		return support.Invalid("guests must be at least 1")
	}
	if q.Participants < 0 {
		return support.Invalid("participants must be non-negative")
	}
	if q.MarkupPercent != nil && (q.MarkupPercent.LessThanOrEqual(maxMarkup.Neg()) || q.MarkupPercent.GreaterThan(maxMarkup)) {
		return support.Invalid("markup must be within (-100, 100]")
	}
	return nil
}

type QuoteStayHandler struct {
	Logger     *slog.Logger
	UoWFactory uow.UoWFactory
	Settings   policies.BrokerSettingsPort
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.Quote, error) {
	var zero dto.Quote
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return zero, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return zero, err
	}
	set, err := unit.Periods().Load(execCtx, q.ListingID)
	if err != nil {
		return zero, err
	}

	stay := domainpricing.Stay{CheckIn: q.CheckIn, CheckOut: q.CheckOut, Guests: q.Guests}
	if err := domainpricing.ValidateStay(listing.Pricing, stay); err != nil {
		return zero, err
	}
	calendar := domainperiods.Calendar(set.Periods)
	breakdown, ok := domainpricing.CalculateBreakdownWith(stay, listing.Pricing, calendar)
	if !ok {
		return zero, ErrCannotPrice
	}

	params := costs.Params{Nights: breakdown.Nights, Guests: q.Guests, Participants: q.Participants}
	additional := costs.Evaluate(listing.AdditionalCosts, params)
	extras := costs.Evaluate(listing.SelectedExtras(q.Extras), params)

	settings, err := h.Settings.Get(execCtx, listing.BrokerID)
	if err != nil {
		return zero, err
	}
	split := domainpricing.CalculateSplit(SplitInputFor(breakdown, additional, extras, settings.PlatformFeePercent, settings.WithholdingPercent))

	result := dto.Quote{
		ListingID:       string(listing.ID),
		Currency:        listing.Pricing.Currency,
		CheckIn:         q.CheckIn,
		CheckOut:        q.CheckOut,
		Guests:          q.Guests,
		Breakdown:       breakdown,
		AdditionalCosts: additional,
		Extras:          extras,
		ServiceFee:      breakdown.ServiceFee,
		Total:           breakdown.Total + costs.Total(additional) + costs.Total(extras),
		Split:           split,
	}
	if listing.Pricing.Model.Normalize() == domainpricing.ModelPerNight {
		result.Nights = dto.MapNightlyPrices(domainpricing.NightlyPricesWith(stay, listing.Pricing, calendar))
	}
	if q.MarkupPercent != nil {
		result.Channel = &dto.ChannelQuote{
			MarkupPercent: *q.MarkupPercent,
			Breakdown:     domainpricing.ApplyChannelMarkup(breakdown, *q.MarkupPercent),
		}
	}

	if h.Logger != nil {
		h.Logger.Debug("stay quoted", "listing_id", listing.ID, "nights", breakdown.Nights, "total", result.Total)
	}
	return result, nil
}

// SplitInputFor maps a priced stay onto the revenue split inputs. The
// storefront service fee is not part of the broker's taxable base; the
// cleaning fee counts as an additional cost.
func SplitInputFor(b domainpricing.Breakdown, additional, extras []costs.Line, feePct, withholdingPct decimal.Decimal) domainpricing.SplitInput {
	all := append(append([]costs.Line(nil), additional...), extras...)
	return domainpricing.SplitInput{
		Nightly:            b.BaseTotal,
		AdditionalCosts:    b.CleaningFee + costs.TotalOf(all, costs.CategoryAdditional),
		Extras:             costs.TotalOf(all, costs.CategoryExtra),
		CityTax:            costs.TotalOf(all, costs.CategoryCityTax),
		PlatformFeePercent: feePct,
		WithholdingPercent: withholdingPct,
	}
}

var _ queries.Handler[QuoteStayQuery, dto.Quote] = (*QuoteStayHandler)(nil)
