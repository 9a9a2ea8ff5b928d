package pricing

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"rentme-pricing/internal/app/dto"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/policies"
	"rentme-pricing/internal/app/queries"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/shared/money"
)

const calculatePayoutKey = "pricing.payout"

// CalculatePayoutQuery splits already-priced totals. Percentages left nil are
// taken from the broker's settings.
type CalculatePayoutQuery struct {
	BrokerID           string
	Nightly            int64
	AdditionalCosts    int64
	Extras             int64
	CityTax            int64
	PlatformFeePercent *decimal.Decimal
	WithholdingPercent *decimal.Decimal
}

func (q CalculatePayoutQuery) Key() string { return calculatePayoutKey }

func (q CalculatePayoutQuery) Validate() error {
	if strings.TrimSpace(q.BrokerID) == "" && (q.PlatformFeePercent == nil || q.WithholdingPercent == nil) {
		return support.Invalid("broker_id is required unless both percentages are given")
	}
	if q.Nightly < 0 || q.AdditionalCosts < 0 || q.Extras < 0 || q.CityTax < 0 {
		return support.Invalid("amounts must be non-negative")
	}
	for _, pct := range []*decimal.Decimal{q.PlatformFeePercent, q.WithholdingPercent} {
		if pct != nil && !money.ValidPercent(*pct) {
			return support.Invalid("percentages must be within 0..100")
		}
	}
	return nil
}

type CalculatePayoutHandler struct {
	Settings policies.BrokerSettingsPort
}

func (h *CalculatePayoutHandler) Handle(ctx context.Context, q CalculatePayoutQuery) (dto.Payout, error) {
	fee, withholding := q.PlatformFeePercent, q.WithholdingPercent
	if fee == nil || withholding == nil {
		settings, err := h.Settings.Get(ctx, q.BrokerID)
		if err != nil {
			return dto.Payout{}, err
		}
		if fee == nil {
			fee = &settings.PlatformFeePercent
		}
		if withholding == nil {
			withholding = &settings.WithholdingPercent
		}
	}

	split := domainpricing.CalculateSplit(domainpricing.SplitInput{
		Nightly:            q.Nightly,
		AdditionalCosts:    q.AdditionalCosts,
		Extras:             q.Extras,
		CityTax:            q.CityTax,
		PlatformFeePercent: *fee,
		WithholdingPercent: *withholding,
	})
	return dto.Payout{
		BrokerID:           q.BrokerID,
		PlatformFeePercent: *fee,
		WithholdingPercent: *withholding,
		Split:              split,
	}, nil
}

var _ queries.Handler[CalculatePayoutQuery, dto.Payout] = (*CalculatePayoutHandler)(nil)
