package pricing

import (
	"context"
	"strings"

	"rentme-pricing/internal/app/dto"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/queries"
	"rentme-pricing/internal/app/uow"
	"rentme-pricing/internal/domain/costs"
	domainlistings "rentme-pricing/internal/domain/listings"
)

const previewCostsKey = "pricing.costs.preview"

type PreviewCostsQuery struct {
	ListingID string
}

func (q PreviewCostsQuery) Key() string { return previewCostsKey }

func (q PreviewCostsQuery) Validate() error {
	if strings.TrimSpace(q.ListingID) == "" {
		return support.Invalid("listing id is required")
	}
	return nil
}

type PreviewCostsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *PreviewCostsHandler) Handle(ctx context.Context, q PreviewCostsQuery) (dto.CostPreview, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CostPreview{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(q.ListingID))
	if err != nil {
		return dto.CostPreview{}, err
	}
	currency := listing.Pricing.Currency
	return dto.CostPreview{
		ListingID:       string(listing.ID),
		Currency:        currency,
		AdditionalCosts: costs.Preview(listing.AdditionalCosts, currency),
		Extras:          costs.Preview(listing.ExtrasCatalog(), currency),
	}, nil
}

var _ queries.Handler[PreviewCostsQuery, dto.CostPreview] = (*PreviewCostsHandler)(nil)
