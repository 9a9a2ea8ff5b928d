package pricing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rentme-pricing/internal/app/commands"
	"rentme-pricing/internal/app/dto"
	"rentme-pricing/internal/app/handlers/support"
	"rentme-pricing/internal/app/outbox"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainpricing "rentme-pricing/internal/domain/pricing"
)

const setPricingRulesKey = "pricing.rules.set"

// SetPricingRulesCommand replaces the listing's rule set. ExpectedVersion,
// when set, must match the stored listing version.
type SetPricingRulesCommand struct {
	ListingID       string
	Rules           []domainpricing.Rule
	ExpectedVersion *int64
}

func (c SetPricingRulesCommand) Key() string { return setPricingRulesKey }

func (c SetPricingRulesCommand) Validate() error {
	if strings.TrimSpace(c.ListingID) == "" {
		return support.Invalid("listing id is required")
	}
	return nil
}

type SetPricingRulesHandler struct {
	Logger  *slog.Logger
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
}

func (h *SetPricingRulesHandler) Handle(ctx context.Context, cmd SetPricingRulesCommand) (*dto.PricingRules, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}
	if cmd.ExpectedVersion != nil && *cmd.ExpectedVersion != listing.Version {
		return nil, domainlistings.ErrVersionConflict
	}
	if err := listing.ReplaceRules(cmd.Rules, h.now()); err != nil {
		return nil, support.InvalidErr(err)
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, listing.Drain()); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("pricing rules replaced", "listing_id", listing.ID, "rules", len(cmd.Rules))
	}
	return &dto.PricingRules{
		ListingID: string(listing.ID),
		Version:   listing.Version,
		Rules:     listing.Pricing.Rules,
	}, nil
}

func (h *SetPricingRulesHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var _ commands.Handler[SetPricingRulesCommand, *dto.PricingRules] = (*SetPricingRulesHandler)(nil)
