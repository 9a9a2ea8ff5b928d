package listings

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentme-pricing/internal/domain/costs"
	"rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/shared/events"
	"rentme-pricing/internal/domain/shared/money"
)

var (
	ErrListingIDRequired = errors.New("listings: id is required")
	ErrBrokerRequired    = errors.New("listings: broker is required")
	ErrNotFound          = errors.New("listings: listing not found")
	ErrVersionConflict   = errors.New("listings: listing was modified concurrently")
)

type ListingID string

// Listing is the pricing profile of a rentable unit: its pricing context and
// the cost definitions charged on top of the stay price.
type Listing struct {
	ID              ListingID
	BrokerID        string
	Title           string
	Pricing         pricing.Context
	AdditionalCosts []costs.Definition
	Extras          []costs.Definition
	Version         int64
	UpdatedAt       time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	// Save persists the listing when the stored version equals listing.Version
	// and bumps the version, or fails with ErrVersionConflict.
	Save(ctx context.Context, listing *Listing) error
}

type CreateListingParams struct {
	ID              ListingID
	BrokerID        string
	Title           string
	Pricing         pricing.Context
	AdditionalCosts []costs.Definition
	Extras          []costs.Definition
	Now             time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrListingIDRequired
	}
	if strings.TrimSpace(params.BrokerID) == "" {
		return nil, ErrBrokerRequired
	}
	pc := params.Pricing
	pc.Model = pc.Model.Normalize()
	cur, err := money.NormalizeCurrency(pc.Currency)
	if err != nil {
		return nil, err
	}
	pc.Currency = cur
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	for _, def := range append(append([]costs.Definition(nil), params.AdditionalCosts...), params.Extras...) {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	pc.Rules = append([]pricing.Rule(nil), pc.Rules...)
	return &Listing{
		ID:              params.ID,
		BrokerID:        strings.TrimSpace(params.BrokerID),
		Title:           strings.TrimSpace(params.Title),
		Pricing:         pc,
		AdditionalCosts: append([]costs.Definition(nil), params.AdditionalCosts...),
		Extras:          append([]costs.Definition(nil), params.Extras...),
		UpdatedAt:       params.Now.UTC(),
	}, nil
}

// ReplaceRules swaps the whole rule set after validating it.
func (l *Listing) ReplaceRules(rules []pricing.Rule, now time.Time) error {
	if err := pricing.ValidateRules(rules); err != nil {
		return err
	}
	l.Pricing.Rules = append([]pricing.Rule(nil), rules...)
	l.UpdatedAt = now.UTC()
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	l.Record(PricingRulesReplacedEvent{ListingID: l.ID, RuleIDs: ids, At: l.UpdatedAt})
	return nil
}

// ExtrasCatalog returns every extra on offer, always in the extra category.
func (l *Listing) ExtrasCatalog() []costs.Definition {
	return l.extras(nil)
}

// SelectedExtras returns the extras whose code is in codes, in listing order.
func (l *Listing) SelectedExtras(codes []string) []costs.Definition {
	if len(codes) == 0 {
		return nil
	}
	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		wanted[strings.TrimSpace(code)] = struct{}{}
	}
	return l.extras(wanted)
}

func (l *Listing) extras(wanted map[string]struct{}) []costs.Definition {
	var out []costs.Definition
	for _, extra := range l.Extras {
		if wanted != nil {
			if _, ok := wanted[extra.Code]; !ok {
				continue
			}
		}
		def := extra
		def.Category = costs.CategoryExtra
		out = append(out, def)
	}
	return out
}

// Clone returns a deep copy without pending events.
func (l *Listing) Clone() *Listing {
	out := &Listing{
		ID:              l.ID,
		BrokerID:        l.BrokerID,
		Title:           l.Title,
		Pricing:         l.Pricing,
		AdditionalCosts: append([]costs.Definition(nil), l.AdditionalCosts...),
		Extras:          append([]costs.Definition(nil), l.Extras...),
		Version:         l.Version,
		UpdatedAt:       l.UpdatedAt,
	}
	out.Pricing.Rules = append([]pricing.Rule(nil), l.Pricing.Rules...)
	return out
}
