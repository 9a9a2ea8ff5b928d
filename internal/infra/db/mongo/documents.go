package mongo

import (
	"time"

	"github.com/shopspring/decimal"

	"rentme-pricing/internal/domain/costs"
	domainlistings "rentme-pricing/internal/domain/listings"
	domainperiods "rentme-pricing/internal/domain/periods"
	domainpricing "rentme-pricing/internal/domain/pricing"
	"rentme-pricing/internal/domain/settlement"
	"rentme-pricing/internal/domain/shared/daterange"
)

// Calendar days are stored as UTC midnight.

type ruleDocument struct {
	ID         string    `bson:"id"`
	Name       string    `bson:"name"`
	StartDate  time.Time `bson:"start_date"`
	EndDate    time.Time `bson:"end_date"`
	Multiplier int64     `bson:"multiplier"`
	MinNights  int       `bson:"min_nights"`
	Priority   int       `bson:"priority"`
	Active     bool      `bson:"active"`
}

type listingDocument struct {
	ID              string             `bson:"_id"`
	BrokerID        string             `bson:"broker_id"`
	Title           string             `bson:"title"`
	Model           string             `bson:"model"`
	BasePrice       int64              `bson:"base_price"`
	CleaningFee     int64              `bson:"cleaning_fee"`
	Currency        string             `bson:"currency"`
	MaxGuests       int                `bson:"max_guests"`
	MinNights       int                `bson:"min_nights"`
	Rules           []ruleDocument     `bson:"rules"`
	AdditionalCosts []costs.Definition `bson:"additional_costs"`
	Extras          []costs.Definition `bson:"extras"`
	Version         int64              `bson:"version"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	rules := make([]ruleDocument, 0, len(l.Pricing.Rules))
	for _, r := range l.Pricing.Rules {
		rules = append(rules, ruleDocument{
			ID:         r.ID,
			Name:       r.Name,
			StartDate:  r.StartDate.Time(),
			EndDate:    r.EndDate.Time(),
			Multiplier: r.Multiplier,
			MinNights:  r.MinNights,
			Priority:   r.Priority,
			Active:     r.Active,
		})
	}
	return listingDocument{
		ID:              string(l.ID),
		BrokerID:        l.BrokerID,
		Title:           l.Title,
		Model:           string(l.Pricing.Model),
		BasePrice:       l.Pricing.BasePrice,
		CleaningFee:     l.Pricing.CleaningFee,
		Currency:        l.Pricing.Currency,
		MaxGuests:       l.Pricing.MaxGuests,
		MinNights:       l.Pricing.MinNights,
		Rules:           rules,
		AdditionalCosts: l.AdditionalCosts,
		Extras:          l.Extras,
		Version:         l.Version,
		UpdatedAt:       l.UpdatedAt,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	rules := make([]domainpricing.Rule, 0, len(d.Rules))
	for _, r := range d.Rules {
		rules = append(rules, domainpricing.Rule{
			ID:         r.ID,
			Name:       r.Name,
			StartDate:  daterange.DateOf(r.StartDate.UTC()),
			EndDate:    daterange.DateOf(r.EndDate.UTC()),
			Multiplier: r.Multiplier,
			MinNights:  r.MinNights,
			Priority:   r.Priority,
			Active:     r.Active,
		})
	}
	return &domainlistings.Listing{
		ID:       domainlistings.ListingID(d.ID),
		BrokerID: d.BrokerID,
		Title:    d.Title,
		Pricing: domainpricing.Context{
			Model:       domainpricing.Model(d.Model),
			BasePrice:   d.BasePrice,
			CleaningFee: d.CleaningFee,
			Currency:    d.Currency,
			MaxGuests:   d.MaxGuests,
			MinNights:   d.MinNights,
			Rules:       rules,
		},
		AdditionalCosts: d.AdditionalCosts,
		Extras:          d.Extras,
		Version:         d.Version,
		UpdatedAt:       d.UpdatedAt,
	}
}

// Percentages are stored as decimal strings to keep them exact.
type periodDocument struct {
	ID         string    `bson:"_id"`
	ListingID  string    `bson:"listing_id"`
	PeriodID   string    `bson:"period_id"`
	StartDate  time.Time `bson:"start_date"`
	EndDate    time.Time `bson:"end_date"`
	Price      *int64    `bson:"price,omitempty"`
	Percentage *string   `bson:"percentage,omitempty"`
	Label      string    `bson:"label,omitempty"`
}

func periodKey(listingID, periodID string) string {
	return listingID + ":" + periodID
}

func newPeriodDocument(listingID string, p domainperiods.Period) periodDocument {
	doc := periodDocument{
		ID:        periodKey(listingID, p.ID),
		ListingID: listingID,
		PeriodID:  p.ID,
		StartDate: p.StartDate.Time(),
		EndDate:   p.EndDate.Time(),
		Price:     p.Clone().Price,
		Label:     p.Label,
	}
	if p.Percentage != nil {
		pct := p.Percentage.String()
		doc.Percentage = &pct
	}
	return doc
}

func (d periodDocument) toPeriod() (domainperiods.Period, error) {
	p := domainperiods.Period{
		ID:        d.PeriodID,
		StartDate: daterange.DateOf(d.StartDate.UTC()),
		EndDate:   daterange.DateOf(d.EndDate.UTC()),
		Price:     d.Price,
		Label:     d.Label,
	}
	if d.Percentage != nil {
		pct, err := decimal.NewFromString(*d.Percentage)
		if err != nil {
			return domainperiods.Period{}, err
		}
		p.Percentage = &pct
	}
	return p, nil
}

type settingsDocument struct {
	BrokerID           string    `bson:"_id"`
	PlatformFeePercent string    `bson:"platform_fee_percent"`
	WithholdingPercent string    `bson:"withholding_percent"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func (d settingsDocument) toSettings() (settlement.BrokerSettings, error) {
	fee, err := decimal.NewFromString(d.PlatformFeePercent)
	if err != nil {
		return settlement.BrokerSettings{}, err
	}
	wh, err := decimal.NewFromString(d.WithholdingPercent)
	if err != nil {
		return settlement.BrokerSettings{}, err
	}
	return settlement.BrokerSettings{
		BrokerID:           d.BrokerID,
		PlatformFeePercent: fee,
		WithholdingPercent: wh,
		UpdatedAt:          d.UpdatedAt,
	}, nil
}
