package settlement

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"rentme-pricing/internal/domain/shared/money"
)

var (
	ErrBrokerRequired    = errors.New("settlement: broker id is required")
	ErrPercentOutOfRange = errors.New("settlement: percentage must be within 0..100")
	ErrSettingsNotFound  = errors.New("settlement: broker settings not found")
)

// BrokerSettings are the per-broker percentages fed into the revenue split.
type BrokerSettings struct {
	BrokerID           string          `json:"broker_id"`
	PlatformFeePercent decimal.Decimal `json:"platform_fee_percent"`
	WithholdingPercent decimal.Decimal `json:"withholding_percent"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (s BrokerSettings) Validate() error {
	if strings.TrimSpace(s.BrokerID) == "" {
		return ErrBrokerRequired
	}
	if !money.ValidPercent(s.PlatformFeePercent) || !money.ValidPercent(s.WithholdingPercent) {
		return ErrPercentOutOfRange
	}
	return nil
}

// SettingsStore resolves broker settings. Get returns ErrSettingsNotFound for
// unknown brokers.
type SettingsStore interface {
	Get(ctx context.Context, brokerID string) (BrokerSettings, error)
}

// Defaults falls back to platform-wide percentages when a broker has none.
type Defaults struct {
	Store              SettingsStore
	PlatformFeePercent decimal.Decimal
	WithholdingPercent decimal.Decimal
}

func (d Defaults) Get(ctx context.Context, brokerID string) (BrokerSettings, error) {
	if d.Store != nil {
		settings, err := d.Store.Get(ctx, brokerID)
		if err == nil {
			return settings, nil
		}
		if !errors.Is(err, ErrSettingsNotFound) {
			return BrokerSettings{}, err
		}
	}
	return BrokerSettings{
		BrokerID:           brokerID,
		PlatformFeePercent: d.PlatformFeePercent,
		WithholdingPercent: d.WithholdingPercent,
	}, nil
}

// SettingsChanged is published by the backoffice when a broker edits its
// percentages. Caches drop the broker's entry when they see it.
type SettingsChanged struct {
	BrokerID string    `json:"broker_id"`
	At       time.Time `json:"at"`
}

func (e SettingsChanged) EventName() string     { return "settings.broker.updated" }
func (e SettingsChanged) AggregateID() string   { return e.BrokerID }
func (e SettingsChanged) OccurredAt() time.Time { return e.At }
