package policies

import (
	"context"

	"rentme-pricing/internal/domain/settlement"
)

// BrokerSettingsPort resolves the fee and withholding percentages of a broker.
type BrokerSettingsPort interface {
	Get(ctx context.Context, brokerID string) (settlement.BrokerSettings, error)
}

// SettingsInvalidator drops cached settings after the backoffice changes them.
type SettingsInvalidator interface {
	Invalidate(ctx context.Context, brokerID string) error
}
