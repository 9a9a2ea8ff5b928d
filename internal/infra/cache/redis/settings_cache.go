package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"rentme-pricing/internal/app/policies"
	"rentme-pricing/internal/domain/settlement"
)

const keyPrefix = "pricing:broker-settings:"

// SettingsCache is a read-through cache in front of the broker settings
// source. Redis failures degrade to direct reads.
type SettingsCache struct {
	Client *goredis.Client
	Next   policies.BrokerSettingsPort
	TTL    time.Duration
	Logger *slog.Logger
}

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
}

func (c *SettingsCache) Get(ctx context.Context, brokerID string) (settlement.BrokerSettings, error) {
	raw, err := c.Client.Get(ctx, keyPrefix+brokerID).Bytes()
	switch {
	case err == nil:
		var cached settlement.BrokerSettings
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached, nil
		}
		c.warn("dropping unreadable cached settings", "broker_id", brokerID)
	case !errors.Is(err, goredis.Nil):
		c.warn("settings cache read failed", "broker_id", brokerID, "error", err)
	}

	settings, err := c.Next.Get(ctx, brokerID)
	if err != nil {
		return settlement.BrokerSettings{}, err
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return settings, nil
	}
	if err := c.Client.Set(ctx, keyPrefix+brokerID, payload, c.TTL).Err(); err != nil {
		c.warn("settings cache write failed", "broker_id", brokerID, "error", err)
	}
	return settings, nil
}

func (c *SettingsCache) Invalidate(ctx context.Context, brokerID string) error {
	return c.Client.Del(ctx, keyPrefix+brokerID).Err()
}

func (c *SettingsCache) warn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

var (
	_ policies.BrokerSettingsPort  = (*SettingsCache)(nil)
	_ policies.SettingsInvalidator = (*SettingsCache)(nil)
)
