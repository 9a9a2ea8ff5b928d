package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IBM/sarama"

	"rentme-pricing/internal/app/policies"
	"rentme-pricing/internal/domain/settlement"
)

// SettingsHandler drops cached broker settings when the backoffice announces
// a change. Other event types on the topic are acknowledged and ignored.
type SettingsHandler struct {
	Invalidator policies.SettingsInvalidator
	Logger      *slog.Logger
}

type cloudEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func (h *SettingsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var evt cloudEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		// poison message: acknowledge so the partition keeps moving
		h.warn("discarding malformed settings event", "offset", msg.Offset, "error", err)
		return nil
	}
	name := strings.TrimSuffix(evt.Type, ".v1")
	if name == "" {
		name = header(msg, "event-name")
	}
	if name != (settlement.SettingsChanged{}).EventName() {
		return nil
	}

	var changed settlement.SettingsChanged
	if err := json.Unmarshal(evt.Data, &changed); err != nil || changed.BrokerID == "" {
		h.warn("discarding settings event without broker", "offset", msg.Offset)
		return nil
	}
	if err := h.Invalidator.Invalidate(ctx, changed.BrokerID); err != nil {
		return fmt.Errorf("invalidate broker %s: %w", changed.BrokerID, err)
	}
	if h.Logger != nil {
		h.Logger.Info("broker settings invalidated", "broker_id", changed.BrokerID)
	}
	return nil
}

func (h *SettingsHandler) warn(msg string, args ...any) {
	if h.Logger != nil {
		h.Logger.Warn(msg, args...)
	}
}

func header(msg *sarama.ConsumerMessage, key string) string {
	for _, h := range msg.Headers {
		if h != nil && string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

var _ MessageHandler = (*SettingsHandler)(nil)
