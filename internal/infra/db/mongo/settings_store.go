package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rentme-pricing/internal/domain/settlement"
)

// SettingsStore reads broker settings written by the backoffice.
type SettingsStore struct {
	col *mongo.Collection
}

func NewSettingsStore(db *mongo.Database) *SettingsStore {
	return &SettingsStore{col: db.Collection("broker_settings")}
}

func (s *SettingsStore) Get(ctx context.Context, brokerID string) (settlement.BrokerSettings, error) {
	var doc settingsDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": brokerID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return settlement.BrokerSettings{}, settlement.ErrSettingsNotFound
		}
		return settlement.BrokerSettings{}, err
	}
	return doc.toSettings()
}

var _ settlement.SettingsStore = (*SettingsStore)(nil)
