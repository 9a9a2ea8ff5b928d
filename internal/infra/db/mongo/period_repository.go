package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainperiods "rentme-pricing/internal/domain/periods"
)

// PeriodRepository keeps one document per period plus a version document per
// listing. Apply must run inside a unit of work so the plan commits as a whole.
type PeriodRepository struct {
	periods  *mongo.Collection
	versions *mongo.Collection
}

func NewPeriodRepository(ctx context.Context, db *mongo.Database) (*PeriodRepository, error) {
	periods := db.Collection("pricing_periods")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "start_date", Value: 1}}}
	if _, err := periods.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &PeriodRepository{periods: periods, versions: db.Collection("pricing_period_versions")}, nil
}

type versionDocument struct {
	ListingID string `bson:"_id"`
	Version   int64  `bson:"version"`
}

func (r *PeriodRepository) Load(ctx context.Context, listingID string) (*domainperiods.Set, error) {
	var ver versionDocument
	err := r.versions.FindOne(ctx, bson.M{"_id": listingID}).Decode(&ver)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cur, err := r.periods.Find(ctx, bson.M{"listing_id": listingID}, options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []periodDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domainperiods.Period, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toPeriod()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return domainperiods.NewSet(listingID, ver.Version, out), nil
}

func (r *PeriodRepository) Apply(ctx context.Context, listingID string, expectedVersion int64, plan domainperiods.Plan) (int64, error) {
	filter := bson.M{"_id": listingID, "version": expectedVersion}
	res, err := r.versions.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"version": 1}}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, domainperiods.ErrConcurrentUpdate
		}
		return 0, err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return 0, domainperiods.ErrConcurrentUpdate
	}

	if len(plan.Delete) > 0 {
		keys := make([]string, 0, len(plan.Delete))
		for _, id := range plan.Delete {
			keys = append(keys, periodKey(listingID, id))
		}
		if _, err := r.periods.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
			return 0, err
		}
	}
	for _, p := range plan.Update {
		doc := newPeriodDocument(listingID, p)
		if _, err := r.periods.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc); err != nil {
			return 0, err
		}
	}
	if len(plan.Add) > 0 {
		docs := make([]any, 0, len(plan.Add))
		for _, p := range plan.Add {
			docs = append(docs, newPeriodDocument(listingID, p))
		}
		if _, err := r.periods.InsertMany(ctx, docs); err != nil {
			return 0, err
		}
	}
	return expectedVersion + 1, nil
}

var _ domainperiods.Repository = (*PeriodRepository)(nil)
