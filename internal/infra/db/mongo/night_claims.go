package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "hotelbook/internal/domain/availability"
	"hotelbook/internal/domain/shared/daterange"
)

const claimDayLayout = "2006-01-02"

// ClaimStore keeps one document per (property, day). The unique index turns a
// second booking of the same night into a duplicate key error.
type ClaimStore struct {
	col *mongo.Collection
}

func NewClaimStore(db *mongo.Database) *ClaimStore {
	return &ClaimStore{col: db.Collection("night_claims")}
}

func (s *ClaimStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "property_id", Value: 1}, {Key: "day", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Claim must run inside a session transaction to be all-or-nothing. Claiming
// a day the same booking already holds is a no-op.
func (s *ClaimStore) Claim(ctx context.Context, claims []domainavailability.Claim) error {
	for _, c := range claims {
		day := daterange.Day(c.Day)
		id := c.PropertyID + ":" + day.Format(claimDayLayout)
		_, err := s.col.UpdateOne(ctx,
			bson.M{"_id": id, "booking_id": c.BookingID},
			bson.M{"$setOnInsert": bson.M{
				"property_id": c.PropertyID,
				"day":         day,
				"claimed_at":  c.ClaimedAt.UTC(),
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) || transientConflict(err) {
				return domainavailability.ErrNightTaken
			}
			return storeErr("claim night", err)
		}
	}
	return nil
}

func (s *ClaimStore) ByProperty(ctx context.Context, propertyID string) ([]domainavailability.Claim, error) {
	cur, err := s.col.Find(ctx, bson.M{"property_id": propertyID}, options.Find().SetSort(bson.D{{Key: "day", Value: 1}}))
	if err != nil {
		return nil, storeErr("find night claims", err)
	}
	defer cur.Close(ctx)
	var docs []claimDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode night claims", err)
	}
	out := make([]domainavailability.Claim, 0, len(docs))
	for _, d := range docs {
		out = append(out, domainavailability.Claim{
			PropertyID: d.PropertyID,
			Day:        d.Day.UTC(),
			BookingID:  d.BookingID,
			ClaimedAt:  d.ClaimedAt.UTC(),
		})
	}
	return out, nil
}

type claimDocument struct {
	ID         string    `bson:"_id"`
	PropertyID string    `bson:"property_id"`
	Day        time.Time `bson:"day"`
	BookingID  string    `bson:"booking_id"`
	ClaimedAt  time.Time `bson:"claimed_at"`
}
