package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/daterange"
	"hotelbook/internal/domain/shared/money"
)

// PropertyRepository reads hotel documents. The manager reference is stored
// either as an id or as an embedded manager document; it is resolved to a
// plain id here so nothing above this layer sees both shapes.
type PropertyRepository struct {
	col      *mongo.Collection
	currency string
}

func NewPropertyRepository(db *mongo.Database, currency string) *PropertyRepository {
	if currency == "" {
		currency = money.DefaultCurrency
	}
	return &PropertyRepository{col: db.Collection("hotels"), currency: currency}
}

func (r *PropertyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "manager", Value: 1}}})
	return err
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": bson.M{"$in": idCandidates(string(id))}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, storeErr("load property", err)
	}
	return doc.toDomain(r.currency), nil
}

func (r *PropertyRepository) ListByManager(ctx context.Context, managerID string) ([]*domainproperty.Property, error) {
	refs := idCandidates(managerID)
	filter := bson.M{"$or": bson.A{
		bson.M{"manager": bson.M{"$in": refs}},
		bson.M{"manager._id": bson.M{"$in": refs}},
	}}
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, storeErr("find properties", err)
	}
	defer cur.Close(ctx)
	var docs []propertyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode properties", err)
	}
	out := make([]*domainproperty.Property, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain(r.currency))
	}
	return out, nil
}

// SetAvailability flips an existing entry in place or pushes a new one. The
// push is guarded by $ne so two writers never add the same date twice.
func (r *PropertyRepository) SetAvailability(ctx context.Context, id domainproperty.ID, dates []time.Time, available bool) error {
	key := bson.M{"$in": idCandidates(string(id))}
	for _, raw := range dates {
		day := daterange.Day(raw)
		res, err := r.col.UpdateOne(ctx,
			bson.M{"_id": key, "availability.date": day},
			bson.M{"$set": bson.M{"availability.$.is_available": available}},
		)
		if err != nil {
			return storeErr("set availability", err)
		}
		if res.MatchedCount > 0 {
			continue
		}
		res, err = r.col.UpdateOne(ctx,
			bson.M{"_id": key, "availability.date": bson.M{"$ne": day}},
			bson.M{"$push": bson.M{"availability": availabilityDocument{Date: day, IsAvailable: available}}},
		)
		if err != nil {
			return storeErr("set availability", err)
		}
		if res.MatchedCount > 0 {
			continue
		}
		// either the hotel is gone or a concurrent writer pushed the date first
		res, err = r.col.UpdateOne(ctx,
			bson.M{"_id": key, "availability.date": day},
			bson.M{"$set": bson.M{"availability.$.is_available": available}},
		)
		if err != nil {
			return storeErr("set availability", err)
		}
		if res.MatchedCount == 0 {
			return domainproperty.ErrNotFound
		}
	}
	return nil
}

type propertyDocument struct {
	ID           any                    `bson:"_id"`
	Manager      bson.RawValue          `bson:"manager"`
	Name         string                 `bson:"name"`
	Address      addressDocument        `bson:"address"`
	NightlyRate  int64                  `bson:"nightly_rate"`
	Availability []availabilityDocument `bson:"availability"`
	Listed       bool                   `bson:"listed"`
}

type addressDocument struct {
	Street     string `bson:"street"`
	City       string `bson:"city"`
	State      string `bson:"state"`
	Country    string `bson:"country"`
	PostalCode string `bson:"postal_code"`
}

type availabilityDocument struct {
	Date        time.Time `bson:"date"`
	IsAvailable bool      `bson:"is_available"`
}

func (d propertyDocument) toDomain(currency string) *domainproperty.Property {
	entries := make([]domainproperty.AvailabilityEntry, 0, len(d.Availability))
	for _, a := range d.Availability {
		entries = append(entries, domainproperty.AvailabilityEntry{Date: daterange.Day(a.Date), IsAvailable: a.IsAvailable})
	}
	return &domainproperty.Property{
		ID:        domainproperty.ID(idString(d.ID)),
		ManagerID: managerRef(d.Manager),
		Name:      d.Name,
		Address: domainproperty.Address{
			Street:     d.Address.Street,
			City:       d.Address.City,
			State:      d.Address.State,
			Country:    d.Address.Country,
			PostalCode: d.Address.PostalCode,
		},
		NightlyRate:  money.Money{Amount: d.NightlyRate, Currency: currency},
		Availability: entries,
		Listed:       d.Listed,
	}
}

// managerRef accepts a string id, an ObjectID or an embedded manager document.
func managerRef(v bson.RawValue) string {
	switch v.Type {
	case bsontype.String:
		return v.StringValue()
	case bsontype.ObjectID:
		return v.ObjectID().Hex()
	case bsontype.EmbeddedDocument:
		id, err := v.Document().LookupErr("_id")
		if err != nil {
			return ""
		}
		return managerRef(id)
	}
	return ""
}

// idCandidates matches documents keyed by ObjectID as well as by string.
func idCandidates(id string) bson.A {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.A{id, oid}
	}
	return bson.A{id}
}

func idString(v any) string {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case string:
		return t
	}
	return ""
}
