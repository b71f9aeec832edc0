package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "hotelbook/internal/domain/booking"
)

type CancellationRepository struct {
	col *mongo.Collection
}

func NewCancellationRepository(db *mongo.Database) *CancellationRepository {
	return &CancellationRepository{col: db.Collection("cancellations")}
}

func (r *CancellationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "booking_id", Value: 1}}})
	return err
}

func (r *CancellationRepository) ByID(ctx context.Context, id domainbooking.CancellationID) (*domainbooking.Cancellation, error) {
	var doc cancellationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrCancellationNotFound
		}
		return nil, storeErr("load cancellation", err)
	}
	return doc.toDomain(), nil
}

func (r *CancellationRepository) Save(ctx context.Context, c *domainbooking.Cancellation) error {
	doc := newCancellationDocument(c)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return storeErr("save cancellation", err)
}

func (r *CancellationRepository) List(ctx context.Context) ([]*domainbooking.Cancellation, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, storeErr("find cancellations", err)
	}
	defer cur.Close(ctx)
	var docs []cancellationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode cancellations", err)
	}
	out := make([]*domainbooking.Cancellation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

type cancellationDocument struct {
	ID           string        `bson:"_id"`
	BookingID    string        `bson:"booking_id"`
	Reason       string        `bson:"reason"`
	Status       string        `bson:"status"`
	RefundAmount moneyDocument `bson:"refund_amount"`
	CreatedAt    time.Time     `bson:"created_at"`
	DecidedAt    time.Time     `bson:"decided_at,omitempty"`
}

func newCancellationDocument(c *domainbooking.Cancellation) cancellationDocument {
	return cancellationDocument{
		ID:           string(c.ID),
		BookingID:    string(c.BookingID),
		Reason:       c.Reason,
		Status:       string(c.Status),
		RefundAmount: newMoneyDocument(c.RefundAmount),
		CreatedAt:    c.CreatedAt.UTC(),
		DecidedAt:    utc(c.DecidedAt),
	}
}

func (d cancellationDocument) toDomain() *domainbooking.Cancellation {
	return &domainbooking.Cancellation{
		ID:           domainbooking.CancellationID(d.ID),
		BookingID:    domainbooking.BookingID(d.BookingID),
		Reason:       d.Reason,
		Status:       domainbooking.CancellationStatus(d.Status),
		RefundAmount: d.RefundAmount.toMoney(),
		CreatedAt:    d.CreatedAt.UTC(),
		DecidedAt:    utc(d.DecidedAt),
	}
}
