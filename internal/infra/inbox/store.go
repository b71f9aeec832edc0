package inbox

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store records which events a consumer has already handled.
type Store struct {
	col      *mongo.Collection
	consumer string
}

func NewStore(db *mongo.Database, consumer string) *Store {
	return &Store{col: db.Collection("app_inbox"), consumer: consumer}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "consumer", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Store) Processed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{"event_id": eventID, "consumer": s.consumer})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProcessed is a no-op when the event was already recorded.
func (s *Store) MarkProcessed(ctx context.Context, eventID string) error {
	doc := bson.M{"event_id": eventID, "consumer": s.consumer, "received_at": time.Now().UTC()}
	_, err := s.col.InsertOne(ctx, doc)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}
