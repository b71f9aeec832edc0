package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainaccount "hotelbook/internal/domain/account"
	"hotelbook/internal/domain/shared/money"
)

// AccountRepository moves wallet balances with $inc and records every move in
// the wallet_ledger collection, keyed by the adjustment key.
type AccountRepository struct {
	users    *mongo.Collection
	managers *mongo.Collection
	ledger   *mongo.Collection
	currency string
}

func NewAccountRepository(db *mongo.Database, currency string) *AccountRepository {
	if currency == "" {
		currency = money.DefaultCurrency
	}
	return &AccountRepository{
		users:    db.Collection("users"),
		managers: db.Collection("managers"),
		ledger:   db.Collection("wallet_ledger"),
		currency: currency,
	}
}

func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.ledger.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "account_kind", Value: 1}, {Key: "account_id", Value: 1}, {Key: "at", Value: -1}},
	})
	return err
}

func (r *AccountRepository) collection(kind domainaccount.Kind) *mongo.Collection {
	if kind == domainaccount.KindManager {
		return r.managers
	}
	return r.users
}

func (r *AccountRepository) ByID(ctx context.Context, ref domainaccount.Ref) (*domainaccount.Account, error) {
	var doc accountDocument
	err := r.collection(ref.Kind).FindOne(ctx, bson.M{"_id": bson.M{"$in": idCandidates(ref.ID)}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainaccount.ErrNotFound
		}
		return nil, storeErr("load account", err)
	}
	return doc.toDomain(ref.Kind, r.currency), nil
}

// Apply inserts the ledger entry first; a duplicate key means the adjustment
// already happened. A failed balance update removes the entry again so the
// pair stays consistent outside a transaction too.
func (r *AccountRepository) Apply(ctx context.Context, adj domainaccount.Adjustment, at time.Time) (bool, error) {
	if err := adj.Validate(); err != nil {
		return false, err
	}
	entry := ledgerDocument{
		Key:         adj.Key,
		AccountKind: string(adj.Account.Kind),
		AccountID:   adj.Account.ID,
		Delta:       newMoneyDocument(adj.Delta),
		BookingID:   adj.BookingID,
		Reason:      adj.Reason,
		At:          at.UTC(),
	}
	if _, err := r.ledger.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, storeErr("insert ledger entry", err)
	}
	if err := r.move(ctx, adj, at); err != nil {
		_, _ = r.ledger.DeleteOne(ctx, bson.M{"_id": adj.Key})
		return false, storeErr("move wallet", err)
	}
	return true, nil
}

func (r *AccountRepository) move(ctx context.Context, adj domainaccount.Adjustment, at time.Time) error {
	col := r.collection(adj.Account.Kind)
	filter := bson.M{"_id": bson.M{"$in": idCandidates(adj.Account.ID)}}
	if adj.NoOverdraft && adj.Delta.Amount < 0 {
		filter["wallet"] = bson.M{"$gte": -adj.Delta.Amount}
	}
	update := bson.M{
		"$inc": bson.M{"wallet": adj.Delta.Amount},
		"$set": bson.M{"updated_at": at.UTC()},
	}
	opts := options.Update()
	if adj.Account.Kind == domainaccount.KindPlatform {
		// the platform wallet is created on first use
		filter = bson.M{"_id": adj.Account.ID}
		opts.SetUpsert(true)
	}
	res, err := col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return storeErr("update wallet", err)
	}
	if res.MatchedCount > 0 || res.UpsertedCount > 0 {
		return nil
	}
	n, err := col.CountDocuments(ctx, bson.M{"_id": bson.M{"$in": idCandidates(adj.Account.ID)}})
	if err != nil {
		return storeErr("count accounts", err)
	}
	if n == 0 {
		return domainaccount.ErrNotFound
	}
	return domainaccount.ErrInsufficientFunds
}

func (r *AccountRepository) HasEntry(ctx context.Context, key string) (bool, error) {
	n, err := r.ledger.CountDocuments(ctx, bson.M{"_id": key})
	if err != nil {
		return false, storeErr("count ledger entries", err)
	}
	return n > 0, nil
}

func (r *AccountRepository) Entries(ctx context.Context, ref domainaccount.Ref) ([]domainaccount.Entry, error) {
	filter := bson.M{"account_kind": string(ref.Kind), "account_id": ref.ID}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.ledger.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("find ledger entries", err)
	}
	defer cur.Close(ctx)
	var docs []ledgerDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode ledger entries", err)
	}
	out := make([]domainaccount.Entry, 0, len(docs))
	for _, d := range docs {
		out = append(out, domainaccount.Entry{
			Key:       d.Key,
			Account:   domainaccount.Ref{Kind: domainaccount.Kind(d.AccountKind), ID: d.AccountID},
			Delta:     d.Delta.toMoney(),
			BookingID: d.BookingID,
			Reason:    d.Reason,
			At:        d.At.UTC(),
		})
	}
	return out, nil
}

type accountDocument struct {
	ID        any       `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Phone     string    `bson:"phone"`
	Wallet    int64     `bson:"wallet"`
	Hotels    []any     `bson:"hotels"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (d accountDocument) toDomain(kind domainaccount.Kind, currency string) *domainaccount.Account {
	ids := make([]string, 0, len(d.Hotels))
	for _, h := range d.Hotels {
		if id := idString(h); id != "" {
			ids = append(ids, id)
		}
	}
	return &domainaccount.Account{
		Ref:         domainaccount.Ref{Kind: kind, ID: idString(d.ID)},
		Name:        d.Name,
		Email:       d.Email,
		Phone:       d.Phone,
		Wallet:      money.Money{Amount: d.Wallet, Currency: currency},
		PropertyIDs: ids,
		UpdatedAt:   utc(d.UpdatedAt),
	}
}

type ledgerDocument struct {
	Key         string        `bson:"_id"`
	AccountKind string        `bson:"account_kind"`
	AccountID   string        `bson:"account_id"`
	Delta       moneyDocument `bson:"delta"`
	BookingID   string        `bson:"booking_id,omitempty"`
	Reason      string        `bson:"reason,omitempty"`
	At          time.Time     `bson:"at"`
}
