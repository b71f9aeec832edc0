package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/daterange"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("bookings")}
}

func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "property_id", Value: 1}, {Key: "check_in", Value: 1}, {Key: "check_out", Value: 1}}},
		{Keys: bson.D{{Key: "guest_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "settlement.done", Value: 1}}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, storeErr("load booking", err)
	}
	return doc.toAggregate(), nil
}

// Save writes the booking only if the stored version still matches.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) || transientConflict(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return storeErr("save booking", err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

// ListOverlapping applies the inclusive overlap rule: touching stays conflict.
func (r *BookingRepository) ListOverlapping(ctx context.Context, propertyID domainproperty.ID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	filter := bson.M{
		"property_id": string(propertyID),
		"check_in":    bson.M{"$lte": dr.CheckOut.UTC()},
		"check_out":   bson.M{"$gte": dr.CheckIn.UTC()},
	}
	return r.find(ctx, filter, nil)
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"guest_id": guestID}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *BookingRepository) ListByProperties(ctx context.Context, ids []domainproperty.ID, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make(bson.A, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	filter := bson.M{"property_id": bson.M{"$in": raw}}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statusValues(statuses)}
	}
	return r.find(ctx, filter, bson.D{{Key: "check_in", Value: 1}})
}

func (r *BookingRepository) ListByStatus(ctx context.Context, statuses ...domainbooking.Status) ([]*domainbooking.Booking, error) {
	filter := bson.M{}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statusValues(statuses)}
	}
	return r.find(ctx, filter, bson.D{{Key: "updated_at", Value: -1}})
}

func (r *BookingRepository) ListUnsettled(ctx context.Context, limit int) ([]*domainbooking.Booking, error) {
	filter := bson.M{"status": string(domainbooking.StatusCompleted), "settlement.done": false}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.findWith(ctx, filter, opts)
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*domainbooking.Booking, error) {
	opts := options.Find()
	if sort != nil {
		opts.SetSort(sort)
	}
	return r.findWith(ctx, filter, opts)
}

func (r *BookingRepository) findWith(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainbooking.Booking, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, storeErr("find bookings", err)
	}
	defer cur.Close(ctx)
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode bookings", err)
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func statusValues(statuses []domainbooking.Status) bson.A {
	out := make(bson.A, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

type bookingDocument struct {
	ID              string             `bson:"_id"`
	GuestID         string             `bson:"guest_id"`
	PropertyID      string             `bson:"property_id"`
	CheckIn         time.Time          `bson:"check_in"`
	CheckOut        time.Time          `bson:"check_out"`
	Guests          int                `bson:"guests"`
	Nights          int                `bson:"nights"`
	TotalPrice      moneyDocument      `bson:"total_price"`
	AmountPaid      moneyDocument      `bson:"amount_paid"`
	RemainingAmount moneyDocument      `bson:"remaining_amount"`
	PlatformShare   moneyDocument      `bson:"platform_share"`
	ManagerShare    moneyDocument      `bson:"manager_share"`
	Option          string             `bson:"payment_option"`
	Guest           guestDocument      `bson:"guest"`
	Payment         paymentDocument    `bson:"payment"`
	Status          string             `bson:"status"`
	CancellationID  string             `bson:"cancellation_id,omitempty"`
	Settlement      settlementDocument `bson:"settlement"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
	Version         int64              `bson:"version"`
}

type guestDocument struct {
	Name     string   `bson:"name"`
	Email    string   `bson:"email"`
	Phone    string   `bson:"phone"`
	IDType   string   `bson:"id_type"`
	IDPhotos []string `bson:"id_photos"`
}

type paymentDocument struct {
	Method        string    `bson:"method,omitempty"`
	TransactionID string    `bson:"transaction_id"`
	OrderID       string    `bson:"order_id,omitempty"`
	PaidAt        time.Time `bson:"paid_at,omitempty"`
}

type settlementDocument struct {
	DatesBlocked     bool `bson:"dates_blocked"`
	ManagerCredited  bool `bson:"manager_credited"`
	PlatformCredited bool `bson:"platform_credited"`
	Done             bool `bson:"done"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		GuestID:         b.GuestID,
		PropertyID:      string(b.PropertyID),
		CheckIn:         b.Range.CheckIn.UTC(),
		CheckOut:        b.Range.CheckOut.UTC(),
		Guests:          b.Guests,
		Nights:          b.Nights,
		TotalPrice:      newMoneyDocument(b.TotalPrice),
		AmountPaid:      newMoneyDocument(b.AmountPaid),
		RemainingAmount: newMoneyDocument(b.RemainingAmount),
		PlatformShare:   newMoneyDocument(b.Revenue.PlatformShare),
		ManagerShare:    newMoneyDocument(b.Revenue.ManagerShare),
		Option:          string(b.Option),
		Guest: guestDocument{
			Name:     b.Guest.Name,
			Email:    b.Guest.Email,
			Phone:    b.Guest.Phone,
			IDType:   string(b.Guest.IDType),
			IDPhotos: append([]string(nil), b.Guest.IDPhotos...),
		},
		Payment: paymentDocument{
			Method:        string(b.Payment.Method),
			TransactionID: b.Payment.TransactionID,
			OrderID:       b.Payment.OrderID,
			PaidAt:        utc(b.Payment.PaidAt),
		},
		Status:         string(b.Status),
		CancellationID: string(b.CancellationID),
		Settlement: settlementDocument{
			DatesBlocked:     b.Settlement.DatesBlocked,
			ManagerCredited:  b.Settlement.ManagerCredited,
			PlatformCredited: b.Settlement.PlatformCredited,
			Done:             b.Settlement.Done,
		},
		CreatedAt: b.CreatedAt.UTC(),
		UpdatedAt: b.UpdatedAt.UTC(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		GuestID:         d.GuestID,
		PropertyID:      domainproperty.ID(d.PropertyID),
		Range:           daterange.DateRange{CheckIn: d.CheckIn.UTC(), CheckOut: d.CheckOut.UTC()},
		Guests:          d.Guests,
		Nights:          d.Nights,
		TotalPrice:      d.TotalPrice.toMoney(),
		AmountPaid:      d.AmountPaid.toMoney(),
		RemainingAmount: d.RemainingAmount.toMoney(),
		Revenue: domainbooking.RevenueSplit{
			PlatformShare: d.PlatformShare.toMoney(),
			ManagerShare:  d.ManagerShare.toMoney(),
		},
		Option: domainbooking.PaymentOption(d.Option),
		Guest: domainbooking.GuestSnapshot{
			Name:     d.Guest.Name,
			Email:    d.Guest.Email,
			Phone:    d.Guest.Phone,
			IDType:   domainbooking.IDType(d.Guest.IDType),
			IDPhotos: d.Guest.IDPhotos,
		},
		Payment: domainbooking.Payment{
			Method:        domainbooking.PaymentMethod(d.Payment.Method),
			TransactionID: d.Payment.TransactionID,
			OrderID:       d.Payment.OrderID,
			PaidAt:        utc(d.Payment.PaidAt),
		},
		Status:         domainbooking.Status(d.Status),
		CancellationID: domainbooking.CancellationID(d.CancellationID),
		Settlement: domainbooking.Settlement{
			DatesBlocked:     d.Settlement.DatesBlocked,
			ManagerCredited:  d.Settlement.ManagerCredited,
			PlatformCredited: d.Settlement.PlatformCredited,
			Done:             d.Settlement.Done,
		},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
		Version:   d.Version,
	}
}
