package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/apperr"
	"hotelbook/internal/domain/shared/daterange"
	"hotelbook/internal/domain/shared/events"
	"hotelbook/internal/domain/shared/money"
)

var (
	ErrBookingNotFound      = apperr.New(apperr.KindNotFound, "booking: not found")
	ErrInvalidState         = apperr.New(apperr.KindConflict, "booking: invalid state transition")
	ErrConcurrentUpdate     = apperr.New(apperr.KindConflict, "booking: concurrent update")
	ErrPaymentMismatch      = apperr.New(apperr.KindConflict, "booking: already settled by a different payment")
	ErrNoCancellation       = apperr.New(apperr.KindConflict, "booking: no cancellation request linked")
	ErrInvalidGuests        = apperr.New(apperr.KindValidation, "booking: guests count must be positive")
	ErrInvalidTotal         = apperr.New(apperr.KindValidation, "booking: total price must be positive")
	ErrInvalidPaymentOption = apperr.New(apperr.KindValidation, "booking: payment option must be full or partial")
	ErrInvalidAmount        = apperr.New(apperr.KindValidation, "booking: amount must be positive")
	ErrGuestRequired        = apperr.New(apperr.KindValidation, "booking: guest id required")
	ErrPropertyRequired     = apperr.New(apperr.KindValidation, "booking: property id required")
)

type BookingID string

type Status string

const (
	StatusPending             Status = "Pending"
	StatusCompleted           Status = "Completed"
	StatusCancellationPending Status = "Cancellation_pending"
	StatusApproved            Status = "Approved"
	StatusRejected            Status = "Rejected"
	StatusCancelled           Status = "Cancelled"
)

type PaymentOption string

const (
	OptionFull    PaymentOption = "full"
	OptionPartial PaymentOption = "partial"
)

func ParsePaymentOption(v string) (PaymentOption, error) {
	switch PaymentOption(strings.ToLower(strings.TrimSpace(v))) {
	case OptionFull:
		return OptionFull, nil
	case OptionPartial:
		return OptionPartial, nil
	}
	return "", ErrInvalidPaymentOption
}

type PaymentMethod string

const (
	MethodGateway PaymentMethod = "gateway"
	MethodWallet  PaymentMethod = "wallet"
)

type IDType string

const (
	IDAadhar         IDType = "Aadhar"
	IDPassport       IDType = "Passport"
	IDDrivingLicense IDType = "Driving License"
)

// NoImageUploaded is stored when the guest did not attach an id photo.
const NoImageUploaded = "No image uploaded"

// GuestSnapshot is captured at creation and never changed afterwards.
type GuestSnapshot struct {
	Name     string
	Email    string
	Phone    string
	IDType   IDType
	IDPhotos []string
}

func (g GuestSnapshot) normalized() GuestSnapshot {
	switch g.IDType {
	case IDAadhar, IDPassport, IDDrivingLicense:
	default:
		g.IDType = IDAadhar
	}
	photos := make([]string, 0, len(g.IDPhotos))
	for _, p := range g.IDPhotos {
		if p = strings.TrimSpace(p); p != "" {
			photos = append(photos, p)
		}
	}
	if len(photos) == 0 {
		photos = []string{NoImageUploaded}
	}
	g.IDPhotos = photos
	return g
}

type Payment struct {
	Method        PaymentMethod
	TransactionID string
	OrderID       string
	PaidAt        time.Time
}

// Settlement tracks which side effects of a completed payment have been applied.
type Settlement struct {
	DatesBlocked     bool
	ManagerCredited  bool
	PlatformCredited bool
	Done             bool
}

type Booking struct {
	ID              BookingID
	GuestID         string
	PropertyID      property.ID
	Range           daterange.DateRange
	Guests          int
	Nights          int
	TotalPrice      money.Money
	AmountPaid      money.Money
	RemainingAmount money.Money
	Revenue         RevenueSplit
	Option          PaymentOption
	Guest           GuestSnapshot
	Payment         Payment
	Status          Status
	CancellationID  CancellationID
	Settlement      Settlement
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// ListOverlapping returns bookings of the property whose stay touches dr, whatever their status.
	ListOverlapping(ctx context.Context, propertyID property.ID, dr daterange.DateRange) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	// ListByProperties sorts by check-in ascending. No statuses means all.
	ListByProperties(ctx context.Context, ids []property.ID, statuses ...Status) ([]*Booking, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Booking, error)
	// ListUnsettled returns completed bookings whose settlement has not finished.
	ListUnsettled(ctx context.Context, limit int) ([]*Booking, error)
}

type CreateParams struct {
	ID            BookingID
	GuestID       string
	PropertyID    property.ID
	Range         daterange.DateRange
	Guests        int
	TotalPrice    money.Money
	Option        PaymentOption
	Guest         GuestSnapshot
	Policy        RevenuePolicy
	TransactionID string
	CreatedAt     time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if strings.TrimSpace(string(params.PropertyID)) == "" {
		return nil, ErrPropertyRequired
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if err := params.Range.Validate(); err != nil {
		return nil, apperr.Validation("new booking", err)
	}
	if params.TotalPrice.Amount <= 0 {
		return nil, ErrInvalidTotal
	}
	paid, remaining, err := params.Policy.Deposit(params.TotalPrice, params.Option)
	if err != nil {
		return nil, err
	}
	split, err := params.Policy.CommissionSplit(paid)
	if err != nil {
		return nil, apperr.Validation("new booking", err)
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		GuestID:         params.GuestID,
		PropertyID:      params.PropertyID,
		Range:           params.Range,
		Guests:          params.Guests,
		Nights:          params.Range.Nights(),
		TotalPrice:      params.TotalPrice,
		AmountPaid:      paid,
		RemainingAmount: remaining,
		Revenue:         split,
		Option:          params.Option,
		Guest:           params.Guest.normalized(),
		Payment:         Payment{TransactionID: params.TransactionID},
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingCreated{
		Header:     events.NewHeader(EventBookingCreated, string(b.ID), now),
		GuestID:    b.GuestID,
		PropertyID: string(b.PropertyID),
		CheckIn:    b.Range.CheckIn,
		CheckOut:   b.Range.CheckOut,
		Total:      b.TotalPrice,
		AmountPaid: b.AmountPaid,
		Option:     b.Option,
	})
	return b, nil
}

// AttachOrder stores the gateway order opened for the pending payment.
func (b *Booking) AttachOrder(orderID string, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Payment.OrderID = orderID
	b.UpdatedAt = now.UTC()
	b.Record(PaymentOrderOpened{
		Header:  events.NewHeader(EventPaymentOrderOpened, string(b.ID), b.UpdatedAt),
		OrderID: orderID,
		Amount:  b.AmountPaid,
	})
	return nil
}

// SettleGateway completes the booking with a verified gateway payment. A repeat
// with the same payment id reports already=true and changes nothing.
func (b *Booking) SettleGateway(paymentID string, policy RevenuePolicy, now time.Time) (already bool, err error) {
	if b.Payment.Method == MethodGateway && b.Payment.TransactionID == paymentID {
		return true, nil
	}
	if b.Status == StatusCompleted {
		return false, ErrPaymentMismatch
	}
	if b.Status != StatusPending {
		return false, ErrInvalidState
	}
	split, err := policy.SettlementSplit(b.AmountPaid)
	if err != nil {
		return false, err
	}
	b.complete(MethodGateway, paymentID, split, now)
	return false, nil
}

// SettleWallet completes the booking with a wallet debit of amount.
func (b *Booking) SettleWallet(transactionID string, amount money.Money, policy RevenuePolicy, now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	if amount.Amount <= 0 {
		return ErrInvalidAmount
	}
	split, err := policy.CommissionSplit(amount)
	if err != nil {
		return err
	}
	b.AmountPaid = amount
	b.RemainingAmount = money.Zero(amount.Currency)
	b.complete(MethodWallet, transactionID, split, now)
	return nil
}

func (b *Booking) complete(method PaymentMethod, transactionID string, split RevenueSplit, now time.Time) {
	at := now.UTC()
	b.Status = StatusCompleted
	b.Revenue = split
	b.Payment.Method = method
	b.Payment.TransactionID = transactionID
	b.Payment.PaidAt = at
	b.Settlement = Settlement{}
	b.UpdatedAt = at
	b.Record(PaymentSettled{
		Header:        events.NewHeader(EventPaymentSettled, string(b.ID), at),
		PropertyID:    string(b.PropertyID),
		Method:        method,
		TransactionID: transactionID,
		AmountPaid:    b.AmountPaid,
		PlatformShare: split.PlatformShare,
		ManagerShare:  split.ManagerShare,
	})
}

// SettlementPending reports a completed booking whose side effects are not all applied.
func (b *Booking) SettlementPending() bool {
	return b.Status == StatusCompleted && !b.Settlement.Done
}

func (b *Booking) MarkDatesBlocked() {
	b.Settlement.DatesBlocked = true
	b.refreshSettlement()
}

func (b *Booking) MarkManagerCredited() {
	b.Settlement.ManagerCredited = true
	b.refreshSettlement()
}

func (b *Booking) MarkPlatformCredited() {
	b.Settlement.PlatformCredited = true
	b.refreshSettlement()
}

// Paid reports whether a gateway or wallet payment settled the booking.
func (b *Booking) Paid() bool {
	return b.Payment.Method != "" && !b.Payment.PaidAt.IsZero()
}

// NeedsPlatformCredit is true for wallet payments, where the platform wallet
// receives its commission directly.
func (b *Booking) NeedsPlatformCredit() bool {
	return b.Payment.Method == MethodWallet
}

func (b *Booking) refreshSettlement() {
	s := b.Settlement
	s.Done = s.DatesBlocked && s.ManagerCredited && (s.PlatformCredited || !b.NeedsPlatformCredit())
	b.Settlement = s
}

// RequestCancellation links a pending cancellation request.
func (b *Booking) RequestCancellation(id CancellationID, now time.Time) error {
	if b.Status != StatusPending && b.Status != StatusCompleted {
		return ErrInvalidState
	}
	b.CancellationID = id
	b.Status = StatusCancellationPending
	b.UpdatedAt = now.UTC()
	return nil
}

func (b *Booking) ApproveCancellation(now time.Time) error {
	if err := b.requireCancellationPending(); err != nil {
		return err
	}
	b.Status = StatusApproved
	b.UpdatedAt = now.UTC()
	return nil
}

func (b *Booking) RejectCancellation(now time.Time) error {
	if err := b.requireCancellationPending(); err != nil {
		return err
	}
	b.Status = StatusRejected
	b.UpdatedAt = now.UTC()
	return nil
}

func (b *Booking) requireCancellationPending() error {
	if b.CancellationID == "" {
		return ErrNoCancellation
	}
	if b.Status != StatusCancellationPending {
		return ErrInvalidState
	}
	return nil
}

// Clone copies the booking without its pending events.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Recorder = events.Recorder{}
	cp.Guest.IDPhotos = append([]string(nil), b.Guest.IDPhotos...)
	return &cp
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookingNotFound)
}
