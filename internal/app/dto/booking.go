package dto

import (
	"time"

	domainbooking "hotelbook/internal/domain/booking"
	domainproperty "hotelbook/internal/domain/property"
	"hotelbook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type PropertySnapshot struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

type RevenueDTO struct {
	PlatformShare MoneyDTO `json:"platform_share"`
	ManagerShare  MoneyDTO `json:"manager_share"`
}

type GuestDetailsDTO struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	IDType   string   `json:"id_type"`
	IDPhotos []string `json:"id_photos"`
}

type PaymentDTO struct {
	Method        string     `json:"method,omitempty"`
	TransactionID string     `json:"transaction_id"`
	OrderID       string     `json:"order_id,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

type SettlementDTO struct {
	DatesBlocked     bool `json:"dates_blocked"`
	ManagerCredited  bool `json:"manager_credited"`
	PlatformCredited bool `json:"platform_credited"`
	Done             bool `json:"done"`
}

type BookingDTO struct {
	ID              string           `json:"id"`
	GuestID         string           `json:"guest_id"`
	Property        PropertySnapshot `json:"property"`
	CheckIn         time.Time        `json:"check_in"`
	CheckOut        time.Time        `json:"check_out"`
	Guests          int              `json:"guests"`
	Nights          int              `json:"nights"`
	TotalPrice      MoneyDTO         `json:"total_price"`
	AmountPaid      MoneyDTO         `json:"amount_paid"`
	RemainingAmount MoneyDTO         `json:"remaining_amount"`
	Revenue         RevenueDTO       `json:"revenue"`
	PaymentOption   string           `json:"payment_option"`
	Guest           GuestDetailsDTO  `json:"guest"`
	Payment         PaymentDTO       `json:"payment"`
	Status          string           `json:"status"`
	CancellationID  string           `json:"cancellation_id,omitempty"`
	Settlement      SettlementDTO    `json:"settlement"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

type BookingCollection struct {
	Items []BookingDTO `json:"items"`
}

type CancellationDTO struct {
	ID           string     `json:"id"`
	BookingID    string     `json:"booking_id"`
	Reason       string     `json:"reason"`
	Status       string     `json:"status"`
	RefundAmount *MoneyDTO  `json:"refund_amount,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
}

type CancellationCollection struct {
	Items []CancellationDTO `json:"items"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   value.Amount,
		Currency: value.Currency,
	}
}

func MapPropertySnapshot(id domainproperty.ID, prop *domainproperty.Property) PropertySnapshot {
	snapshot := PropertySnapshot{ID: string(id)}
	if prop != nil {
		snapshot.Name = prop.Name
		snapshot.City = prop.Address.City
		snapshot.State = prop.Address.State
		snapshot.Country = prop.Address.Country
	}
	return snapshot
}

// MapBooking renders a booking; prop may be nil when the property is gone.
func MapBooking(b *domainbooking.Booking, prop *domainproperty.Property) BookingDTO {
	out := BookingDTO{
		ID:              string(b.ID),
		GuestID:         b.GuestID,
		Property:        MapPropertySnapshot(b.PropertyID, prop),
		CheckIn:         b.Range.CheckIn,
		CheckOut:        b.Range.CheckOut,
		Guests:          b.Guests,
		Nights:          b.Nights,
		TotalPrice:      MapMoney(b.TotalPrice),
		AmountPaid:      MapMoney(b.AmountPaid),
		RemainingAmount: MapMoney(b.RemainingAmount),
		Revenue: RevenueDTO{
			PlatformShare: MapMoney(b.Revenue.PlatformShare),
			ManagerShare:  MapMoney(b.Revenue.ManagerShare),
		},
		PaymentOption: string(b.Option),
		Guest: GuestDetailsDTO{
			Name:     b.Guest.Name,
			Email:    b.Guest.Email,
			Phone:    b.Guest.Phone,
			IDType:   string(b.Guest.IDType),
			IDPhotos: append([]string(nil), b.Guest.IDPhotos...),
		},
		Payment: PaymentDTO{
			Method:        string(b.Payment.Method),
			TransactionID: b.Payment.TransactionID,
			OrderID:       b.Payment.OrderID,
		},
		Status:         string(b.Status),
		CancellationID: string(b.CancellationID),
		Settlement: SettlementDTO{
			DatesBlocked:     b.Settlement.DatesBlocked,
			ManagerCredited:  b.Settlement.ManagerCredited,
			PlatformCredited: b.Settlement.PlatformCredited,
			Done:             b.Settlement.Done,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if !b.Payment.PaidAt.IsZero() {
		paidAt := b.Payment.PaidAt
		out.Payment.PaidAt = &paidAt
	}
	return out
}

func MapCancellation(c *domainbooking.Cancellation) CancellationDTO {
	out := CancellationDTO{
		ID:        string(c.ID),
		BookingID: string(c.BookingID),
		Reason:    c.Reason,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
	}
	if c.Status == domainbooking.CancellationApproved {
		refund := MapMoney(c.RefundAmount)
		out.RefundAmount = &refund
	}
	if !c.DecidedAt.IsZero() {
		decided := c.DecidedAt
		out.DecidedAt = &decided
	}
	return out
}
